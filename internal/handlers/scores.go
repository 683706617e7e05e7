package handlers

import (
	"net/http"
	"strings"

	"github.com/AnshRaj112/wellnest-backend/internal/models"
	"github.com/AnshRaj112/wellnest-backend/internal/validation"
	"github.com/AnshRaj112/wellnest-backend/pkg/utils"
)

type UserScoresRequest struct {
	Email string `json:"email"`
}

type AddScoreRequest struct {
	Email    string `json:"email" validate:"required,email"`
	TestType string `json:"testType" validate:"required,oneof=depression anxiety ocd wellness"`
	Score    *int   `json:"score" validate:"required,gte=0,lte=100"`
}

type AddScoreResponse struct {
	Success bool                    `json:"success"`
	Score   *models.AssessmentScore `json:"score"`
}

// GetUserScores returns the dashboard series. 404 means the user has no scores yet.
func GetUserScores(w http.ResponseWriter, r *http.Request) {
	if scoreStore == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Message: "Score service unavailable"})
		return
	}

	var req UserScoresRequest
	if err := decodeJSON(r, &req); err != nil || utils.NormalizeEmail(req.Email) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "email is required"})
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	summary, err := scoreStore.ListByOwner(ctx, utils.NormalizeEmail(req.Email))
	if err != nil {
		logFailure(r, err, "failed to load user scores")
		writeJSON(w, statusFor(err), ErrorResponse{Message: "Failed to fetch scores"})
		return
	}
	if summary.Empty() {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Message: "No scores found"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// AddUserScore records one assessment result.
func AddUserScore(w http.ResponseWriter, r *http.Request) {
	if scoreStore == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Message: "Score service unavailable"})
		return
	}

	var req AddScoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
		return
	}
	req.Email = utils.NormalizeEmail(req.Email)
	req.TestType = strings.ToLower(strings.TrimSpace(req.TestType))
	if err := validation.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	saved, err := scoreStore.Add(ctx, req.Email, req.TestType, *req.Score)
	if err != nil {
		logFailure(r, err, "failed to save score")
		writeJSON(w, statusFor(err), ErrorResponse{Message: "Failed to save score"})
		return
	}
	writeJSON(w, http.StatusCreated, AddScoreResponse{Success: true, Score: saved})
}
