package handlers

import (
	"net/http"
	"strings"

	"github.com/AnshRaj112/wellnest-backend/internal/models"
	"github.com/AnshRaj112/wellnest-backend/internal/validation"
	"github.com/AnshRaj112/wellnest-backend/pkg/utils"
	"github.com/go-chi/chi/v5"
)

// AddJournalRequest accepts the owner as ownerEmail or the older userEmail.
type AddJournalRequest struct {
	OwnerEmail string `json:"ownerEmail"`
	UserEmail  string `json:"userEmail"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Mood       string `json:"mood"`
	ImageURL   string `json:"imageUrl"`
}

type journalInput struct {
	OwnerEmail string `json:"ownerEmail" validate:"required,email"`
	Title      string `json:"title" validate:"required,max=200"`
	Content    string `json:"content" validate:"required"`
	Mood       string `json:"mood" validate:"max=50"`
	ImageURL   string `json:"imageUrl" validate:"omitempty,url"`
}

type AddJournalResponse struct {
	Success bool            `json:"success"`
	Journal *models.Journal `json:"journal"`
}

// AddJournal creates a journal entry for the owner email in the body.
func AddJournal(w http.ResponseWriter, r *http.Request) {
	if journalStore == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Message: "Journal service unavailable"})
		return
	}

	var req AddJournalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
		return
	}

	owner := req.OwnerEmail
	if owner == "" {
		owner = req.UserEmail
	}
	in := journalInput{
		OwnerEmail: utils.NormalizeEmail(owner),
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
		Mood:       strings.TrimSpace(req.Mood),
		ImageURL:   strings.TrimSpace(req.ImageURL),
	}
	if strings.TrimSpace(in.Content) == "" {
		in.Content = ""
	}
	if err := validation.Struct(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Failed to save entry"})
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	saved, err := journalStore.Create(ctx, &models.Journal{
		OwnerEmail: in.OwnerEmail,
		Title:      in.Title,
		Content:    in.Content,
		Mood:       in.Mood,
		ImageURL:   in.ImageURL,
	})
	if err != nil {
		logFailure(r, err, "failed to save journal entry")
		writeJSON(w, statusFor(err), ErrorResponse{Message: "Failed to save entry"})
		return
	}

	writeJSON(w, http.StatusOK, AddJournalResponse{Success: true, Journal: saved})
}

// GetJournals returns the owner's entries newest first as a bare array.
func GetJournals(w http.ResponseWriter, r *http.Request) {
	if journalStore == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Message: "Journal service unavailable"})
		return
	}

	owner := utils.NormalizeEmail(chi.URLParam(r, "ownerEmail"))
	if owner == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Failed to fetch entries"})
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	entries, err := journalStore.ListByOwner(ctx, owner)
	if err != nil {
		logFailure(r, err, "failed to fetch journal entries")
		writeJSON(w, statusFor(err), ErrorResponse{Message: "Failed to fetch entries"})
		return
	}
	if entries == nil {
		entries = []models.Journal{}
	}
	writeJSON(w, http.StatusOK, entries)
}
