package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/AnshRaj112/wellnest-backend/internal/models"
	"github.com/AnshRaj112/wellnest-backend/internal/services"
	"github.com/AnshRaj112/wellnest-backend/internal/validation"
	"github.com/AnshRaj112/wellnest-backend/pkg/utils"
	"github.com/go-chi/chi/v5"
)

type AddReminderRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Medicine string `json:"medicine" validate:"required,max=200"`
	Dosage   string `json:"dosage" validate:"max=200"`
	Time     string `json:"time" validate:"required,hhmm"`
	Repeat   string `json:"repeat" validate:"max=50"`
	Status   string `json:"status" validate:"max=50"`
}

type AddReminderResponse struct {
	Message  string           `json:"message"`
	Reminder *models.Reminder `json:"reminder"`
}

type GetRemindersRequest struct {
	Email string `json:"email"`
}

type GetRemindersResponse struct {
	Active  []models.Reminder `json:"active"`
	History []models.Reminder `json:"history"`
}

type MarkTakenRequest struct {
	ID string `json:"id"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CheckRemindersResponse struct {
	Message string `json:"message"`
	Now     string `json:"now,omitempty"`
	Checked int    `json:"checked"`
	Matched int    `json:"matched"`
	Skipped bool   `json:"skipped,omitempty"`
}

func remindersUnavailable(w http.ResponseWriter) bool {
	if reminderStore == nil {
		writeJSON(w, http.StatusServiceUnavailable, reminderError{Error: "Reminder service unavailable"})
		return true
	}
	return false
}

// AddReminder stores a reminder; status defaults to Active and repeat to daily.
func AddReminder(w http.ResponseWriter, r *http.Request) {
	if remindersUnavailable(w) {
		return
	}

	var req AddReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, reminderError{Error: "Invalid request body"})
		return
	}
	req.Email = utils.NormalizeEmail(req.Email)
	req.Medicine = strings.TrimSpace(req.Medicine)
	req.Time = strings.TrimSpace(req.Time)
	if err := validation.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, reminderError{Error: "Invalid reminder"})
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	saved, err := reminderStore.Create(ctx, &models.Reminder{
		OwnerEmail: req.Email,
		Medicine:   req.Medicine,
		Dosage:     strings.TrimSpace(req.Dosage),
		TimeOfDay:  req.Time,
		RepeatRule: strings.TrimSpace(req.Repeat),
		Status:     strings.TrimSpace(req.Status),
	})
	if err != nil {
		logFailure(r, err, "failed to add reminder")
		writeJSON(w, statusFor(err), reminderError{Error: "Failed to add reminder"})
		return
	}

	writeJSON(w, http.StatusCreated, AddReminderResponse{Message: "Reminder added successfully", Reminder: saved})
}

// GetReminders lists the owner's reminders split into active and history.
func GetReminders(w http.ResponseWriter, r *http.Request) {
	if remindersUnavailable(w) {
		return
	}

	var req GetRemindersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, reminderError{Error: "Invalid request body"})
		return
	}
	email := utils.NormalizeEmail(req.Email)
	if email == "" {
		writeJSON(w, http.StatusBadRequest, reminderError{Error: "email is required"})
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	all, err := reminderStore.ListByOwner(ctx, email)
	if err != nil {
		logFailure(r, err, "failed to list reminders")
		writeJSON(w, statusFor(err), reminderError{Error: "Failed to fetch reminders"})
		return
	}

	active, history := services.SplitReminders(all)
	writeJSON(w, http.StatusOK, GetRemindersResponse{Active: active, History: history})
}

// MarkTaken sets a reminder's status to Taken. Unknown ids succeed.
func MarkTaken(w http.ResponseWriter, r *http.Request) {
	if remindersUnavailable(w) {
		return
	}

	var req MarkTakenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, reminderError{Error: "Invalid request body"})
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := reminderStore.MarkTaken(ctx, strings.TrimSpace(req.ID)); err != nil {
		logFailure(r, err, "failed to mark reminder taken")
		writeJSON(w, statusFor(err), reminderError{Error: "Failed to update reminder"})
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Marked as taken"})
}

// DeleteReminder removes a reminder by id. Unknown ids succeed.
func DeleteReminder(w http.ResponseWriter, r *http.Request) {
	if remindersUnavailable(w) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := reminderStore.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		logFailure(r, err, "failed to delete reminder")
		writeJSON(w, statusFor(err), reminderError{Error: "Failed to delete reminder"})
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Reminder deleted"})
}

// CheckReminders runs one dispatch pass now, for external schedulers.
func CheckReminders(w http.ResponseWriter, r *http.Request) {
	if reminderChecker == nil {
		writeJSON(w, http.StatusServiceUnavailable, reminderError{Error: "Reminder service unavailable"})
		return
	}

	// the pass outlives a caller that disconnects; sends already queued must finish
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), manualCheckTimeout)
	defer cancel()

	result, err := reminderChecker.CheckNow(ctx)
	if err != nil {
		logFailure(r, err, "manual reminder check failed")
		writeJSON(w, http.StatusInternalServerError, reminderError{Error: "Reminder check failed"})
		return
	}

	msg := "Reminder check complete"
	if result.Skipped {
		msg = "Reminder check already running"
	}
	writeJSON(w, http.StatusOK, CheckRemindersResponse{
		Message: msg,
		Now:     result.Now,
		Checked: result.Checked,
		Matched: result.Matched,
		Skipped: result.Skipped,
	})
}
