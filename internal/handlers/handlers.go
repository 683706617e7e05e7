package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/AnshRaj112/wellnest-backend/internal/logging"
	"github.com/AnshRaj112/wellnest-backend/internal/services"
	"github.com/goccy/go-json"
)

const (
	requestTimeout = 5 * time.Second
	// manualCheckTimeout bounds a triggered dispatch pass, which may send many emails.
	manualCheckTimeout = 5 * time.Minute
)

// ReminderChecker runs one dispatch pass on demand. *services.Dispatcher implements it.
type ReminderChecker interface {
	CheckNow(ctx context.Context) (services.DispatchResult, error)
}

// Dependencies are the services handlers delegate to. Nil members disable the
// routes that need them (503).
type Dependencies struct {
	Journals  services.JournalStore
	Reminders services.ReminderStore
	Scores    services.ScoreStore
	Checker   ReminderChecker
	Hub       *services.ReminderHub
	Uploader  services.Uploader
	// AllowedOrigins gates websocket upgrades; empty allows any origin.
	AllowedOrigins []string
}

var (
	journalStore    services.JournalStore
	reminderStore   services.ReminderStore
	scoreStore      services.ScoreStore
	reminderChecker ReminderChecker
	reminderHub     *services.ReminderHub
	uploader        services.Uploader
	allowedOrigins  []string
)

// Init wires the handler package. Called once from main before serving.
func Init(deps Dependencies) {
	journalStore = deps.Journals
	reminderStore = deps.Reminders
	scoreStore = deps.Scores
	reminderChecker = deps.Checker
	reminderHub = deps.Hub
	uploader = deps.Uploader
	allowedOrigins = deps.AllowedOrigins
}

// requestContext bounds store calls the way every handler does.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// ErrorResponse is the journal and upload error envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// reminderError is the reminder routes' error envelope ({"error": "..."}).
type reminderError struct {
	Error string `json:"error"`
}

// statusFor maps the service error taxonomy to a status code. Anything
// unrecognised is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// logFailure records the raw error server-side; clients only get a fixed message.
func logFailure(r *http.Request, err error, msg string) {
	logging.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg(msg)
}
