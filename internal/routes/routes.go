package routes

import (
	"github.com/AnshRaj112/wellnest-backend/internal/handlers"
	"github.com/AnshRaj112/wellnest-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers the API. Paths match the web client.
func SetupRoutes(r chi.Router) {
	// Journaling routes
	r.Post("/api/journal/add", handlers.AddJournal)
	r.Get("/api/journal/{ownerEmail}", handlers.GetJournals)

	// Medicine reminder routes
	r.Route("/api/reminders", func(r chi.Router) {
		r.Post("/add-reminder", handlers.AddReminder)
		r.Post("/get-reminders", handlers.GetReminders)
		r.Post("/mark-taken", handlers.MarkTaken)
		r.Delete("/delete-reminder/{id}", handlers.DeleteReminder)
		r.With(middleware.CheckRemindersRateLimit()).Get("/check-reminders", handlers.CheckReminders)
	})

	// Assessment score routes (dashboard charts)
	r.Post("/api/user-scores", handlers.GetUserScores)
	r.Post("/api/user-scores/add", handlers.AddUserScore)

	// Journal image uploads
	r.Post("/api/upload", handlers.UploadFile)

	// In-app reminder feed
	r.Get("/ws/reminders", handlers.ReminderWebSocket)
}

// SetupOpsRoutes registers health and metrics, which skip rate limiting.
func SetupOpsRoutes(r chi.Router) {
	r.Get("/health", handlers.Health)
	r.Method("GET", "/metrics", promhttp.Handler())
}
