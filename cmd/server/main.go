package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AnshRaj112/wellnest-backend/internal/config"
	"github.com/AnshRaj112/wellnest-backend/internal/database"
	"github.com/AnshRaj112/wellnest-backend/internal/handlers"
	"github.com/AnshRaj112/wellnest-backend/internal/logging"
	"github.com/AnshRaj112/wellnest-backend/internal/middleware"
	"github.com/AnshRaj112/wellnest-backend/internal/routes"
	"github.com/AnshRaj112/wellnest-backend/internal/services"
	"github.com/AnshRaj112/wellnest-backend/internal/supervisor"
	"github.com/AnshRaj112/wellnest-backend/pkg/utils"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logging.Info().Msg("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// MongoDB holds journals and reminders and is required
	if err := database.Connect(cfg.MongoURI); err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer database.Disconnect()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 10*time.Second)
	if err := services.EnsureIndexes(indexCtx, database.DB); err != nil {
		logging.Warn().Err(err).Msg("⚠️  failed to ensure MongoDB indexes")
	} else {
		logging.Info().Msg("✅ MongoDB indexes ensured")
	}
	cancelIndex()

	// Redis and PostgreSQL back optional features; the service runs without them
	redisUp := false
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		logging.Warn().Err(err).Msg("⚠️  Redis unavailable: journal cache, reminder de-duplication and rate limiting disabled")
	} else {
		redisUp = true
		defer database.DisconnectRedis()
	}

	var scoreStore services.ScoreStore
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		logging.Warn().Err(err).Msg("⚠️  PostgreSQL unavailable: assessment scores disabled")
	} else {
		scoreStore = services.NewPostgresScoreStore(database.PostgresDB)
		defer database.DisconnectPostgres()
	}

	// Journal store: encryption at rest and Redis list cache
	var journalOpts []services.JournalStoreOption
	if cfg.EncryptionKey == "" {
		logging.Warn().Msg("⚠️  ENCRYPTION_KEY not set. Journal content will be stored in plain text. Generate one with: openssl rand -base64 32")
	} else {
		cipher, err := utils.NewContentCipher(cfg.EncryptionKey)
		if err != nil {
			logging.Fatal().Err(err).Msg("ENCRYPTION_KEY is invalid (must be base64-encoded 32 bytes)")
		}
		journalOpts = append(journalOpts, services.WithContentCipher(cipher))
		logging.Info().Msg("✅ Journal encryption configured")
	}
	if redisUp {
		journalOpts = append(journalOpts, services.WithJournalCache(services.NewRedisJournalCache(database.RedisClient)))
	}
	journalStore := services.NewMongoJournalStore(database.DB, journalOpts...)
	reminderStore := services.NewMongoReminderStore(database.DB)

	// Reminder dispatch: email transport behind the sender, plus the in-app feed
	sender := services.NewNotificationSender(services.NewTransport(cfg.Email))
	hub := services.NewReminderHub()
	dispatchOpts := []services.DispatcherOption{services.WithInAppPublisher(hub)}
	if cfg.Reminder.Dedupe {
		if redisUp {
			dispatchOpts = append(dispatchOpts, services.WithSentMarker(services.NewRedisSentMarker(database.RedisClient)))
			logging.Info().Msg("✅ Reminder de-duplication enabled")
		} else {
			logging.Warn().Msg("⚠️  REMINDER_DEDUPE set but Redis is unavailable; reminders are not de-duplicated")
		}
	}
	dispatcher := services.NewDispatcher(reminderStore, sender, cfg.Location(), cfg.Reminder.CheckInterval, dispatchOpts...)

	var uploader services.Uploader
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to initialize Cloudinary. File uploads will not be available")
		} else {
			uploader = cld
			logging.Info().Msg("✅ Cloudinary service initialized")
		}
	} else {
		logging.Info().Msg("Cloudinary credentials not found. File uploads will not be available")
	}

	handlers.Init(handlers.Dependencies{
		Journals:       journalStore,
		Reminders:      reminderStore,
		Scores:         scoreStore,
		Checker:        dispatcher,
		Hub:            hub,
		Uploader:       uploader,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Observe)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health and metrics (no rate limit)
	routes.SetupOpsRoutes(r)

	r.Group(func(r chi.Router) {
		// Production: SecurityHeaders → GlobalRateLimit → WriteRateLimit
		// Non-production: Redis-based rate limit only
		if cfg.IsProduction() {
			r.Use(middleware.ProductionSecurity()...)
		} else if redisUp {
			r.Use(middleware.RedisRateLimit(database.RedisClient))
		}
		routes.SetupRoutes(r)
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(supervisor.NewHTTPServerService(server, 10*time.Second))
	if cfg.Reminder.SchedulerEnabled {
		tree.AddSchedulerService(dispatcher)
	} else {
		logging.Info().Msg("In-process reminder scheduler disabled; use GET /api/reminders/check-reminders")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("🚀 WellNest backend running")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("supervisor stopped unexpectedly")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		logging.Warn().Int("count", len(report)).Msg("services did not stop within the shutdown timeout")
	}
	logging.Info().Msg("Server stopped")
}
