package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // reminder timezone must not depend on the host's zoneinfo

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	MongoURI            string `env:"MONGODB_URI,MONGO_URI" env-default:"mongodb://localhost:27017/wellnest"`
	PostgresURI         string `env:"POSTGRES_URI" env-default:"postgres://localhost:5432/wellnest?sslmode=disable"`
	RedisURI            string `env:"REDIS_URI" env-default:"redis://localhost:6379/0"`
	EncryptionKey       string `env:"ENCRYPTION_KEY"`
	Port                string `env:"PORT" env-default:"5000"`
	FrontendURL         string `env:"FRONTEND_URL" env-default:"http://localhost:5173"`
	RawAllowedOrigins   string `env:"ALLOWED_ORIGINS" env-default:"https://well-nest-ten.vercel.app,http://localhost:5173"`
	AllowedOrigins      []string
	CloudinaryName      string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`
	Environment         string `env:"ENV" env-default:"development"` // production, development, etc.

	Email    EmailConfig
	Reminder ReminderConfig
	Log      LogConfig
}

// EmailConfig selects the outbound transport. EMAIL_USER / EMAIL_PASS are the single
// sending account (a Gmail app password in the default setup).
type EmailConfig struct {
	Provider       string `env:"EMAIL_PROVIDER" env-default:"smtp"` // smtp, sendgrid or log
	User           string `env:"EMAIL_USER"`
	Password       string `env:"EMAIL_PASS"`
	FromName       string `env:"EMAIL_FROM_NAME" env-default:"WellNest"`
	SMTPHost       string `env:"EMAIL_SMTP_HOST" env-default:"smtp.gmail.com"`
	SMTPPort       int    `env:"EMAIL_SMTP_PORT" env-default:"587"`
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	SendGridFrom   string `env:"SENDGRID_NOTIFICATIONS_FROM_EMAIL"`
}

type ReminderConfig struct {
	Timezone      string        `env:"REMINDER_TIMEZONE" env-default:"Asia/Kolkata"`
	CheckInterval time.Duration `env:"REMINDER_CHECK_INTERVAL" env-default:"1m"`
	// SchedulerEnabled=false leaves dispatching to an external caller of /api/reminders/check-reminders.
	SchedulerEnabled bool `env:"REMINDER_SCHEDULER_ENABLED" env-default:"true"`
	Dedupe           bool `env:"REMINDER_DEDUPE" env-default:"false"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"`
}

// Load reads the environment (after godotenv has populated it) into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	cfg.Email.Provider = strings.ToLower(strings.TrimSpace(cfg.Email.Provider))

	cfg.AllowedOrigins = parseOrigins(cfg.RawAllowedOrigins)
	if u := strings.TrimSpace(cfg.FrontendURL); u != "" && !containsOrigin(cfg.AllowedOrigins, u) {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, u)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks the values that would otherwise only fail once the dispatcher runs.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Reminder.Timezone); err != nil {
		return fmt.Errorf("REMINDER_TIMEZONE %q: %w", c.Reminder.Timezone, err)
	}
	if c.Reminder.CheckInterval < time.Second {
		return fmt.Errorf("REMINDER_CHECK_INTERVAL must be at least 1s, got %s", c.Reminder.CheckInterval)
	}
	switch c.Email.Provider {
	case "smtp", "log":
	case "sendgrid":
		if c.Email.SendGridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required when EMAIL_PROVIDER=sendgrid")
		}
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.Email.Provider)
	}
	return nil
}

// Location returns the zone reminder times are interpreted in. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Reminder.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}
