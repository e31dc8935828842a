// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAvatar is assigned to users that never uploaded one.
const DefaultAvatar = "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcRtRs_rWILOMx5-v3aXwJu7LWUhnPceiKvvDg&s"

// EmailConfig selects and configures the outbound mail provider.
type EmailConfig struct {
	Provider     string // postmark, sendgrid, resend or log
	APIToken     string
	Sender       string
	AdminAddress string
}

// Config holds everything main needs to wire the server.
type Config struct {
	Port             string
	StoreDriver      string // mongo or memory
	MongoURI         string
	MongoDatabase    string
	JWTSecret        string
	TokenTTL         time.Duration
	AdminEmails      []string
	Email            EmailConfig
	RedisURL         string
	NatsURL          string
	LogLevel         string
	LogFormat        string
	RequestTimeout   time.Duration
	CORSOrigins      []string
	FeedbackRedirect string
	DefaultAvatar    string
}

// Load reads an optional .env file and then the process environment.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	cfg := &Config{
		Port:           GetEnvAsString("PORT", "8000"),
		StoreDriver:    strings.ToLower(GetEnvAsString("STORE_DRIVER", "mongo")),
		MongoURI:       GetEnvAsString("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  GetEnvAsString("MONGO_DATABASE", "petopia"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenTTL:       GetEnvAsDuration("TOKEN_TTL", 7*24*time.Hour),
		AdminEmails:    GetEnvAsList("ADMIN_EMAILS"),
		RedisURL:       os.Getenv("REDIS_URL"),
		NatsURL:        os.Getenv("NATS_URL"),
		LogLevel:       GetEnvAsString("LOG_LEVEL", "info"),
		LogFormat:      GetEnvAsString("LOG_FORMAT", "json"),
		RequestTimeout: GetEnvAsDuration("REQUEST_TIMEOUT", 5*time.Second),
		CORSOrigins:    GetEnvAsList("CORS_ORIGINS"),
		Email: EmailConfig{
			Provider:     strings.ToLower(GetEnvAsString("EMAIL_PROVIDER", "log")),
			APIToken:     os.Getenv("EMAIL_API_TOKEN"),
			Sender:       GetEnvAsString("EMAIL_SENDER", "no-reply@petopia.care"),
			AdminAddress: os.Getenv("ADMIN_EMAIL"),
		},
		FeedbackRedirect: GetEnvAsString("FEEDBACK_REDIRECT", "/homepage.html"),
		DefaultAvatar:    GetEnvAsString("DEFAULT_AVATAR", DefaultAvatar),
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	return cfg, dotenv, cfg.Validate()
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	switch c.StoreDriver {
	case "mongo", "memory":
	default:
		return errors.New("STORE_DRIVER must be mongo or memory")
	}
	switch c.Email.Provider {
	case "log":
	case "postmark", "sendgrid", "resend":
		if c.Email.APIToken == "" {
			return errors.New("EMAIL_API_TOKEN is required for provider " + c.Email.Provider)
		}
	default:
		return errors.New("unknown EMAIL_PROVIDER " + c.Email.Provider)
	}
	return nil
}

// IsAdminEmail reports whether email was listed in ADMIN_EMAILS.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// GetEnvAsString gets environment variable as string with default value
func GetEnvAsString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvAsDuration gets environment variable as duration with default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetEnvAsList splits a comma separated variable, dropping empty entries.
func GetEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
