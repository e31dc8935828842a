package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("EMAIL_PROVIDER", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg, _, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "log", cfg.Email.Provider)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, DefaultAvatar, cfg.DefaultAvatar)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("REQUEST_TIMEOUT", "not-a-duration")
	t.Setenv("ADMIN_EMAILS", " root@petopia.care, ,ops@petopia.care")

	cfg, _, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"root@petopia.care", "ops@petopia.care"}, cfg.AdminEmails)
	assert.True(t, cfg.IsAdminEmail("ROOT@petopia.care"))
	assert.False(t, cfg.IsAdminEmail("alice@petopia.care"))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{JWTSecret: "s", TokenTTL: time.Hour, StoreDriver: "memory", Email: EmailConfig{Provider: "log"}}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.JWTSecret = "" }},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }},
		{"unknown driver", func(c *Config) { c.StoreDriver = "postgres" }},
		{"unknown provider", func(c *Config) { c.Email.Provider = "smtp" }},
		{"provider without token", func(c *Config) { c.Email.Provider = "sendgrid" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
