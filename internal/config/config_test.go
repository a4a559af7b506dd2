package config

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_KEY", "0123456789abcdef0123")
	t.Setenv("NOTIFICATION_DWELL_TIME", "45s")

	cfg, err := LoadWith(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "skck_portal", cfg.Mongo.Database)
	assert.Equal(t, 45*time.Second, cfg.Notification.DwellTime)
	assert.Equal(t, 5*time.Second, cfg.Notification.PollInterval)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, "none", cfg.Email.Provider)
	assert.Len(t, cfg.Certificate.OfficeLines, 4)
	assert.Equal(t, 6*time.Second, cfg.Identity.LookupInterval)
	assert.Equal(t, 5, cfg.Identity.LookupBurst)
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("JWT_KEY", "short")

	_, err := LoadWith(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo.uri")
	assert.Contains(t, err.Error(), "auth.jwt_key")
}

func TestValidateEmailProvider(t *testing.T) {
	base := func() *Config {
		return &Config{
			Mongo:        MongoConfig{URI: "mongodb://x"},
			Auth:         AuthConfig{JWTKey: "0123456789abcdef", TokenTTL: time.Hour},
			Email:        EmailConfig{Provider: "none"},
			Notification: NotificationConfig{DwellTime: time.Second, PollInterval: time.Second, DispatchInterval: time.Second},
			Region:       RegionConfig{RequestsPerSec: 1, Burst: 1},
			Identity:     IdentityConfig{LookupInterval: time.Second, LookupBurst: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "none is valid", mutate: func(c *Config) {}},
		{name: "resend needs key", mutate: func(c *Config) { c.Email.Provider = "resend" }, wantErr: "resend"},
		{name: "smtp needs host", mutate: func(c *Config) { c.Email.Provider = "smtp"; c.Email.From = "a@b.id" }, wantErr: "smtp"},
		{name: "lookup limit required", mutate: func(c *Config) { c.Identity.LookupBurst = 0 }, wantErr: "identity lookup"},
		{name: "unknown provider", mutate: func(c *Config) { c.Email.Provider = "pigeon" }, wantErr: "pigeon"},
		{name: "smtp complete", mutate: func(c *Config) {
			c.Email.Provider = "smtp"
			c.Email.From = "a@b.id"
			c.Email.SMTP.Host = "smtp.b.id"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMailerFor(t *testing.T) {
	log := zap.NewNop()

	m, err := MailerFor(&Config{Email: EmailConfig{Provider: "none"}}, log)
	require.NoError(t, err)
	assert.IsType(t, noopMailer{}, m)
	assert.NoError(t, m.SendEmail(context.Background(), "a@b.id", "s", "b"))

	m, err = MailerFor(&Config{Email: EmailConfig{Provider: "smtp", SMTP: SMTPConfig{Host: "smtp.b.id", Port: 587}}}, log)
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, m)

	m, err = MailerFor(&Config{Email: EmailConfig{Provider: "resend", Resend: ResendConfig{APIKey: "re_x", APIURL: "http://localhost:9"}}}, log)
	require.NoError(t, err)
	assert.IsType(t, &ResendMailer{}, m)
}
