package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration of the portal.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Mongo        MongoConfig        `mapstructure:"mongo"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Email        EmailConfig        `mapstructure:"email"`
	Region       RegionConfig       `mapstructure:"region"`
	Identity     IdentityConfig     `mapstructure:"identity"`
	Notification NotificationConfig `mapstructure:"notification"`
	Certificate  CertificateConfig  `mapstructure:"certificate"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// Addr returns the listen address for echo.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// RedisConfig configures the region lookup cache. An empty address disables it.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTKey   string        `mapstructure:"jwt_key"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type EmailConfig struct {
	// Provider is one of none, resend or smtp.
	Provider string       `mapstructure:"provider"`
	From     string       `mapstructure:"from"`
	Resend   ResendConfig `mapstructure:"resend"`
	SMTP     SMTPConfig   `mapstructure:"smtp"`
}

type ResendConfig struct {
	APIKey string `mapstructure:"api_key"`
	APIURL string `mapstructure:"api_url"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type RegionConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
	Burst          int           `mapstructure:"burst"`
}

// IdentityConfig limits NIK registry lookups per signed-in user.
type IdentityConfig struct {
	LookupInterval time.Duration `mapstructure:"lookup_interval"`
	LookupBurst    int           `mapstructure:"lookup_burst"`
}

type NotificationConfig struct {
	DwellTime        time.Duration `mapstructure:"dwell_time"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	DispatchInterval time.Duration `mapstructure:"dispatch_interval"`
	DispatchBatch    int64         `mapstructure:"dispatch_batch"`
}

// CertificateConfig holds the issuing office printed on certificates.
type CertificateConfig struct {
	OfficeLines   []string `mapstructure:"office_lines"`
	IssuedAt      string   `mapstructure:"issued_at"`
	SignatoryRole []string `mapstructure:"signatory_role"`
	SignatoryName string   `mapstructure:"signatory_name"`
	SignatoryRank string   `mapstructure:"signatory_rank"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// envAliases keeps the flat variable names used in deployment .env files.
var envAliases = map[string][]string{
	"mongo.uri":            {"MONGO_URI"},
	"auth.jwt_key":         {"JWT_KEY"},
	"email.from":           {"FROM_EMAIL"},
	"email.resend.api_key": {"RESEND_API_KEY"},
	"email.resend.api_url": {"RESEND_API_URL"},
	"redis.address":        {"REDIS_ADDR"},
	"server.port":          {"PORT"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "skck_portal")
	v.SetDefault("mongo.connect_timeout", 10*time.Second)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_key", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("email.provider", "none")
	v.SetDefault("email.from", "")
	v.SetDefault("email.resend.api_key", "")
	v.SetDefault("email.resend.api_url", "")
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.username", "")
	v.SetDefault("email.smtp.password", "")

	v.SetDefault("region.base_url", "https://www.emsifa.com/api-wilayah-indonesia/api")
	v.SetDefault("region.timeout", 10*time.Second)
	v.SetDefault("region.cache_ttl", 24*time.Hour)
	v.SetDefault("region.requests_per_sec", 5.0)
	v.SetDefault("region.burst", 10)

	v.SetDefault("identity.lookup_interval", 6*time.Second)
	v.SetDefault("identity.lookup_burst", 5)

	v.SetDefault("notification.dwell_time", 20*time.Second)
	v.SetDefault("notification.poll_interval", 5*time.Second)
	v.SetDefault("notification.dispatch_interval", 30*time.Second)
	v.SetDefault("notification.dispatch_batch", 100)

	v.SetDefault("certificate.office_lines", []string{
		"KEPOLISIAN NEGARA REPUBLIK INDONESIA",
		"DAERAH KALIMANTAN BARAT",
		"RESOR KOTA PONTIANAK KOTA",
		"Jalan Gusti Johan Idrus No.1 Pontianak 78121",
	})
	v.SetDefault("certificate.issued_at", "Pontianak")
	v.SetDefault("certificate.signatory_role", []string{
		"an. KEPALA KEPOLISIAN RESOR KOTA PONTIANAK KOTA",
		"KEPALA SATUAN INTELKAM",
	})
	v.SetDefault("certificate.signatory_name", "HUDAALLAH, SH")
	v.SetDefault("certificate.signatory_rank", "KOMISARIS POLISI NRP 66050254")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load reads configs/config.yaml (if present) and the environment.
// Environment variables use the key path with dots replaced by underscores,
// e.g. NOTIFICATION_DWELL_TIME=30s.
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith loads the configuration into the given viper instance.
func LoadWith(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings required to start the server.
func (c *Config) Validate() error {
	var errs []error
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("mongo.uri (MONGO_URI) is required"))
	}
	if len(c.Auth.JWTKey) < 16 {
		errs = append(errs, errors.New("auth.jwt_key (JWT_KEY) must be at least 16 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	switch c.Email.Provider {
	case "none":
	case "resend":
		if c.Email.Resend.APIKey == "" || c.Email.From == "" {
			errs = append(errs, errors.New("email.resend.api_key and email.from are required for the resend provider"))
		}
	case "smtp":
		if c.Email.SMTP.Host == "" || c.Email.From == "" {
			errs = append(errs, errors.New("email.smtp.host and email.from are required for the smtp provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("email.provider %q must be none, resend or smtp", c.Email.Provider))
	}
	if c.Notification.DwellTime <= 0 || c.Notification.PollInterval <= 0 || c.Notification.DispatchInterval <= 0 {
		errs = append(errs, errors.New("notification intervals must be positive"))
	}
	if c.Region.RequestsPerSec <= 0 || c.Region.Burst <= 0 {
		errs = append(errs, errors.New("region rate limit must be positive"))
	}
	if c.Identity.LookupInterval <= 0 || c.Identity.LookupBurst <= 0 {
		errs = append(errs, errors.New("identity lookup limit must be positive"))
	}
	return errors.Join(errs...)
}
