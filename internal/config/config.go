package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	PostgresUser   string `toml:"postgres_user"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// admin sessions
	TokenTTL     Duration `toml:"token_ttl"`
	TokenIssuer  string   `toml:"token_issuer"`
	PasswordCost int      `toml:"password_cost"`

	// uploads
	UploadsRootPath string `toml:"uploads_root_path"`

	// listings cache size in bytes, 0 means the default
	ListingCacheSize int `toml:"listing_cache_size"`

	// notifications
	SMTPHost      string   `toml:"smtp_host"`
	SMTPPort      int      `toml:"smtp_port"`
	SMTPUsername  string   `toml:"smtp_username"`
	MailFrom      string   `toml:"mail_from"`
	CompanyEmail  string   `toml:"company_email"`
	MailTimeout   Duration `toml:"mail_timeout"`
	NotifyEnabled bool     `toml:"notify_enabled"`

	AllowedOrigins []string `toml:"allowed_origins"`
}

// Duration lets TOML values like "24h" decode into a time.Duration.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production") || strings.EqualFold(c.Environment, "prod")
}

func (c *Config) setDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.PostgresUser == "" {
		c.PostgresUser = "postgres"
	}
	if c.TokenTTL.Duration == 0 {
		c.TokenTTL.Duration = 24 * time.Hour
	}
	if c.TokenIssuer == "" {
		c.TokenIssuer = "estatesite"
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = 587
	}
	if c.MailTimeout.Duration == 0 {
		c.MailTimeout.Duration = 10 * time.Second
	}
}

func (c *Config) Validate() error {
	if c.PostgresHost == "" || c.PostgresDBName == "" {
		return errors.New("postgres host and db name must be set")
	}
	if c.UploadsRootPath == "" {
		return errors.New("uploads root path must be set")
	}
	if c.NotifyEnabled && (c.SMTPHost == "" || c.MailFrom == "" || c.CompanyEmail == "") {
		return errors.New("notifications enabled, but smtp host, mail from or company email missing")
	}
	return nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return fromToml(&t, env)
}

func Parse(env, data string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(data, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return fromToml(&t, env)
}

func fromToml(t *Toml, env string) (*Config, error) {
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", env, err)
	}
	return cfg, nil
}
