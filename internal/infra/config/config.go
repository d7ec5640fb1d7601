package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Remote function names, mirrored from the remote package to keep config
// free of domain imports.
const (
	fnCalculateHealthScore = "calculateHealthScore"
	fnGetHealthHistory     = "getHealthHistory"
	fnSendHealthEmail      = "sendHealthEmail"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Auth        AuthConfig        `yaml:"auth"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Remote      RemoteConfig      `yaml:"remote"`
	Assessments AssessmentsConfig `yaml:"assessments"`
	Storage     StorageConfig     `yaml:"storage"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Email       EmailConfig       `yaml:"email"`
	Articles    ArticlesConfig    `yaml:"articles"`
	Functions   FunctionsConfig   `yaml:"functions"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// AuthConfig holds token and identity provider settings.
type AuthConfig struct {
	Secret          string        `yaml:"secret"`
	TokenTTL        time.Duration `yaml:"tokenTtl"`
	RefreshTokenTTL time.Duration `yaml:"refreshTokenTtl"`
	AdminSecret     string        `yaml:"adminSecret"`
	FirebaseProject string        `yaml:"firebaseProject"`
	Google          GoogleConfig  `yaml:"google"`
}

// GoogleConfig holds the OAuth client used for Google sign-in.
type GoogleConfig struct {
	ClientID             string `yaml:"clientId"`
	ClientSecret         string `yaml:"clientSecret"`
	RedirectURL          string `yaml:"redirectUrl"`
	TokenEncryptionKey   string `yaml:"tokenEncryptionKey"`
	PostLoginRedirectURL string `yaml:"postLoginRedirectUrl"`
}

// ScoringConfig picks the scoring profile. ProfilePath wins over Profile.
type ScoringConfig struct {
	Profile     string `yaml:"profile"`
	ProfilePath string `yaml:"profilePath"`
}

// RemoteConfig describes the remote function endpoints.
type RemoteConfig struct {
	Enabled   bool              `yaml:"enabled"`
	Timeout   time.Duration     `yaml:"timeout"`
	Endpoints map[string]string `yaml:"endpoints"`
}

// AssessmentsConfig bounds the locally stored assessment history.
type AssessmentsConfig struct {
	MaxStored int `yaml:"maxStored"`
}

// StorageConfig selects the key-value backend behind local persistence.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
	Prefix  string `yaml:"prefix"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// EmailConfig identifies the EmailJS account used by sendHealthEmail.
type EmailConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	ServiceID  string        `yaml:"serviceId"`
	TemplateID string        `yaml:"templateId"`
	UserID     string        `yaml:"userId"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ArticlesConfig controls archiving of shared articles.
type ArticlesConfig struct {
	Archive ArchiveConfig `yaml:"archive"`
}

// ArchiveConfig points at an S3 compatible bucket.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// FunctionsConfig tunes the function surface.
type FunctionsConfig struct {
	DefaultUserID string `yaml:"defaultUserId"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from a YAML file, an optional .env file and
// environment variables, in that order of precedence (lowest first).
func Load() (*Config, error) {
	cfg := defaultConfig()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	envString("HTTP_ADDRESS", &cfg.HTTP.Address)
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	envBool("HTTP_RATE_LIMIT_ENABLED", &cfg.HTTP.RateLimit.Enabled)
	envInt("HTTP_RATE_LIMIT_RPM", &cfg.HTTP.RateLimit.RequestsPerMinute)
	envInt("HTTP_RATE_LIMIT_BURST", &cfg.HTTP.RateLimit.Burst)

	envString("AUTH_SECRET", &cfg.Auth.Secret)
	envDuration("AUTH_TOKEN_TTL", &cfg.Auth.TokenTTL)
	envDuration("AUTH_REFRESH_TOKEN_TTL", &cfg.Auth.RefreshTokenTTL)
	envString("AUTH_ADMIN_SECRET", &cfg.Auth.AdminSecret)
	envString("AUTH_FIREBASE_PROJECT", &cfg.Auth.FirebaseProject)
	envString("GOOGLE_CLIENT_ID", &cfg.Auth.Google.ClientID)
	envString("GOOGLE_CLIENT_SECRET", &cfg.Auth.Google.ClientSecret)
	envString("GOOGLE_REDIRECT_URL", &cfg.Auth.Google.RedirectURL)
	envString("GOOGLE_TOKEN_ENCRYPTION_KEY", &cfg.Auth.Google.TokenEncryptionKey)
	envString("GOOGLE_POST_LOGIN_REDIRECT_URL", &cfg.Auth.Google.PostLoginRedirectURL)

	envString("SCORING_PROFILE", &cfg.Scoring.Profile)
	envString("SCORING_PROFILE_PATH", &cfg.Scoring.ProfilePath)

	envBool("REMOTE_ENABLED", &cfg.Remote.Enabled)
	envDuration("REMOTE_TIMEOUT", &cfg.Remote.Timeout)
	envInt("ASSESSMENTS_MAX_STORED", &cfg.Assessments.MaxStored)
	for env, name := range map[string]string{
		"REMOTE_CALCULATE_HEALTH_SCORE_URL": fnCalculateHealthScore,
		"REMOTE_GET_HEALTH_HISTORY_URL":     fnGetHealthHistory,
		"REMOTE_SEND_HEALTH_EMAIL_URL":      fnSendHealthEmail,
	} {
		if v, ok := os.LookupEnv(env); ok {
			if cfg.Remote.Endpoints == nil {
				cfg.Remote.Endpoints = map[string]string{}
			}
			cfg.Remote.Endpoints[name] = strings.TrimSpace(v)
		}
	}

	envString("STORAGE_BACKEND", &cfg.Storage.Backend)
	envString("STORAGE_ADDR", &cfg.Storage.Addr)
	envString("STORAGE_PATH", &cfg.Storage.Path)
	envString("STORAGE_PREFIX", &cfg.Storage.Prefix)

	envString("POSTGRES_DSN", &cfg.Postgres.DSN)
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}

	envString("EMAILJS_ENDPOINT", &cfg.Email.Endpoint)
	envString("EMAILJS_SERVICE_ID", &cfg.Email.ServiceID)
	envString("EMAILJS_TEMPLATE_ID", &cfg.Email.TemplateID)
	envString("EMAILJS_USER_ID", &cfg.Email.UserID)
	envDuration("EMAILJS_TIMEOUT", &cfg.Email.Timeout)

	envBool("ARTICLES_ARCHIVE_ENABLED", &cfg.Articles.Archive.Enabled)
	envString("ARTICLES_ARCHIVE_ENDPOINT", &cfg.Articles.Archive.Endpoint)
	envString("ARTICLES_ARCHIVE_ACCESS_KEY", &cfg.Articles.Archive.AccessKey)
	envString("ARTICLES_ARCHIVE_SECRET_KEY", &cfg.Articles.Archive.SecretKey)
	envString("ARTICLES_ARCHIVE_BUCKET", &cfg.Articles.Archive.Bucket)
	envString("ARTICLES_ARCHIVE_REGION", &cfg.Articles.Archive.Region)

	envString("FUNCTIONS_DEFAULT_USER_ID", &cfg.Functions.DefaultUserID)

	envBool("METRICS_ENABLED", &cfg.Metrics.Enabled)
	envString("METRICS_PATH", &cfg.Metrics.Path)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8080",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			AllowedOrigins: []string{"*"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
		},
		Auth: AuthConfig{
			Secret:          "dev-secret-change-me",
			TokenTTL:        time.Hour,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Scoring: ScoringConfig{
			Profile: "server",
		},
		Remote: RemoteConfig{
			Enabled: true,
			Timeout: 15 * time.Second,
			Endpoints: map[string]string{
				fnSendHealthEmail:      "https://us-central1-men-s-health-b3367.cloudfunctions.net/sendHealthEmail",
				fnCalculateHealthScore: "https://us-central1-men-s-health-b3367.cloudfunctions.net/calculateHealthScore",
				fnGetHealthHistory:     "https://us-central1-men-s-health-b3367.cloudfunctions.net/getHealthHistory",
			},
		},
		Assessments: AssessmentsConfig{
			MaxStored: 50,
		},
		Storage: StorageConfig{
			Backend: "memory",
			Path:    "data/menshealth.db",
			Prefix:  "menshealth",
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
		},
		Email: EmailConfig{
			Endpoint:   "https://api.emailjs.com/api/v1.0/email/send",
			ServiceID:  "service_eb1d0iv",
			TemplateID: "template_42an91c",
			UserID:     "1U6m7-TUFRxv4HcfP",
			Timeout:    10 * time.Second,
		},
		Articles: ArticlesConfig{
			Archive: ArchiveConfig{
				Bucket: "health-articles",
				Region: "auto",
			},
		},
		Functions: FunctionsConfig{
			DefaultUserID: "test-user",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("auth.secret cannot be empty")
	}
	if c.Auth.TokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return errors.New("auth token ttls must be positive")
	}
	if key := c.Auth.Google.TokenEncryptionKey; key != "" {
		switch len(key) {
		case 16, 24, 32:
		default:
			return errors.New("auth.google.tokenEncryptionKey must be 16, 24, or 32 bytes")
		}
	}
	if c.Scoring.ProfilePath == "" {
		switch c.Scoring.Profile {
		case "server", "local":
		default:
			return fmt.Errorf("scoring.profile %q is not a built-in profile", c.Scoring.Profile)
		}
	}
	if c.Remote.Timeout < 0 {
		return errors.New("remote.timeout cannot be negative")
	}
	if c.Assessments.MaxStored <= 0 {
		return errors.New("assessments.maxStored must be positive")
	}
	switch c.Storage.Backend {
	case "memory":
	case "valkey":
		if strings.TrimSpace(c.Storage.Addr) == "" {
			return errors.New("storage.addr cannot be empty when the valkey backend is selected")
		}
	case "sqlite":
		if strings.TrimSpace(c.Storage.Path) == "" {
			return errors.New("storage.path cannot be empty when the sqlite backend is selected")
		}
	default:
		return fmt.Errorf("storage.backend %q is not one of memory, valkey, sqlite", c.Storage.Backend)
	}
	if c.Articles.Archive.Enabled {
		if strings.TrimSpace(c.Articles.Archive.Endpoint) == "" || strings.TrimSpace(c.Articles.Archive.Bucket) == "" {
			return errors.New("articles.archive endpoint and bucket are required when archiving is enabled")
		}
	}
	if strings.TrimSpace(c.Functions.DefaultUserID) == "" {
		return errors.New("functions.defaultUserId cannot be empty")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	return nil
}
