package config

import (
	"errors"
	"fmt"
	"log"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Meta struct {
	PageID          string
	IGUserID        string
	PageAccessToken string
	TokenExpiresAt  time.Time
	GraphURL        string
}

type X struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
	APIURL       string
	UploadURL    string
}

type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Brand holds the content rules enforced before anything is published.
type Brand struct {
	Domain  string
	Emoji   string
	Hashtag string
}

type Config struct {
	AppEnv      string
	Port        string
	PostgresURI string
	RedisURI    string
	SecretKey   string
	SentryDSN   string
	LogLevel    string

	DryRun  bool
	Enabled bool

	Brand Brand
	Meta  Meta
	X     X
	SMTP  SMTP
	R2    R2

	NotifyEmail string

	PexelsAPIKey       string
	PexelsAPIURL       string
	GoogleSearchAPIKey string
	GoogleSearchCX     string
	FallbackImageDir   string

	SchedulerInterval     time.Duration
	PostSpacing           time.Duration
	RecoveryLookback      time.Duration
	RecoverySpacing       time.Duration
	StalePublishingAfter  time.Duration
	ContainerPollInterval time.Duration
	ContainerTimeout      time.Duration
	PlatformRateLimit     int

	ReportSchedule string
	ReportTimezone string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		AppEnv:      v.GetString("APP_ENV"),
		Port:        v.GetString("PORT"),
		PostgresURI: v.GetString("POSTGRES_URI"),
		RedisURI:    v.GetString("REDIS_URI"),
		SecretKey:   v.GetString("SECRET_KEY"),
		SentryDSN:   v.GetString("SENTRY_DSN"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		DryRun:      v.GetBool("SOCIAL_DRY_RUN"),
		Enabled:     v.GetBool("SOCIAL_ENABLED"),
		Brand: Brand{
			Domain:  v.GetString("BRAND_DOMAIN"),
			Emoji:   v.GetString("BRAND_EMOJI"),
			Hashtag: v.GetString("BRAND_HASHTAG"),
		},
		Meta: Meta{
			PageID:          v.GetString("META_PAGE_ID"),
			IGUserID:        v.GetString("META_IG_USER_ID"),
			PageAccessToken: v.GetString("META_PAGE_ACCESS_TOKEN"),
			GraphURL:        v.GetString("META_GRAPH_URL"),
		},
		X: X{
			APIKey:       v.GetString("X_API_KEY"),
			APISecret:    v.GetString("X_API_SECRET"),
			AccessToken:  v.GetString("X_ACCESS_TOKEN"),
			AccessSecret: v.GetString("X_ACCESS_SECRET"),
			APIURL:       v.GetString("X_API_URL"),
			UploadURL:    v.GetString("X_UPLOAD_URL"),
		},
		SMTP: SMTP{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
			From:     v.GetString("SMTP_FROM"),
		},
		R2: R2{
			AccountID:  v.GetString("R2_ACCOUNT_ID"),
			AccessKey:  v.GetString("R2_ACCESS_KEY"),
			SecretKey:  v.GetString("R2_SECRET_KEY"),
			BucketName: v.GetString("R2_BUCKET_NAME"),
			PublicURL:  v.GetString("R2_PUBLIC_URL"),
		},
		NotifyEmail:           v.GetString("NOTIFY_EMAIL"),
		PexelsAPIKey:          v.GetString("PEXELS_API_KEY"),
		PexelsAPIURL:          v.GetString("PEXELS_API_URL"),
		GoogleSearchAPIKey:    v.GetString("GOOGLE_SEARCH_API_KEY"),
		GoogleSearchCX:        v.GetString("GOOGLE_SEARCH_CX"),
		FallbackImageDir:      v.GetString("FALLBACK_IMAGE_DIR"),
		SchedulerInterval:     v.GetDuration("SCHEDULER_INTERVAL"),
		PostSpacing:           v.GetDuration("POST_SPACING"),
		RecoveryLookback:      v.GetDuration("RECOVERY_LOOKBACK"),
		RecoverySpacing:       v.GetDuration("RECOVERY_SPACING"),
		StalePublishingAfter:  v.GetDuration("STALE_PUBLISHING_AFTER"),
		ContainerPollInterval: v.GetDuration("CONTAINER_POLL_INTERVAL"),
		ContainerTimeout:      v.GetDuration("CONTAINER_TIMEOUT"),
		PlatformRateLimit:     v.GetInt("PLATFORM_RATE_LIMIT"),
		ReportSchedule:        v.GetString("REPORT_SCHEDULE"),
		ReportTimezone:        v.GetString("REPORT_TIMEZONE"),
	}

	if raw := v.GetString("META_TOKEN_EXPIRES_AT"); raw != "" {
		expiresAt, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid META_TOKEN_EXPIRES_AT: %w", err)
		}
		cfg.Meta.TokenExpiresAt = expiresAt
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SOCIAL_DRY_RUN", false)
	v.SetDefault("SOCIAL_ENABLED", true)
	v.SetDefault("BRAND_DOMAIN", "rebloomsa.co.za")
	v.SetDefault("BRAND_EMOJI", "\U0001F338")
	v.SetDefault("BRAND_HASHTAG", "#RebloomSA")
	v.SetDefault("META_GRAPH_URL", "https://graph.facebook.com/v25.0")
	v.SetDefault("X_API_URL", "https://api.x.com/2")
	v.SetDefault("X_UPLOAD_URL", "https://upload.twitter.com/1.1")
	v.SetDefault("PEXELS_API_URL", "https://api.pexels.com/v1/search")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "hello@rebloomsa.co.za")
	v.SetDefault("SCHEDULER_INTERVAL", "1m")
	v.SetDefault("POST_SPACING", "5s")
	v.SetDefault("RECOVERY_LOOKBACK", "24h")
	v.SetDefault("RECOVERY_SPACING", "5m")
	v.SetDefault("STALE_PUBLISHING_AFTER", "30m")
	v.SetDefault("CONTAINER_POLL_INTERVAL", "3s")
	v.SetDefault("CONTAINER_TIMEOUT", "60s")
	v.SetDefault("PLATFORM_RATE_LIMIT", 5)
	v.SetDefault("REPORT_SCHEDULE", "0 0 21 * * *")
	v.SetDefault("REPORT_TIMEZONE", "Africa/Johannesburg")
}

// Validate checks values the pipeline cannot run without.
func (c *Config) Validate() error {
	if c.Brand.Domain == "" {
		return errors.New("BRAND_DOMAIN is required")
	}
	if c.SchedulerInterval <= 0 {
		return errors.New("SCHEDULER_INTERVAL must be positive")
	}
	if c.ContainerPollInterval <= 0 || c.ContainerTimeout <= 0 {
		return errors.New("CONTAINER_POLL_INTERVAL and CONTAINER_TIMEOUT must be positive")
	}
	if c.RecoveryLookback <= 0 {
		return errors.New("RECOVERY_LOOKBACK must be positive")
	}
	if c.PlatformRateLimit <= 0 {
		return errors.New("PLATFORM_RATE_LIMIT must be positive")
	}
	if _, err := time.LoadLocation(c.ReportTimezone); err != nil {
		return fmt.Errorf("invalid REPORT_TIMEZONE: %w", err)
	}

	if c.AppEnv == "production" {
		if c.SecretKey == "" || len(c.SecretKey) < 32 {
			return errors.New("SECRET_KEY must be at least 32 characters in production")
		}
		if c.PostgresURI == "" {
			return errors.New("POSTGRES_URI is required in production")
		}
	}
	if c.NotifyEmail == "" {
		log.Println("Warning: NOTIFY_EMAIL is not set, operator notifications are disabled")
	}
	return nil
}

// ReportLocation returns the timezone used for report day boundaries.
func (c *Config) ReportLocation() *time.Location {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
