// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`

	JWTSecret                 string        `mapstructure:"JWT_SECRET"`
	JWTIssuer                 string        `mapstructure:"JWT_ISSUER"`
	JWTAudience               string        `mapstructure:"JWT_AUDIENCE"`
	JWTAccessTTL              time.Duration `mapstructure:"JWT_ACCESS_TTL"`
	JWTRefreshTTL             time.Duration `mapstructure:"JWT_REFRESH_TTL"`
	JWTBlacklistAfterRotation bool          `mapstructure:"JWT_BLACKLIST_AFTER_ROTATION"`
	RefreshCookieName         string        `mapstructure:"REFRESH_COOKIE_NAME"`
	RefreshCookiePath         string        `mapstructure:"REFRESH_COOKIE_PATH"`
	BlacklistFlushCron        string        `mapstructure:"BLACKLIST_FLUSH_CRON"`

	DBHost                        string `mapstructure:"DB_HOST"`
	DBPort                        string `mapstructure:"DB_PORT"`
	DBUser                        string `mapstructure:"DB_USER"`
	DBPassword                    string `mapstructure:"DB_PASSWORD"`
	DBName                        string `mapstructure:"DB_NAME"`
	DBSSLMode                     string `mapstructure:"DB_SSLMODE"`
	DBSchemaMode                  string `mapstructure:"DB_SCHEMA_MODE"`
	DBAutoMigrateAllowDestructive bool   `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`
	DBMaxOpenConns                int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns                int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes      int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	RedisURL string `mapstructure:"REDIS_URL"`

	SurveyHourlyRate string `mapstructure:"SURVEY_HOURLY_RATE"`
	UploadDir        string `mapstructure:"UPLOAD_DIR"`
	MediaURLPrefix   string `mapstructure:"MEDIA_URL_PREFIX"`
	MaxUploadMB      int    `mapstructure:"MAX_UPLOAD_MB"`

	// Development-only staff account created at startup.
	DevBootstrapStaff     bool   `mapstructure:"DEV_BOOTSTRAP_STAFF"`
	DevStaffUsername      string `mapstructure:"DEV_STAFF_USERNAME"`
	DevStaffEmail         string `mapstructure:"DEV_STAFF_EMAIL"`
	DevStaffPassword      string `mapstructure:"DEV_STAFF_PASSWORD"`
	DevStaffResetPassword bool   `mapstructure:"DEV_STAFF_RESET_PASSWORD"`
	SeedDefaultCategories bool   `mapstructure:"SEED_DEFAULT_CATEGORIES"`

	TracingEnabled  bool    `mapstructure:"OTEL_TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"OTEL_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"OTEL_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.DBSSLMode = strings.ToLower(strings.TrimSpace(config.DBSSLMode))
	config.DBSchemaMode = strings.ToLower(strings.TrimSpace(config.DBSchemaMode))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("FEATURE_FLAGS", "realtime_notifications=on,image_webp_variants=on")

	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_ISSUER", "kaizen-api")
	viper.SetDefault("JWT_AUDIENCE", "kaizen-client")
	viper.SetDefault("JWT_ACCESS_TTL", "15m")
	viper.SetDefault("JWT_REFRESH_TTL", "168h")
	viper.SetDefault("JWT_BLACKLIST_AFTER_ROTATION", true)
	viper.SetDefault("REFRESH_COOKIE_NAME", "refresh_token")
	viper.SetDefault("REFRESH_COOKIE_PATH", "/api/access/token/refresh/")
	viper.SetDefault("BLACKLIST_FLUSH_CRON", "@hourly")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "kaizen")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE", false)
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)

	viper.SetDefault("REDIS_URL", "localhost:6379")

	viper.SetDefault("SURVEY_HOURLY_RATE", "60.00")
	viper.SetDefault("UPLOAD_DIR", "./media")
	viper.SetDefault("MEDIA_URL_PREFIX", "/media")
	viper.SetDefault("MAX_UPLOAD_MB", 10)

	viper.SetDefault("DEV_BOOTSTRAP_STAFF", false)
	viper.SetDefault("DEV_STAFF_USERNAME", "kaizen_admin")
	viper.SetDefault("DEV_STAFF_EMAIL", "admin@kaizen.local")
	viper.SetDefault("DEV_STAFF_RESET_PASSWORD", false)
	viper.SetDefault("SEED_DEFAULT_CATEGORIES", true)

	viper.SetDefault("OTEL_TRACING_ENABLED", false)
	viper.SetDefault("OTEL_EXPORTER", "stdout")
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("OTEL_SAMPLER_RATIO", 1.0)
}

// IsProduction reports whether the config targets a production deployment.
func (c *Config) IsProduction() bool {
	e := strings.ToLower(strings.TrimSpace(c.Env))
	return e == "production" || e == "prod"
}

// HourlyRate parses SURVEY_HOURLY_RATE.
func (c *Config) HourlyRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.SurveyHourlyRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("SURVEY_HOURLY_RATE: %w", err)
	}
	return rate, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTAccessTTL <= 0 || c.JWTRefreshTTL <= 0 {
		return errors.New("JWT_ACCESS_TTL and JWT_REFRESH_TTL must be positive")
	}
	if c.JWTRefreshTTL < c.JWTAccessTTL {
		return errors.New("JWT_REFRESH_TTL must not be shorter than JWT_ACCESS_TTL")
	}
	if !strings.HasPrefix(c.RefreshCookiePath, "/") {
		return errors.New("REFRESH_COOKIE_PATH must be an absolute path")
	}
	if c.SurveyHourlyRate != "" {
		rate, err := c.HourlyRate()
		if err != nil {
			return err
		}
		if !rate.IsPositive() {
			return errors.New("SURVEY_HOURLY_RATE must be positive")
		}
	}

	// Strict checks for production
	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable SSL in production")
		}
		if c.DevBootstrapStaff {
			return errors.New("DEV_BOOTSTRAP_STAFF must not be enabled in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
