package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                      "development",
		Port:                     "8000",
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		JWTAccessTTL:             15 * time.Minute,
		JWTRefreshTTL:            24 * time.Hour,
		RefreshCookiePath:        "/api/access/token/refresh/",
		DBPassword:               "secure-password",
		DBSSLMode:                "disable",
		DBConnMaxLifetimeMinutes: 1,
		RedisURL:                 "localhost:6379",
		SurveyHourlyRate:         "60.00",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with disable SSL mode", "prod", "disable", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateTokens(t *testing.T) {
	c := validConfig()
	c.JWTRefreshTTL = time.Minute
	assert.Error(t, c.Validate(), "refresh ttl shorter than access ttl")

	c = validConfig()
	c.JWTAccessTTL = 0
	assert.Error(t, c.Validate())

	c = validConfig()
	c.RefreshCookiePath = "api/access/token/refresh/"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.Env = "production"
	c.DBSSLMode = "require"
	c.JWTSecret = defaultJWTSecret
	assert.Error(t, c.Validate())
}

func TestConfig_DevStaffBootstrapNotInProduction(t *testing.T) {
	c := validConfig()
	c.DevBootstrapStaff = true
	assert.NoError(t, c.Validate())

	c.Env = "production"
	c.DBSSLMode = "require"
	assert.Error(t, c.Validate())
}

func TestConfig_HourlyRate(t *testing.T) {
	c := validConfig()
	rate, err := c.HourlyRate()
	require.NoError(t, err)
	assert.Equal(t, "60.00", rate.StringFixed(2))

	c.SurveyHourlyRate = "abc"
	assert.Error(t, c.Validate())

	c.SurveyHourlyRate = "-1"
	assert.Error(t, c.Validate())
}

func TestLoadConfig_DefaultsAndNormalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, 15*time.Minute, c.JWTAccessTTL)
	assert.Equal(t, 168*time.Hour, c.JWTRefreshTTL)
	assert.True(t, c.JWTBlacklistAfterRotation)
	assert.Equal(t, "/api/access/token/refresh/", c.RefreshCookiePath)
	assert.Equal(t, "refresh_token", c.RefreshCookieName)
}
