package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg := fromViper(viper.New())

	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, DefaultDoctorAdminTenant, cfg.Backend.DoctorAdminTenant)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshExpiry)
	assert.Equal(t, 5*time.Minute, cfg.OTP.Expiry)
	assert.Equal(t, 30*time.Second, cfg.OTP.ResendCooldown)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, "disable", cfg.DB.SSLMode)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Empty(t, cfg.App.CORSAllowedOrigin)
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("APP_PORT", "9090")
	v.Set("LOG_LEVEL", "debug")
	v.Set("BACKEND_BASE_URL", "https://api.example.test")
	v.Set("BACKEND_TIMEOUT", "3s")
	v.Set("BACKEND_DOCTOR_ADMIN_TENANT", "DoctorDesk")
	v.Set("OTP_RESEND_COOLDOWN", "45s")
	v.Set("REDIS_DB", 2)
	v.Set("DB_SSLMODE", "require")
	v.Set("DB_AUTO_MIGRATE", "false")
	v.Set("CORS_ALLOWED_ORIGIN", "https://patients.example.test")

	cfg := fromViper(v)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "https://api.example.test", cfg.Backend.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "DoctorDesk", cfg.Backend.DoctorAdminTenant)
	assert.Equal(t, 45*time.Second, cfg.OTP.ResendCooldown)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "require", cfg.DB.SSLMode)
	assert.False(t, cfg.DB.AutoMigrate)
	assert.Equal(t, "https://patients.example.test", cfg.App.CORSAllowedOrigin)
}

func TestFromViper_InvalidDurationFallsBack(t *testing.T) {
	v := viper.New()
	v.Set("JWT_ACCESS_EXPIRY", "soon")
	v.Set("OTP_EXPIRY", "-1m")

	cfg := fromViper(v)

	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
	assert.Equal(t, 5*time.Minute, cfg.OTP.Expiry)
}
