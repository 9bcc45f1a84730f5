package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig
	Backend BackendConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	OTP     OTPConfig
	Session SessionConfig
}

type AppConfig struct {
	Port     string
	Env      string
	LogLevel string
	// CORSAllowedOrigin is the front-end origin; empty allows any.
	CORSAllowedOrigin string
}

// BackendConfig points at the healthcare backend that owns appointments and OTP issuance.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
	// DoctorAdminTenant is the reserved tenant username that marks doctor-authored bookings.
	DoctorAdminTenant string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	// AutoMigrate applies the embedded schema at startup.
	AutoMigrate bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type OTPConfig struct {
	Expiry         time.Duration
	ResendCooldown time.Duration
}

type SessionConfig struct {
	// IdleTimeout is how long an unused appointment view is kept in memory.
	IdleTimeout time.Duration
}

const DefaultDoctorAdminTenant = "CordeliaKareAdmin"

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	return fromViper(viper.GetViper()), nil
}

func fromViper(v *viper.Viper) *Config {
	logLevel := v.GetString("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	sslMode := v.GetString("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	autoMigrate := true
	if v.IsSet("DB_AUTO_MIGRATE") {
		autoMigrate = v.GetBool("DB_AUTO_MIGRATE")
	}

	doctorTenant := v.GetString("BACKEND_DOCTOR_ADMIN_TENANT")
	if doctorTenant == "" {
		doctorTenant = DefaultDoctorAdminTenant
	}

	return &Config{
		App: AppConfig{
			Port:              v.GetString("APP_PORT"),
			Env:               v.GetString("APP_ENV"),
			LogLevel:          logLevel,
			CORSAllowedOrigin: v.GetString("CORS_ALLOWED_ORIGIN"),
		},
		Backend: BackendConfig{
			BaseURL:           v.GetString("BACKEND_BASE_URL"),
			Timeout:           parseDuration(v, "BACKEND_TIMEOUT", 15*time.Second),
			DoctorAdminTenant: doctorTenant,
		},
		DB: DBConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			Name:        v.GetString("DB_NAME"),
			SSLMode:     sslMode,
			AutoMigrate: autoMigrate,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        v.GetString("JWT_SECRET"),
			AccessExpiry:  parseDuration(v, "JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: parseDuration(v, "JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		OTP: OTPConfig{
			Expiry:         parseDuration(v, "OTP_EXPIRY", 5*time.Minute),
			ResendCooldown: parseDuration(v, "OTP_RESEND_COOLDOWN", 30*time.Second),
		},
		Session: SessionConfig{
			IdleTimeout: parseDuration(v, "SESSION_IDLE_TIMEOUT", 30*time.Minute),
		},
	}
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
