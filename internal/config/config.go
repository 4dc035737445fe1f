package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	JWTTTL            time.Duration `mapstructure:"JWT_TTL"`
	ClinicTimezone    string        `mapstructure:"CLINIC_TIMEZONE"`
	BookingLock       string        `mapstructure:"BOOKING_LOCK"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS      float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int           `mapstructure:"RATE_LIMIT_BURST"`
	LoginRateLimitRPS float64       `mapstructure:"LOGIN_RATE_LIMIT_RPS"`
	SendGridAPIKey    string        `mapstructure:"SENDGRID_API_KEY"`
	NotifyFromEmail   string        `mapstructure:"NOTIFY_FROM_EMAIL"`
	NotifyFromName    string        `mapstructure:"NOTIFY_FROM_NAME"`
	MetricsEnabled    bool          `mapstructure:"METRICS_ENABLED"`
}

// Booking lock backends.
const (
	LockNone   = "none"
	LockMemory = "memory"
	LockRedis  = "redis"
)

var envKeys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "REDIS_URL",
	"JWT_SECRET", "JWT_TTL", "CLINIC_TIMEZONE", "BOOKING_LOCK", "CORS_ORIGINS",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOGIN_RATE_LIMIT_RPS",
	"SENDGRID_API_KEY", "NOTIFY_FROM_EMAIL", "NOTIFY_FROM_NAME", "METRICS_ENABLED",
}

// Load reads configuration from the environment. Variables from the given env
// files (or ./.env when none are given) are loaded first without overriding
// anything already set in the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		// A missing ./.env is fine.
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("JWT_TTL", "7h")
	v.SetDefault("CLINIC_TIMEZONE", "UTC")
	v.SetDefault("BOOKING_LOCK", LockMemory)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("LOGIN_RATE_LIMIT_RPS", 1)
	v.SetDefault("NOTIFY_FROM_NAME", "Clinic")
	v.SetDefault("METRICS_ENABLED", true)

	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	cfg.BookingLock = strings.ToLower(strings.TrimSpace(cfg.BookingLock))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location returns the clinic time zone used for slot labels and day windows.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		return nil, fmt.Errorf("CLINIC_TIMEZONE %q: %w", c.ClinicTimezone, err)
	}
	return loc, nil
}

// Validate checks that the configuration is safe to run. Outside development
// JWT_SECRET must be set and at least 32 bytes long.
func (c *Config) Validate() error {
	if !c.IsDev() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes when ENV=%q", c.Env)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	switch c.BookingLock {
	case LockNone, LockMemory:
	case LockRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when BOOKING_LOCK is %q", LockRedis)
		}
	default:
		return fmt.Errorf("BOOKING_LOCK must be \"none\", \"memory\", or \"redis\", got %q", c.BookingLock)
	}

	if c.SendGridAPIKey != "" && c.NotifyFromEmail == "" {
		return fmt.Errorf("NOTIFY_FROM_EMAIL is required when SENDGRID_API_KEY is set")
	}
	return nil
}
