package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type Config struct {
	ListenAddr  string
	StoreDriver string

	DB struct {
		DSN string
	}

	AllowedOrigins    []string
	PrometheusEnabled bool
	TrustedProxies    []string

	RateLimit struct {
		RPS   float64
		Burst int
	}

	Log struct {
		Level  logrus.Level
		Format string
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	cfg.ListenAddr = getenvDefault("APP_LISTEN_ADDR", ":8080")
	cfg.StoreDriver = strings.ToLower(getenvDefault("APP_STORE_DRIVER", DriverMemory))
	cfg.DB.DSN = os.Getenv("APP_DB_DSN")

	var missing []string
	if cfg.DB.DSN == "" {
		host := os.Getenv("APP_DB_HOST")
		name := os.Getenv("APP_DB_NAME")
		user := os.Getenv("APP_DB_USER")
		password := os.Getenv("APP_DB_PASSWORD")
		port := getenvDefault("APP_DB_PORT", "5432")
		sslmode := getenvDefault("APP_DB_SSLMODE", "disable")

		if host == "" {
			missing = append(missing, "APP_DB_HOST")
		}
		if name == "" {
			missing = append(missing, "APP_DB_NAME")
		}
		if user == "" {
			missing = append(missing, "APP_DB_USER")
		}
		if password == "" {
			missing = append(missing, "APP_DB_PASSWORD")
		}

		if len(missing) == 0 {
			cfg.DB.DSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslmode)
		}
	}

	cfg.AllowedOrigins = getenvList("APP_ALLOWED_ORIGINS")
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:5173"}
	}
	cfg.PrometheusEnabled = getenvBool("APP_PROMETHEUS_ENDPOINT_ENABLED", false)
	cfg.TrustedProxies = getenvList("APP_TRUSTED_PROXIES")

	var err error
	if cfg.RateLimit.RPS, err = getenvFloat("APP_RATE_LIMIT_RPS", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Burst, err = getenvInt("APP_RATE_LIMIT_BURST", 50); err != nil {
		return nil, err
	}
	if cfg.RateLimit.RPS < 0 || cfg.RateLimit.Burst < 0 {
		return nil, errors.New("APP_RATE_LIMIT_RPS and APP_RATE_LIMIT_BURST must not be negative")
	}

	cfg.Log.Level, err = logrus.ParseLevel(getenvDefault("APP_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("APP_LOG_LEVEL: %w", err)
	}
	cfg.Log.Format = strings.ToLower(getenvDefault("APP_LOG_FORMAT", "text"))
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return nil, fmt.Errorf("APP_LOG_FORMAT must be text or json (got %q)", cfg.Log.Format)
	}

	switch cfg.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if cfg.DB.DSN == "" {
			return nil, fmt.Errorf("APP_DB_DSN is required for the postgres driver (or set %s)", strings.Join(missing, ", "))
		}
	default:
		return nil, fmt.Errorf("APP_STORE_DRIVER must be %q or %q (got %q)", DriverMemory, DriverPostgres, cfg.StoreDriver)
	}

	if cfg.RateLimit.RPS > 0 && len(cfg.TrustedProxies) == 0 {
		logrus.Warn("no APP_TRUSTED_PROXIES configured; the rate limiter keys on the direct peer address")
	}

	return cfg, nil
}

// ConfigureLogging applies the log level and format to the standard logrus
// logger.
func (c *Config) ConfigureLogging() {
	logrus.SetLevel(c.Log.Level)
	if c.Log.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func getenvList(key string) []string {
	if v := os.Getenv(key); v != "" {
		var result []string
		for _, item := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return nil
}
