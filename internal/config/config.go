package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ListenAddr string
	BaseURL    string

	DB struct {
		DSN string
	}

	Session struct {
		Secret string
		MaxAge time.Duration
	}

	PrometheusEnabled bool
	TrustedProxies    []string

	// DefaultTimezone is assigned to newly registered users.
	DefaultTimezone string

	Push struct {
		Interval        time.Duration
		VAPIDPublicKey  string
		VAPIDPrivateKey string
		VAPIDSubject    string
	}

	// LockDir holds the file lock that keeps a single notifier running per host.
	LockDir string
}

// PushEnabled reports whether VAPID keys are configured.
func (c *Config) PushEnabled() bool {
	return c.Push.VAPIDPublicKey != "" && c.Push.VAPIDPrivateKey != ""
}

// fileConfig is the optional TOML file named by APP_CONFIG_FILE. Its values are used
// wherever the matching environment variable is unset.
type fileConfig struct {
	ListenAddr        string   `toml:"listen_addr"`
	BaseURL           string   `toml:"base_url"`
	PrometheusEnabled *bool    `toml:"prometheus_enabled"`
	TrustedProxies    []string `toml:"trusted_proxies"`
	DefaultTimezone   string   `toml:"default_timezone"`
	LockDir           string   `toml:"lock_dir"`

	DB struct {
		DSN string `toml:"dsn"`
	} `toml:"db"`

	Session struct {
		Secret string `toml:"secret"`
		MaxAge string `toml:"max_age"`
	} `toml:"session"`

	Push struct {
		Interval        string `toml:"interval"`
		VAPIDPublicKey  string `toml:"vapid_public_key"`
		VAPIDPrivateKey string `toml:"vapid_private_key"`
		VAPIDSubject    string `toml:"vapid_subject"`
	} `toml:"push"`
}

func loadFile(path string) (*fileConfig, error) {
	fc := &fileConfig{}
	if path == "" {
		return fc, nil
	}
	if _, err := toml.DecodeFile(path, fc); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	return fc, nil
}

func Load() (*Config, error) {
	fc, err := loadFile(os.Getenv("APP_CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{}

	cfg.ListenAddr = getenvDefault("APP_LISTEN_ADDR", firstNonEmpty(fc.ListenAddr, ":8080"))
	cfg.BaseURL = getenvDefault("APP_BASE_URL", firstNonEmpty(fc.BaseURL, "http://localhost:8080"))
	cfg.DB.DSN = getenvDefault("APP_DB_DSN", fc.DB.DSN)

	if cfg.DB.DSN == "" {
		host := os.Getenv("APP_DB_HOST")
		name := os.Getenv("APP_DB_NAME")
		user := os.Getenv("APP_DB_USER")
		password := os.Getenv("APP_DB_PASSWORD")
		port := getenvDefault("APP_DB_PORT", "5432")
		sslmode := getenvDefault("APP_DB_SSLMODE", "disable")

		var missing []string
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

	cfg.Session.Secret = getenvDefault("APP_SESSION_SECRET", fc.Session.Secret)
	cfg.PrometheusEnabled = getenvBool("APP_PROMETHEUS_ENDPOINT_ENABLED", fc.PrometheusEnabled != nil && *fc.PrometheusEnabled)
	cfg.TrustedProxies = getenvList("APP_TRUSTED_PROXIES")
	if cfg.TrustedProxies == nil {
		cfg.TrustedProxies = fc.TrustedProxies
	}
	cfg.DefaultTimezone = getenvDefault("APP_DEFAULT_TIMEZONE", firstNonEmpty(fc.DefaultTimezone, "Europe/Berlin"))
	cfg.Push.VAPIDPublicKey = getenvDefault("APP_VAPID_PUBLIC_KEY", fc.Push.VAPIDPublicKey)
	cfg.Push.VAPIDPrivateKey = getenvDefault("APP_VAPID_PRIVATE_KEY", fc.Push.VAPIDPrivateKey)
	cfg.Push.VAPIDSubject = getenvDefault("APP_VAPID_SUBJECT", firstNonEmpty(fc.Push.VAPIDSubject, "mailto:admin@localhost"))
	cfg.LockDir = getenvDefault("APP_LOCK_DIR", firstNonEmpty(fc.LockDir, os.TempDir()))

	if cfg.Session.MaxAge, err = getenvDuration("APP_SESSION_MAX_AGE", firstNonEmpty(fc.Session.MaxAge, "720h")); err != nil {
		return nil, err
	}
	if cfg.Push.Interval, err = getenvDuration("APP_PUSH_INTERVAL", firstNonEmpty(fc.Push.Interval, "60s")); err != nil {
		return nil, err
	}

	if cfg.DB.DSN == "" {
		return nil, errors.New("APP_DB_DSN is required (or set APP_DB_HOST, APP_DB_NAME, APP_DB_USER, and APP_DB_PASSWORD)")
	}
	if cfg.Session.Secret == "" {
		return nil, errors.New("APP_SESSION_SECRET is required")
	}
	if len(cfg.Session.Secret) < 32 {
		return nil, fmt.Errorf("APP_SESSION_SECRET must be at least 32 characters long (got %d)", len(cfg.Session.Secret))
	}
	if _, err := time.LoadLocation(cfg.DefaultTimezone); err != nil {
		return nil, fmt.Errorf("APP_DEFAULT_TIMEZONE %q: %w", cfg.DefaultTimezone, err)
	}
	if cfg.Push.Interval < time.Second {
		return nil, fmt.Errorf("APP_PUSH_INTERVAL must be at least 1s (got %s)", cfg.Push.Interval)
	}
	if (cfg.Push.VAPIDPublicKey == "") != (cfg.Push.VAPIDPrivateKey == "") {
		return nil, errors.New("APP_VAPID_PUBLIC_KEY and APP_VAPID_PRIVATE_KEY must be set together")
	}

	if len(cfg.TrustedProxies) == 0 {
		fmt.Println("WARNING: No APP_TRUSTED_PROXIES configured. Timeclock will trust all proxies - Not recommended for public environments.")
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
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

// getenvDuration accepts Go durations ("90s") or a bare number of seconds.
func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
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
