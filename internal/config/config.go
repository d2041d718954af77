package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port               string   `yaml:"port"`
	DBDriver           string   `yaml:"db_driver"` // sqlite | postgres
	DBDSN              string   `yaml:"db_dsn"`
	LogFile            string   `yaml:"log_file"`
	LogLevel           string   `yaml:"log_level"`
	LogFormat          string   `yaml:"log_format"` // json | text
	KafkaBrokers       []string `yaml:"kafka_brokers"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
	SeedDemoData       bool     `yaml:"seed_demo_data"`
}

func Default() Config {
	return Config{
		Port:               "8080",
		DBDriver:           "sqlite",
		DBDSN:              "onlineshop.db", // sqlite file in project root
		LogLevel:           "info",
		LogFormat:          "json",
		RateLimitPerMinute: 60,
		SeedDemoData:       true,
	}
}

// Load reads CONFIG_FILE (if set) over the defaults and then applies
// environment overrides. A broken config file is logged and skipped.
func Load() Config {
	cfg, err := LoadFrom(os.Getenv("CONFIG_FILE"), os.Getenv)
	if err != nil {
		logrus.WithError(err).Warn("[config] falling back to defaults and environment")
		cfg, _ = LoadFrom("", os.Getenv)
	}
	logrus.WithFields(logrus.Fields{
		"port":      cfg.Port,
		"db_driver": cfg.DBDriver,
		"db_dsn":    redactDSN(cfg.DBDSN),
		"log_file":  cfg.LogFile,
		"kafka":     strings.Join(cfg.KafkaBrokers, ","),
	}).Info("[config] loaded")
	return cfg
}

func LoadFrom(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := map[string]*string{
		"PORT":       &cfg.Port,
		"DB_DRIVER":  &cfg.DBDriver,
		"DB_DSN":     &cfg.DBDSN,
		"LOG_FILE":   &cfg.LogFile,
		"LOG_LEVEL":  &cfg.LogLevel,
		"LOG_FORMAT": &cfg.LogFormat,
	}
	for key, dst := range str {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	if v := strings.TrimSpace(getenv("KAFKA_BROKERS")); v != "" {
		cfg.KafkaBrokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	if v := strings.TrimSpace(getenv("RATE_LIMIT_PER_MINUTE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_PER_MINUTE: %w", err)
		}
		cfg.RateLimitPerMinute = n
	}
	if v := strings.TrimSpace(getenv("SEED_DEMO_DATA")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SEED_DEMO_DATA: %w", err)
		}
		cfg.SeedDemoData = b
	}
	return nil
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported db_driver %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("db_dsn is required")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("rate_limit_per_minute must be positive")
	}
	return nil
}

// redactDSN hides a password embedded in a postgres URL.
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if i := strings.Index(creds, ":"); i >= 0 {
		return dsn[:scheme+3] + creds[:i] + ":***" + dsn[at:]
	}
	return dsn
}
