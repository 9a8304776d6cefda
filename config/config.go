package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Browser backends understood by the browser package.
const (
	BackendChrome     = "chrome"
	BackendPlaywright = "playwright"
	BackendStatic     = "static"
)

type Config struct {
	BaseURL  string `yaml:"base_url"`
	Postcode string `yaml:"postcode"`

	QueriesPath string `yaml:"queries_path"`
	QueryOffset int    `yaml:"query_offset"`
	QueryLimit  int    `yaml:"query_limit"`

	Backend           string        `yaml:"backend"`
	Headless          bool          `yaml:"headless"`
	UserAgent         string        `yaml:"user_agent"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	PageWaitTimeout   time.Duration `yaml:"page_wait_timeout"`
	HarvestTimeout    time.Duration `yaml:"harvest_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`

	CSVPath  string `yaml:"csv_path"`
	JSONPath string `yaml:"json_path"`
	LogLevel string `yaml:"log_level"`

	DBEnabled  bool   `yaml:"db_enabled"`
	DBHost     string `yaml:"db_host"`
	DBPort     int    `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:           "https://www.autotrader.co.uk",
		Postcode:          "PO16+7GZ",
		QueriesPath:       "atuk_makes_and_models.csv",
		Backend:           BackendChrome,
		Headless:          true,
		UserAgent:         "carlot/1.0 (+https://github.com/BigNoodles/carlot)",
		RequestTimeout:    60 * time.Second,
		PageWaitTimeout:   60 * time.Second,
		RequestsPerSecond: 0.5,
		CSVPath:           "output/adverts.csv",
		LogLevel:          "info",
		DBHost:            "localhost",
		DBPort:            5432,
		DBUser:            "postgres",
		DBPassword:        "postgres",
		DBName:            "carlot",
		DBSSLMode:         "disable",
	}
}

// Load returns the defaults overlaid by the YAML file at path (skipped when
// path is empty) and then by environment variables.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.BaseURL = getEnv("CARLOT_BASE_URL", c.BaseURL)
	c.Postcode = getEnv("CARLOT_POSTCODE", c.Postcode)
	c.QueriesPath = getEnv("CARLOT_QUERIES", c.QueriesPath)
	c.QueryOffset = getEnvInt("CARLOT_QUERY_OFFSET", c.QueryOffset)
	c.QueryLimit = getEnvInt("CARLOT_QUERY_LIMIT", c.QueryLimit)
	c.Backend = getEnv("CARLOT_BACKEND", c.Backend)
	c.Headless = getEnvBool("CARLOT_HEADLESS", c.Headless)
	c.UserAgent = getEnv("CARLOT_USER_AGENT", c.UserAgent)
	c.RequestTimeout = getEnvDuration("CARLOT_REQUEST_TIMEOUT", c.RequestTimeout)
	c.RequestsPerSecond = getEnvFloat("CARLOT_REQUESTS_PER_SECOND", c.RequestsPerSecond)
	c.CSVPath = getEnv("CARLOT_CSV_PATH", c.CSVPath)
	c.JSONPath = getEnv("CARLOT_JSON_PATH", c.JSONPath)
	c.LogLevel = getEnv("CARLOT_LOG_LEVEL", c.LogLevel)
	c.PageWaitTimeout = getEnvDuration("CARLOT_PAGE_WAIT_TIMEOUT", c.PageWaitTimeout)
	c.HarvestTimeout = getEnvDuration("CARLOT_HARVEST_TIMEOUT", c.HarvestTimeout)

	c.DBEnabled = getEnvBool("DB_ENABLED", c.DBEnabled)
	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBPort = getEnvInt("DB_PORT", c.DBPort)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnv("DB_NAME", c.DBName)
	c.DBSSLMode = getEnv("DB_SSLMODE", c.DBSSLMode)
}

func (c *Config) Validate() error {
	var errs []error

	if c.BaseURL == "" {
		errs = append(errs, errors.New("base_url is required"))
	}
	if c.QueriesPath == "" {
		errs = append(errs, errors.New("queries_path is required"))
	}
	switch c.Backend {
	case BackendChrome, BackendPlaywright, BackendStatic:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if c.PageWaitTimeout <= 0 {
		errs = append(errs, errors.New("page_wait_timeout must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.HarvestTimeout < 0 {
		errs = append(errs, errors.New("harvest_timeout must not be negative"))
	}
	if c.QueryOffset < 0 || c.QueryLimit < 0 {
		errs = append(errs, errors.New("query_offset and query_limit must not be negative"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DSN builds the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
