package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the public card-search site the suite targets.
const DefaultBaseURL = "https://scryfall.com/"

// LocalTarget makes the suite boot the fixture site in-process instead of
// hitting the public site.
const LocalTarget = "local"

const (
	BackendSelenium = "selenium"
	BackendChromedp = "chromedp"
)

// Config holds everything the browser suite and the fixture server read from
// the environment.
type Config struct {
	Enabled          bool
	BaseURL          string
	Backend          string
	ChromeDriverPath string
	DriverPort       int
	WebDriverURL     string
	Headless         bool
	ImplicitWait     time.Duration
	ActionRate       float64
	ArtifactsDir     string
	JournalPath      string
	LogLevel         logrus.Level
}

var loadOnce sync.Once

// loadDotEnv reads .env if present. Variables already set in the
// environment are not overwritten.
func loadDotEnv() {
	_ = godotenv.Load()
}

// Load resolves the configuration from the environment.
func Load() (*Config, error) {
	loadOnce.Do(loadDotEnv)

	cfg := &Config{
		BaseURL:          getenv("CARDSEARCH_BASE_URL", DefaultBaseURL),
		Backend:          strings.ToLower(getenv("CARDSEARCH_BACKEND", BackendSelenium)),
		ChromeDriverPath: getenv("CHROMEDRIVER_PATH", "chromedriver"),
		WebDriverURL:     os.Getenv("WEBDRIVER_URL"),
		ArtifactsDir:     getenv("ARTIFACTS_DIR", "test-results"),
		JournalPath:      os.Getenv("JOURNAL_PATH"),
	}

	var err error
	if cfg.Enabled, err = parseBool("CARDSEARCH_E2E", false); err != nil {
		return nil, err
	}
	if cfg.Headless, err = parseBool("HEADLESS", true); err != nil {
		return nil, err
	}
	if cfg.DriverPort, err = parseInt("CHROMEDRIVER_PORT", 4444); err != nil {
		return nil, err
	}
	if cfg.ImplicitWait, err = parseDuration("IMPLICIT_WAIT", 0); err != nil {
		return nil, err
	}
	if cfg.ActionRate, err = parseFloat("ACTION_RATE", 0); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = logrus.ParseLevel(getenv("LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ServerConfig configures the fixture server command.
type ServerConfig struct {
	Port      string
	DBPath    string
	RateLimit float64
	Burst     int
	LogLevel  logrus.Level
}

// LoadServer reads PORT, FIXTURE_DB, FIXTURE_RATE, FIXTURE_BURST and
// LOG_LEVEL.
func LoadServer() (*ServerConfig, error) {
	loadOnce.Do(loadDotEnv)

	cfg := &ServerConfig{
		Port:   getenv("PORT", "8080"),
		DBPath: getenv("FIXTURE_DB", "fixture.db"),
	}
	var err error
	if cfg.RateLimit, err = parseFloat("FIXTURE_RATE", 0); err != nil {
		return nil, err
	}
	if cfg.Burst, err = parseInt("FIXTURE_BURST", 10); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = logrus.ParseLevel(getenv("LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("FIXTURE_RATE must not be negative")
	}
	return cfg, nil
}

// Validate rejects values that would only fail later, mid-test.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSelenium, BackendChromedp:
	default:
		return fmt.Errorf("CARDSEARCH_BACKEND: unknown backend %q", c.Backend)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("CARDSEARCH_BASE_URL must not be empty")
	}
	if c.DriverPort <= 0 || c.DriverPort > 65535 {
		return fmt.Errorf("CHROMEDRIVER_PORT: %d out of range", c.DriverPort)
	}
	if c.ImplicitWait < 0 {
		return fmt.Errorf("IMPLICIT_WAIT must not be negative")
	}
	if c.ActionRate < 0 {
		return fmt.Errorf("ACTION_RATE must not be negative")
	}
	return nil
}

// IsLocal reports whether the suite should run against the in-process
// fixture site.
func (c *Config) IsLocal() bool {
	return c.BaseURL == LocalTarget
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func parseInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
