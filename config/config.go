package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"auction-scraper/models"
)

// WaitStrategy names the page-ready condition used on the first navigation
// attempt. The retry always falls back to WaitCommit.
type WaitStrategy string

const (
	// WaitInteractive waits until document.readyState is interactive or complete.
	WaitInteractive WaitStrategy = "interactive"
	// WaitLoad waits for the load event.
	WaitLoad WaitStrategy = "load"
	// WaitCommit returns as soon as the navigation response is received.
	WaitCommit WaitStrategy = "commit"
)

// ParseWaitStrategy validates a strategy name.
func ParseWaitStrategy(s string) (WaitStrategy, error) {
	switch WaitStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case WaitInteractive:
		return WaitInteractive, nil
	case WaitLoad:
		return WaitLoad, nil
	case WaitCommit:
		return WaitCommit, nil
	}
	return "", fmt.Errorf("config: unknown wait strategy %q (want interactive, load or commit)", s)
}

// DefaultColumns is the declared output column order.
var DefaultColumns = models.Fields

// Config holds all run configuration loaded from .env and environment variables.
type Config struct {
	URLsPath      string
	OutputPath    string
	OutputColumns []string

	TimeoutMs     int
	WaitStrategy  WaitStrategy
	SettleDelayMs int
	RateLimitMs   int

	ChromeBin     string
	Headless      bool
	Stealth       bool
	UserAgent     string
	Locale        string
	Timezone      string
	WarmupEnabled bool
	WarmupURL     string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	Debug bool
}

// Load reads the .env file and returns a populated Config struct.
// Call Validate before using it.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		URLsPath:      getEnv("URLS_PATH", "urls.txt"),
		OutputPath:    getEnv("OUTPUT_PATH", "auction_data.csv"),
		OutputColumns: getEnvList("OUTPUT_COLUMNS", DefaultColumns),

		TimeoutMs:     getEnvInt("NAV_TIMEOUT_MS", 45000),
		WaitStrategy:  WaitStrategy(getEnv("WAIT_STRATEGY", string(WaitInteractive))),
		SettleDelayMs: getEnvInt("SETTLE_DELAY_MS", 1200),
		RateLimitMs:   getEnvInt("RATE_LIMIT_MS", 2000),

		ChromeBin: getEnv("CHROME_BIN", ""),
		Headless:  getEnvBool("HEADLESS", true),
		Stealth:   getEnvBool("STEALTH", true),
		UserAgent: getEnv("USER_AGENT", "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_6) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"),
		Locale:        getEnv("LOCALE", "en-US"),
		Timezone:      getEnv("TIMEZONE", "America/Toronto"),
		WarmupEnabled: getEnvBool("WARMUP_ENABLED", true),
		WarmupURL:     getEnv("WARMUP_URL", "https://ca.iaai.com/"),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "auction_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		Debug: getEnvBool("LOG_DEBUG", false),
	}
}

// Validate normalises and checks the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.URLsPath) == "" {
		return fmt.Errorf("config: URLS_PATH must not be empty")
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return fmt.Errorf("config: OUTPUT_PATH must not be empty")
	}
	if c.TimeoutMs <= 0 {
		return fmt.Errorf("config: NAV_TIMEOUT_MS must be positive, got %d", c.TimeoutMs)
	}
	if c.SettleDelayMs < 0 {
		return fmt.Errorf("config: SETTLE_DELAY_MS must not be negative, got %d", c.SettleDelayMs)
	}
	if c.RateLimitMs < 0 {
		return fmt.Errorf("config: RATE_LIMIT_MS must not be negative, got %d", c.RateLimitMs)
	}

	ws, err := ParseWaitStrategy(string(c.WaitStrategy))
	if err != nil {
		return err
	}
	c.WaitStrategy = ws

	if len(c.OutputColumns) == 0 {
		c.OutputColumns = append([]string(nil), DefaultColumns...)
	}
	known := make(map[string]bool, len(models.Fields))
	for _, col := range models.Fields {
		known[col] = true
	}
	seen := make(map[string]bool, len(c.OutputColumns))
	for _, col := range c.OutputColumns {
		if !known[col] {
			return fmt.Errorf("config: unknown output column %q", col)
		}
		if seen[col] {
			return fmt.Errorf("config: duplicate output column %q", col)
		}
		seen[col] = true
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err == nil {
			return n
		}
		log.Printf("[config] Invalid integer %s=%q, using default %d", key, val, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err == nil {
			return b
		}
		log.Printf("[config] Invalid boolean %s=%q, using default %v", key, val, fallback)
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
