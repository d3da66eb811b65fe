package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// AppName names the per-user data and config directories.
const AppName = "wishlist-tracker"

// Storage drivers understood by the temporal store.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultItemSelector matches one wish-list item container.
const DefaultItemSelector = `div.a-fixed-left-grid-inner[style="padding-left:220px"]`

// DefaultUserAgent is sent with every page request.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// WaitPolicy controls how long the loader coaxes a lazily-rendering page.
type WaitPolicy struct {
	ScrollStepDelay   time.Duration
	MaxScrollAttempts int
	SettleTime        time.Duration
}

// Config holds all application configuration loaded from environment variables.
// Each component receives it explicitly at construction.
type Config struct {
	StorageDriver string
	StoragePath   string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	ChromeBin    string
	CookieFile   string
	UserAgent    string
	ItemSelector string
	PageTimeout  time.Duration
	Wait         WaitPolicy

	CatalogPath string
	RateLimitMs int
	Debug       bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		StorageDriver: getEnv("STORAGE_DRIVER", DriverSQLite),
		StoragePath:   getEnv("STORAGE_PATH", filepath.Join(DataDir(), "wishlist.db")),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "wishlist"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "wishlist"),
		PostgresDB:       getEnv("POSTGRES_DB", "wishlist"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		ChromeBin:    getEnv("CHROME_BIN", ""),
		CookieFile:   getEnv("COOKIE_FILE", filepath.Join(ConfigDir(), "cookie.txt")),
		UserAgent:    getEnv("USER_AGENT", DefaultUserAgent),
		ItemSelector: getEnv("ITEM_SELECTOR", DefaultItemSelector),
		PageTimeout:  getEnvDuration("PAGE_TIMEOUT", 2*time.Minute),
		Wait: WaitPolicy{
			ScrollStepDelay:   getEnvDuration("SCROLL_STEP_DELAY", 500*time.Millisecond),
			MaxScrollAttempts: getEnvInt("MAX_SCROLL_ATTEMPTS", 20),
			SettleTime:        getEnvDuration("SETTLE_TIME", 5*time.Second),
		},

		CatalogPath: getEnv("CATALOG_PATH", filepath.Join(ConfigDir(), "lists.yaml")),
		RateLimitMs: getEnvInt("RATE_LIMIT_MS", 2000),
		Debug:       getEnvBool("LOG_DEBUG", false),
	}
}

// DataDir returns the per-user data directory, e.g. ~/.local/share/wishlist-tracker.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// ConfigDir returns the per-user config directory, e.g. ~/.config/wishlist-tracker.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DSN returns the connection string for the configured storage driver.
func (c *Config) DSN() string {
	if c.StorageDriver == DriverPostgres {
		return "host=" + c.PostgresHost +
			" port=" + c.PostgresPort +
			" user=" + c.PostgresUser +
			" password=" + c.PostgresPassword +
			" dbname=" + c.PostgresDB +
			" sslmode=" + c.PostgresSSLMode
	}
	return c.StoragePath
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverSQLite:
		if strings.TrimSpace(c.StoragePath) == "" {
			return ErrNoStoragePath
		}
	case DriverPostgres:
	default:
		return ErrUnknownDriver
	}
	if c.Wait.MaxScrollAttempts < 1 {
		return ErrInvalidScrollAttempts
	}
	if c.Wait.ScrollStepDelay < 0 || c.Wait.SettleTime < 0 {
		return ErrNegativeWait
	}
	if c.PageTimeout <= 0 {
		return ErrInvalidPageTimeout
	}
	if strings.TrimSpace(c.ItemSelector) == "" {
		return ErrNoItemSelector
	}
	if c.RateLimitMs < 0 {
		return ErrInvalidRateLimit
	}
	return nil
}

// LoadCookie reads the opaque session cookie blob from path.
func LoadCookie(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("750ms") or plain milliseconds ("750").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
