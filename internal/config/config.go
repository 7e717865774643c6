package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"finreport/internal/core"
)

// APIConfig holds the credentials of one remote price provider.
type APIConfig struct {
	Key     string
	BaseURL string
}

// Validate returns core.ErrConfiguration when the key or URL is missing.
func (a APIConfig) Validate() error {
	if strings.TrimSpace(a.BaseURL) == "" {
		return fmt.Errorf("%w: API URL is not set", core.ErrConfiguration)
	}
	if strings.TrimSpace(a.Key) == "" {
		return fmt.Errorf("%w: API key is not set", core.ErrConfiguration)
	}
	return nil
}

type Config struct {
	// HTTP Server
	Port         string
	RateLimitRPM int

	// Transactions source
	DataBackend      string
	TransactionsPath string
	UserSettingsPath string
	ReportsDir       string

	// Google Sheets
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Price providers
	BaseCurrency string
	CurrencyAPI  APIConfig
	StockAPI     APIConfig
	HTTPTimeout  time.Duration

	// Stock fetch tuning
	StockConcurrency int
	StockRPS         float64

	// Caching and history
	QuoteCacheTTL  time.Duration
	TableCacheTTL  time.Duration
	SnapshotDBPath string

	// Logging
	LogLevel string
	LogFile  string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		RateLimitRPM: getEnvInt("RATE_LIMIT_RPM", 60),

		DataBackend:      getEnv("DATA_BACKEND", "excel"),
		TransactionsPath: getEnv("TRANSACTIONS_PATH", "data/operations.xlsx"),
		UserSettingsPath: getEnv("USER_SETTINGS_PATH", "data/user_settings.json"),
		ReportsDir:       getEnv("REPORTS_DIR", "reports"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Operations"),

		BaseCurrency: strings.ToUpper(getEnv("BASE_CURRENCY", "RUB")),
		CurrencyAPI: APIConfig{
			Key:     getEnv("API_KEY_CURR", ""),
			BaseURL: getEnv("API_URL_CURR", ""),
		},
		StockAPI: APIConfig{
			Key:     getEnv("API_KEY_STOCK", ""),
			BaseURL: getEnv("API_URL_STOCK", ""),
		},
		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 20*time.Second),

		StockConcurrency: getEnvInt("STOCK_CONCURRENCY", 4),
		StockRPS:         getEnvFloat("STOCK_RPS", 0),

		QuoteCacheTTL:  getEnvDuration("QUOTE_CACHE_TTL", 0),
		TableCacheTTL:  getEnvDuration("TABLE_CACHE_TTL", time.Minute),
		SnapshotDBPath: getEnv("SNAPSHOT_DB_PATH", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid.
// Missing API credentials are not reported here: they are fatal only for the
// fetcher that needs them.
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitRPM < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRPM))
	}

	// Validate data backend
	validBackends := []string{"excel", "sheets"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "excel" {
		if strings.TrimSpace(c.TransactionsPath) == "" {
			errors = append(errors, "transactions path cannot be empty when using excel backend")
		} else {
			switch strings.ToLower(filepath.Ext(c.TransactionsPath)) {
			case ".xlsx", ".xlsm", ".xls":
			default:
				errors = append(errors, fmt.Sprintf("unsupported transactions file '%s': must be .xlsx, .xlsm or .xls", c.TransactionsPath))
			}
		}
	}

	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
	}

	if len(c.BaseCurrency) != 3 {
		errors = append(errors, fmt.Sprintf("invalid base currency '%s': must be a 3-letter code", c.BaseCurrency))
	}

	// API URLs are optional, but must be absolute when set
	apis := []struct {
		name string
		url  string
	}{{"API_URL_CURR", c.CurrencyAPI.BaseURL}, {"API_URL_STOCK", c.StockAPI.BaseURL}}
	for _, api := range apis {
		if api.url == "" {
			continue
		}
		if u, err := url.Parse(api.url); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': must be an absolute URL", api.name, api.url))
		}
	}

	if c.HTTPTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at least 1 second", c.HTTPTimeout))
	}

	if c.StockConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid stock concurrency %d: must be at least 1", c.StockConcurrency))
	} else if c.StockConcurrency > 32 {
		errors = append(errors, fmt.Sprintf("invalid stock concurrency %d: must be at most 32", c.StockConcurrency))
	}

	if c.StockRPS < 0 {
		errors = append(errors, fmt.Sprintf("invalid stock rate %v: must not be negative", c.StockRPS))
	}

	if c.QuoteCacheTTL < 0 || c.TableCacheTTL < 0 {
		errors = append(errors, "cache TTLs must not be negative")
	}

	if c.SnapshotDBPath != "" {
		dir := filepath.Dir(c.SnapshotDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create snapshot database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
