package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server       ServerConfig
	Log          LogConfig
	InventoryAPI InventoryAPIConfig
	Session      SessionConfig
	Departments  DepartmentsConfig
	WhatsApp     WhatsAppConfig
	Sheets       SheetsConfig
	MongoDB      MongoDBConfig
	Scheduling   SchedulingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig controls the zap logger level.
type LogConfig struct {
	Level string
}

// InventoryAPIConfig points at the remote inventory backend.
type InventoryAPIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// SessionConfig carries per-session defaults for movement drafts.
type SessionConfig struct {
	StockManager string
}

// DepartmentsConfig tunes the department directory cache.
type DepartmentsConfig struct {
	CacheTTL time.Duration
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
// The push channel is disabled when AccessToken is empty.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	Recipients    []string
}

// Enabled reports whether push notifications can be sent.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != ""
}

// SheetsConfig contains configuration required to write the movement ledger.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the ledger spreadsheet is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SchedulingConfig holds cron expressions for background jobs.
type SchedulingConfig struct {
	CatalogRefresh    string
	DepartmentRefresh string
	DigestSchedule    string
	DraftPrune        string
	// DraftMaxIdle is how long an untouched draft stays open.
	DraftMaxIdle time.Duration
	Timezone     string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	apiTimeout, err := getDuration("INVENTORY_API_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	cacheTTL, err := getDuration("DEPARTMENT_CACHE_TTL", 0)
	if err != nil {
		return nil, err
	}

	draftMaxIdle, err := getDuration("DRAFT_MAX_IDLE", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		InventoryAPI: InventoryAPIConfig{
			BaseURL: os.Getenv("INVENTORY_API_BASE_URL"),
			Token:   os.Getenv("INVENTORY_API_TOKEN"),
			Timeout: apiTimeout,
		},
		Session: SessionConfig{
			StockManager: getenvWithDefault("STOCK_MANAGER_NAME", "Stock Manager"),
		},
		Departments: DepartmentsConfig{
			CacheTTL: cacheTTL,
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			Recipients:    splitList(os.Getenv("WHATSAPP_RECIPIENTS")),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_LEDGER_ID"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "stockkeeper"),
		},
		Scheduling: SchedulingConfig{
			CatalogRefresh:    getenvWithDefault("CATALOG_REFRESH_CRON", "@every 10m"),
			DepartmentRefresh: getenvWithDefault("DEPARTMENT_REFRESH_CRON", "@every 30m"),
			DigestSchedule:    getenvWithDefault("DIGEST_CRON_SCHEDULE", "0 20 * * *"),
			DraftPrune:        getenvWithDefault("DRAFT_PRUNE_CRON", "@every 1h"),
			DraftMaxIdle:      draftMaxIdle,
			Timezone:          getenvWithDefault("TIMEZONE", "UTC"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.InventoryAPI.BaseURL == "" {
		return errors.New("INVENTORY_API_BASE_URL must be provided")
	}

	if c.InventoryAPI.Timeout <= 0 {
		return errors.New("INVENTORY_API_TIMEOUT must be positive")
	}

	if c.Departments.CacheTTL < 0 {
		return errors.New("DEPARTMENT_CACHE_TTL must not be negative")
	}

	if strings.TrimSpace(c.Session.StockManager) == "" {
		return errors.New("STOCK_MANAGER_NAME must not be blank")
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided when WHATSAPP_TOKEN is set")
		case len(c.WhatsApp.Recipients) == 0:
			return errors.New("WHATSAPP_RECIPIENTS must be provided when WHATSAPP_TOKEN is set")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_LEDGER_ID must be provided together")
	}

	if c.MongoDB.URI == "" || c.MongoDB.DBName == "" {
		return errors.New("MONGODB_URI and MONGODB_DB_NAME must not be empty")
	}

	if c.Scheduling.DraftMaxIdle <= 0 {
		return errors.New("DRAFT_MAX_IDLE must be positive")
	}

	if c.Scheduling.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if _, err := time.LoadLocation(c.Scheduling.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Scheduling.Timezone, err)
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
