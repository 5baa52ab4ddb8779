package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Snapshot persistence
	DataBackend  string
	SQLiteDBPath string
	PostgresURL  string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Cloud sync
	CloudSyncURL   string
	CloudSyncToken string

	// Sync endpoint auth: "token:user" pairs, comma separated
	SyncTokens string

	// Identity the server's own ledger persists under
	LocalUserID string

	// Timers
	SaveDebounce      time.Duration
	SchedulerInterval time.Duration

	// Limits
	MaxSyncPayload int64

	// Auto-categorization rules (TOML), empty means built-in rules
	CategoryRulesFile string

	// Google Sheets export target (optional)
	SheetsSpreadsheetID   string
	SheetsSheetName       string
	SheetsCredentialsJSON string
	SheetsCredentialsFile string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8082"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/financas.db"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "financas"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_snapshots"),

		CloudSyncURL:   getEnv("CLOUD_SYNC_URL", ""),
		CloudSyncToken: getEnv("CLOUD_SYNC_TOKEN", ""),

		SyncTokens:  getEnv("SYNC_TOKENS", ""),
		LocalUserID: getEnv("LOCAL_USER_ID", "local"),

		SaveDebounce:      getEnvDuration("SAVE_DEBOUNCE", 800*time.Millisecond),
		SchedulerInterval: getEnvDuration("SCHEDULER_INTERVAL", time.Hour),

		MaxSyncPayload: getEnvInt64("MAX_SYNC_PAYLOAD", 5<<20),

		CategoryRulesFile: getEnv("CATEGORY_RULES_FILE", ""),

		SheetsSpreadsheetID:   getEnv("SHEETS_SPREADSHEET_ID", ""),
		SheetsSheetName:       getEnv("SHEETS_SHEET_NAME", ""),
		SheetsCredentialsJSON: getEnv("SHEETS_CREDENTIALS_JSON", ""),
		SheetsCredentialsFile: getEnv("SHEETS_CREDENTIALS_FILE", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite", "postgres"}
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

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "postgres" && c.PostgresURL == "" {
		errors = append(errors, "Postgres URL cannot be empty when using postgres backend")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.CloudSyncURL != "" {
		if parsedURL, err := url.Parse(c.CloudSyncURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid cloud sync URL '%s': %v", c.CloudSyncURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid cloud sync URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
		if c.CloudSyncToken == "" {
			errors = append(errors, "cloud sync token cannot be empty when cloud sync URL is provided")
		}
	}

	if c.SyncTokens != "" {
		if _, err := ParseSyncTokens(c.SyncTokens); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if c.LocalUserID == "" {
		errors = append(errors, "local user id cannot be empty")
	}

	if c.SaveDebounce < 10*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid save debounce %v: must be at least 10ms", c.SaveDebounce))
	} else if c.SaveDebounce > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid save debounce %v: must be at most 1 minute", c.SaveDebounce))
	}

	if c.SchedulerInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid scheduler interval %v: must be at least 1 minute", c.SchedulerInterval))
	} else if c.SchedulerInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid scheduler interval %v: must be at most 24 hours", c.SchedulerInterval))
	}

	if c.MaxSyncPayload < 1024 {
		errors = append(errors, fmt.Sprintf("invalid max sync payload %d: must be at least 1KB", c.MaxSyncPayload))
	}

	if c.CategoryRulesFile != "" {
		if _, err := os.Stat(c.CategoryRulesFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("category rules file does not exist: %s", c.CategoryRulesFile))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ParseSyncTokens parses "token:user" pairs separated by commas into a
// token-to-identity map for the sync endpoints.
func ParseSyncTokens(s string) (map[string]string, error) {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, user, ok := strings.Cut(pair, ":")
		if !ok || strings.TrimSpace(token) == "" || strings.TrimSpace(user) == "" {
			return nil, fmt.Errorf("invalid sync token pair '%s': expected token:user", pair)
		}
		tokens[strings.TrimSpace(token)] = strings.TrimSpace(user)
	}
	return tokens, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
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
