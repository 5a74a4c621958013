package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// HTTP Server
	Port string

	// Logging
	LogLevel string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// AMQP, empty URL disables events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Recurring processing
	ProcessInterval  time.Duration
	ProcessOnStart   bool
	CatchUp          bool
	CatchUpMaxRounds int

	// Worker
	BackfillOnStart bool
}

// SetDefaults registers every key's default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8081")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATA_BACKEND", "sqlite")
	v.SetDefault("SQLITE_DB_PATH", "./data/budget.db")
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "budget")
	v.SetDefault("AMQP_QUEUE", "ledger_transactions")
	v.SetDefault("GOOGLE_SPREADSHEET_ID", "")
	v.SetDefault("GOOGLE_SHEET_NAME", "Ledger")
	v.SetDefault("PROCESS_INTERVAL", time.Hour)
	v.SetDefault("PROCESS_ON_START", true)
	v.SetDefault("CATCH_UP", false)
	v.SetDefault("CATCH_UP_MAX_ROUNDS", 0)
	v.SetDefault("BACKFILL_ON_START", true)
}

// Load reads configuration from the environment and, when configFile is
// not empty, from that file. Environment values win over the file.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	return FromViper(v), nil
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port:     v.GetString("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		DataBackend:  strings.ToLower(strings.TrimSpace(v.GetString("DATA_BACKEND"))),
		SQLiteDBPath: v.GetString("SQLITE_DB_PATH"),

		AMQPURL:      v.GetString("AMQP_URL"),
		AMQPExchange: v.GetString("AMQP_EXCHANGE"),
		AMQPQueue:    v.GetString("AMQP_QUEUE"),

		GoogleSpreadsheetID: v.GetString("GOOGLE_SPREADSHEET_ID"),
		GoogleSheetName:     v.GetString("GOOGLE_SHEET_NAME"),

		ProcessInterval:  v.GetDuration("PROCESS_INTERVAL"),
		ProcessOnStart:   v.GetBool("PROCESS_ON_START"),
		CatchUp:          v.GetBool("CATCH_UP"),
		CatchUpMaxRounds: v.GetInt("CATCH_UP_MAX_ROUNDS"),

		BackfillOnStart: v.GetBool("BACKFILL_ON_START"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
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

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate AMQP URL if provided
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

	if c.ProcessInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid process interval %v: must not be negative", c.ProcessInterval))
	} else if c.ProcessInterval > 0 && c.ProcessInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid process interval %v: must be at least 1 second", c.ProcessInterval))
	} else if c.ProcessInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid process interval %v: must be at most 24 hours", c.ProcessInterval))
	}

	if c.CatchUpMaxRounds < 0 {
		errors = append(errors, fmt.Sprintf("invalid catch-up max rounds %d: must not be negative", c.CatchUpMaxRounds))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker checks the settings only the sheets worker needs.
func (c *Config) ValidateWorker() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the sheets worker")
	}
	if strings.TrimSpace(c.GoogleSpreadsheetID) == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the sheets worker")
	}
	if c.DataBackend != "sqlite" {
		errors = append(errors, "the sheets worker reads the ledger and requires the sqlite backend")
	}
	if len(errors) > 0 {
		return fmt.Errorf("worker configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
