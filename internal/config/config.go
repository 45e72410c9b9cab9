package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Sheets     SheetsConfig     `mapstructure:"sheets"`
	Settlement SettlementConfig `mapstructure:"settlement"`
	Server     ServerConfig     `mapstructure:"server"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SheetsConfig holds the CSV export locations of the transaction and member sheets
type SheetsConfig struct {
	TransactionsURL string        `mapstructure:"transactions_url"`
	MembersURL      string        `mapstructure:"members_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryDelayBase  time.Duration `mapstructure:"retry_delay_base"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	RedisAddr       string        `mapstructure:"redis_addr"` // empty = in-process cache
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
}

// SettlementConfig holds fee and settlement policy
type SettlementConfig struct {
	SellFeeRate        string `mapstructure:"sell_fee_rate"`
	BuyFeeRate         string `mapstructure:"buy_fee_rate"`
	IncludeCarriedDebt bool   `mapstructure:"include_carried_debt"`
	ExemptMarker       string `mapstructure:"exempt_marker"`
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	Addr    string `mapstructure:"addr"`
	Mode    string `mapstructure:"mode"` // gin mode: debug, release, test
	Enabled bool   `mapstructure:"enabled"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds the optional fulfillment journal configuration
type StorageConfig struct {
	JournalEnabled bool   `mapstructure:"journal_enabled"`
	DBPath         string `mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var envKeyReplacer = strings.NewReplacer(".", "_")

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	// AUCTION_LEDGER_SHEETS_TRANSACTIONS_URL overrides sheets.transactions_url
	v.SetEnvPrefix("AUCTION_LEDGER")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Sheets defaults
	v.SetDefault("sheets.timeout", "15s")
	v.SetDefault("sheets.cache_ttl", "10s")
	v.SetDefault("sheets.max_retries", 3)
	v.SetDefault("sheets.retry_delay_base", "1s")
	v.SetDefault("sheets.refresh_interval", "5m")
	v.SetDefault("sheets.redis_db", 0)

	// Settlement defaults
	v.SetDefault("settlement.sell_fee_rate", "0.14")
	v.SetDefault("settlement.buy_fee_rate", "0.05")
	v.SetDefault("settlement.include_carried_debt", false)
	v.SetDefault("settlement.exempt_marker", "면제")

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.enabled", true)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.journal_enabled", false)
	v.SetDefault("storage.db_path", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Sheets config
	if c.Sheets.TransactionsURL == "" {
		return fmt.Errorf("sheets.transactions_url is required")
	}
	if c.Sheets.MembersURL == "" {
		return fmt.Errorf("sheets.members_url is required")
	}
	if c.Sheets.Timeout < time.Second {
		return fmt.Errorf("sheets.timeout must be at least 1 second")
	}
	if c.Sheets.CacheTTL < 0 {
		return fmt.Errorf("sheets.cache_ttl must not be negative")
	}
	if c.Sheets.MaxRetries < 1 {
		return fmt.Errorf("sheets.max_retries must be at least 1")
	}
	if c.Sheets.RefreshInterval < 10*time.Second {
		return fmt.Errorf("sheets.refresh_interval must be at least 10 seconds")
	}

	// Validate Settlement config
	if err := validateRate("settlement.sell_fee_rate", c.Settlement.SellFeeRate); err != nil {
		return err
	}
	if err := validateRate("settlement.buy_fee_rate", c.Settlement.BuyFeeRate); err != nil {
		return err
	}
	if c.Settlement.ExemptMarker == "" {
		return fmt.Errorf("settlement.exempt_marker is required")
	}

	// Validate Server config
	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required when the server is enabled")
	}
	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return fmt.Errorf("server.mode must be one of: debug, release, test")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

func validateRate(name, value string) error {
	r, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("%s must be a decimal number: %w", name, err)
	}
	if r.IsNegative() || r.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be between 0 and 1", name)
	}
	return nil
}
