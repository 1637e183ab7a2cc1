// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gitlab.com/yelinaung/sushi-bot/internal/exchange"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
	"gitlab.com/yelinaung/sushi-bot/internal/storage"
	"gitlab.com/yelinaung/sushi-bot/internal/tally"
	"gitlab.com/yelinaung/sushi-bot/internal/telemetry"
)

// Defaults for optional settings.
const (
	DefaultAdminHTTPAddr = ":8080"
	DefaultS3Bucket      = "brand-logos"
	DefaultServiceName   = "sushi-bot"
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken string
	BotEnabled       bool
	DatabaseURL      string
	LogLevel         string
	LogFormat        string

	// Empty whitelists leave the bot open to everyone.
	WhitelistedUserIDs   []int64
	WhitelistedUsernames []string
	AdminUserIDs         []int64

	DefaultRegion  models.Region
	ReportCurrency string
	ExchangeRates  *exchange.RateTable
	SessionTTL     time.Duration

	// AdminHTTPAddr empty disables the admin API.
	AdminHTTPAddr    string
	AdminJWTSecret   string
	AdminCORSOrigins []string

	Storage   storage.Config
	Telemetry telemetry.Config
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []string

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		BotEnabled:       os.Getenv("BOT_ENABLED") != "false",
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogFormat:        os.Getenv("LOG_FORMAT"),

		WhitelistedUserIDs:   parseIDs(os.Getenv("WHITELISTED_USER_IDS")),
		WhitelistedUsernames: parseUsernames(os.Getenv("WHITELISTED_USERNAMES")),
		AdminUserIDs:         parseIDs(os.Getenv("ADMIN_USER_IDS")),

		DefaultRegion:  models.DefaultRegion,
		ReportCurrency: exchange.ReferenceCurrency,
		ExchangeRates:  exchange.DefaultRates(),
		SessionTTL:     tally.DefaultTTL,

		AdminHTTPAddr:    DefaultAdminHTTPAddr,
		AdminJWTSecret:   os.Getenv("ADMIN_JWT_SECRET"),
		AdminCORSOrigins: parseList(os.Getenv("ADMIN_CORS_ORIGINS")),

		Storage: storage.Config{
			Endpoint:      os.Getenv("S3_ENDPOINT"),
			Region:        os.Getenv("S3_REGION"),
			AccessKey:     os.Getenv("S3_ACCESS_KEY"),
			SecretKey:     os.Getenv("S3_SECRET_KEY"),
			Bucket:        DefaultS3Bucket,
			PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		},
		Telemetry: telemetry.Config{
			Exporter:    strings.ToLower(os.Getenv("OTEL_EXPORTER")),
			Endpoint:    os.Getenv("OTEL_ENDPOINT"),
			ServiceName: DefaultServiceName,
		},
	}

	if v, ok := os.LookupEnv("ADMIN_HTTP_ADDR"); ok {
		cfg.AdminHTTPAddr = strings.TrimSpace(v)
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		cfg.Telemetry.ServiceName = v
	}

	if v := os.Getenv("DEFAULT_REGION"); v != "" {
		region, ok := models.ParseRegion(v)
		if !ok {
			errs = append(errs, fmt.Sprintf("DEFAULT_REGION %q is not one of mainland, hk, taiwan", v))
		} else {
			cfg.DefaultRegion = region
		}
	}

	if v := os.Getenv("EXCHANGE_RATES"); v != "" {
		rates, err := exchange.ParseRates(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("EXCHANGE_RATES: %v", err))
		} else {
			cfg.ExchangeRates = rates
		}
	}

	if v := os.Getenv("REPORT_CURRENCY"); v != "" {
		cfg.ReportCurrency = strings.TrimSpace(v)
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl <= 0 {
			errs = append(errs, fmt.Sprintf("SESSION_TTL %q must be a positive duration", v))
		} else {
			cfg.SessionTTL = ttl
		}
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() []string {
	var errs []string

	if c.BotEnabled && c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if !c.BotEnabled && c.AdminHTTPAddr == "" {
		errs = append(errs, "nothing to run: BOT_ENABLED=false and ADMIN_HTTP_ADDR is empty")
	}

	if c.AdminHTTPAddr != "" && c.AdminJWTSecret == "" {
		errs = append(errs, "ADMIN_JWT_SECRET is required when ADMIN_HTTP_ADDR is set")
	}

	if !c.ExchangeRates.Supports(c.ReportCurrency) {
		errs = append(errs, fmt.Sprintf("REPORT_CURRENCY %q has no exchange rate", c.ReportCurrency))
	}

	if !telemetry.ValidExporter(c.Telemetry.Exporter) {
		errs = append(errs, fmt.Sprintf("OTEL_EXPORTER %q is not one of none, stdout, otlp-grpc, otlp-http", c.Telemetry.Exporter))
	}

	return errs
}

// StorageEnabled reports whether logo uploads have somewhere to go.
func (c *Config) StorageEnabled() bool {
	return c.Storage.Endpoint != "" && c.Storage.AccessKey != "" && c.Storage.SecretKey != ""
}

// IsAdmin reports whether the user manages shared brands.
func (c *Config) IsAdmin(userID int64) bool {
	return slices.Contains(c.AdminUserIDs, userID)
}

// IsUserWhitelisted checks if a Telegram user ID or username is in the whitelist.
// With no whitelist configured every user is allowed; admins always are.
func (c *Config) IsUserWhitelisted(userID int64, username string) bool {
	if len(c.WhitelistedUserIDs) == 0 && len(c.WhitelistedUsernames) == 0 {
		return true
	}

	if slices.Contains(c.WhitelistedUserIDs, userID) || c.IsAdmin(userID) {
		return true
	}

	// Usernames compare case-insensitively.
	if username != "" {
		username = strings.TrimPrefix(username, "@")
		for _, whitelisted := range c.WhitelistedUsernames {
			if strings.EqualFold(whitelisted, username) {
				return true
			}
		}
	}

	return false
}

func parseIDs(s string) []int64 {
	var ids []int64
	for _, idStr := range parseList(s) {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func parseUsernames(s string) []string {
	var names []string
	for _, name := range parseList(s) {
		names = append(names, strings.TrimPrefix(name, "@"))
	}
	return names
}

func parseList(s string) []string {
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
