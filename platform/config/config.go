// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"os"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetQueuePrepareCron() string
}

// ChatWebhookConfig provides settings for the inbound chat webhook.
type ChatWebhookConfig interface {
	GetChatVerifyToken() string
	GetChatWebhookSecret() string
	SignatureEnforced() bool
}

// MeetingWebhookConfig provides settings for the inbound meeting webhook.
type MeetingWebhookConfig interface {
	GetMeetingWebhookSecret() string
	SignatureEnforced() bool
}

// PhoneConfig provides settings for phone normalization and correlation.
type PhoneConfig interface {
	GetPhoneCountryCode() string
	GetPhoneDefaultRegion() string
}

// WhatsAppConfig provides settings for the outbound chat send client.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDeviceID() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	RedisURL               string
	RedisTLSInsecure       bool
	AsynqQueueName         string
	AsynqConcurrency       int
	QueuePrepareCron       string
	CORSAllowAll           bool
	CORSOrigins            []string
	ChatVerifyToken        string
	ChatWebhookSecret      string
	MeetingWebhookSecret   string
	WebhookSignatureStrict bool
	PhoneCountryCode       string
	PhoneDefaultRegion     string
	WhatsAppURL            string
	WhatsAppKey            string
	WhatsAppDeviceID       string
	PersistRetryBudget     int
	PersistRetryDelay      time.Duration
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string         { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool   { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string   { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int    { return c.AsynqConcurrency }
func (c *Config) GetQueuePrepareCron() string { return c.QueuePrepareCron }

// ChatWebhookConfig implementation
func (c *Config) GetChatVerifyToken() string   { return c.ChatVerifyToken }
func (c *Config) GetChatWebhookSecret() string { return c.ChatWebhookSecret }
func (c *Config) SignatureEnforced() bool      { return c.WebhookSignatureStrict }

// MeetingWebhookConfig implementation
func (c *Config) GetMeetingWebhookSecret() string { return c.MeetingWebhookSecret }

// PhoneConfig implementation
func (c *Config) GetPhoneCountryCode() string   { return c.PhoneCountryCode }
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppURL() string      { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string      { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDeviceID() string { return c.WhatsAppDeviceID }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		RedisURL:               getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisTLSInsecure:       strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:         getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:       mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		QueuePrepareCron:       getEnv("QUEUE_PREPARE_CRON", "*/10 * * * *"),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		ChatVerifyToken:        getEnv("CHAT_VERIFY_TOKEN", ""),
		ChatWebhookSecret:      getEnv("CHAT_WEBHOOK_SECRET", ""),
		MeetingWebhookSecret:   getEnv("MEETING_WEBHOOK_SECRET", ""),
		WebhookSignatureStrict: strings.EqualFold(getEnv("WEBHOOK_SIGNATURE_STRICT", "true"), "true"),
		PhoneCountryCode:       getEnv("PHONE_COUNTRY_CODE", "972"),
		PhoneDefaultRegion:     getEnv("PHONE_DEFAULT_REGION", "IL"),
		WhatsAppURL:            getEnv("WHATSAPP_API_URL", ""),
		WhatsAppKey:            getEnv("WHATSAPP_API_KEY", ""),
		WhatsAppDeviceID:       getEnv("WHATSAPP_DEVICE_ID", ""),
		PersistRetryBudget:     mustInt(getEnv("PERSIST_RETRY_BUDGET", "3")),
		PersistRetryDelay:      mustDuration(getEnv("PERSIST_RETRY_DELAY", "100ms")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.ChatVerifyToken == "" {
		return nil, fmt.Errorf("CHAT_VERIFY_TOKEN is required")
	}
	if cfg.WebhookSignatureStrict && cfg.ChatWebhookSecret == "" {
		return nil, fmt.Errorf("CHAT_WEBHOOK_SECRET is required when WEBHOOK_SIGNATURE_STRICT is true")
	}
	if cfg.WebhookSignatureStrict && cfg.MeetingWebhookSecret == "" {
		return nil, fmt.Errorf("MEETING_WEBHOOK_SECRET is required when WEBHOOK_SIGNATURE_STRICT is true")
	}
	if cfg.PersistRetryBudget < 1 {
		cfg.PersistRetryBudget = 1
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
