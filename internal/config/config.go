package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Vapi webhook authentication. When empty, the webhook accepts
	// unauthenticated requests (local development only).
	VapiWebhookSecret string

	// Twilio SMS credentials.
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// Cal scheduling provider. V2 uses a bearer token plus an API version
	// header; V1 takes the key as a query parameter.
	CalBaseURLV2   string
	CalBaseURLV1   string
	CalAPIKeyV2    string
	CalAPIKeyV1    string
	CalAPIVersion  string
	CalEventTypeID int

	// Business identity interpolated into caller- and owner-facing messages.
	BusinessName string
	OwnerName    string
	OwnerPhone   string
	OwnerEmail   string

	// Timezone is the IANA zone used for all human-readable time formatting.
	Timezone string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Call record retention.
	RecordTTL       time.Duration
	RecentCallLimit int

	// Dashboard admin auth. When empty, the dashboard rejects all requests.
	AdminJWTSecret string

	CORSAllowedOrigins []string

	// SendGrid email for emergency alerts (optional).
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		VapiWebhookSecret: getEnv("VAPI_WEBHOOK_SECRET", ""),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),

		CalBaseURLV2:   getEnv("CAL_BASE_URL_V2", "https://api.cal.com/v2"),
		CalBaseURLV1:   getEnv("CAL_BASE_URL_V1", "https://api.cal.com/v1"),
		CalAPIKeyV2:    getEnv("CAL_API_KEY_V2", ""),
		CalAPIKeyV1:    getEnv("CAL_API_KEY", ""),
		CalAPIVersion:  getEnv("CAL_API_VERSION", "2024-08-13"),
		CalEventTypeID: getEnvAsInt("CAL_EVENT_TYPE_ID", 0),

		BusinessName: getEnv("BUSINESS_NAME", "the office"),
		OwnerName:    getEnv("OWNER_NAME", "the owner"),
		OwnerPhone:   getEnv("OWNER_PHONE", ""),
		OwnerEmail:   getEnv("OWNER_EMAIL", ""),

		Timezone: getEnv("BUSINESS_TIMEZONE", "America/New_York"),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		RecordTTL:       getEnvAsDuration("RECORD_TTL", 30*24*time.Hour),
		RecentCallLimit: getEnvAsInt("RECENT_CALL_LIMIT", 200),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "CallPilot"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
