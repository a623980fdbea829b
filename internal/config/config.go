package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// OpenAI chat completion settings
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIMaxTokens   int
	OpenAITemperature float64
	OpenAITimeout     time.Duration

	// Chat endpoint rate limiting (fixed window per client IP)
	ChatRateLimit   int
	ChatRateWindow  time.Duration
	ChatRateMaxIPs  int
	SupportEmail    string
	BusinessName    string
	SessionCacheTTL time.Duration

	AdminJWTSecret string

	CORSAllowedOrigins []string

	// Lead notification email
	EmailProvider     string // "sendgrid", "ses", or "" (disabled)
	SendGridAPIKey    string
	EmailFromAddress  string
	EmailFromName     string
	LeadNotifyAddress string

	AWSRegion string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIMaxTokens:   getEnvAsInt("OPENAI_MAX_TOKENS", 500),
		OpenAITemperature: getEnvAsFloat("OPENAI_TEMPERATURE", 0.7),
		OpenAITimeout:     getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),

		ChatRateLimit:   getEnvAsInt("CHAT_RATE_LIMIT", 10),
		ChatRateWindow:  getEnvAsDuration("CHAT_RATE_WINDOW", time.Minute),
		ChatRateMaxIPs:  getEnvAsInt("CHAT_RATE_MAX_IPS", 10000),
		SupportEmail:    getEnv("SUPPORT_EMAIL", "hello@webcraft.studio"),
		BusinessName:    getEnv("BUSINESS_NAME", "Webcraft Studio"),
		SessionCacheTTL: getEnvAsDuration("SESSION_CACHE_TTL", 24*time.Hour),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", ""))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		EmailFromAddress:  getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "Webcraft Studio"),
		LeadNotifyAddress: getEnv("LEAD_NOTIFY_ADDRESS", ""),

		AWSRegion: getEnv("AWS_REGION", "us-east-1"),
	}
}

// LLMConfigured reports whether an OpenAI API key is present and plausible.
func (c *Config) LLMConfigured() bool {
	key := strings.TrimSpace(c.OpenAIAPIKey)
	return key != "" && strings.HasPrefix(key, "sk-")
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
