package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Queue-backed dispatch for inbound messages.
	UseMemoryQueue  bool
	WorkerCount     int
	InboundQueueURL string

	// Outbound replies go back through the SMS platform's message API.
	OutboundMessageURL string
	OutboundAPIKey     string

	// AWS / Bedrock.
	AWSRegion           string
	AWSEndpointOverride string
	BedrockModelID      string

	// Field-service CRM integration.
	CRMBaseURL       string
	CRMAPIKey        string
	CRMTenantID      string
	CRMDryRun        bool
	CRMTimeout       time.Duration
	JobTypeID        string
	BusinessUnitID   string
	JobSummaryPrefix string

	// Booking agent knobs.
	LoopGuardCap      int
	MaxOfferedSlots   int
	AvailabilityDays  int
	MaxReplyLength    int
	AgentDisabledOrgs string

	// Handoff notifications.
	HandoffNotifyPhone string
	HandoffNotifyEmail string
	EmailProvider      string
	SendGridAPIKey     string
	SendGridFromEmail  string
	SendGridFromName   string
	SESFromEmail       string
	SESFromName        string

	AdminJWTSecret string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		UseMemoryQueue:  getEnvAsBool("USE_MEMORY_QUEUE", false),
		WorkerCount:     getEnvAsInt("WORKER_COUNT", 2),
		InboundQueueURL: getEnv("INBOUND_QUEUE_URL", ""),

		OutboundMessageURL: getEnv("OUTBOUND_MESSAGE_URL", ""),
		OutboundAPIKey:     getEnv("OUTBOUND_API_KEY", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),

		CRMBaseURL:       getEnv("CRM_BASE_URL", ""),
		CRMAPIKey:        getEnv("CRM_API_KEY", ""),
		CRMTenantID:      getEnv("CRM_TENANT_ID", ""),
		CRMDryRun:        getEnvAsBool("CRM_DRY_RUN", false),
		CRMTimeout:       getEnvAsDuration("CRM_TIMEOUT", 15*time.Second),
		JobTypeID:        getEnv("CRM_JOB_TYPE_ID", ""),
		BusinessUnitID:   getEnv("CRM_BUSINESS_UNIT_ID", ""),
		JobSummaryPrefix: getEnv("CRM_JOB_SUMMARY_PREFIX", "SMS booking"),

		LoopGuardCap:      getEnvAsInt("LOOP_GUARD_CAP", 12),
		MaxOfferedSlots:   getEnvAsInt("MAX_OFFERED_SLOTS", 3),
		AvailabilityDays:  getEnvAsInt("AVAILABILITY_DAYS_AHEAD", 7),
		MaxReplyLength:    getEnvAsInt("MAX_REPLY_LENGTH", 320),
		AgentDisabledOrgs: getEnv("AGENT_DISABLED_ORGS", ""),

		HandoffNotifyPhone: getEnv("HANDOFF_NOTIFY_PHONE", ""),
		HandoffNotifyEmail: getEnv("HANDOFF_NOTIFY_EMAIL", ""),
		EmailProvider:      strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "ses"))),
		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:  getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:   getEnv("SENDGRID_FROM_NAME", "IntelliSend"),
		SESFromEmail:       getEnv("SES_FROM_EMAIL", ""),
		SESFromName:        getEnv("SES_FROM_NAME", "IntelliSend"),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
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
