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

	// Session storage. When RedisAddr is empty (or UseMemorySessions is
	// set) conversation state lives in process memory only.
	UseMemorySessions bool
	RedisAddr         string
	RedisPassword     string
	RedisTLS          bool
	SessionTTL        time.Duration

	// Generative text providers
	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string

	// Voice (ElevenLabs speech synthesis / transcription)
	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
	ElevenLabsBaseURL string

	// Lead qualification thresholds
	AskForInfoScore int
	QualifyScore    int

	// Lead hand-off
	CRMWebhookURL     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SalesNotifyEmail  string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		UseMemorySessions: getEnvAsBool("USE_MEMORY_SESSIONS", false),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisTLS:          getEnvAsBool("REDIS_TLS", false),
		SessionTTL:        getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		ElevenLabsAPIKey:  getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID: getEnv("ELEVENLABS_VOICE_ID", "EXAVITQu4vr4xnSDxMaL"),
		ElevenLabsBaseURL: getEnv("ELEVENLABS_BASE_URL", ""),

		AskForInfoScore: getEnvAsInt("ASK_FOR_INFO_SCORE", 60),
		QualifyScore:    getEnvAsInt("QUALIFY_SCORE", 75),

		CRMWebhookURL:     getEnv("CRM_WEBHOOK_URL", ""),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "no-reply@leadpilot.ai"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "LeadPilot"),
		SalesNotifyEmail:  getEnv("SALES_NOTIFY_EMAIL", ""),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if strings.TrimSpace(valueStr) == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
