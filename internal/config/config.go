package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	// Identity provider used to resolve bearer tokens into a stable
	// user id and email.
	AuthDomain string

	Stripe StripeConfig

	Video VideoConfig

	OCR OCRConfig

	RateLimit RateLimitConfig
}

// StripeConfig carries payment provider credentials and checkout defaults.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string

	// Price of a single credit at checkout.
	CreditPriceCents int64
	Currency         string
}

// VideoConfig selects and configures the generation backend.
type VideoConfig struct {
	Provider string

	ReplicateAPIKey       string
	ReplicateModelVersion string

	MinimaxAPIKey  string
	MinimaxGroupID string

	OpenAIAPIKey string
	OpenAIModel  string

	PollInterval time.Duration
	PollTimeout  time.Duration
	CheckRetries int
}

// OCRConfig configures the stateless OCR passthrough.
type OCRConfig struct {
	APIKey   string
	Endpoint string
}

// RateLimitConfig enables the redis token bucket on generation requests.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	GenerateRate  float64
	GenerateBurst int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "reelgate"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "postgres"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		AuthDomain: strings.TrimSpace(getenv("AUTH_DOMAIN", "")),

		Stripe: StripeConfig{
			SecretKey:     strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
			WebhookSecret: strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
			SuccessURL:    getenv("CHECKOUT_SUCCESS_URL", "https://example.com/checkout/success"),
			CancelURL:     getenv("CHECKOUT_CANCEL_URL", "https://example.com/checkout/cancel"),

			CreditPriceCents: int64(getenvInt("CHECKOUT_CREDIT_PRICE_CENTS", 100)),
			Currency:         strings.ToLower(getenv("CHECKOUT_CURRENCY", "usd")),
		},

		Video: VideoConfig{
			Provider:              strings.ToLower(getenv("VIDEO_PROVIDER", "replicate")),
			ReplicateAPIKey:       strings.TrimSpace(getenv("REPLICATE_API_KEY", "")),
			ReplicateModelVersion: getenv("REPLICATE_MODEL_VERSION", defaultReplicateModelVersion),
			MinimaxAPIKey:         strings.TrimSpace(getenv("MINIMAX_API_KEY", "")),
			MinimaxGroupID:        strings.TrimSpace(getenv("MINIMAX_GROUP_ID", "")),
			OpenAIAPIKey:          strings.TrimSpace(getenv("OPENAI_API_KEY", "")),
			OpenAIModel:           getenv("OPENAI_MODEL", "dall-e-3"),
			PollInterval:          getenvDuration("GENERATION_POLL_INTERVAL", time.Second),
			PollTimeout:           getenvDuration("GENERATION_POLL_TIMEOUT", 5*time.Minute),
			CheckRetries:          getenvInt("GENERATION_CHECK_RETRIES", 3),
		},

		OCR: OCRConfig{
			APIKey:   strings.TrimSpace(getenv("OCR_API_KEY", "")),
			Endpoint: getenv("OCR_ENDPOINT", "https://api.ocr.space/parse/image"),
		},

		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword: getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			GenerateRate:  getenvFloat("RATE_LIMIT_GENERATE_RATE", 0.5),
			GenerateBurst: getenvInt("RATE_LIMIT_GENERATE_BURST", 3),
		},
	}

	return cfg
}

const defaultReplicateModelVersion = "google/veo-3:a24a15a3118167232305c68f233ea85375522744a5647570e3"

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
