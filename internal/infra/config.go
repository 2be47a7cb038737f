package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv        string
	Port          string
	PublicBaseURL string

	StoreDriver string
	DatabaseURL string
	RedisAddr   string

	WorkerSecret string

	FacilitatorURL      string
	FacilitatorAPIToken string
	PaymentNetwork      string
	PayToAddress        string
	AssetAddress        string
	PriceAtomic         string
	PaymentTimeoutSecs  int

	TelegramBotToken string
	TelegramChatID   string

	EstimatedGenerationSeconds int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          port,
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:"+port),

		StoreDriver: getEnv("STORE_DRIVER", "memory"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),

		WorkerSecret: os.Getenv("WORKER_SECRET"),

		FacilitatorURL:      getEnv("FACILITATOR_URL", "https://api.cdp.coinbase.com/platform/v2/x402"),
		FacilitatorAPIToken: os.Getenv("FACILITATOR_API_TOKEN"),
		PaymentNetwork:      getEnv("PAYMENT_NETWORK", "base"),
		PayToAddress:        getEnv("PAY_TO_ADDRESS", "0x178517854cA110D421140f5Ab4653F7F39339ACD"),
		AssetAddress:        getEnv("ASSET_ADDRESS", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
		PriceAtomic:         getEnv("PRICE_ATOMIC", "200000"),
		PaymentTimeoutSecs:  getEnvInt("PAYMENT_TIMEOUT_SECONDS", 300),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),

		EstimatedGenerationSeconds: getEnvInt("ESTIMATED_GENERATION_SECONDS", 90),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.WorkerSecret == "" {
		return nil, fmt.Errorf("WORKER_SECRET is required")
	}

	switch cfg.StoreDriver {
	case "memory", "redis":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
