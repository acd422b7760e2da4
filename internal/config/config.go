package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// DefaultExchangeRate is how many display-currency units one native coin is worth.
const DefaultExchangeRate = "2500"

// Config holds application level configuration loaded from environment variables.
type Config struct {
	Env        string
	ServerPort string

	DBDriver string
	DBDSN    string
	ResetDB  bool

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	ChainRPCURL     string
	ContractAddress string
	ContractABIPath string
	VerifyDonations bool
	ExchangeRate    decimal.Decimal
	SyncOnBoot      bool

	RabbitMQURL string
	SwaggerHost string
}

// Load builds Config from a .env file (when present) and the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:        getEnv("APP_ENV", "development"),
		ServerPort: getEnv("SERVER_PORT", "5000"),

		DBDriver: strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:    getEnv("DB_DSN", "data/charity.db"),
		ResetDB:  getEnvBool("RESET_DB", false),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getEnvInt("REDIS_DB", 0),
		RedisPass: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:       getEnv("JWT_SECRET", "change-me"),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		ChainRPCURL:     getEnv("CHAIN_RPC_URL", "https://evm-t3.cronos.org"),
		ContractAddress: os.Getenv("CONTRACT_ADDRESS"),
		ContractABIPath: os.Getenv("CONTRACT_ABI_PATH"),
		VerifyDonations: getEnvBool("CHAIN_VERIFY_DONATIONS", false),
		ExchangeRate:    getEnvDecimal("EXCHANGE_RATE", DefaultExchangeRate),
		SyncOnBoot:      getEnvBool("SYNC_ON_BOOT", true),

		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ChainEnabled reports whether a contract is configured to read from.
func (c *Config) ChainEnabled() bool {
	return c.ChainRPCURL != "" && c.ContractAddress != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDecimal(key, def string) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if parsed, err := decimal.NewFromString(v); err == nil && parsed.IsPositive() {
			return parsed
		}
	}
	return decimal.RequireFromString(def)
}
