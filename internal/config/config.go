package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const devJWTSecret = "default_super_secret_key"

// Config holds every runtime setting of the API process.
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`
	AppEnv  string `mapstructure:"APP_ENV"`
	AppName string `mapstructure:"APP_NAME"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`

	JWTSecret   string `mapstructure:"JWT_SECRET"`
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`

	PaymentMode           string `mapstructure:"PAYMENT_MODE"` // demo or live
	RazorpayKeyID         string `mapstructure:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret     string `mapstructure:"RAZORPAY_KEY_SECRET"`
	RazorpayAccountNumber string `mapstructure:"RAZORPAY_ACCOUNT_NUMBER"`
	RazorpayWebhookSecret string `mapstructure:"RAZORPAY_WEBHOOK_SECRET"`
	RazorpayBaseURL       string `mapstructure:"RAZORPAY_BASE_URL"`

	PayoutExchangeRate string `mapstructure:"PAYOUT_EXCHANGE_RATE"`
	PayoutCurrency     string `mapstructure:"PAYOUT_CURRENCY"`

	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET"`
	MinioSecure    bool   `mapstructure:"MINIO_SECURE"`
	MinioPublicURL string `mapstructure:"MINIO_PUBLIC_URL"`

	ReviewCreditOnApproval bool          `mapstructure:"REVIEW_CREDIT_ON_APPROVAL"`
	WithdrawRatePerMinute  int           `mapstructure:"WITHDRAW_RATE_PER_MINUTE"`
	ProfileCacheTTL        time.Duration `mapstructure:"PROFILE_CACHE_TTL"`
	SnowflakeNode          int64         `mapstructure:"SNOWFLAKE_NODE"`
}

var defaults = map[string]interface{}{
	"PORT":                      "8080",
	"GIN_MODE":                  "debug",
	"APP_ENV":                   "development",
	"APP_NAME":                  "taskmind-api",
	"DB_HOST":                   "localhost",
	"DB_PORT":                   "5432",
	"DB_USER":                   "postgres",
	"DB_PASSWORD":               "postgres",
	"DB_NAME":                   "postgres",
	"DB_SSLMODE":                "disable",
	"JWT_SECRET":                "",
	"CORS_ORIGINS":              "http://localhost:3000,http://127.0.0.1:3000",
	"PAYMENT_MODE":              "demo",
	"RAZORPAY_KEY_ID":           "",
	"RAZORPAY_KEY_SECRET":       "",
	"RAZORPAY_ACCOUNT_NUMBER":   "",
	"RAZORPAY_WEBHOOK_SECRET":   "",
	"RAZORPAY_BASE_URL":         "https://api.razorpay.com",
	"PAYOUT_EXCHANGE_RATE":      "83",
	"PAYOUT_CURRENCY":           "INR",
	"MINIO_ENDPOINT":            "localhost:9000",
	"MINIO_ACCESS_KEY":          "",
	"MINIO_SECRET_KEY":          "",
	"MINIO_BUCKET":              "submissions",
	"MINIO_SECURE":              false,
	"MINIO_PUBLIC_URL":          "",
	"REVIEW_CREDIT_ON_APPROVAL": true,
	"WITHDRAW_RATE_PER_MINUTE":  5,
	"PROFILE_CACHE_TTL":         5 * time.Minute,
	"SNOWFLAKE_NODE":            1,
}

// Load reads configs/.env (if present) into the process environment and then
// resolves every key from the environment on top of the defaults.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			zap.L().Info("no env file loaded", zap.String("path", envFile))
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the process cannot run with.
func (c *Config) Validate() error {
	if c.IsRelease() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in release mode")
	}
	if c.PaymentMode != "demo" && c.PaymentMode != "live" {
		return fmt.Errorf("PAYMENT_MODE must be demo or live, got %q", c.PaymentMode)
	}
	rate, err := decimal.NewFromString(c.PayoutExchangeRate)
	if err != nil || !rate.IsPositive() {
		return fmt.Errorf("PAYOUT_EXCHANGE_RATE must be a positive number, got %q", c.PayoutExchangeRate)
	}
	return nil
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

// DSN builds the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

// Secret returns the HMAC key used to verify access tokens.
// Development fallback only, Validate refuses an empty secret in release mode.
func (c *Config) Secret() []byte {
	if c.JWTSecret == "" {
		return []byte(devJWTSecret)
	}
	return []byte(c.JWTSecret)
}

// ExchangeRate is the fixed conversion applied to withdrawals.
func (c *Config) ExchangeRate() decimal.Decimal {
	rate, err := decimal.NewFromString(c.PayoutExchangeRate)
	if err != nil {
		return decimal.NewFromInt(83)
	}
	return rate
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
