package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Settings holds everything read from the environment at startup.
type Settings struct {
	Port        string
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	PaystackSecretKey string
	PaystackPublicKey string
	PaystackBaseURL   string
	GatewayTimeout    time.Duration
	CallbackURL       string

	RedisAddr     string
	RedisPassword string

	JWTSecret   string
	AdminAPIKey string
	AdminEmail  string

	Currency            string
	TaxRate             float64 // fraction, e.g. 0.075
	ShippingStandard    float64
	ShippingExpress     float64
	ProcessingDays      int
	RefundWindowDays    int
	PreorderMaxQuantity int
}

// Load reads settings from the environment. godotenv is loaded by main
// before this runs.
func Load() (*Settings, error) {
	s := &Settings{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),

		PaystackSecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackPublicKey: os.Getenv("PAYSTACK_PUBLIC_KEY"),
		PaystackBaseURL:   getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		GatewayTimeout:    getDuration("GATEWAY_TIMEOUT", 15*time.Second),
		CallbackURL:       os.Getenv("PAYMENT_CALLBACK_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),
		AdminEmail:  getEnv("ADMIN_EMAIL", "admin@blackrose.art"),

		Currency:            getEnv("CURRENCY", "NGN"),
		TaxRate:             getFloat("TAX_RATE", 0),
		ShippingStandard:    getFloat("SHIPPING_STANDARD", 1500),
		ShippingExpress:     getFloat("SHIPPING_EXPRESS", 3500),
		ProcessingDays:      getInt("PROCESSING_DAYS", 3),
		RefundWindowDays:    getInt("REFUND_WINDOW_DAYS", 30),
		PreorderMaxQuantity: getInt("PREORDER_MAX_QTY", 100),
	}

	if s.PaystackSecretKey == "" {
		return nil, fmt.Errorf("PAYSTACK_SECRET_KEY is not set")
	}
	if s.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	return s, nil
}

// DSN builds the Postgres connection string when DATABASE_URL is unset.
func (s *Settings) DSN() string {
	if s.DatabaseURL != "" {
		return s.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		s.DBHost, s.DBUser, s.DBPassword, s.DBName, s.DBPort,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
