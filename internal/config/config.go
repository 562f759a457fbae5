package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port        int
	Env         string
	DatabaseURL string
	JWTSecret   string
	CORSOrigins []string

	// Razorpay credentials. KeySecret doubles as the checkout-verification
	// HMAC secret; WebhookSecret signs webhook bodies. Either may be absent
	// outside production, in which case verification is skipped with a
	// logged warning.
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	port, _ := strconv.Atoi(getEnv("PORT", "4000"))

	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	origins := strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,https://getmeachai.app"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	cfg := &Config{
		Port:                  port,
		Env:                   getEnv("APP_ENV", "development"),
		DatabaseURL:           dbURL,
		JWTSecret:             jwtSecret,
		CORSOrigins:           origins,
		RazorpayKeyID:         getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret:     getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayWebhookSecret: getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
	}

	// Missing secrets become request-time ConfigurationErrors in production;
	// surface the misconfiguration at startup too so it is not silent.
	if cfg.Production() {
		if cfg.RazorpayWebhookSecret == "" {
			log.Println("⚠️  RAZORPAY_WEBHOOK_SECRET not set: webhook requests will be rejected")
		}
		if cfg.RazorpayKeySecret == "" {
			log.Println("⚠️  RAZORPAY_KEY_SECRET not set: checkout verification will be rejected")
		}
	}

	return cfg, nil
}

// Production reports whether the environment flag gates fail-open behavior
// off: in production a missing secret rejects the request instead of skipping
// verification.
func (c *Config) Production() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
