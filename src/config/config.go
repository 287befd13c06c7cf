package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const DATE_PARSE_FORMAT = "2006-01-02"

const DEFAULT_LOCALE = "fr"

var SUPPORTED_LOCALES = []string{"fr", "en", "es"}

// PayPalConfig carries everything the gateway client needs. Built once at
// startup and passed in explicitly; the client holds no ambient globals.
type PayPalConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	MerchantID   string
	Currency     string
	FXRate       float64
	Timeout      time.Duration
	MaxRetries   int
}

func GetPayPalConfig() *PayPalConfig {
	base := "https://api-m.sandbox.paypal.com"
	if os.Getenv("PAYPAL_ENV") == "live" {
		base = "https://api-m.paypal.com"
	}
	currency := os.Getenv("PAYPAL_CURRENCY")
	if currency == "" {
		currency = "USD"
	}
	fx := 1.0
	if v := os.Getenv("PAYPAL_FX_RATE"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err == nil && parsed > 0 {
			fx = parsed
		}
	}
	timeout := 30 * time.Second
	if v := os.Getenv("PAYPAL_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}
	retries := 2
	if v := os.Getenv("PAYPAL_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n >= 0 {
			retries = n
		}
	}
	return &PayPalConfig{
		BaseURL:      base,
		ClientID:     os.Getenv("PAYPAL_CLIENT_ID"),
		ClientSecret: os.Getenv("PAYPAL_CLIENT_SECRET"),
		MerchantID:   os.Getenv("PAYPAL_MERCHANT_ID"),
		Currency:     currency,
		FXRate:       fx,
		Timeout:      timeout,
		MaxRetries:   retries,
	}
}
