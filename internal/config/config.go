package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ndkhanh17/BE-Tacoli/internal/logger"
)

type Config struct {
	AppEnv  string
	AppPort string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBURL      string

	JWTSecret string
	ClientURL string
	APIURL    string

	VNPay   VNPayConfig
	ZaloPay ZaloPayConfig
	Bank    BankConfig

	KafkaBrokers []string
	KafkaTopic   string

	OTLPEndpoint string
}

type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	URL        string
}

type ZaloPayConfig struct {
	AppID    string
	Key1     string
	Key2     string
	Endpoint string
}

type BankConfig struct {
	BankName      string
	AccountNumber string
	AccountName   string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:     os.Getenv("APP_ENV"),
		AppPort:    getEnv("APP_PORT", "5000"),
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBURL:      os.Getenv("DB_URL"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		ClientURL:  getEnv("CLIENT_URL", "http://localhost:3000"),
		APIURL:     getEnv("API_URL", "http://localhost:5000"),
		VNPay: VNPayConfig{
			TmnCode:    getEnv("VNPAY_TMN_CODE", "VNPAY_TMN_CODE"),
			HashSecret: getEnv("VNPAY_HASH_SECRET", "VNPAY_HASH_SECRET"),
			URL:        getEnv("VNPAY_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
		},
		ZaloPay: ZaloPayConfig{
			AppID:    getEnv("ZALOPAY_APP_ID", "2553"),
			Key1:     getEnv("ZALOPAY_KEY1", "PcY4iZIKFCIdgZvA6ueMcMHHUbRLYjPL"),
			Key2:     os.Getenv("ZALOPAY_KEY2"),
			Endpoint: getEnv("ZALOPAY_ENDPOINT", "https://sb-openapi.zalopay.vn/v2/create"),
		},
		Bank: BankConfig{
			BankName:      getEnv("BANK_NAME", "Vietcombank"),
			AccountNumber: getEnv("BANK_ACCOUNT_NUMBER", "1234567890"),
			AccountName:   getEnv("BANK_ACCOUNT_NAME", "TACOLI TEA COMPANY"),
		},
		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "tacoli.events"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if cfg.DBHost == "" && cfg.DBURL == "" {
		logger.L().Fatal("environment variables not loaded: DB_HOST or DB_URL is required")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
