package config

import (
	"encoding/base64"
	"fmt"
	"os"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBConn   string
	LogLevel string

	JWTSecret string

	// Toss identity provider
	TossClientID      string
	TossClientSecret  string
	TossDecryptionKey []byte // raw AES-256 key, nil when not configured
	TossAAD           string
	TossMTLSCert      string // PEM, optional
	TossMTLSKey       string // PEM, optional

	RegionDataPath string

	// S3-compatible media storage
	S3Region    string
	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	// SMTP notifications
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
	AdminEmail   string

	// Admin review endpoints
	AdminUser         string
	AdminPasswordHash string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DBConn:            getEnv("DB_CONN", "host=localhost port=5432 user=test password=test dbname=localstar sslmode=disable"),
		LogLevel:          getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		TossClientID:      getEnv("TOSS_CLIENT_ID", ""),
		TossClientSecret:  getEnv("TOSS_CLIENT_SECRET", ""),
		TossAAD:           getEnv("TOSS_AAD", "TOSS"),
		TossMTLSCert:      getEnv("TOSS_MTLS_CERT", ""),
		TossMTLSKey:       getEnv("TOSS_MTLS_KEY", ""),
		RegionDataPath:    getEnv("REGION_DATA_PATH", "data/regions.xml"),
		S3Region:          getEnv("S3_REGION", "ap-northeast-2"),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Bucket:          getEnv("S3_BUCKET", "localstar-media"),
		S3AccessKey:       getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:       getEnv("S3_SECRET_KEY", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnv("SMTP_PORT", "587"),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SenderEmail:       getEnv("SENDER_EMAIL", "noreply@localstar.app"),
		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
		AdminUser:         getEnv("ADMIN_USER", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if raw := os.Getenv("TOSS_DECRYPTION_KEY"); raw != "" {
		key, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("TOSS_DECRYPTION_KEY is not valid base64: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("TOSS_DECRYPTION_KEY must decode to 32 bytes, got %d", len(key))
		}
		cfg.TossDecryptionKey = key
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
