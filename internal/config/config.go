// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// ビジネスロジックはこの構造体を受け取り、プロセス環境を直接参照しない。
type Config struct {
	// Database
	DatabaseURL string

	// Clerk（IDプロバイダー）
	// ClerkJWTPublicKey はセッショントークン検証用のRSA公開鍵（PEM）。
	ClerkJWTPublicKey string
	// ClerkWebhookSecret はSvix署名検証用のシークレット（whsec_...）。
	ClerkWebhookSecret string

	// ImageKit（画像CDN）
	ImageKitPublicKey   string
	ImageKitPrivateKey  string
	ImageKitURLEndpoint string

	// SMTP（通知メール）。SMTPHostが空の場合はメール送信を無効化する。
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	AdminEmail   string

	// Rate Limit
	RateLimitGeneral  int           // API全般（req/min/キー）
	ContactRateLimit  int           // お問い合わせ送信の許容回数
	ContactRateWindow time.Duration // お問い合わせ送信のウィンドウ

	// Server
	ServerPort string
	// PublicBaseURL は公開URL。SEOメタタグの正規URL生成に使用する。
	PublicBaseURL string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.ClerkJWTPublicKey = os.Getenv("CLERK_JWT_PUBLIC_KEY")
	if cfg.ClerkJWTPublicKey == "" {
		missing = append(missing, "CLERK_JWT_PUBLIC_KEY")
	}

	cfg.ClerkWebhookSecret = os.Getenv("CLERK_WEBHOOK_SECRET")
	if cfg.ClerkWebhookSecret == "" {
		missing = append(missing, "CLERK_WEBHOOK_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.ImageKitPublicKey = getEnvString("IK_PUBLIC_KEY", "")
	cfg.ImageKitPrivateKey = getEnvString("IK_PRIVATE_KEY", "")
	cfg.ImageKitURLEndpoint = getEnvString("IK_URL_ENDPOINT", "")

	cfg.SMTPHost = getEnvString("SMTP_HOST", "")
	cfg.SMTPPort = getEnvInt("SMTP_PORT", 587)
	cfg.SMTPUsername = getEnvString("SMTP_USERNAME", "")
	cfg.SMTPPassword = getEnvString("SMTP_PASSWORD", "")
	cfg.AdminEmail = getEnvString("ADMIN_EMAIL", "")

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.ContactRateLimit = getEnvInt("CONTACT_RATE_LIMIT", 3)
	cfg.ContactRateWindow = getEnvDuration("CONTACT_RATE_WINDOW", 15*time.Minute)

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.PublicBaseURL = getEnvString("PUBLIC_BASE_URL", "http://localhost:8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
