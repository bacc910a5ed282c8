package config

import (
	"fmt"
	"os"
	"strings"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	JWTSecret string // JWT署名シークレット

	AllowedOrigins []string // CORSで許可するオリジン
	FrontendURL    string   // フロントURL（CORSに追加）
	WhatsAppNumber string   // 支払い連絡用のWhatsApp番号（リンクはフロントが組み立てる）

	GoEnv string // dev/prod

	DB DBConfig // DB接続設定
}

// DB接続設定。URL（DATABASE_URL）があれば個別項目より優先
type DBConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// LoadDBはDB接続設定だけを読む（seed等、JWTが要らないCLI向け）
func LoadDB() DBConfig {
	return DBConfig{
		URL:      os.Getenv("DATABASE_URL"),
		Host:     getenv("POSTGRES_HOST", "localhost"),
		Port:     getenv("POSTGRES_PORT", "5432"),
		User:     getenv("POSTGRES_USER", "postgres"),
		Password: getenv("POSTGRES_PASSWORD", "postgres"),
		Name:     getenv("POSTGRES_DB", "storefront"),
		SSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
	}
}

// DSNはgormに渡す接続文字列
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Loadは環境変数から設定を読む
func Load() (Config, error) {
	cfg := Config{
		Port:           getenv("PORT", "8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		FrontendURL:    os.Getenv("FRONTEND_URL"),
		WhatsAppNumber: os.Getenv("WHATSAPP_NUMBER"),
		GoEnv:          getenv("GO_ENV", "dev"),
		DB:             LoadDB(),
	}

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	if cfg.FrontendURL != "" {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, cfg.FrontendURL)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	}

	// 必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
