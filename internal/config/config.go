package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ストレージの種類
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Configはアプリ全体の設定
type Config struct {
	Port string `env:"PORT" envDefault:"8080"` // サーバーポート

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`           // memory / sqlite / postgres
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"bookstore.db"`        // sqliteのファイル
	DatabaseURL   string `env:"DATABASE_URL"`                                 // postgresのDSN（あれば最優先）
	CartKey       string `env:"CART_STORAGE_KEY" envDefault:"bookstore_cart"` // カートを保存するキー

	CatalogURL     string        `env:"CATALOG_URL"`                      // 空ならフォールバックのみ
	CatalogTimeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s"` // カタログ取得のタイムアウト

	MaxQuantity  int           `env:"CART_MAX_QUANTITY" envDefault:"99"` // 1明細の最大数量
	IndicatorTTL time.Duration `env:"INDICATOR_TTL" envDefault:"3s"`     // 通知の表示時間

	DiscountPercent int `env:"CHECKOUT_DISCOUNT_PERCENT" envDefault:"0"` // チェックアウト時の割引率（0で無効）

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Loadは .env（あれば）と環境変数から設定を読む
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// .envが無いのは許容
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validateは必須チェック
func (c Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("PORT is required")
	}
	switch c.StorageDriver {
	case StorageMemory, StoragePostgres:
	case StorageSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of memory/sqlite/postgres: %q", c.StorageDriver)
	}
	if strings.TrimSpace(c.CartKey) == "" {
		return fmt.Errorf("CART_STORAGE_KEY is required")
	}
	if c.CatalogTimeout <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT must be > 0")
	}
	if c.MaxQuantity < 1 {
		return fmt.Errorf("CART_MAX_QUANTITY must be >= 1")
	}
	if c.IndicatorTTL <= 0 {
		return fmt.Errorf("INDICATOR_TTL must be > 0")
	}
	if c.DiscountPercent < 0 || c.DiscountPercent > 100 {
		return fmt.Errorf("CHECKOUT_DISCOUNT_PERCENT must be 0..100")
	}
	return nil
}

// Addrはlisten用のアドレス
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// SlogLevelはLOG_LEVELをslog.Levelに変換（不明ならinfo）
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
