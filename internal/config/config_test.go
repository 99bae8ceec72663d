package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageSQLite, cfg.StorageDriver)
	assert.Equal(t, "bookstore_cart", cfg.CartKey)
	assert.Equal(t, 10*time.Second, cfg.CatalogTimeout)
	assert.Equal(t, 99, cfg.MaxQuantity)
	assert.Equal(t, 3*time.Second, cfg.IndicatorTTL)
	assert.Equal(t, 0, cfg.DiscountPercent)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_FromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	body := "STORAGE_DRIVER=memory\nCART_MAX_QUANTITY=5\nCATALOG_URL=http://example.test/books.json\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	// godotenvで入れた値はテスト後に消す
	t.Cleanup(func() {
		os.Unsetenv("STORAGE_DRIVER")
		os.Unsetenv("CART_MAX_QUANTITY")
		os.Unsetenv("CATALOG_URL")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, 5, cfg.MaxQuantity)
	assert.Equal(t, "http://example.test/books.json", cfg.CatalogURL)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "redis")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
}

func TestLoad_InvalidMaxQuantity(t *testing.T) {
	t.Setenv("CART_MAX_QUANTITY", "0")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CART_MAX_QUANTITY")
}

func TestLoad_InvalidDiscount(t *testing.T) {
	t.Setenv("CHECKOUT_DISCOUNT_PERCENT", "120")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHECKOUT_DISCOUNT_PERCENT")
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("CATALOG_TIMEOUT", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestConfig_AddrAndLevel(t *testing.T) {
	cfg := Config{Port: ":9090", LogLevel: "DEBUG"}
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())

	cfg.LogLevel = "nope"
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
