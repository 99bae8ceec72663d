package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"bookstore/internal/config"
	"bookstore/internal/infra/db"
	repo "bookstore/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// どの実装でも同じ振る舞いになること
func runKVContract(t *testing.T, kv repo.KVRepository) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, kv.Set(ctx, "cart", `[{"id":1}]`))
	v, err := kv.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, v)

	//上書き
	require.NoError(t, kv.Set(ctx, "cart", `[]`))
	v, err = kv.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	require.NoError(t, kv.Delete(ctx, "cart"))
	_, err = kv.Get(ctx, "cart")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	//無いキーの削除はエラーにしない
	assert.NoError(t, kv.Delete(ctx, "cart"))
}

func TestKVMemoryRepository_Contract(t *testing.T) {
	runKVContract(t, NewKVMemoryRepository())
}

func TestKVSQLiteRepository_Contract(t *testing.T) {
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	runKVContract(t, NewKVSQLiteRepository(conn))
}

// 実DBが必要なので TEST_DATABASE_URL がある時だけ
func TestKVGormRepository_Contract(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	gormDB, err := db.Connect(config.Config{DatabaseURL: dsn})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	r := NewKVGormRepository(gormDB)
	require.NoError(t, r.Migrate())
	runKVContract(t, r)
}

func TestKVSQLiteRepository_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	conn, err := db.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, NewKVSQLiteRepository(conn).Set(ctx, "bookstore_cart", "[]"))
	require.NoError(t, conn.Close())

	conn, err = db.OpenSQLite(path)
	require.NoError(t, err)
	defer conn.Close()

	v, err := NewKVSQLiteRepository(conn).Get(ctx, "bookstore_cart")
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestOpenKV_Memory(t *testing.T) {
	kv, closeFn, err := OpenKV(config.Config{StorageDriver: config.StorageMemory})
	require.NoError(t, err)
	defer closeFn()

	_, ok := kv.(*KVMemoryRepository)
	assert.True(t, ok)
}

func TestOpenKV_UnknownDriver(t *testing.T) {
	_, closeFn, err := OpenKV(config.Config{StorageDriver: "redis"})
	require.Error(t, err)
	assert.NoError(t, closeFn())
}
