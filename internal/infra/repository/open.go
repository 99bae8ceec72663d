package repository

import (
	"fmt"

	"bookstore/internal/config"
	"bookstore/internal/infra/db"
	repo "bookstore/internal/repository"
)

// OpenKV はSTORAGE_DRIVERに応じたKVを返す。closeは必ず呼ぶこと。
func OpenKV(cfg config.Config) (repo.KVRepository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StorageDriver {
	case config.StorageMemory:
		return NewKVMemoryRepository(), noop, nil

	case config.StorageSQLite:
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return NewKVSQLiteRepository(conn), conn.Close, nil

	case config.StoragePostgres:
		gormDB, err := db.Connect(cfg)
		if err != nil {
			return nil, noop, fmt.Errorf("connect postgres: %w", err)
		}
		r := NewKVGormRepository(gormDB)
		if err := r.Migrate(); err != nil {
			return nil, noop, fmt.Errorf("migrate kv_entries: %w", err)
		}
		closeFn := func() error {
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		return r, closeFn, nil
	}

	return nil, noop, fmt.Errorf("unknown storage driver: %q", cfg.StorageDriver)
}
