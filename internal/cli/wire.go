package cli

import (
	"log/slog"

	"bookstore/internal/app"
	"bookstore/internal/config"
	infraRepo "bookstore/internal/infra/repository"
	repo "bookstore/internal/repository"
	"bookstore/internal/server"
	"bookstore/internal/ui"
	"bookstore/internal/usecase"
)

// 保存先が開けなくてもカートは使える（保存されないだけ）
func openStore(cfg config.Config, logger *slog.Logger) (repo.KVRepository, func() error) {
	kv, closeFn, err := infraRepo.OpenKV(cfg)
	if err != nil {
		logger.Warn("cart storage unavailable, cart will not persist", "driver", cfg.StorageDriver, "error", err)
		return infraRepo.NewKVMemoryRepository(), func() error { return nil }
	}
	return kv, closeFn
}

// 部品を組み立てる（起動はしない）
func buildDeps(cfg config.Config, kv repo.KVRepository, logger *slog.Logger) server.Deps {
	codec := usecase.NewCartCodec(kv, cfg.CartKey, logger)
	engine := usecase.NewCartEngine(codec, cfg.MaxQuantity, logger)
	loader := usecase.NewCatalogLoader(cfg.CatalogURL, cfg.CatalogTimeout, logger)
	validator := usecase.NewCartValidator(engine, logger)

	view := ui.NewSynchronizer(engine, logger,
		ui.WithIndicatorTTL(cfg.IndicatorTTL),
		ui.WithDiscountPercent(cfg.DiscountPercent),
	)

	return server.Deps{
		Orchestrator: app.NewOrchestrator(loader, engine, validator, view, logger),
		UI:           view,
		Cart:         engine,
	}
}
