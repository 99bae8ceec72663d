package cli

import (
	"context"
	"os/signal"
	"syscall"

	"bookstore/internal/server"

	"github.com/spf13/cobra"
)

func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Load the catalog, restore the saved cart and serve the bookstore page.

If startup fails the server keeps running and serves the error page.
Reloading that page retries startup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *RootOptions) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, closeKV := openStore(cfg, logger)
	defer func() {
		if err := closeKV(); err != nil {
			logger.Warn("close cart storage", "error", err)
		}
	}()

	// 再読み込みのたびに新しい部品で起動し直す
	boot := func(ctx context.Context) (server.Deps, error) {
		deps := buildDeps(cfg, kv, logger)
		return deps, deps.Orchestrator.Start(ctx)
	}

	// 失敗してもエラー画面を出すためにサーバーは起動する
	deps, err := boot(ctx)
	if err != nil {
		logger.Error("startup failed, serving error page only", "error", err)
	}

	return server.New(cfg.Addr(), deps, boot, logger).Start(ctx)
}
