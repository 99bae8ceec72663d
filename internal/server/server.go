package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"bookstore/internal/app"
	"bookstore/internal/handler"
	"bookstore/internal/middleware"
	"bookstore/internal/ui"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 終了時に処理中のリクエストを待つ上限
const shutdownTimeout = 5 * time.Second

// サーバーが使う部品
type Deps struct {
	Orchestrator *app.Orchestrator
	UI           *ui.Synchronizer
	Cart         *usecase.CartEngine
}

// Boot は部品を新しく組み立てて起動する（再読み込み用）
type Boot func(ctx context.Context) (Deps, error)

// Server は起動状態に応じたルートを持つ。
// 起動に失敗していればエラー画面だけを返し、再読み込みで起動をやり直す。
type Server struct {
	addr   string
	boot   Boot
	logger *slog.Logger

	mu      sync.RWMutex
	current *echo.Echo
	ready   bool

	bootMu sync.Mutex
}

// New はルートを登録したサーバーを返す。boot が nil なら再起動しない。
func New(addr string, deps Deps, boot Boot, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{addr: addr, boot: boot, logger: logger}
	s.install(deps)
	return s
}

// 新しいechoを作って差し替える（処理中のリクエストは古い方で終わる）
func (s *Server) install(deps Deps) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s.registerRoutes(e, deps)

	s.mu.Lock()
	s.current = e
	s.ready = deps.Orchestrator.State() == app.StateReady
	s.mu.Unlock()
}

func (s *Server) registerRoutes(e *echo.Echo, deps Deps) {
	o := deps.Orchestrator
	if o.State() != app.StateReady {
		var retry handler.Retry
		if s.boot != nil {
			retry = s.restart
		}
		handler.NewFatalHandler(o.Failure(), retry).RegisterRoutes(e)
		return
	}

	e.Use(middleware.CaptureErrors(o.CaptureError))
	serial := middleware.Serial()

	handler.NewUIHandler(deps.UI, deps.Cart).RegisterRoutes(e, serial)
	handler.NewLifecycleHandler(o).RegisterRoutes(e, serial)
}

// 起動をやり直し、成功したら通常の画面に切り替える
func (s *Server) restart(ctx context.Context) error {
	s.bootMu.Lock()
	defer s.bootMu.Unlock()

	// 同時に来た再読み込みで既に切り替わっていれば何もしない
	if s.Ready() {
		return nil
	}

	deps, err := s.boot(ctx)
	if err != nil {
		s.logger.Error("restart failed", "error", err)
		return err
	}
	s.install(deps)
	s.logger.Info("application restarted")
	return nil
}

// Ready は通常の画面を返しているか
func (s *Server) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	e := s.current
	s.mu.RUnlock()

	e.ServeHTTP(w, r)
}

// Handler はテスト用
func (s *Server) Handler() http.Handler {
	return s
}

// Start は ctx が終わるまで待ち受ける
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	s.logger.Info("listening", "addr", s.addr)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		s.logger.Info("server stopped")
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
