package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"bookstore/internal/domain/model"
	"bookstore/internal/ui"
	"bookstore/internal/usecase"
)

// 起動状態
type State string

const (
	StateStarting State = "starting"
	StateReady    State = "ready"
	StateFailed   State = "failed"
)

// 実行時エラーを通知するときの文言
const unexpectedErrorMessage = "An unexpected error occurred."

var ErrAlreadyStarted = errors.New("app: already started")

// 依存（それぞれ usecase / ui の実体が満たす）
type CatalogSource interface {
	LoadCatalog(ctx context.Context) usecase.CatalogResult
}

type CartHydrator interface {
	Hydrate(ctx context.Context) int
}

type Reconciler interface {
	Run(ctx context.Context, books []model.Book) []int64
}

type UI interface {
	Attach(books []model.Book) error
	ShowMessage(kind ui.IndicatorKind, message string)
}

// StepError はどの起動手順で失敗したか
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

type step struct {
	name string
	run  func(ctx context.Context) error
}

// Orchestrator は起動手順を順に実行し、その後のライフサイクルを受ける。
// 途中で失敗したら以降は何もしない（再読み込みのみ）。
type Orchestrator struct {
	catalog   CatalogSource
	cart      CartHydrator
	validator Reconciler
	view      UI
	logger    *slog.Logger

	mu           sync.Mutex
	started      bool
	listening    bool
	state        State
	failure      error
	books        []model.Book
	usedFallback bool
	removed      []int64
}

// DI
func NewOrchestrator(catalog CatalogSource, cart CartHydrator, validator Reconciler, view UI, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		catalog:   catalog,
		cart:      cart,
		validator: validator,
		view:      view,
		logger:    logger,
		state:     StateStarting,
	}
}

// Start は カタログ -> カート復元 -> 画面接続 -> 検証 -> ライフサイクル登録 の順に実行する。
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return ErrAlreadyStarted
	}
	o.started = true
	o.mu.Unlock()

	steps := []step{
		{name: "load catalog", run: o.loadCatalog},
		{name: "hydrate cart", run: o.hydrateCart},
		{name: "attach ui", run: o.attachUI},
		{name: "validate cart", run: o.validateCart},
		{name: "register lifecycle", run: o.registerLifecycle},
	}

	for _, s := range steps {
		if err := runStep(ctx, s); err != nil {
			return o.fail(&StepError{Step: s.name, Err: err})
		}
		o.logger.Debug("startup step done", "step", s.name)
	}

	o.mu.Lock()
	o.state = StateReady
	o.mu.Unlock()

	o.logger.Info("application initialized")
	return nil
}

// panicもエラーとして扱う
func runStep(ctx context.Context, s step) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.run(ctx)
}

func (o *Orchestrator) loadCatalog(ctx context.Context) error {
	res := o.catalog.LoadCatalog(ctx)
	if len(res.Books) == 0 {
		return errors.New("no books available")
	}
	if res.UsedFallback {
		o.logger.Warn("using fallback catalog", "reason", res.Err)
	}

	o.mu.Lock()
	o.books = res.Books
	o.usedFallback = res.UsedFallback
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) hydrateCart(ctx context.Context) error {
	n := o.cart.Hydrate(ctx)
	o.logger.Info("cart restored", "lines", n)
	return nil
}

func (o *Orchestrator) attachUI(ctx context.Context) error {
	return o.view.Attach(o.Books())
}

func (o *Orchestrator) validateCart(ctx context.Context) error {
	removed := o.validator.Run(ctx, o.Books())

	o.mu.Lock()
	o.removed = removed
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) registerLifecycle(ctx context.Context) error {
	o.mu.Lock()
	o.listening = true
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) fail(err error) error {
	o.mu.Lock()
	o.state = StateFailed
	o.failure = err
	o.listening = false
	o.mu.Unlock()

	o.logger.Error("application failed to start", "error", err)
	return err
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Failure は失敗時のエラー（成功・起動中は nil）
func (o *Orchestrator) Failure() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failure
}

// Books は読み込んだカタログ
func (o *Orchestrator) Books() []model.Book {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]model.Book(nil), o.books...)
}

func (o *Orchestrator) UsedFallback() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.usedFallback
}

// RemovedOnStart は起動時の検証で消えた明細のid
func (o *Orchestrator) RemovedOnStart() []int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]int64{}, o.removed...)
}

func (o *Orchestrator) isListening() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.listening
}

// VisibilityChanged は記録のみ（再取得はしない）
func (o *Orchestrator) VisibilityChanged(visible bool) {
	if !o.isListening() {
		return
	}
	if visible {
		o.logger.Info("page visible")
	} else {
		o.logger.Info("page hidden")
	}
}

// Unload は記録のみ
func (o *Orchestrator) Unload() {
	if !o.isListening() {
		return
	}
	o.logger.Info("page unloading")
}

// CaptureError は実行時のエラーを通知に出す。アプリは止めない。
func (o *Orchestrator) CaptureError(err error) {
	if err == nil {
		return
	}
	o.logger.Error("unhandled error", "error", err)
	if !o.isListening() {
		return
	}
	o.view.ShowMessage(ui.IndicatorError, unexpectedErrorMessage)
}
