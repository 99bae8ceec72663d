package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"bookstore/internal/domain/model"
	"bookstore/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrAlreadyAttached = errors.New("ui: already attached")

// Synchronizer が使うカート操作（usecase.CartEngine が満たす）
type CartEngine interface {
	AddItem(ctx context.Context, book *model.Book) bool
	RemoveItem(ctx context.Context, id int64) bool
	UpdateQuantity(ctx context.Context, id int64, qty int) bool
	Clear(ctx context.Context)
	Summary() model.CartSummary
	Subscribe(fn usecase.CartHandler) usecase.Subscription
	Unsubscribe(s usecase.Subscription) bool
}

type Option func(*Synchronizer)

// WithIndicatorTTL は通知の自動消去までの時間
func WithIndicatorTTL(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithDiscountPercent はチェックアウト時の割引率（0なら表示しない）
func WithDiscountPercent(p int) Option {
	return func(s *Synchronizer) {
		if p > 0 {
			s.discount = decimal.NewFromInt(int64(p))
		}
	}
}

func withScheduler(sch scheduler) Option {
	return func(s *Synchronizer) { s.schedule = sch }
}

func withClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

// Synchronizer はカート変更通知を購読し、各リージョンの状態を保つ。
// 画面操作（クリック）はここからCartEngineに渡す。
// CartEngineを呼ぶ間は s.mu を持たない（通知で s.mu を取るため）。
type Synchronizer struct {
	engine CartEngine
	logger *slog.Logger

	ttl      time.Duration
	discount decimal.Decimal
	schedule scheduler
	now      func() time.Time

	mu        sync.Mutex
	attached  bool
	sub       usecase.Subscription
	books     []model.Book
	filter    model.BookFilter
	mode      Mode
	lines     []model.CartLine
	count     int
	total     decimal.Decimal
	panel     CartRegion
	modal     ModalRegion
	indicator *Indicator
	cancel    func() bool
}

// DI
func NewSynchronizer(engine CartEngine, logger *slog.Logger, opts ...Option) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Synchronizer{
		engine:   engine,
		logger:   logger,
		ttl:      DefaultIndicatorTTL,
		discount: decimal.Zero,
		schedule: afterFunc,
		now:      time.Now,
		filter:   model.FilterAll,
		mode:     ModeCatalog,
		lines:    []model.CartLine{},
		total:    decimal.Zero,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach はカタログを受け取り、カート通知の購読を始める。
func (s *Synchronizer) Attach(books []model.Book) error {
	s.mu.Lock()
	if s.attached {
		s.mu.Unlock()
		return ErrAlreadyAttached
	}
	s.books = append([]model.Book(nil), books...)
	s.attached = true
	s.mu.Unlock()

	sub := s.engine.Subscribe(s.onCartUpdated)

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	// 初期表示はエンジンの現状から
	sum := s.engine.Summary()
	s.onCartUpdated(model.CartUpdate{Items: sum.Items, ItemCount: sum.ItemCount, TotalPrice: sum.TotalPrice})
	return nil
}

// Detach は購読をやめる
func (s *Synchronizer) Detach() {
	s.mu.Lock()
	sub, attached := s.sub, s.attached
	s.attached = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	if attached {
		s.engine.Unsubscribe(sub)
	}
}

// カート変更通知。明細は差分ではなく丸ごと置き換える。
func (s *Synchronizer) onCartUpdated(u model.CartUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = model.CloneLines(u.Items)
	s.count = u.ItemCount
	s.total = u.TotalPrice
	if s.mode == ModeCart {
		s.panel = s.buildPanelLocked()
	}
}

func (s *Synchronizer) SetFilter(filter model.BookFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch filter {
	case model.FilterInStock, model.FilterOutOfStock:
		s.filter = filter
	default:
		s.filter = model.FilterAll
	}
}

// ToggleCart は表示モードを切り替えて新しいモードを返す
func (s *Synchronizer) ToggleCart() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeCart {
		s.mode = ModeCatalog
	} else {
		s.showCartLocked()
	}
	return s.mode
}

func (s *Synchronizer) ShowCart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.showCartLocked()
}

func (s *Synchronizer) ShowCatalog() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mode = ModeCatalog
}

// AddToCart は「カートに追加」クリック
func (s *Synchronizer) AddToCart(ctx context.Context, id int64) error {
	s.mu.Lock()
	b, ok := model.FindBook(s.books, id)
	s.mu.Unlock()

	if !ok {
		return s.fail(http.StatusNotFound, "Book not found!")
	}
	if !b.InStock() {
		return s.fail(http.StatusConflict, "This book is currently out of stock.")
	}
	if !s.engine.AddItem(ctx, &b) {
		return s.fail(http.StatusConflict, "Failed to add book to cart.")
	}

	s.ShowMessage(IndicatorSuccess, fmt.Sprintf("%q added to cart!", b.Title))
	return nil
}

// RemoveFromCart は明細の「削除」クリック
func (s *Synchronizer) RemoveFromCart(ctx context.Context, id int64) error {
	if !s.engine.RemoveItem(ctx, id) {
		return s.fail(http.StatusNotFound, "Failed to remove item.")
	}
	s.ShowMessage(IndicatorInfo, "Item removed from cart.")
	return nil
}

// ChangeQuantity は数量変更（0なら削除）
func (s *Synchronizer) ChangeQuantity(ctx context.Context, id int64, qty int) error {
	if !s.engine.UpdateQuantity(ctx, id, qty) {
		return s.fail(http.StatusBadRequest, "Failed to update quantity.")
	}
	if qty == 0 {
		s.ShowMessage(IndicatorInfo, "Item removed from cart.")
	}
	return nil
}

// ClearCart は確認済みの「カートを空にする」
func (s *Synchronizer) ClearCart(ctx context.Context) {
	if s.engine.Summary().IsEmpty {
		s.ShowMessage(IndicatorInfo, "Cart is already empty.")
		return
	}
	s.engine.Clear(ctx)
	s.ShowMessage(IndicatorInfo, "Cart cleared.")
}

// OpenCheckout は空カートなら拒否（状態は変えない）
func (s *Synchronizer) OpenCheckout() error {
	sum := s.engine.Summary()
	if sum.IsEmpty {
		return s.fail(http.StatusConflict, "Your cart is empty!")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.modal = ModalRegion{
		Open:  true,
		Lines: lineViews(sum.Items),
		Total: usecase.FormatPrice(sum.TotalPrice),
	}
	if s.discount.IsPositive() {
		d := usecase.CalculateDiscount(sum.TotalPrice, s.discount)
		s.modal.Discount = usecase.FormatPrice(d.Discount)
		s.modal.Final = usecase.FormatPrice(d.Final)
	}
	return nil
}

func (s *Synchronizer) CloseCheckout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.modal = ModalRegion{}
}

// CompletePurchase は模擬購入。カートを空にしてカタログに戻る。
func (s *Synchronizer) CompletePurchase(ctx context.Context) error {
	s.mu.Lock()
	open := s.modal.Open
	s.mu.Unlock()

	if !open {
		return s.fail(http.StatusConflict, "Checkout is not open.")
	}
	// モーダルを開いた後にカートが空になっていたら購入しない
	if s.engine.Summary().IsEmpty {
		s.CloseCheckout()
		return s.fail(http.StatusConflict, "Your cart is empty!")
	}

	s.engine.Clear(ctx)

	s.mu.Lock()
	s.modal = ModalRegion{}
	s.mode = ModeCatalog
	s.mu.Unlock()

	s.ShowMessage(IndicatorSuccess, "Thank you for your purchase! This was a mock checkout.")
	return nil
}

// ShowMessage は通知を出す。表示中のものは即座に置き換える。
func (s *Synchronizer) ShowMessage(kind IndicatorKind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	id := uuid.NewString()
	s.indicator = &Indicator{ID: id, Kind: kind, Message: message, ShownAt: s.now()}
	s.cancel = s.schedule(s.ttl, func() { s.dismiss(id) })
}

// 予約した通知がまだ表示中なら消す
func (s *Synchronizer) dismiss(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indicator != nil && s.indicator.ID == id {
		s.indicator = nil
		s.cancel = nil
	}
}

// View は全リージョンのスナップショット
func (s *Synchronizer) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards := []CatalogCard{}
	for _, b := range model.FilterBooks(s.books, s.filter) {
		cards = append(cards, cardOf(b))
	}

	panel := s.panel
	panel.Visible = s.mode == ModeCart
	panel.Lines = append([]LineView{}, panel.Lines...)

	modal := s.modal
	modal.Lines = append([]LineView{}, modal.Lines...)

	var ind *Indicator
	if s.indicator != nil {
		cp := *s.indicator
		ind = &cp
	}

	return View{
		Mode:      s.mode,
		Catalog:   CatalogRegion{Filter: s.filter, Cards: cards},
		Cart:      panel,
		Badge:     BadgeRegion{Count: s.count, Hidden: s.count == 0},
		Modal:     modal,
		Indicator: ind,
	}
}

func (s *Synchronizer) fail(status int, message string) error {
	s.ShowMessage(IndicatorError, message)
	return usecase.NewHTTPError(status, message)
}

func (s *Synchronizer) showCartLocked() {
	s.mode = ModeCart
	s.panel = s.buildPanelLocked()
}

func (s *Synchronizer) buildPanelLocked() CartRegion {
	return CartRegion{
		Lines:           lineViews(s.lines),
		Total:           usecase.FormatPrice(s.total),
		CheckoutEnabled: len(s.lines) > 0,
	}
}

func cardOf(b model.Book) CatalogCard {
	label := "Add to Cart"
	if !b.InStock() {
		label = "Out of Stock"
	}
	return CatalogCard{
		ID:           b.ID,
		Title:        b.Title,
		Author:       b.Author,
		Price:        usecase.FormatPrice(b.Price),
		Availability: b.Availability,
		Disabled:     !b.InStock(),
		ButtonLabel:  label,
	}
}

func lineViews(lines []model.CartLine) []LineView {
	out := make([]LineView, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineView{
			ID:       l.ID,
			Title:    l.Title,
			Author:   l.Author,
			Quantity: l.Quantity,
			Subtotal: usecase.FormatPrice(l.Subtotal()),
		})
	}
	return out
}
