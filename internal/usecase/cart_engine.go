package usecase

import (
	"context"
	"log/slog"
	"sync"

	"bookstore/internal/domain/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultMaxQuantity = 99

// カート変更の購読者
type CartHandler func(update model.CartUpdate)

// Subscribe の戻り値。Unsubscribe に渡す。
type Subscription struct {
	ID string
}

type subscriber struct {
	id string
	fn CartHandler
}

// CartEngine はカートの唯一の持ち主。
// 変更は 変更 -> 保存 -> 通知 を1回の呼び出しの中で終えてから返る。
// 通知はロック中に登録順で配信するので、購読者からエンジンを同期的に呼んではいけない。
type CartEngine struct {
	mu     sync.Mutex
	items  []model.CartLine
	store  CartStore
	subs   []subscriber
	maxQty int
	logger *slog.Logger
}

// DI
func NewCartEngine(store CartStore, maxQty int, logger *slog.Logger) *CartEngine {
	if maxQty < 1 {
		maxQty = DefaultMaxQuantity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CartEngine{
		items:  []model.CartLine{},
		store:  store,
		maxQty: maxQty,
		logger: logger,
	}
}

// Hydrate は保存済みのカートを読み込む（起動時に1回）。通知も保存もしない。
func (e *CartEngine) Hydrate(ctx context.Context) int {
	lines := e.store.Load(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.items = model.CloneLines(lines)
	// 上限を超えた数量は上限に丸める
	for i := range e.items {
		if e.items[i].Quantity > e.maxQty {
			e.logger.Warn("hydrated quantity clamped", "id", e.items[i].ID, "quantity", e.items[i].Quantity, "max", e.maxQty)
			e.items[i].Quantity = e.maxQty
		}
	}
	e.logger.Debug("cart hydrated", "lines", len(e.items))
	return len(e.items)
}

// AddItem は同じidなら数量+1、無ければ数量1で末尾に追加。
func (e *CartEngine) AddItem(ctx context.Context, book *model.Book) bool {
	if book == nil || book.ID <= 0 {
		e.logger.Warn("add item rejected: invalid book")
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if idx := e.indexOf(book.ID); idx >= 0 {
		if e.items[idx].Quantity >= e.maxQty {
			e.logger.Warn("add item rejected: max quantity", "id", book.ID, "max", e.maxQty)
			return false
		}
		e.items[idx].Quantity++
	} else {
		// 追加時点の表示項目をコピー
		e.items = append(e.items, model.CartLine{
			ID:       book.ID,
			Title:    book.Title,
			Author:   book.Author,
			Price:    book.Price,
			Quantity: 1,
		})
	}

	e.commit(ctx)
	return true
}

func (e *CartEngine) RemoveItem(ctx context.Context, id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.removeLocked(ctx, id)
}

// UpdateQuantity は qty==0 なら削除と同じ。
func (e *CartEngine) UpdateQuantity(ctx context.Context, id int64, qty int) bool {
	if qty < 0 {
		e.logger.Warn("update quantity rejected: negative", "id", id, "quantity", qty)
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if qty == 0 {
		return e.removeLocked(ctx, id)
	}
	if qty > e.maxQty {
		e.logger.Warn("update quantity rejected: max quantity", "id", id, "quantity", qty, "max", e.maxQty)
		return false
	}

	idx := e.indexOf(id)
	if idx < 0 {
		e.logger.Warn("update quantity rejected: not in cart", "id", id)
		return false
	}

	e.items[idx].Quantity = qty
	e.commit(ctx)
	return true
}

// Clear は空でも保存と通知を行う。
func (e *CartEngine) Clear(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.items = []model.CartLine{}
	e.commit(ctx)
}

// Items は防御的コピー
func (e *CartEngine) Items() []model.CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()

	return model.CloneLines(e.items)
}

func (e *CartEngine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return countOf(e.items)
}

// TotalPrice は price*quantity の合計（丸めは表示時のみ）
func (e *CartEngine) TotalPrice() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()

	return totalOf(e.items)
}

func (e *CartEngine) HasItem(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.indexOf(id) >= 0
}

func (e *CartEngine) Item(id int64) (model.CartLine, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOf(id)
	if idx < 0 {
		return model.CartLine{}, false
	}
	return e.items[idx], true
}

func (e *CartEngine) Summary() model.CartSummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	return model.CartSummary{
		Items:      model.CloneLines(e.items),
		ItemCount:  countOf(e.items),
		TotalPrice: totalOf(e.items),
		IsEmpty:    len(e.items) == 0,
	}
}

// MaxQuantity は1明細あたりの上限
func (e *CartEngine) MaxQuantity() int {
	return e.maxQty
}

// Subscribe は購読を登録する。配信は登録順。
func (e *CartEngine) Subscribe(fn CartHandler) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	sub := subscriber{id: uuid.NewString(), fn: fn}
	e.subs = append(e.subs, sub)
	return Subscription{ID: sub.id}
}

// Unsubscribe は登録済みなら true
func (e *CartEngine) Unsubscribe(s Subscription) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, sub := range e.subs {
		if sub.id == s.ID {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			return true
		}
	}
	return false
}

func (e *CartEngine) removeLocked(ctx context.Context, id int64) bool {
	idx := e.indexOf(id)
	if idx < 0 {
		e.logger.Warn("remove item rejected: not in cart", "id", id)
		return false
	}

	// 順序を保って削除
	e.items = append(e.items[:idx:idx], e.items[idx+1:]...)
	e.commit(ctx)
	return true
}

// 保存してから通知
func (e *CartEngine) commit(ctx context.Context) {
	e.store.Save(ctx, e.items)

	for _, sub := range e.subs {
		sub.fn(model.CartUpdate{
			Items:      model.CloneLines(e.items),
			ItemCount:  countOf(e.items),
			TotalPrice: totalOf(e.items),
		})
	}
}

func (e *CartEngine) indexOf(id int64) int {
	for i := range e.items {
		if e.items[i].ID == id {
			return i
		}
	}
	return -1
}

func countOf(items []model.CartLine) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func totalOf(items []model.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
