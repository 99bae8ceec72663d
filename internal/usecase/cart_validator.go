package usecase

import (
	"context"
	"log/slog"

	"bookstore/internal/domain/model"
)

// 検証対象のカート（CartEngineが満たす）
type reconcilableCart interface {
	Items() []model.CartLine
	RemoveItem(ctx context.Context, id int64) bool
}

// CartValidator はカートとカタログを突き合わせ、カタログに無い明細を消す。
type CartValidator struct {
	cart   reconcilableCart
	logger *slog.Logger
}

// DI
func NewCartValidator(cart reconcilableCart, logger *slog.Logger) *CartValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartValidator{cart: cart, logger: logger}
}

// ValidateCart はカタログに存在しない明細のidをカート順で返す。
func ValidateCart(lines []model.CartLine, books []model.Book) []int64 {
	available := make(map[int64]struct{}, len(books))
	for _, b := range books {
		available[b.ID] = struct{}{}
	}

	invalid := []int64{}
	for _, l := range lines {
		if _, ok := available[l.ID]; !ok {
			invalid = append(invalid, l.ID)
		}
	}
	return invalid
}

// Reconcile は1件ずつ削除する。既に無いidはスキップ。消せた件数を返す。
func (v *CartValidator) Reconcile(ctx context.Context, ids []int64) int {
	removed := 0
	for _, id := range ids {
		if v.cart.RemoveItem(ctx, id) {
			removed++
		}
	}
	return removed
}

// Run は検証して削除まで行う。
func (v *CartValidator) Run(ctx context.Context, books []model.Book) []int64 {
	invalid := ValidateCart(v.cart.Items(), books)
	if len(invalid) == 0 {
		return invalid
	}

	removed := v.Reconcile(ctx, invalid)
	v.logger.Info("removed cart items missing from catalog", "ids", invalid, "removed", removed)
	return invalid
}
