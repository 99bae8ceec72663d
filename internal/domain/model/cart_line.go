package model

import "github.com/shopspring/decimal"

// カートの明細
// 追加時点のタイトル・著者・価格を保存する（Bookへの参照はidのみ）。
type CartLine struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Author   string          `json:"author"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Subtotal は price * quantity
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// カート変更通知のペイロード
type CartUpdate struct {
	Items      []CartLine      `json:"items"`
	ItemCount  int             `json:"itemCount"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// チェックアウト用のまとめ
type CartSummary struct {
	Items      []CartLine      `json:"items"`
	ItemCount  int             `json:"itemCount"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	IsEmpty    bool            `json:"isEmpty"`
}

// CloneLines は呼び出し側が書き換えても元に影響しないコピーを返す
func CloneLines(src []CartLine) []CartLine {
	out := make([]CartLine, len(src))
	copy(out, src)
	return out
}
