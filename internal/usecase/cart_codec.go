package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"github.com/shopspring/decimal"
)

const DefaultCartKey = "bookstore_cart"

// 保存1回あたりの上限（呼び出し元のキャンセルとは切り離す）
const saveTimeout = 5 * time.Second

var maxInt64 = decimal.NewFromInt(math.MaxInt64)

// カートの保存先（CartEngineから見たポート）
type CartStore interface {
	Save(ctx context.Context, lines []model.CartLine)
	Load(ctx context.Context) []model.CartLine
}

// CartCodec はカートをJSON配列にしてKVの1キーに保存する。
// 保存の失敗はログだけ出して握りつぶす（メモリ上のカートは有効なまま）。
type CartCodec struct {
	kv     repo.KVRepository
	key    string
	logger *slog.Logger
}

// DI
func NewCartCodec(kv repo.KVRepository, key string, logger *slog.Logger) *CartCodec {
	if key == "" {
		key = DefaultCartKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CartCodec{kv: kv, key: key, logger: logger}
}

// 保存形式 {id,title,author,price,quantity}
type persistedLine struct {
	ID       int64       `json:"id"`
	Title    string      `json:"title"`
	Author   string      `json:"author"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

func (c *CartCodec) Save(ctx context.Context, lines []model.CartLine) {
	records := make([]persistedLine, 0, len(lines))
	for _, l := range lines {
		records = append(records, persistedLine{
			ID:       l.ID,
			Title:    l.Title,
			Author:   l.Author,
			Price:    json.Number(l.Price.String()),
			Quantity: l.Quantity,
		})
	}

	b, err := json.Marshal(records)
	if err != nil {
		c.logger.Error("cart encode failed", "key", c.key, "error", err)
		return
	}
	// リクエストが切れてもメモリ上の変更は確定済みなので保存は最後まで行う
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	if err := c.kv.Set(saveCtx, c.key, string(b)); err != nil {
		c.logger.Warn("cart save failed", "key", c.key, "error", err)
	}
}

// Load は壊れたデータでも失敗しない。
// 全体が読めなければ空、読めない明細だけ捨てる。
func (c *CartCodec) Load(ctx context.Context) []model.CartLine {
	raw, err := c.kv.Get(ctx, c.key)
	if errors.Is(err, repo.ErrNotFound) {
		return []model.CartLine{}
	}
	if err != nil {
		c.logger.Warn("cart load failed", "key", c.key, "error", err)
		return []model.CartLine{}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		c.logger.Warn("cart snapshot is not a JSON array", "key", c.key, "error", err)
		return []model.CartLine{}
	}

	lines := make([]model.CartLine, 0, len(entries))
	seen := make(map[int64]struct{}, len(entries))
	dropped := 0

	for _, entry := range entries {
		line, ok := decodeLine(entry)
		if !ok {
			dropped++
			continue
		}
		// 同じidは先に出たものを残す
		if _, dup := seen[line.ID]; dup {
			dropped++
			continue
		}
		seen[line.ID] = struct{}{}
		lines = append(lines, line)
	}

	if dropped > 0 {
		c.logger.Warn("dropped invalid cart entries", "key", c.key, "dropped", dropped)
	}
	return lines
}

func decodeLine(entry json.RawMessage) (model.CartLine, bool) {
	var fields map[string]any

	dec := json.NewDecoder(bytes.NewReader(entry))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return model.CartLine{}, false
	}

	id, ok := integral(fields["id"])
	if !ok {
		return model.CartLine{}, false
	}
	price, ok := number(fields["price"])
	if !ok || price.IsNegative() {
		return model.CartLine{}, false
	}
	qty, ok := integral(fields["quantity"])
	if !ok || qty > math.MaxInt32 {
		return model.CartLine{}, false
	}

	title, _ := fields["title"].(string)
	author, _ := fields["author"].(string)

	return model.CartLine{
		ID:       id,
		Title:    title,
		Author:   author,
		Price:    price,
		Quantity: int(qty),
	}, true
}

// JSONの数値だけ受け付ける（文字列の "12" は不可）
func number(v any) (decimal.Decimal, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// 1..MaxInt64 の整数だけ（IntPartは範囲外で桁あふれする）
func integral(v any) (int64, bool) {
	d, ok := number(v)
	if !ok || !d.IsInteger() {
		return 0, false
	}
	if d.LessThan(decimal.NewFromInt(1)) || d.GreaterThan(maxInt64) {
		return 0, false
	}
	return d.IntPart(), true
}
