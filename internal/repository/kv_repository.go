package repository

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// キーと値の永続化だけを約束。
// カートのスナップショットなど、1キー1値で保存するものに使う。
type KVRepository interface {
	// キーが無ければ ErrNotFound
	Get(ctx context.Context, key string) (string, error)
	// 同じキーは上書き
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
