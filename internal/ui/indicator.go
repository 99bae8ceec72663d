package ui

import "time"

type IndicatorKind string

const (
	IndicatorSuccess IndicatorKind = "success"
	IndicatorError   IndicatorKind = "error"
	IndicatorInfo    IndicatorKind = "info"
)

const DefaultIndicatorTTL = 3 * time.Second

// 一時的な通知（同時に1つだけ）
type Indicator struct {
	ID      string        `json:"id"`
	Kind    IndicatorKind `json:"kind"`
	Message string        `json:"message"`
	ShownAt time.Time     `json:"shownAt"`
}

// scheduler は d 後に f を呼び、戻り値で取り消す。
type scheduler func(d time.Duration, f func()) (cancel func() bool)

func afterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
