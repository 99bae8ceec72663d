package ui

import "bookstore/internal/domain/model"

// 表示モード（カタログ or カート）
type Mode string

const (
	ModeCatalog Mode = "catalog-visible"
	ModeCart    Mode = "cart-visible"
)

// カタログの1枚
type CatalogCard struct {
	ID           int64              `json:"id"`
	Title        string             `json:"title"`
	Author       string             `json:"author"`
	Price        string             `json:"price"`
	Availability model.Availability `json:"availability"`
	Disabled     bool               `json:"disabled"`
	ButtonLabel  string             `json:"buttonLabel"`
}

type CatalogRegion struct {
	Filter model.BookFilter `json:"filter"`
	Cards  []CatalogCard    `json:"cards"`
}

// カート明細の表示用
type LineView struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
}

type CartRegion struct {
	Visible         bool       `json:"visible"`
	Lines           []LineView `json:"lines"`
	Total           string     `json:"total"`
	CheckoutEnabled bool       `json:"checkoutEnabled"`
}

type BadgeRegion struct {
	Count  int  `json:"count"`
	Hidden bool `json:"hidden"`
}

// チェックアウト画面（開いた時点のスナップショット）
type ModalRegion struct {
	Open     bool       `json:"open"`
	Lines    []LineView `json:"lines"`
	Total    string     `json:"total"`
	Discount string     `json:"discount,omitempty"`
	Final    string     `json:"final,omitempty"`
}

// View は全リージョンの値コピー
type View struct {
	Mode      Mode          `json:"mode"`
	Catalog   CatalogRegion `json:"catalog"`
	Cart      CartRegion    `json:"cart"`
	Badge     BadgeRegion   `json:"badge"`
	Modal     ModalRegion   `json:"modal"`
	Indicator *Indicator    `json:"indicator,omitempty"`
}
