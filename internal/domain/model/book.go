package model

import "github.com/shopspring/decimal"

type Availability string

const (
	AvailabilityInStock    Availability = "in-stock"
	AvailabilityOutOfStock Availability = "out-of-stock"
)

// Valid は既知の在庫状態か
func (a Availability) Valid() bool {
	return a == AvailabilityInStock || a == AvailabilityOutOfStock
}

// カタログの1冊。読み込み後は変更しない。
type Book struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Author       string          `json:"author"`
	Price        decimal.Decimal `json:"price"`
	Availability Availability    `json:"availability"`
}

// InStock はカートに追加できるか
func (b Book) InStock() bool {
	return b.Availability == AvailabilityInStock
}

// カタログの絞り込み条件
type BookFilter string

const (
	FilterAll        BookFilter = "all"
	FilterInStock    BookFilter = "in-stock"
	FilterOutOfStock BookFilter = "out-of-stock"
)

// FindBook はidで探す（無ければ false）
func FindBook(books []Book, id int64) (Book, bool) {
	for _, b := range books {
		if b.ID == id {
			return b, true
		}
	}
	return Book{}, false
}

// FilterBooks は在庫状態で絞り込む。不明な条件は all 扱い。
func FilterBooks(books []Book, filter BookFilter) []Book {
	out := make([]Book, 0, len(books))
	for _, b := range books {
		switch filter {
		case FilterInStock:
			if b.Availability != AvailabilityInStock {
				continue
			}
		case FilterOutOfStock:
			if b.Availability != AvailabilityOutOfStock {
				continue
			}
		}
		out = append(out, b)
	}
	return out
}
