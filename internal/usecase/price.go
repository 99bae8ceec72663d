package usecase

import "github.com/shopspring/decimal"

// FormatPrice は "$1234.50" 形式（桁区切りなし、ここで初めて2桁に丸める）
func FormatPrice(p decimal.Decimal) string {
	return "$" + p.StringFixed(2)
}

// 割引計算の結果
type Discount struct {
	Original decimal.Decimal `json:"original"`
	Discount decimal.Decimal `json:"discount"`
	Final    decimal.Decimal `json:"final"`
}

// CalculateDiscount は total から percent% 引く。最終額は0未満にならない。
func CalculateDiscount(total decimal.Decimal, percent decimal.Decimal) Discount {
	amount := total.Mul(percent).Div(decimal.NewFromInt(100))
	final := total.Sub(amount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	return Discount{Original: total, Discount: amount, Final: final}
}
