package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

var promoCodes = map[string]decimal.Decimal{
	"SAVE10":    decimal.RequireFromString("0.10"),
	"SAVE20":    decimal.RequireFromString("0.20"),
	"BELANJAIN": decimal.RequireFromString("0.15"),
}

// Promo is a recognised promo code and the fraction it takes off the subtotal.
type Promo struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// LookupPromo resolves code case-insensitively.
func LookupPromo(code string) (Promo, error) {
	normalized := NormalizePromoCode(code)
	rate, ok := promoCodes[normalized]
	if !ok {
		return Promo{}, &Error{Op: "promo.Lookup", Kind: ErrInvalidPromoCode, ID: strings.TrimSpace(code)}
	}
	return Promo{Code: normalized, Discount: rate}, nil
}

// NormalizePromoCode upper-cases and trims a user supplied code.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Totals is the price breakdown of a cart with an optional promo applied.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// ApplyPromo computes the discount on subtotal rounded to two decimals. A nil
// promo yields zero discount.
func ApplyPromo(subtotal decimal.Decimal, promo *Promo) Totals {
	discount := decimal.Zero
	if promo != nil {
		discount = subtotal.Mul(promo.Discount).Round(2)
	}
	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Sub(discount),
	}
}
