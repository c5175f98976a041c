package service

import (
	"buppha/internal/domain"

	"github.com/shopspring/decimal"
)

// ShippingPolicy charges a flat fee below the free-shipping threshold
type ShippingPolicy struct {
	FreeShippingThreshold decimal.Decimal
	FlatFee               decimal.Decimal
}

func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{
		FreeShippingThreshold: decimal.NewFromInt(2000),
		FlatFee:               decimal.NewFromInt(100),
	}
}

// Fee returns the shipping fee for subtotal
func (p ShippingPolicy) Fee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return p.FlatFee
}

// Quote is the priced breakdown of a set of lines
type Quote struct {
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
}

// Quote prices lines at their current product prices. Discount is reserved
// and always zero. Nothing ships for an empty cart.
func (p ShippingPolicy) Quote(lines []domain.CartLine) Quote {
	subtotal := domain.Subtotal(lines)
	fee := decimal.Zero
	if len(lines) > 0 {
		fee = p.Fee(subtotal)
	}
	return Quote{
		Subtotal:    subtotal,
		ShippingFee: fee,
		Discount:    decimal.Zero,
		Total:       subtotal.Add(fee),
	}
}
