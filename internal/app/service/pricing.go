package service

import (
	"github.com/shopspring/decimal"
)

// PricingPolicy computes order totals from snapshotted unit prices.
// It is pure: no I/O, no state beyond the configured rate.
type PricingPolicy struct {
	taxRate decimal.Decimal
}

// DefaultTaxRate is the flat placeholder rate (10%).
var DefaultTaxRate = decimal.NewFromFloat(0.10)

func NewPricingPolicy(taxRate decimal.Decimal) PricingPolicy {
	return PricingPolicy{taxRate: taxRate}
}

// Tax returns round(subtotal × rate, 2) with half-up rounding.
func (p PricingPolicy) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(p.taxRate).Round(2)
}

// Total returns subtotal + tax.
func (p PricingPolicy) Total(subtotal, tax decimal.Decimal) decimal.Decimal {
	return subtotal.Add(tax)
}
