package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountKind string

const (
	DiscountPercentage  DiscountKind = "PERCENTAGE"
	DiscountFixedAmount DiscountKind = "FIXED_AMOUNT"
)

var hundred = decimal.NewFromInt(100)

// DiscountRule is a promo code: a pure reduction of a subtotal gated by an
// inclusive expiry date.
type DiscountRule struct {
	Code      string          `json:"code"`
	Kind      DiscountKind    `json:"kind"`
	Value     decimal.Decimal `json:"value"`
	ExpiresOn time.Time       `json:"expires_on"`
}

func NewDiscountRule(code string, kind DiscountKind, value decimal.Decimal, expiresOn time.Time) (*DiscountRule, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("discount code is required")
	}
	switch kind {
	case DiscountPercentage:
		if value.IsNegative() || value.GreaterThan(hundred) {
			return nil, fmt.Errorf("percentage must be within [0, 100]: %s", value)
		}
	case DiscountFixedAmount:
		if value.IsNegative() {
			return nil, fmt.Errorf("fixed discount must not be negative: %s", value)
		}
	default:
		return nil, fmt.Errorf("unknown discount kind: %q", kind)
	}

	return &DiscountRule{
		Code:      code,
		Kind:      kind,
		Value:     value,
		ExpiresOn: expiresOn,
	}, nil
}

// IsValid reports whether now falls on or before the expiry day.
func (r *DiscountRule) IsValid(now time.Time) bool {
	return !calendarDay(now).After(calendarDay(r.ExpiresOn))
}

// Apply does not re-check the validity window; carts reject expired rules
// before they are ever applied.
func (r *DiscountRule) Apply(amount decimal.Decimal) decimal.Decimal {
	switch r.Kind {
	case DiscountPercentage:
		return amount.Mul(decimal.NewFromInt(1).Sub(r.Value.Div(hundred)))
	case DiscountFixedAmount:
		return decimal.Max(decimal.Zero, amount.Sub(r.Value))
	default:
		return amount
	}
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
