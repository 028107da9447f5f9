package domain

import (
	"sync"

	"github.com/shopspring/decimal"
)

var pointDivisor = decimal.NewFromInt(10000)

// LoyaltyAccount holds a client's running point balance.
type LoyaltyAccount struct {
	mu     sync.Mutex
	points int64
}

// PointsFor is one point per full 10000 of the order total.
func PointsFor(total decimal.Decimal) int64 {
	if total.IsNegative() {
		return 0
	}
	return total.Div(pointDivisor).Floor().IntPart()
}

// Award adds the points earned for total and returns the delta.
func (a *LoyaltyAccount) Award(total decimal.Decimal) int64 {
	points := PointsFor(total)

	a.mu.Lock()
	a.points += points
	a.mu.Unlock()

	return points
}

func (a *LoyaltyAccount) Balance() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.points
}
