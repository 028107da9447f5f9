package domain_test

import (
	"testing"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPointsFor(t *testing.T) {
	assert.EqualValues(t, 0, domain.PointsFor(decimal.NewFromInt(9999)))
	assert.EqualValues(t, 1, domain.PointsFor(decimal.NewFromInt(10000)))
	assert.EqualValues(t, 22, domain.PointsFor(decimal.NewFromInt(225970)))
	assert.EqualValues(t, 20, domain.PointsFor(decimal.NewFromInt(203373)))
	assert.EqualValues(t, 0, domain.PointsFor(decimal.NewFromInt(-50000)))
}

func TestLoyaltyAccount_AwardIsAdditive(t *testing.T) {
	var acct domain.LoyaltyAccount

	assert.EqualValues(t, 22, acct.Award(decimal.NewFromInt(225970)))
	assert.EqualValues(t, 22, acct.Balance())

	assert.EqualValues(t, 22, acct.Award(decimal.NewFromInt(225970)))
	assert.EqualValues(t, 44, acct.Balance())

	assert.EqualValues(t, 0, acct.Award(decimal.NewFromInt(500)))
	assert.EqualValues(t, 44, acct.Balance())
}
