package domain

import "github.com/google/uuid"

type ProductID int64

type WarehouseID int64

type ClientID int64

// IDGenerator hands out identities for orders, payments and deliveries.
type IDGenerator interface {
	NewID() uuid.UUID
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() uuid.UUID {
	return uuid.New()
}

// IDGeneratorFunc adapts a plain function to IDGenerator.
type IDGeneratorFunc func() uuid.UUID

func (f IDGeneratorFunc) NewID() uuid.UUID {
	return f()
}
