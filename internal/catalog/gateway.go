package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/souqly/souqly-backend/pkg/types"
)

// ProductInfo is the pricing-relevant slice of a product: what it costs and
// which store owns it.
type ProductInfo struct {
	ID        uuid.UUID
	StoreID   uuid.UUID
	Title     string
	UnitPrice types.Money
	Active    bool
}

// Gateway resolves product identifiers to their current price and owning
// store. Implementations signal an unknown id with CodeProductNotFound.
type Gateway interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductInfo, error)
}
