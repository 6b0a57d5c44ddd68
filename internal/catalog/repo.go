package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/types"
	"gorm.io/gorm"
)

type productRow struct {
	ID        uuid.UUID       `gorm:"column:id;primaryKey"`
	StoreID   uuid.UUID       `gorm:"column:store_id"`
	Title     string          `gorm:"column:title"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price"`
	IsActive  bool            `gorm:"column:is_active"`
}

func (productRow) TableName() string {
	return "products"
}

// Repo is the database-backed product catalog gateway.
type Repo struct {
	db *gorm.DB
}

// NewRepo builds the catalog gateway over the provided connection.
func NewRepo(db *gorm.DB) (*Repo, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &Repo{db: db}, nil
}

// GetProduct loads the pricing view of a product.
func (r *Repo) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductInfo, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var row productRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found").
			WithDetails(map[string]any{"product_id": productID.String()})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	price, err := types.NewMoney(row.UnitPrice)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "product has invalid price")
	}

	return &ProductInfo{
		ID:        row.ID,
		StoreID:   row.StoreID,
		Title:     row.Title,
		UnitPrice: price,
		Active:    row.IsActive,
	}, nil
}
