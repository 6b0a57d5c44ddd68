package discounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/types"
	"gorm.io/gorm"
)

type discountRow struct {
	Code           string          `gorm:"column:code;primaryKey"`
	Type           string          `gorm:"column:type"`
	Value          decimal.Decimal `gorm:"column:value"`
	StartsAt       *time.Time      `gorm:"column:starts_at"`
	EndsAt         *time.Time      `gorm:"column:ends_at"`
	MinOrderAmount decimal.Decimal `gorm:"column:min_order_amount"`
	StoreID        *uuid.UUID      `gorm:"column:store_id"`
	IsActive       bool            `gorm:"column:is_active"`
}

func (discountRow) TableName() string {
	return "discount_codes"
}

// Repo is the database-backed discount resolver.
type Repo struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepo builds the discount resolver over the provided connection.
func NewRepo(db *gorm.DB) (*Repo, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &Repo{db: db, now: time.Now}, nil
}

// Validate checks a code against its window, minimum order amount, and
// store scope. Every business-rule failure yields an invalid verdict, never
// an error.
func (r *Repo) Validate(ctx context.Context, code string, subtotal types.Money, storeIDs []uuid.UUID) (Validation, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return invalid("discount code is empty"), nil
	}

	var row discountRow
	err := r.db.WithContext(ctx).First(&row, "code = ?", normalized).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalid("unknown discount code"), nil
	}
	if err != nil {
		return Validation{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount code")
	}

	if !row.IsActive {
		return invalid("discount code is disabled"), nil
	}

	discountType, err := enums.ParseDiscountType(row.Type)
	if err != nil {
		return Validation{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "discount code has invalid type")
	}

	now := r.now().UTC()
	if row.StartsAt != nil && now.Before(*row.StartsAt) {
		return invalid("discount code is not active yet"), nil
	}
	if row.EndsAt != nil && now.After(*row.EndsAt) {
		return invalid("discount code has expired"), nil
	}

	minOrder, err := types.NewMoney(row.MinOrderAmount)
	if err != nil {
		return Validation{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "discount code has invalid minimum")
	}
	if subtotal.LessThan(minOrder) {
		return invalid(fmt.Sprintf("order subtotal below minimum %s", minOrder)), nil
	}

	if row.StoreID != nil && !containsStore(storeIDs, *row.StoreID) {
		return invalid("discount code does not apply to any store in the order"), nil
	}

	return Validation{
		Valid: true,
		Definition: &Definition{
			Code:           row.Code,
			Type:           discountType,
			Value:          row.Value,
			StartsAt:       row.StartsAt,
			EndsAt:         row.EndsAt,
			MinOrderAmount: minOrder,
			StoreScope:     row.StoreID,
		},
	}, nil
}

func invalid(reason string) Validation {
	return Validation{Reason: reason}
}

func containsStore(storeIDs []uuid.UUID, target uuid.UUID) bool {
	for _, id := range storeIDs {
		if id == target {
			return true
		}
	}
	return false
}
