package discounts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/souqly/souqly-backend/pkg/enums"
	"github.com/souqly/souqly-backend/pkg/types"
)

// Definition describes a discount code's behaviour and eligibility
// constraints.
type Definition struct {
	Code           string
	Type           enums.DiscountType
	Value          decimal.Decimal
	StartsAt       *time.Time
	EndsAt         *time.Time
	MinOrderAmount types.Money
	// StoreScope restricts the code to orders containing at least one item
	// from the given store. Nil means marketplace-wide.
	StoreScope *uuid.UUID
}

// RawAmount computes the discount's monetary effect against a subtotal
// before any remaining-subtotal clamping.
func (d Definition) RawAmount(subtotal types.Money) types.Money {
	switch d.Type {
	case enums.DiscountTypePercentage:
		return subtotal.MulFraction(d.Value)
	case enums.DiscountTypeFixedAmount:
		amount, err := types.NewMoney(d.Value)
		if err != nil {
			return types.ZeroMoney
		}
		return amount
	default:
		return types.ZeroMoney
	}
}

// Validation is the explicit verdict for a code: either valid with its
// definition, or invalid with the reason. Invalid codes are an expected
// outcome, not an error.
type Validation struct {
	Valid      bool
	Definition *Definition
	Reason     string
}

// Resolver validates a discount code against the current order state. The
// returned error is reserved for infrastructure failures; business
// invalidity arrives as a Validation with Valid == false.
type Resolver interface {
	Validate(ctx context.Context, code string, subtotal types.Money, storeIDs []uuid.UUID) (Validation, error)
}
