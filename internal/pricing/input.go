package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/types"
)

// LineItem is one requested order line.
type LineItem struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// QuoteInput is the full request for one pricing calculation. Discount codes
// are applied in the order supplied; order matters because later codes see a
// smaller remaining subtotal.
type QuoteInput struct {
	Items         []LineItem    `json:"items" validate:"required,min=1,dive"`
	Address       types.Address `json:"address" validate:"required"`
	DiscountCodes []string      `json:"discount_codes,omitempty" validate:"dive,required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the structural shape of the input before any external
// call is made.
func (in QuoteInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, describeFieldError(fieldErrs[0])).
				WithDetails(map[string]any{"field": fieldErrs[0].Namespace()})
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quote input")
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must contain at least %s entries", field, fe.Param())
	case "iso3166_1_alpha2":
		return fmt.Sprintf("%s must be a two-letter country code", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
