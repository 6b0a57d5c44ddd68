package enums

import "fmt"

// DiscountType selects how a discount code's value is interpreted.
type DiscountType string

const (
	// DiscountTypePercentage treats the value as a fraction of the subtotal
	// (0.10 == 10%).
	DiscountTypePercentage DiscountType = "percentage"
	// DiscountTypeFixedAmount treats the value as a currency amount.
	DiscountTypeFixedAmount DiscountType = "fixed_amount"
)

var validDiscountTypes = []DiscountType{
	DiscountTypePercentage,
	DiscountTypeFixedAmount,
}

// String implements fmt.Stringer.
func (d DiscountType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountType.
func (d DiscountType) IsValid() bool {
	for _, candidate := range validDiscountTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountType converts raw input into a DiscountType.
func ParseDiscountType(value string) (DiscountType, error) {
	for _, candidate := range validDiscountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount type %q", value)
}
