package service

import (
	"course-enrollment-service/internal/apperr"

	"github.com/shopspring/decimal"
)

// ToMinorUnits converts a price to integer minor currency units, rounding
// half up (49.99 -> 4999, 10.005 -> 1001).
func ToMinorUnits(price decimal.Decimal) (int64, error) {
	if price.IsNegative() {
		return 0, apperr.Validation("course price must not be negative")
	}
	return price.Shift(2).Round(0).IntPart(), nil
}
