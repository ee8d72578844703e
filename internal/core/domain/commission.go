package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeFare     = errors.New("fare must not be negative")
	ErrRateOutOfRange   = errors.New("commission rate must be within [0, 1]")
	ErrInvalidRateInput = errors.New("commission rate is not a decimal number")
)

// Commission returns floor(fare * rate). The driver keeps fare - commission,
// which is never negative for rates within [0, 1].
func Commission(fare int64, rate decimal.Decimal) (int64, error) {
	if fare < 0 {
		return 0, ErrNegativeFare
	}
	if err := ValidateRate(rate); err != nil {
		return 0, err
	}
	return decimal.NewFromInt(fare).Mul(rate).Floor().IntPart(), nil
}

// ValidateRate checks that rate is a fraction between 0 and 1 inclusive.
func ValidateRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: %s", ErrRateOutOfRange, rate.String())
	}
	return nil
}

// ParseRate parses and validates a textual commission rate such as "0.10".
func ParseRate(s string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidRateInput, s)
	}
	if err := ValidateRate(rate); err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}
