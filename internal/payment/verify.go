package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotSucceeded   = errors.New("payment has not succeeded")
	ErrAmountMismatch = errors.New("payment amount does not match")
	ErrInvalidAmount  = errors.New("amount must be positive with at most two decimal places")
)

// ToMinor converts a currency amount to minor units (cents).
// Amounts with more than two decimal places are rejected rather than rounded.
func ToMinor(amount decimal.Decimal) (int64, error) {
	minor := amount.Shift(2)
	if !minor.IsInteger() || minor.IsNegative() {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// Verify checks that intent id exists, has succeeded and charged exactly
// amountMinor, which must be positive.
func Verify(ctx context.Context, g Gateway, id string, amountMinor int64) (Intent, error) {
	if amountMinor <= 0 {
		return Intent{}, ErrInvalidAmount
	}
	intent, err := g.GetIntent(ctx, id)
	if err != nil {
		return Intent{}, err
	}
	if !intent.Succeeded() {
		return intent, fmt.Errorf("intent %s is %q: %w", id, intent.Status, ErrNotSucceeded)
	}
	if intent.Amount != amountMinor {
		return intent, fmt.Errorf("intent %s charged %d, expected %d: %w", id, intent.Amount, amountMinor, ErrAmountMismatch)
	}
	return intent, nil
}
