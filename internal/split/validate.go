package split

import (
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "splitexpense/internal/errors"
	"splitexpense/internal/money"
)

// Validate checks req before anything is written. Percentages must add up to
// 100 and payments to the amount, each within money.AmountTolerance.
func Validate(req Request) error {
	if !req.Amount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	if !money.IsSupported(req.Currency) {
		return apperrors.WithMessage(apperrors.ErrUnsupportedCurrency,
			fmt.Sprintf("Unsupported currency %q", req.Currency))
	}
	if err := ValidatePercentages(req.SplitPctShares); err != nil {
		return err
	}
	return ValidatePayments(req.PaidByShares, req.Amount)
}

// ValidatePercentages checks that shares are non-negative and add up to 100.
func ValidatePercentages(shares map[string]decimal.Decimal) error {
	if len(shares) == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidSplit, "At least one user must share the expense")
	}
	total := decimal.Zero
	for userID, pct := range shares {
		if pct.IsNegative() {
			return apperrors.WithMessage(apperrors.ErrInvalidSplit,
				fmt.Sprintf("Split percentage for user %s cannot be negative", userID))
		}
		total = total.Add(pct)
	}
	if !money.WithinTolerance(total, money.Hundred(), money.AmountTolerance) {
		return apperrors.WithMessage(apperrors.ErrInvalidSplit,
			fmt.Sprintf("Split percentages must add up to 100, got %s", total.String()))
	}
	return nil
}

// ValidatePayments checks that payments are non-negative and add up to amount.
func ValidatePayments(paid map[string]decimal.Decimal, amount decimal.Decimal) error {
	if len(paid) == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidPayment, "At least one user must pay for the expense")
	}
	total := decimal.Zero
	for userID, p := range paid {
		if p.IsNegative() {
			return apperrors.WithMessage(apperrors.ErrInvalidPayment,
				fmt.Sprintf("Paid amount for user %s cannot be negative", userID))
		}
		total = total.Add(p)
	}
	if !money.WithinTolerance(total, amount, money.AmountTolerance) {
		return apperrors.WithMessage(apperrors.ErrInvalidPayment,
			fmt.Sprintf("Paid amounts add up to %s, expected %s", total.String(), amount.String()))
	}
	return nil
}
