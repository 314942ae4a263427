package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "splitexpense/internal/errors"
	"splitexpense/internal/money"
	"splitexpense/internal/split"
)

// ActionType selects what a scheduled action does when it runs.
type ActionType string

const (
	ActionTypeAddExpense ActionType = "add_expense"
	ActionTypeAddBudget  ActionType = "add_budget"
)

// IsValid reports whether t is a known action type.
func (t ActionType) IsValid() bool {
	return t == ActionTypeAddExpense || t == ActionTypeAddBudget
}

// ExpenseActionData is the payload of an add_expense action. PaidByUserID is
// shorthand for a single payer covering the whole amount.
type ExpenseActionData struct {
	Description    string                     `json:"description"`
	Amount         decimal.Decimal            `json:"amount"`
	Currency       string                     `json:"currency"`
	PaidByUserID   string                     `json:"paid_by_user_id,omitempty"`
	PaidByShares   map[string]decimal.Decimal `json:"paid_by_shares,omitempty"`
	SplitPctShares map[string]decimal.Decimal `json:"split_pct_shares"`
}

// Payments returns who paid how much.
func (e *ExpenseActionData) Payments() map[string]decimal.Decimal {
	if len(e.PaidByShares) > 0 {
		return e.PaidByShares
	}
	if e.PaidByUserID == "" {
		return nil
	}
	return map[string]decimal.Decimal{e.PaidByUserID: e.Amount}
}

// SplitRequest converts the payload into a split request.
func (e *ExpenseActionData) SplitRequest() split.Request {
	return split.Request{
		Amount:         e.Amount,
		Currency:       e.Currency,
		PaidByShares:   e.Payments(),
		SplitPctShares: e.SplitPctShares,
	}
}

// Validate checks the payload the same way a submitted expense is checked.
func (e *ExpenseActionData) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidActionData, "Description is required")
	}
	if e.PaidByUserID != "" && len(e.PaidByShares) > 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidActionData, "Use either paid_by_user_id or paid_by_shares, not both")
	}
	return split.Validate(e.SplitRequest())
}

// BudgetActionData is the payload of an add_budget action. Amount is a
// magnitude; Type decides the sign.
type BudgetActionData struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	BudgetName  string          `json:"budget_name"`
	Type        BudgetType      `json:"type"`
}

// Validate checks the payload.
func (b *BudgetActionData) Validate() error {
	if strings.TrimSpace(b.BudgetName) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidActionData, "Budget name is required")
	}
	if !b.Type.IsValid() {
		return apperrors.ErrInvalidBudgetType
	}
	if !b.Amount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	if !money.IsSupported(b.Currency) {
		return apperrors.WithMessage(apperrors.ErrUnsupportedCurrency,
			fmt.Sprintf("Unsupported currency %q", b.Currency))
	}
	return nil
}

// ActionData holds the payload of a scheduled action. Exactly one of Expense
// or Budget is set once the payload is resolved against its action type.
// Rows loaded from storage carry the raw JSON until Resolve runs.
type ActionData struct {
	Expense *ExpenseActionData
	Budget  *BudgetActionData

	raw json.RawMessage
	err error
}

// ExpenseAction wraps an add_expense payload.
func ExpenseAction(e ExpenseActionData) ActionData {
	return ActionData{Expense: &e}
}

// BudgetAction wraps an add_budget payload.
func BudgetAction(b BudgetActionData) ActionData {
	return ActionData{Budget: &b}
}

// DecodeActionData parses raw as the payload for t and validates it.
func DecodeActionData(t ActionType, raw []byte) (ActionData, error) {
	var d ActionData
	d.raw = append(json.RawMessage(nil), raw...)
	if err := d.Resolve(t); err != nil {
		return ActionData{}, err
	}
	if err := d.Validate(); err != nil {
		return ActionData{}, err
	}
	return d, nil
}

// Type returns the action type of the resolved payload, or "" if unresolved.
func (d ActionData) Type() ActionType {
	switch {
	case d.Expense != nil:
		return ActionTypeAddExpense
	case d.Budget != nil:
		return ActionTypeAddBudget
	default:
		return ""
	}
}

// Resolve decodes the raw payload as t. It is a no-op when the payload is
// already resolved as t.
func (d *ActionData) Resolve(t ActionType) error {
	if d.Type() == t && t != "" {
		return nil
	}
	if d.Type() != "" {
		// Re-typing a resolved payload goes through its JSON form.
		raw, err := d.MarshalJSON()
		if err != nil {
			return err
		}
		d.raw = raw
	}
	d.Expense, d.Budget, d.err = nil, nil, nil

	dec := json.NewDecoder(bytes.NewReader(d.raw))
	dec.DisallowUnknownFields()

	switch t {
	case ActionTypeAddExpense:
		var e ExpenseActionData
		if err := dec.Decode(&e); err != nil {
			d.err = apperrors.WithMessage(apperrors.ErrInvalidActionData, "Invalid add_expense payload: "+err.Error())
			return d.err
		}
		d.Expense = &e
	case ActionTypeAddBudget:
		var b BudgetActionData
		if err := dec.Decode(&b); err != nil {
			d.err = apperrors.WithMessage(apperrors.ErrInvalidActionData, "Invalid add_budget payload: "+err.Error())
			return d.err
		}
		d.Budget = &b
	default:
		d.err = apperrors.ErrInvalidActionType
		return d.err
	}
	return nil
}

// Validate validates whichever payload is set.
func (d ActionData) Validate() error {
	if d.err != nil {
		return d.err
	}
	switch {
	case d.Expense != nil:
		return d.Expense.Validate()
	case d.Budget != nil:
		return d.Budget.Validate()
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidActionData, "Scheduled action has no payload")
	}
}

// MarshalJSON encodes the resolved payload, or the raw payload if unresolved.
func (d ActionData) MarshalJSON() ([]byte, error) {
	switch {
	case d.Expense != nil:
		return json.Marshal(d.Expense)
	case d.Budget != nil:
		return json.Marshal(d.Budget)
	case len(d.raw) > 0:
		return d.raw, nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON keeps the payload raw; Resolve decodes it once the action
// type is known.
func (d *ActionData) UnmarshalJSON(data []byte) error {
	*d = ActionData{raw: append(json.RawMessage(nil), data...)}
	return nil
}
