package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetType is the direction of a budget entry.
type BudgetType string

const (
	BudgetTypeCredit BudgetType = "Credit"
	BudgetTypeDebit  BudgetType = "Debit"
)

// IsValid reports whether t is Credit or Debit.
func (t BudgetType) IsValid() bool {
	return t == BudgetTypeCredit || t == BudgetTypeDebit
}

// Signed returns amount as stored for t: positive for credits, negative for debits.
func (t BudgetType) Signed(amount decimal.Decimal) decimal.Decimal {
	if t == BudgetTypeDebit {
		return amount.Abs().Neg()
	}
	return amount.Abs()
}

// BudgetEntry is a credit (positive) or debit (negative) against a named budget.
type BudgetEntry struct {
	Base
	GroupID     string          `gorm:"type:varchar(64);not null;index:idx_budget_entries_group_name" json:"group_id"`
	Name        string          `gorm:"not null;index:idx_budget_entries_group_name" json:"name"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"amount"`
	Currency    string          `gorm:"type:varchar(3);not null" json:"currency"`
	AddedTime   time.Time       `gorm:"not null;index" json:"added_time"`
	CreatedBy   string          `gorm:"type:varchar(64)" json:"created_by"`
}

// BudgetTotal is the running sum of non-deleted entries for a budget and
// currency. Only the budget aggregator writes it.
type BudgetTotal struct {
	GroupID     string          `gorm:"type:varchar(64);primaryKey" json:"group_id"`
	Name        string          `gorm:"primaryKey" json:"name"`
	Currency    string          `gorm:"type:varchar(3);primaryKey" json:"currency"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"total_amount"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
