package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"splitexpense/internal/models"
	"splitexpense/internal/recurrence"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewGroupID returns a group id unique within the test run.
func NewGroupID() string {
	return fmt.Sprintf("group-%d", nextID())
}

// NewUserID returns a user id unique within the test run.
func NewUserID() string {
	return fmt.Sprintf("user-%d", nextID())
}

// Dec parses a decimal literal.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Shares builds a user to amount map from alternating id, amount pairs.
func Shares(kv ...string) map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = Dec(kv[i+1])
	}
	return m
}

// CreateTestBudgetEntry inserts a signed budget entry without touching totals.
func CreateTestBudgetEntry(t *testing.T, db *gorm.DB, groupID, name, amount, currency string, addedTime time.Time) *models.BudgetEntry {
	t.Helper()

	entry := &models.BudgetEntry{
		GroupID:   groupID,
		Name:      name,
		Amount:    Dec(amount),
		Currency:  currency,
		AddedTime: addedTime.UTC(),
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test budget entry: %v", err)
	}
	return entry
}

// ExpenseData returns a valid add_expense payload paid in full by payer and
// split evenly between payer and other.
func ExpenseData(payer, other string) models.ActionData {
	return models.ExpenseAction(models.ExpenseActionData{
		Description:    fmt.Sprintf("Test Expense %d", nextID()),
		Amount:         Dec("100"),
		Currency:       "USD",
		PaidByUserID:   payer,
		SplitPctShares: Shares(payer, "50", other, "50"),
	})
}

// BudgetData returns a valid add_budget payload debiting amount from name.
func BudgetData(name, amount string) models.ActionData {
	return models.BudgetAction(models.BudgetActionData{
		Description: fmt.Sprintf("Test Budget Entry %d", nextID()),
		Amount:      Dec(amount),
		Currency:    "USD",
		BudgetName:  name,
		Type:        models.BudgetTypeDebit,
	})
}

// CreateTestScheduledAction inserts an active action due on next.
func CreateTestScheduledAction(t *testing.T, db *gorm.DB, userID, groupID string, data models.ActionData, freq recurrence.Frequency, start, next recurrence.Date) *models.ScheduledAction {
	t.Helper()

	action := &models.ScheduledAction{
		UserID:            userID,
		GroupID:           groupID,
		ActionType:        data.Type(),
		Frequency:         freq,
		StartDate:         start,
		IsActive:          true,
		ActionData:        data,
		NextExecutionDate: next,
	}
	if err := db.Create(action).Error; err != nil {
		t.Fatalf("failed to create test scheduled action: %v", err)
	}
	return action
}
