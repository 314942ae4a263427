package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"splitexpense/internal/models"
	"splitexpense/internal/pagination"
	"splitexpense/internal/recurrence"
	"splitexpense/internal/split"
)

// BalanceSummary is one counterpart's netted balance with a user. A positive
// Amount means the counterpart owes the user; negative means the user owes.
type BalanceSummary struct {
	CounterpartID string          `json:"counterpart_id"`
	Currency      string          `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
}

// LedgerServicer maintains the materialized user_balances table.
type LedgerServicer interface {
	// Write runs fn in a transaction while holding the group's shared lock.
	// Apply may only be called from inside fn.
	Write(ctx context.Context, groupID string, fn func(tx *gorm.DB) error) error
	// Apply adds sign*amount of every transfer to its directed balance row.
	Apply(tx *gorm.DB, groupID string, transfers []split.Transfer, sign int) error
	// Rebuild recomputes the group's balances from non-deleted shares.
	Rebuild(ctx context.Context, groupID string) error
	Balances(ctx context.Context, groupID string) ([]models.UserBalance, error)
	UserSummary(ctx context.Context, groupID, userID string) ([]BalanceSummary, error)
}

// ExpenseInput is a new shared expense.
type ExpenseInput struct {
	Description    string
	Amount         decimal.Decimal
	Currency       string
	PaidByShares   map[string]decimal.Decimal
	SplitPctShares map[string]decimal.Decimal
}

// SplitRequest converts the input into a split request.
func (in ExpenseInput) SplitRequest() split.Request {
	return split.Request{
		Amount:         in.Amount,
		Currency:       in.Currency,
		PaidByShares:   in.PaidByShares,
		SplitPctShares: in.SplitPctShares,
	}
}

// ExpenseServicer defines the contract for shared expenses.
type ExpenseServicer interface {
	PreviewSplit(in ExpenseInput) (*split.Result, error)
	CreateExpense(ctx context.Context, groupID, userID string, in ExpenseInput) (*models.Transaction, error)
	GetExpense(ctx context.Context, groupID, transactionID string) (*models.Transaction, error)
	ListExpenses(ctx context.Context, groupID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	DeleteExpense(ctx context.Context, groupID, transactionID string) error
}

// BudgetEntryInput is a new budget entry. Amount is a magnitude; Type sets its sign.
type BudgetEntryInput struct {
	Name        string
	Description string
	Amount      decimal.Decimal
	Currency    string
	Type        models.BudgetType
	AddedTime   time.Time
}

// MonthlyAmount is the spend of one currency in one month.
type MonthlyAmount struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// MonthlySpending is one month of the report.
type MonthlySpending struct {
	Year    int             `json:"year"`
	Month   string          `json:"month"`
	Amounts []MonthlyAmount `json:"amounts"`
}

// AverageSpending is the average monthly spend of one currency over a window.
type AverageSpending struct {
	Currency            string          `json:"currency"`
	AverageMonthlySpend decimal.Decimal `json:"average_monthly_spend"`
	TotalSpend          decimal.Decimal `json:"total_spend"`
	MonthsAnalyzed      int             `json:"months_analyzed"`
}

// RollingAverage holds the averages over the most recent PeriodMonths months.
type RollingAverage struct {
	PeriodMonths int               `json:"period_months"`
	Averages     []AverageSpending `json:"averages"`
}

// PeriodAnalyzed is the date range a report covers.
type PeriodAnalyzed struct {
	StartDate recurrence.Date `json:"start_date"`
	EndDate   recurrence.Date `json:"end_date"`
}

// MonthlyReport is the spend history of one budget.
type MonthlyReport struct {
	MonthlyBudgets      []MonthlySpending `json:"monthly_budgets"`
	AverageMonthlySpend []RollingAverage  `json:"average_monthly_spend"`
	PeriodAnalyzed      PeriodAnalyzed    `json:"period_analyzed"`
}

// BudgetServicer defines the contract for budget entries and their totals.
type BudgetServicer interface {
	CreateEntry(ctx context.Context, groupID, userID string, in BudgetEntryInput) (*models.BudgetEntry, error)
	DeleteEntry(ctx context.Context, groupID, entryID string) error
	ListEntries(ctx context.Context, groupID, name string, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetEntry], error)
	Totals(ctx context.Context, groupID, name string) ([]models.BudgetTotal, error)
	MonthlyReport(ctx context.Context, groupID, name string, today time.Time) (*MonthlyReport, error)
}

// ScheduledActionInput creates a scheduled action. ActionData must already
// be decoded for ActionType.
type ScheduledActionInput struct {
	ActionType models.ActionType
	Frequency  recurrence.Frequency
	StartDate  recurrence.Date
	ActionData models.ActionData
}

// ScheduledActionUpdate holds optional changes to a scheduled action.
type ScheduledActionUpdate struct {
	IsActive          *bool
	Frequency         *recurrence.Frequency
	StartDate         *recurrence.Date
	ActionData        *models.ActionData
	NextExecutionDate *recurrence.Date
	SkipNext          bool
}

// HistoryFilter narrows a history listing.
type HistoryFilter struct {
	ScheduledActionID string
	Status            models.ExecutionStatus
}

// ScheduledActionDetails is an action with its most recent executions.
type ScheduledActionDetails struct {
	Action        *models.ScheduledAction          `json:"scheduled_action"`
	RecentHistory []models.ScheduledActionHistory `json:"recent_history"`
}

// ScheduledActionServicer defines the contract for managing scheduled actions.
type ScheduledActionServicer interface {
	Create(ctx context.Context, userID, groupID string, in ScheduledActionInput) (*models.ScheduledAction, error)
	List(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.ScheduledAction], error)
	Get(ctx context.Context, userID, actionID string) (*ScheduledActionDetails, error)
	Update(ctx context.Context, userID, actionID string, upd ScheduledActionUpdate) (*models.ScheduledAction, error)
	Delete(ctx context.Context, userID, actionID string) error
	History(ctx context.Context, userID string, filter HistoryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.ScheduledActionHistory], error)
}

// RunSummary reports one scheduling pass.
type RunSummary struct {
	Date      recurrence.Date `json:"date"`
	Due       int             `json:"due"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Skipped   int             `json:"skipped"`
}

// ExecutorServicer runs due scheduled actions.
type ExecutorServicer interface {
	RunDue(ctx context.Context, today recurrence.Date) (*RunSummary, error)
	RunOne(ctx context.Context, userID, actionID string, today recurrence.Date) (*models.ScheduledActionHistory, error)
}

// GroupSettingsUpdate carries the settings to change. Nil fields are left
// as they are; an empty Budgets list removes the budget restriction.
type GroupSettingsUpdate struct {
	GroupName       *string
	Budgets         []string
	DefaultShare    map[string]decimal.Decimal
	DefaultCurrency *string
}

// GroupServicer defines the contract for per-group settings.
type GroupServicer interface {
	Get(ctx context.Context, groupID string) (*models.GroupSettings, error)
	Update(ctx context.Context, groupID string, upd GroupSettingsUpdate) (*models.GroupSettings, error)
}

// AuditServicer records user-initiated mutations.
type AuditServicer interface {
	Log(groupID, userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
