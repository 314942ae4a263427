package models

import (
	"time"

	"gorm.io/gorm"

	"splitexpense/internal/recurrence"
	"splitexpense/internal/uuid"
)

// ScheduledAction repeats an expense or budget entry on a fixed cadence.
// Only its owner toggles IsActive; the executor advances LastExecutedAt and
// NextExecutionDate.
type ScheduledAction struct {
	ID                string               `gorm:"type:varchar(64);primaryKey" json:"id"`
	UserID            string               `gorm:"type:varchar(64);not null;index" json:"user_id"`
	GroupID           string               `gorm:"type:varchar(64);not null;index" json:"group_id"`
	ActionType        ActionType           `gorm:"type:varchar(32);not null" json:"action_type"`
	Frequency         recurrence.Frequency `gorm:"type:varchar(16);not null" json:"frequency"`
	StartDate         recurrence.Date      `gorm:"not null" json:"start_date"`
	IsActive          bool                 `gorm:"not null;default:true;index:idx_scheduled_actions_due,priority:1" json:"is_active"`
	ActionData        ActionData           `gorm:"serializer:json;not null" json:"action_data"`
	LastExecutedAt    *time.Time           `json:"last_executed_at,omitempty"`
	NextExecutionDate recurrence.Date      `gorm:"not null;index:idx_scheduled_actions_due,priority:2" json:"next_execution_date"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new actions.
func (a *ScheduledAction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New()
	}
	return nil
}

// AfterFind resolves the stored payload against the action type. A payload
// that does not decode is kept and reported by ActionData.Validate.
func (a *ScheduledAction) AfterFind(tx *gorm.DB) error {
	_ = a.ActionData.Resolve(a.ActionType)
	return nil
}

// ExecutionStatus is the outcome of one execution attempt.
type ExecutionStatus string

const (
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusFailed  ExecutionStatus = "failed"
)

// ResultData describes what a successful execution wrote.
type ResultData struct {
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id,omitempty"`
	BudgetEntryID string `json:"budget_entry_id,omitempty"`
}

// ScheduledActionHistory is an immutable record of one execution attempt.
// It has no UpdatedAt or DeletedAt; rows are only ever inserted.
type ScheduledActionHistory struct {
	ID                  string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	ScheduledActionID   string          `gorm:"type:varchar(64);not null;index:idx_history_action_date,priority:1" json:"scheduled_action_id"`
	UserID              string          `gorm:"type:varchar(64);not null;index" json:"user_id"`
	ActionType          ActionType      `gorm:"type:varchar(32);not null" json:"action_type"`
	ExecutionDate       recurrence.Date `gorm:"not null;index:idx_history_action_date,priority:2" json:"execution_date"`
	ExecutedAt          time.Time       `gorm:"not null;index" json:"executed_at"`
	ExecutionStatus     ExecutionStatus `gorm:"type:varchar(16);not null" json:"execution_status"`
	ActionData          ActionData      `gorm:"serializer:json;not null" json:"action_data"`
	ResultData          *ResultData     `gorm:"serializer:json" json:"result_data,omitempty"`
	ErrorMessage        string          `json:"error_message,omitempty"`
	ExecutionDurationMs int64           `gorm:"not null" json:"execution_duration_ms"`
}

// TableName overrides the pluralized default.
func (ScheduledActionHistory) TableName() string {
	return "scheduled_action_history"
}

// BeforeCreate hook generates a UUIDv7 for new history rows.
func (h *ScheduledActionHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.New()
	}
	return nil
}

// AfterFind resolves the payload snapshot.
func (h *ScheduledActionHistory) AfterFind(tx *gorm.DB) error {
	_ = h.ActionData.Resolve(h.ActionType)
	return nil
}
