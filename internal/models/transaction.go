package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionMetadata records how an expense was split.
type TransactionMetadata struct {
	PaidByShares   map[string]decimal.Decimal `json:"paid_by_shares"`
	SplitPctShares map[string]decimal.Decimal `json:"split_pct_shares"`
	OwedAmounts    map[string]decimal.Decimal `json:"owed_amounts"`
	OwedToAmounts  map[string]decimal.Decimal `json:"owed_to_amounts"`
	// ScheduledActionID is set when the expense was created by a scheduled action.
	ScheduledActionID string `json:"scheduled_action_id,omitempty"`
}

// Transaction is an expense shared within a group. It is never updated;
// deleting it sets DeletedAt on it and its shares.
type Transaction struct {
	Base
	GroupID     string              `gorm:"type:varchar(64);not null;index" json:"group_id"`
	CreatedBy   string              `gorm:"type:varchar(64);not null" json:"created_by"`
	Description string              `gorm:"not null" json:"description"`
	Amount      decimal.Decimal     `gorm:"type:numeric(20,8);not null" json:"amount"`
	Currency    string              `gorm:"type:varchar(3);not null" json:"currency"`
	Metadata    TransactionMetadata `gorm:"serializer:json" json:"metadata"`

	Shares []TransactionShare `gorm:"foreignKey:TransactionID" json:"shares,omitempty"`
}

// TransactionShare is one debtor to creditor edge of a Transaction:
// UserID owes OwedToUserID Amount.
type TransactionShare struct {
	TransactionID string          `gorm:"type:varchar(64);primaryKey" json:"transaction_id"`
	UserID        string          `gorm:"type:varchar(64);primaryKey" json:"user_id"`
	OwedToUserID  string          `gorm:"type:varchar(64);primaryKey" json:"owed_to_user_id"`
	GroupID       string          `gorm:"type:varchar(64);not null;index" json:"group_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"amount"`
	Currency      string          `gorm:"type:varchar(3);not null" json:"currency"`
	CreatedAt     time.Time       `json:"created_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}
