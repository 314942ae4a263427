package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserBalance is the running sum of what UserID owes OwedToUserID in one
// currency within a group. Both directions of a pair are separate rows; the
// table is derived from non-deleted TransactionShares and only the ledger
// writes it.
type UserBalance struct {
	GroupID      string          `gorm:"type:varchar(64);primaryKey" json:"group_id"`
	UserID       string          `gorm:"type:varchar(64);primaryKey" json:"user_id"`
	OwedToUserID string          `gorm:"type:varchar(64);primaryKey" json:"owed_to_user_id"`
	Currency     string          `gorm:"type:varchar(3);primaryKey" json:"currency"`
	Balance      decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"balance"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
