package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// GroupSettings is the per-group configuration: the budgets members may
// post to, the split used when an expense names none and the default
// currency. A group without a row uses zero settings in DefaultCurrency.
type GroupSettings struct {
	GroupID         string                     `gorm:"type:varchar(64);primaryKey" json:"group_id"`
	GroupName       string                     `json:"group_name"`
	Budgets         []string                   `gorm:"type:text;serializer:json" json:"budgets"`
	DefaultShare    map[string]decimal.Decimal `gorm:"type:text;serializer:json" json:"default_share,omitempty"`
	DefaultCurrency string                     `gorm:"type:varchar(3);not null" json:"default_currency"`
	CreatedAt       time.Time                  `json:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
}

// AllowsBudget reports whether entries may be posted to the named budget.
// An empty budget list leaves budgets unrestricted.
func (g *GroupSettings) AllowsBudget(name string) bool {
	return len(g.Budgets) == 0 || slices.Contains(g.Budgets, name)
}

// TableName overrides the table name.
func (GroupSettings) TableName() string {
	return "group_settings"
}
