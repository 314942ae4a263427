package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "splitexpense/internal/errors"
	"splitexpense/internal/models"
	"splitexpense/internal/money"
	"splitexpense/internal/split"
)

var budgetNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s_-]+$`)

// groupService handles per-group settings.
type groupService struct {
	db *gorm.DB
}

// NewGroupService creates a new GroupServicer.
func NewGroupService(db *gorm.DB) GroupServicer {
	return &groupService{db: db}
}

// loadGroupSettings returns the group's settings, or the defaults when the
// group never saved any.
func loadGroupSettings(db *gorm.DB, groupID string) (*models.GroupSettings, error) {
	var settings models.GroupSettings
	err := db.Where("group_id = ?", groupID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.GroupSettings{
			GroupID:         groupID,
			Budgets:         []string{},
			DefaultCurrency: money.DefaultCurrency,
		}, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if settings.Budgets == nil {
		settings.Budgets = []string{}
	}
	return &settings, nil
}

// checkBudgetAllowed rejects budget names outside the group's budget list.
func checkBudgetAllowed(db *gorm.DB, groupID, name string) error {
	settings, err := loadGroupSettings(db, groupID)
	if err != nil {
		return err
	}
	if !settings.AllowsBudget(name) {
		return apperrors.WithMessage(apperrors.ErrBudgetNotAllowed,
			fmt.Sprintf("Budget %q is not configured for this group", name))
	}
	return nil
}

// Get returns the group's settings.
func (s *groupService) Get(ctx context.Context, groupID string) (*models.GroupSettings, error) {
	return loadGroupSettings(s.db.WithContext(ctx), groupID)
}

// Update applies the provided changes and returns the stored settings.
func (s *groupService) Update(ctx context.Context, groupID string, upd GroupSettingsUpdate) (*models.GroupSettings, error) {
	if upd.GroupName == nil && upd.Budgets == nil && upd.DefaultShare == nil && upd.DefaultCurrency == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "No changes provided")
	}

	var settings *models.GroupSettings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if settings, err = loadGroupSettings(tx, groupID); err != nil {
			return err
		}

		if upd.GroupName != nil {
			name := strings.TrimSpace(*upd.GroupName)
			if name == "" {
				return apperrors.WithMessage(apperrors.ErrInvalidGroupSettings, "Group name cannot be empty")
			}
			settings.GroupName = name
		}
		if upd.Budgets != nil {
			budgets, err := normalizeBudgets(upd.Budgets)
			if err != nil {
				return err
			}
			settings.Budgets = budgets
		}
		if upd.DefaultShare != nil {
			if err := split.ValidatePercentages(upd.DefaultShare); err != nil {
				return err
			}
			settings.DefaultShare = upd.DefaultShare
		}
		if upd.DefaultCurrency != nil {
			if !money.IsSupported(*upd.DefaultCurrency) {
				return apperrors.WithMessage(apperrors.ErrUnsupportedCurrency,
					fmt.Sprintf("Unsupported currency %q", *upd.DefaultCurrency))
			}
			settings.DefaultCurrency = *upd.DefaultCurrency
		}

		settings.UpdatedAt = time.Now().UTC()
		if settings.CreatedAt.IsZero() {
			settings.CreatedAt = settings.UpdatedAt
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "group_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"group_name", "budgets", "default_share", "default_currency", "updated_at",
			}),
		}).Create(settings).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// normalizeBudgets trims names, drops duplicates and keeps the given order.
func normalizeBudgets(names []string) ([]string, error) {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" || len(name) > 64 || !budgetNamePattern.MatchString(name) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidGroupSettings,
				"Budget names can only contain letters, numbers, spaces, hyphens, and underscores")
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}
