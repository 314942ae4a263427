package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "splitexpense/internal/errors"
	"splitexpense/internal/models"
	"splitexpense/internal/money"
	"splitexpense/internal/pagination"
)

// DefaultLookbackYears bounds the monthly report when no lookback is configured.
const DefaultLookbackYears = 2

// budgetService handles budget entries and their running totals.
type budgetService struct {
	db            *gorm.DB
	lookbackYears int
}

// NewBudgetService creates a new BudgetServicer. lookbackYears bounds the
// monthly report; values below one fall back to DefaultLookbackYears.
func NewBudgetService(db *gorm.DB, lookbackYears int) BudgetServicer {
	if lookbackYears < 1 {
		lookbackYears = DefaultLookbackYears
	}
	return &budgetService{
		db:            db,
		lookbackYears: lookbackYears,
	}
}

// CreateEntry records a signed budget entry and adds it to the budget total.
// The budget must be one the group has configured, if it configured any.
func (s *budgetService) CreateEntry(ctx context.Context, groupID, userID string, in BudgetEntryInput) (*models.BudgetEntry, error) {
	entry, err := newBudgetEntry(groupID, userID, in)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkBudgetAllowed(tx, groupID, entry.Name); err != nil {
			return err
		}
		return insertBudgetEntry(tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func newBudgetEntry(groupID, userID string, in BudgetEntryInput) (*models.BudgetEntry, error) {
	if groupID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "group ID is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}
	if !in.Type.IsValid() {
		return nil, apperrors.ErrInvalidBudgetType
	}
	if in.Amount.IsZero() {
		return nil, apperrors.ErrInvalidAmount
	}
	if !money.IsSupported(in.Currency) {
		return nil, apperrors.WithMessage(apperrors.ErrUnsupportedCurrency,
			fmt.Sprintf("Unsupported currency %q", in.Currency))
	}

	addedTime := in.AddedTime
	if addedTime.IsZero() {
		addedTime = time.Now()
	}

	return &models.BudgetEntry{
		GroupID:     groupID,
		Name:        name,
		Description: in.Description,
		Amount:      in.Type.Signed(in.Amount),
		Currency:    in.Currency,
		AddedTime:   addedTime.UTC(),
		CreatedBy:   userID,
	}, nil
}

// insertBudgetEntry writes entry and adds its amount to the matching total.
func insertBudgetEntry(tx *gorm.DB, entry *models.BudgetEntry) error {
	if err := tx.Create(entry).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return addToBudgetTotal(tx, entry.GroupID, entry.Name, entry.Currency, entry.Amount)
}

func addToBudgetTotal(tx *gorm.DB, groupID, name, currency string, delta decimal.Decimal) error {
	total := models.BudgetTotal{
		GroupID:     groupID,
		Name:        name,
		Currency:    currency,
		TotalAmount: delta,
		UpdatedAt:   time.Now().UTC(),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "group_id"}, {Name: "name"}, {Name: "currency"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_amount": gorm.Expr("budget_totals.total_amount + excluded.total_amount"),
			"updated_at":   gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&total).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// DeleteEntry soft-deletes an entry and subtracts it from the budget total.
func (s *budgetService) DeleteEntry(ctx context.Context, groupID, entryID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.BudgetEntry
		if err := tx.Where("id = ? AND group_id = ?", entryID, groupID).First(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrBudgetEntryNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Delete(&entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return addToBudgetTotal(tx, entry.GroupID, entry.Name, entry.Currency, entry.Amount.Neg())
	})
}

// ListEntries retrieves a page of the group's entries, newest first. An
// empty name lists every budget.
func (s *budgetService) ListEntries(ctx context.Context, groupID, name string, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetEntry], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.BudgetEntry{}).Where("group_id = ?", groupID)
	if name != "" {
		base = base.Where("name = ?", name)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.BudgetEntry
	if err := base.Scopes(pagination.Paginate(page)).
		Order("added_time DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Totals returns the running totals of the group's budgets.
func (s *budgetService) Totals(ctx context.Context, groupID, name string) ([]models.BudgetTotal, error) {
	q := s.db.WithContext(ctx).Where("group_id = ?", groupID)
	if name != "" {
		q = q.Where("name = ?", name)
	}

	var totals []models.BudgetTotal
	if err := q.Order("name, currency").Find(&totals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return totals, nil
}
