package services

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"splitexpense/internal/cache"
	apperrors "splitexpense/internal/errors"
	"splitexpense/internal/logger"
	"splitexpense/internal/models"
	"splitexpense/internal/money"
	"splitexpense/internal/split"
)

// ledgerService maintains user_balances from transaction shares.
type ledgerService struct {
	db    *gorm.DB
	locks *groupLocks
	cache *cache.Store[[]BalanceSummary]
}

// NewLedgerService creates a new LedgerServicer. summaries may be nil to
// disable the read cache.
func NewLedgerService(db *gorm.DB, summaries *cache.Store[[]BalanceSummary]) LedgerServicer {
	return &ledgerService{
		db:    db,
		locks: newGroupLocks(),
		cache: summaries,
	}
}

// Write runs fn in one storage transaction under the group's shared lock and
// drops the group's cached summaries once it commits.
func (s *ledgerService) Write(ctx context.Context, groupID string, fn func(tx *gorm.DB) error) error {
	unlock := s.locks.shared(groupID)
	defer unlock()

	if err := s.db.WithContext(ctx).Transaction(fn); err != nil {
		return err
	}
	s.invalidate(groupID)
	return nil
}

type balanceKey struct {
	debtor, creditor, currency string
}

// Apply adds sign times each transfer to the debtor to creditor balance.
func (s *ledgerService) Apply(tx *gorm.DB, groupID string, transfers []split.Transfer, sign int) error {
	if len(transfers) == 0 {
		return nil
	}

	// One row per key; a single upsert statement may not touch a row twice.
	sums := make(map[balanceKey]decimal.Decimal)
	var order []balanceKey
	for _, t := range transfers {
		k := balanceKey{t.DebtorID, t.CreditorID, t.Currency}
		if _, ok := sums[k]; !ok {
			order = append(order, k)
		}
		sums[k] = sums[k].Add(t.Amount.Mul(decimal.NewFromInt(int64(sign))))
	}

	now := time.Now().UTC()
	rows := make([]models.UserBalance, 0, len(order))
	for _, k := range order {
		rows = append(rows, models.UserBalance{
			GroupID:      groupID,
			UserID:       k.debtor,
			OwedToUserID: k.creditor,
			Currency:     k.currency,
			Balance:      sums[k],
			UpdatedAt:    now,
		})
	}

	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "group_id"}, {Name: "user_id"}, {Name: "owed_to_user_id"}, {Name: "currency"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance":    gorm.Expr("user_balances.balance + excluded.balance"),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&rows).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

type shareSum struct {
	UserID       string
	OwedToUserID string
	Currency     string
	Total        decimal.Decimal
}

// Rebuild replaces the group's balances with sums of its non-deleted shares.
func (s *ledgerService) Rebuild(ctx context.Context, groupID string) error {
	unlock := s.locks.exclusive(groupID)
	defer unlock()

	start := time.Now()
	var written int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&models.UserBalance{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var sums []shareSum
		if err := tx.Model(&models.TransactionShare{}).
			Select("user_id, owed_to_user_id, currency, SUM(amount) AS total").
			Where("group_id = ?", groupID).
			Group("user_id, owed_to_user_id, currency").
			Scan(&sums).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		now := time.Now().UTC()
		rows := make([]models.UserBalance, 0, len(sums))
		for _, sum := range sums {
			rows = append(rows, models.UserBalance{
				GroupID:      groupID,
				UserID:       sum.UserID,
				OwedToUserID: sum.OwedToUserID,
				Currency:     sum.Currency,
				Balance:      sum.Total,
				UpdatedAt:    now,
			})
		}
		if len(rows) == 0 {
			return nil
		}
		written = len(rows)
		if err := tx.CreateInBatches(&rows, 100).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(groupID)

	logger.Get().Infow("balances rebuilt",
		"group_id", groupID,
		"rows", written,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Balances returns the group's directed balance rows.
func (s *ledgerService) Balances(ctx context.Context, groupID string) ([]models.UserBalance, error) {
	var rows []models.UserBalance
	if err := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("user_id, owed_to_user_id, currency").
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rows, nil
}

// UserSummary nets both directions of every pair involving userID.
func (s *ledgerService) UserSummary(ctx context.Context, groupID, userID string) ([]BalanceSummary, error) {
	var gen uint64
	if s.cache != nil {
		if v, ok := s.cache.Get(groupID, userID); ok {
			return v, nil
		}
		gen = s.cache.Generation(groupID)
	}

	var rows []models.UserBalance
	if err := s.db.WithContext(ctx).
		Where("group_id = ? AND (user_id = ? OR owed_to_user_id = ?)", groupID, userID, userID).
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := netBalances(userID, rows)
	if s.cache != nil {
		s.cache.Set(groupID, userID, summary, gen)
	}
	return summary, nil
}

// netBalances folds directed rows into one signed amount per counterpart
// and currency, positive when the counterpart owes userID.
func netBalances(userID string, rows []models.UserBalance) []BalanceSummary {
	type key struct{ counterpart, currency string }
	nets := make(map[key]decimal.Decimal)
	for _, r := range rows {
		switch userID {
		case r.OwedToUserID:
			k := key{r.UserID, r.Currency}
			nets[k] = nets[k].Add(r.Balance)
		case r.UserID:
			k := key{r.OwedToUserID, r.Currency}
			nets[k] = nets[k].Sub(r.Balance)
		}
	}

	summary := make([]BalanceSummary, 0, len(nets))
	for k, net := range nets {
		if money.IsZero(net) {
			continue
		}
		summary = append(summary, BalanceSummary{
			CounterpartID: k.counterpart,
			Currency:      k.currency,
			Amount:        money.Round2(net),
		})
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].CounterpartID != summary[j].CounterpartID {
			return summary[i].CounterpartID < summary[j].CounterpartID
		}
		return summary[i].Currency < summary[j].Currency
	})
	return summary
}

func (s *ledgerService) invalidate(groupID string) {
	if s.cache != nil {
		s.cache.Invalidate(groupID)
	}
}
