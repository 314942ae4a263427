package services

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "splitexpense/internal/errors"
	"splitexpense/internal/models"
	"splitexpense/internal/pagination"
	"splitexpense/internal/split"
)

// expenseService handles shared expenses and their ledger effects.
type expenseService struct {
	db     *gorm.DB
	ledger LedgerServicer
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB, ledger LedgerServicer) ExpenseServicer {
	return &expenseService{
		db:     db,
		ledger: ledger,
	}
}

// PreviewSplit computes the transfers for an expense without writing anything.
func (s *expenseService) PreviewSplit(in ExpenseInput) (*split.Result, error) {
	return split.Compute(in.SplitRequest())
}

// CreateExpense records an expense, its shares and the balance changes atomically.
func (s *expenseService) CreateExpense(ctx context.Context, groupID, userID string, in ExpenseInput) (*models.Transaction, error) {
	if groupID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "group ID is required")
	}
	if in.Description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}

	result, err := split.Compute(in.SplitRequest())
	if err != nil {
		return nil, err
	}

	transaction := newExpenseTransaction(groupID, userID, in, result)
	err = s.ledger.Write(ctx, groupID, func(tx *gorm.DB) error {
		return insertExpense(tx, s.ledger, transaction, result.Transfers)
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

func newExpenseTransaction(groupID, userID string, in ExpenseInput, result *split.Result) *models.Transaction {
	return &models.Transaction{
		GroupID:     groupID,
		CreatedBy:   userID,
		Description: in.Description,
		Amount:      in.Amount,
		Currency:    in.Currency,
		Metadata: models.TransactionMetadata{
			PaidByShares:   in.PaidByShares,
			SplitPctShares: in.SplitPctShares,
			OwedAmounts:    result.OwedAmounts,
			OwedToAmounts:  result.OwedToAmounts,
		},
	}
}

// insertExpense writes the transaction, one share per transfer and the
// matching balance increments. It must run inside a ledger Write.
func insertExpense(tx *gorm.DB, ledger LedgerServicer, transaction *models.Transaction, transfers []split.Transfer) error {
	if err := tx.Omit(clause.Associations).Create(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	shares := make([]models.TransactionShare, 0, len(transfers))
	for _, t := range transfers {
		shares = append(shares, models.TransactionShare{
			TransactionID: transaction.ID,
			UserID:        t.DebtorID,
			OwedToUserID:  t.CreditorID,
			GroupID:       transaction.GroupID,
			Amount:        t.Amount,
			Currency:      t.Currency,
		})
	}
	if len(shares) > 0 {
		if err := tx.Create(&shares).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	transaction.Shares = shares

	return ledger.Apply(tx, transaction.GroupID, transfers, +1)
}

// GetExpense retrieves a non-deleted expense with its shares.
func (s *expenseService) GetExpense(ctx context.Context, groupID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).
		Preload("Shares").
		Where("id = ? AND group_id = ?", transactionID, groupID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// ListExpenses retrieves a page of the group's expenses, newest first.
func (s *expenseService) ListExpenses(ctx context.Context, groupID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("group_id = ?", groupID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Shares").
		Order("created_at DESC, id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// DeleteExpense soft-deletes an expense and its shares and reverses their
// balance effect.
func (s *expenseService) DeleteExpense(ctx context.Context, groupID, transactionID string) error {
	return s.ledger.Write(ctx, groupID, func(tx *gorm.DB) error {
		var transaction models.Transaction
		if err := tx.Preload("Shares").
			Where("id = ? AND group_id = ?", transactionID, groupID).
			First(&transaction).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrTransactionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Where("transaction_id = ?", transaction.ID).Delete(&models.TransactionShare{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		transfers := make([]split.Transfer, 0, len(transaction.Shares))
		for _, share := range transaction.Shares {
			transfers = append(transfers, split.Transfer{
				DebtorID:   share.UserID,
				CreditorID: share.OwedToUserID,
				Amount:     share.Amount,
				Currency:   share.Currency,
			})
		}
		return s.ledger.Apply(tx, groupID, transfers, -1)
	})
}
