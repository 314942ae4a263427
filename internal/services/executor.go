package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	apperrors "splitexpense/internal/errors"
	"splitexpense/internal/logger"
	"splitexpense/internal/models"
	"splitexpense/internal/recurrence"
	"splitexpense/internal/split"
)

// DefaultConcurrency is the number of groups processed at once when no
// concurrency is configured.
const DefaultConcurrency = 4

// executor runs due scheduled actions. Groups are processed in parallel and
// the actions of one group in order.
type executor struct {
	db          *gorm.DB
	ledger      LedgerServicer
	concurrency int
	now         func() time.Time
	log         *zap.SugaredLogger
}

// NewExecutor creates a new ExecutorServicer. Expense actions write balances
// through ledger.
func NewExecutor(db *gorm.DB, ledger LedgerServicer, concurrency int) ExecutorServicer {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &executor{
		db:          db,
		ledger:      ledger,
		concurrency: concurrency,
		now:         time.Now,
		log:         logger.Named("executor"),
	}
}

// TransactionIDFor is the id of the expense an action writes on date.
func TransactionIDFor(actionID string, date recurrence.Date) string {
	return fmt.Sprintf("tx_%s_%s", actionID, date)
}

// BudgetEntryIDFor is the id of the budget entry an action writes on date.
func BudgetEntryIDFor(actionID string, date recurrence.Date) string {
	return fmt.Sprintf("bg_%s_%s", actionID, date)
}

// RunDue executes every active action due on or before today that has not
// already succeeded today. A failing action is recorded in history and never
// stops the pass; only cancellation of ctx does.
func (e *executor) RunDue(ctx context.Context, today recurrence.Date) (*RunSummary, error) {
	start := time.Now()
	db := e.db.WithContext(ctx)

	var due []models.ScheduledAction
	if err := db.Where("is_active = ? AND next_execution_date <= ?", true, today).
		Order("next_execution_date, id").
		Find(&due).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &RunSummary{Date: today, Due: len(due)}
	if len(due) == 0 {
		return summary, nil
	}

	done, err := e.succeededOn(db, today, due)
	if err != nil {
		return nil, err
	}

	byGroup := make(map[string][]models.ScheduledAction)
	for _, a := range due {
		if done[a.ID] {
			summary.Skipped++
			continue
		}
		byGroup[a.GroupID] = append(byGroup[a.GroupID], a)
	}
	groups := make([]string, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, groupID := range groups {
		actions := byGroup[groupID]
		g.Go(func() error {
			for i := range actions {
				if err := gctx.Err(); err != nil {
					return err
				}
				_, execErr := e.execute(gctx, &actions[i], today)

				mu.Lock()
				if execErr != nil {
					summary.Failed++
				} else {
					summary.Succeeded++
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	e.log.Infow("scheduled actions run",
		"date", today.String(),
		"due", summary.Due,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return summary, nil
}

// succeededOn returns the ids among actions with a success record for date.
func (e *executor) succeededOn(db *gorm.DB, date recurrence.Date, actions []models.ScheduledAction) (map[string]bool, error) {
	ids := make([]string, 0, len(actions))
	for _, a := range actions {
		ids = append(ids, a.ID)
	}

	var succeeded []string
	if err := db.Model(&models.ScheduledActionHistory{}).
		Where("scheduled_action_id IN ? AND execution_date = ? AND execution_status = ?", ids, date, models.ExecutionStatusSuccess).
		Distinct().
		Pluck("scheduled_action_id", &succeeded).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	done := make(map[string]bool, len(succeeded))
	for _, id := range succeeded {
		done[id] = true
	}
	return done, nil
}

// RunOne executes one of the user's actions now, whether or not it is due
// or active. An action that already succeeded today returns that record.
func (e *executor) RunOne(ctx context.Context, userID, actionID string, today recurrence.Date) (*models.ScheduledActionHistory, error) {
	db := e.db.WithContext(ctx)

	var action models.ScheduledAction
	if err := db.Where("id = ? AND user_id = ?", actionID, userID).First(&action).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrScheduledActionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var existing models.ScheduledActionHistory
	err := db.Where("scheduled_action_id = ? AND execution_date = ? AND execution_status = ?",
		action.ID, today, models.ExecutionStatusSuccess).
		Order("executed_at DESC").
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	history, execErr := e.execute(ctx, &action, today)
	if history == nil {
		return nil, execErr
	}
	return history, nil
}

// execute runs one action and returns its history record. The error is the
// execution failure already captured in that record, or a storage error
// that prevented recording it.
func (e *executor) execute(ctx context.Context, action *models.ScheduledAction, today recurrence.Date) (*models.ScheduledActionHistory, error) {
	started := e.now()

	history, err := e.apply(ctx, action, today, started)
	if err == nil {
		e.log.Infow("scheduled action executed",
			"action_id", action.ID,
			"group_id", action.GroupID,
			"action_type", action.ActionType,
			"message", history.ResultData.Message,
			"duration_ms", history.ExecutionDurationMs,
		)
		return history, nil
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	failed, recErr := e.recordFailure(ctx, action, today, started, err)
	if recErr != nil {
		e.log.Errorw("failed to record scheduled action failure",
			"action_id", action.ID,
			"error", recErr,
			"cause", err,
		)
		return nil, err
	}
	e.log.Warnw("scheduled action failed",
		"action_id", action.ID,
		"group_id", action.GroupID,
		"action_type", action.ActionType,
		"error", err,
		"advanced", apperrors.IsValidation(err),
	)
	return failed, err
}

// apply writes the action's domain rows, advances its schedule and inserts
// the success record in one storage transaction.
func (e *executor) apply(ctx context.Context, action *models.ScheduledAction, today recurrence.Date, started time.Time) (*models.ScheduledActionHistory, error) {
	if err := action.ActionData.Validate(); err != nil {
		return nil, err
	}
	if action.ActionData.Type() != action.ActionType {
		return nil, apperrors.ErrInvalidActionType
	}

	next, err := recurrence.Next(action.StartDate, action.Frequency, today)
	if err != nil {
		return nil, apperrors.ErrInvalidFrequency
	}

	var history *models.ScheduledActionHistory
	write := func(tx *gorm.DB) error {
		var result *models.ResultData
		var err error
		switch action.ActionType {
		case models.ActionTypeAddExpense:
			result, err = e.writeExpense(tx, action, today)
		case models.ActionTypeAddBudget:
			result, err = e.writeBudgetEntry(tx, action, today)
		default:
			err = apperrors.ErrInvalidActionType
		}
		if err != nil {
			return err
		}

		executedAt := e.now().UTC()
		if err := tx.Model(&models.ScheduledAction{}).
			Where("id = ?", action.ID).
			Updates(map[string]interface{}{
				"last_executed_at":    executedAt,
				"next_execution_date": next,
			}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		history = &models.ScheduledActionHistory{
			ScheduledActionID:   action.ID,
			UserID:              action.UserID,
			ActionType:          action.ActionType,
			ExecutionDate:       today,
			ExecutedAt:          executedAt,
			ExecutionStatus:     models.ExecutionStatusSuccess,
			ActionData:          action.ActionData,
			ResultData:          result,
			ExecutionDurationMs: executedAt.Sub(started).Milliseconds(),
		}
		if err := tx.Create(history).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	}

	if action.ActionType == models.ActionTypeAddExpense {
		err = e.ledger.Write(ctx, action.GroupID, write)
	} else {
		err = e.db.WithContext(ctx).Transaction(write)
	}
	if err != nil {
		return nil, err
	}

	action.LastExecutedAt = &history.ExecutedAt
	action.NextExecutionDate = next
	return history, nil
}

// exists reports whether a row with id was ever written to model's table,
// including soft-deleted rows.
func exists(tx *gorm.DB, model interface{}, id string) (bool, error) {
	var count int64
	if err := tx.Unscoped().Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

func (e *executor) writeExpense(tx *gorm.DB, action *models.ScheduledAction, today recurrence.Date) (*models.ResultData, error) {
	id := TransactionIDFor(action.ID, today)
	found, err := exists(tx, &models.Transaction{}, id)
	if err != nil {
		return nil, err
	}
	if found {
		return &models.ResultData{Message: "Transaction already exists", TransactionID: id}, nil
	}

	data := action.ActionData.Expense
	req := data.SplitRequest()
	result, err := split.Compute(req)
	if err != nil {
		return nil, err
	}

	in := ExpenseInput{
		Description:    data.Description,
		Amount:         data.Amount,
		Currency:       data.Currency,
		PaidByShares:   req.PaidByShares,
		SplitPctShares: req.SplitPctShares,
	}
	transaction := newExpenseTransaction(action.GroupID, action.UserID, in, result)
	transaction.ID = id
	transaction.Metadata.ScheduledActionID = action.ID

	if err := insertExpense(tx, e.ledger, transaction, result.Transfers); err != nil {
		return nil, err
	}
	return &models.ResultData{
		Message:       fmt.Sprintf("Created expense with %d shares", len(transaction.Shares)),
		TransactionID: id,
	}, nil
}

func (e *executor) writeBudgetEntry(tx *gorm.DB, action *models.ScheduledAction, today recurrence.Date) (*models.ResultData, error) {
	id := BudgetEntryIDFor(action.ID, today)
	found, err := exists(tx, &models.BudgetEntry{}, id)
	if err != nil {
		return nil, err
	}
	if found {
		return &models.ResultData{Message: "Budget entry already exists", BudgetEntryID: id}, nil
	}

	data := action.ActionData.Budget
	entry, err := newBudgetEntry(action.GroupID, action.UserID, BudgetEntryInput{
		Name:        data.BudgetName,
		Description: data.Description,
		Amount:      data.Amount,
		Currency:    data.Currency,
		Type:        data.Type,
		AddedTime:   e.now(),
	})
	if err != nil {
		return nil, err
	}
	entry.ID = id

	if err := checkBudgetAllowed(tx, action.GroupID, entry.Name); err != nil {
		return nil, err
	}
	if err := insertBudgetEntry(tx, entry); err != nil {
		return nil, err
	}
	return &models.ResultData{
		Message:       fmt.Sprintf("Created %s entry in budget %s", data.Type, entry.Name),
		BudgetEntryID: id,
	}, nil
}

// recordFailure inserts a failed history record. A validation failure cannot
// succeed on retry, so the schedule moves on to the next cycle; any other
// failure leaves the action due for the next pass.
func (e *executor) recordFailure(ctx context.Context, action *models.ScheduledAction, today recurrence.Date, started time.Time, cause error) (*models.ScheduledActionHistory, error) {
	executedAt := e.now().UTC()
	history := &models.ScheduledActionHistory{
		ScheduledActionID:   action.ID,
		UserID:              action.UserID,
		ActionType:          action.ActionType,
		ExecutionDate:       today,
		ExecutedAt:          executedAt,
		ExecutionStatus:     models.ExecutionStatusFailed,
		ActionData:          action.ActionData,
		ErrorMessage:        cause.Error(),
		ExecutionDurationMs: executedAt.Sub(started).Milliseconds(),
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(history).Error; err != nil {
			return err
		}
		if !apperrors.IsValidation(cause) {
			return nil
		}
		next, err := recurrence.Next(action.StartDate, action.Frequency, today)
		if err != nil {
			// Without a cadence the schedule cannot move; leave it for the owner.
			return nil
		}
		action.NextExecutionDate = next
		return tx.Model(&models.ScheduledAction{}).
			Where("id = ?", action.ID).
			Update("next_execution_date", next).Error
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}
