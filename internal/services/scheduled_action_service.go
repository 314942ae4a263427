package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "splitexpense/internal/errors"
	"splitexpense/internal/models"
	"splitexpense/internal/pagination"
	"splitexpense/internal/recurrence"
)

// recentHistoryLimit is how many executions Get returns with an action.
const recentHistoryLimit = 10

// scheduledActionService handles the lifecycle of scheduled actions.
type scheduledActionService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewScheduledActionService creates a new ScheduledActionServicer.
func NewScheduledActionService(db *gorm.DB) ScheduledActionServicer {
	return &scheduledActionService{
		db:  db,
		now: time.Now,
	}
}

func (s *scheduledActionService) today() recurrence.Date {
	return recurrence.Today(s.now())
}

// Create validates and stores a new active action due on its first
// occurrence strictly after today, or on its start date if that is later.
func (s *scheduledActionService) Create(ctx context.Context, userID, groupID string, in ScheduledActionInput) (*models.ScheduledAction, error) {
	if userID == "" || groupID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user ID and group ID are required")
	}
	if !in.ActionType.IsValid() {
		return nil, apperrors.ErrInvalidActionType
	}
	if !in.Frequency.IsValid() {
		return nil, apperrors.ErrInvalidFrequency
	}
	if in.StartDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "start date is required")
	}

	data := in.ActionData
	if err := data.Resolve(in.ActionType); err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if data.Budget != nil {
		if err := checkBudgetAllowed(s.db.WithContext(ctx), groupID, strings.TrimSpace(data.Budget.BudgetName)); err != nil {
			return nil, err
		}
	}

	next, err := recurrence.Next(in.StartDate, in.Frequency, s.today())
	if err != nil {
		return nil, apperrors.ErrInvalidFrequency
	}

	action := &models.ScheduledAction{
		UserID:            userID,
		GroupID:           groupID,
		ActionType:        in.ActionType,
		Frequency:         in.Frequency,
		StartDate:         in.StartDate,
		IsActive:          true,
		ActionData:        data,
		NextExecutionDate: next,
	}
	if err := s.db.WithContext(ctx).Create(action).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return action, nil
}

// List retrieves a page of the user's actions, newest first.
func (s *scheduledActionService) List(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.ScheduledAction], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.ScheduledAction{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var actions []models.ScheduledAction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC, id DESC").
		Find(&actions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(actions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *scheduledActionService) find(db *gorm.DB, userID, actionID string) (*models.ScheduledAction, error) {
	var action models.ScheduledAction
	if err := db.Where("id = ? AND user_id = ?", actionID, userID).First(&action).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrScheduledActionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &action, nil
}

// Get retrieves one of the user's actions with its most recent executions.
func (s *scheduledActionService) Get(ctx context.Context, userID, actionID string) (*ScheduledActionDetails, error) {
	db := s.db.WithContext(ctx)
	action, err := s.find(db, userID, actionID)
	if err != nil {
		return nil, err
	}

	var history []models.ScheduledActionHistory
	if err := db.Where("scheduled_action_id = ?", action.ID).
		Order("executed_at DESC").
		Limit(recentHistoryLimit).
		Find(&history).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if history == nil {
		history = []models.ScheduledActionHistory{}
	}

	return &ScheduledActionDetails{Action: action, RecentHistory: history}, nil
}

// Update applies the requested changes. Changing the cadence or start date
// recomputes the next execution unless one is given explicitly; SkipNext
// then moves it one cycle further.
func (s *scheduledActionService) Update(ctx context.Context, userID, actionID string, upd ScheduledActionUpdate) (*models.ScheduledAction, error) {
	var action *models.ScheduledAction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		action, err = s.find(tx, userID, actionID)
		if err != nil {
			return err
		}

		if upd.IsActive != nil {
			action.IsActive = *upd.IsActive
		}

		reschedule := false
		if upd.Frequency != nil {
			if !upd.Frequency.IsValid() {
				return apperrors.ErrInvalidFrequency
			}
			reschedule = reschedule || *upd.Frequency != action.Frequency
			action.Frequency = *upd.Frequency
		}
		if upd.StartDate != nil {
			if upd.StartDate.IsZero() {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "start date is required")
			}
			reschedule = reschedule || !upd.StartDate.Equal(action.StartDate)
			action.StartDate = *upd.StartDate
		}
		if upd.ActionData != nil {
			data := *upd.ActionData
			if err := data.Resolve(action.ActionType); err != nil {
				return err
			}
			if err := data.Validate(); err != nil {
				return err
			}
			action.ActionData = data
		}

		switch {
		case upd.NextExecutionDate != nil:
			if upd.NextExecutionDate.IsZero() {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "next execution date is invalid")
			}
			action.NextExecutionDate = *upd.NextExecutionDate
		case reschedule:
			next, err := recurrence.Next(action.StartDate, action.Frequency, s.today())
			if err != nil {
				return apperrors.ErrInvalidFrequency
			}
			action.NextExecutionDate = next
		}

		if upd.SkipNext {
			next, err := recurrence.Skip(action.NextExecutionDate, action.StartDate, action.Frequency)
			if err != nil {
				return apperrors.ErrInvalidFrequency
			}
			action.NextExecutionDate = next
		}

		if err := tx.Save(action).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return action, nil
}

// Delete removes one of the user's actions together with its history.
func (s *scheduledActionService) Delete(ctx context.Context, userID, actionID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		action, err := s.find(tx, userID, actionID)
		if err != nil {
			return err
		}
		if err := tx.Where("scheduled_action_id = ?", action.ID).Delete(&models.ScheduledActionHistory{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(action).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// History retrieves a page of the user's execution records, newest first.
func (s *scheduledActionService) History(ctx context.Context, userID string, filter HistoryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.ScheduledActionHistory], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.ScheduledActionHistory{}).Where("user_id = ?", userID)
	if filter.ScheduledActionID != "" {
		base = base.Where("scheduled_action_id = ?", filter.ScheduledActionID)
	}
	if filter.Status != "" {
		base = base.Where("execution_status = ?", filter.Status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var history []models.ScheduledActionHistory
	if err := base.Scopes(pagination.Paginate(page)).
		Order("executed_at DESC, id DESC").
		Find(&history).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(history, page.Page, page.PageSize, totalItems)
	return &result, nil
}
