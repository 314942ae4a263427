package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "splitexpense/internal/errors"
	"splitexpense/internal/models"
	"splitexpense/internal/pagination"
	"splitexpense/internal/recurrence"
	"splitexpense/internal/services"
)

// ScheduledActionHandler handles recurring expense and budget requests.
type ScheduledActionHandler struct {
	actionService services.ScheduledActionServicer
	executor      services.ExecutorServicer
	auditService  services.AuditServicer
	now           func() time.Time
}

// NewScheduledActionHandler creates a new ScheduledActionHandler.
func NewScheduledActionHandler(
	actionService services.ScheduledActionServicer,
	executor services.ExecutorServicer,
	auditService services.AuditServicer,
) *ScheduledActionHandler {
	return &ScheduledActionHandler{
		actionService: actionService,
		executor:      executor,
		auditService:  auditService,
		now:           time.Now,
	}
}

// CreateScheduledActionRequest represents the request payload for a scheduled
// action. ActionData is decoded according to ActionType.
type CreateScheduledActionRequest struct {
	ActionType models.ActionType    `json:"action_type" binding:"required,action_type"`
	Frequency  recurrence.Frequency `json:"frequency" binding:"required,frequency"`
	StartDate  recurrence.Date      `json:"start_date" swaggertype:"string" example:"2025-01-31"`
	ActionData models.ActionData    `json:"action_data" swaggertype:"object"`
}

// UpdateScheduledActionRequest represents the request payload for changing a
// scheduled action. Omitted fields are left unchanged.
type UpdateScheduledActionRequest struct {
	IsActive          *bool                 `json:"is_active"`
	Frequency         *recurrence.Frequency `json:"frequency" binding:"omitempty,frequency"`
	StartDate         *recurrence.Date      `json:"start_date" swaggertype:"string"`
	ActionData        *models.ActionData    `json:"action_data" swaggertype:"object"`
	NextExecutionDate *recurrence.Date      `json:"next_execution_date" swaggertype:"string"`
	SkipNext          bool                  `json:"skip_next"`
}

// CreateScheduledAction handles scheduling a recurring expense or budget entry.
// @Summary     Create a scheduled action
// @Tags        scheduled-actions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateScheduledActionRequest true "Schedule and payload"
// @Success     201 {object} models.ScheduledAction "Scheduled action created"
// @Failure     400 {object} ErrorResponse "Invalid input or payload"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /scheduled-actions [post]
func (h *ScheduledActionHandler) CreateScheduledAction(c *gin.Context) {
	userID, groupID, err := getMember(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateScheduledActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	action, err := h.actionService.Create(c.Request.Context(), userID, groupID, services.ScheduledActionInput{
		ActionType: req.ActionType,
		Frequency:  req.Frequency,
		StartDate:  req.StartDate,
		ActionData: req.ActionData,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(groupID, userID, "CREATE_SCHEDULED_ACTION", "scheduled_action", action.ID, c.ClientIP(),
		map[string]any{"action_type": action.ActionType, "frequency": action.Frequency})

	c.JSON(http.StatusCreated, gin.H{"scheduled_action": action})
}

// GetScheduledActions lists the caller's scheduled actions.
// @Summary     List scheduled actions
// @Tags        scheduled-actions
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.ScheduledAction] "Paginated actions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /scheduled-actions [get]
func (h *ScheduledActionHandler) GetScheduledActions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.actionService.List(c.Request.Context(), userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetScheduledAction returns one action with its recent executions.
// @Summary     Get scheduled action by ID
// @Tags        scheduled-actions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Scheduled action ID"
// @Success     200 {object} services.ScheduledActionDetails "Action and recent history"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Scheduled action not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /scheduled-actions/{id} [get]
func (h *ScheduledActionHandler) GetScheduledAction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	details, err := h.actionService.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// UpdateScheduledAction handles changing the schedule, payload, or active flag.
// @Summary     Update scheduled action
// @Tags        scheduled-actions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                       true "Scheduled action ID"
// @Param       request body UpdateScheduledActionRequest true "Changes"
// @Success     200 {object} models.ScheduledAction "Updated action"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Scheduled action not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /scheduled-actions/{id} [put]
func (h *ScheduledActionHandler) UpdateScheduledAction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateScheduledActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	action, err := h.actionService.Update(c.Request.Context(), userID, id, services.ScheduledActionUpdate{
		IsActive:          req.IsActive,
		Frequency:         req.Frequency,
		StartDate:         req.StartDate,
		ActionData:        req.ActionData,
		NextExecutionDate: req.NextExecutionDate,
		SkipNext:          req.SkipNext,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(action.GroupID, userID, "UPDATE_SCHEDULED_ACTION", "scheduled_action", id, c.ClientIP(),
		map[string]any{"is_active": action.IsActive, "next_execution_date": action.NextExecutionDate.String()})

	c.JSON(http.StatusOK, gin.H{"scheduled_action": action})
}

// DeleteScheduledAction handles removing an action and its history.
// @Summary     Delete scheduled action
// @Tags        scheduled-actions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Scheduled action ID"
// @Success     200 {object} MessageResponse "Scheduled action deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Scheduled action not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /scheduled-actions/{id} [delete]
func (h *ScheduledActionHandler) DeleteScheduledAction(c *gin.Context) {
	userID, groupID, err := getMember(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.actionService.Delete(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(groupID, userID, "DELETE_SCHEDULED_ACTION", "scheduled_action", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Scheduled action deleted successfully"})
}

// RunScheduledAction executes an action immediately for today.
// @Summary     Run scheduled action now
// @Description Executes the action for today's date even when it is paused or not yet due
// @Tags        scheduled-actions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Scheduled action ID"
// @Success     200 {object} models.ScheduledActionHistory "Execution record"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Scheduled action not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /scheduled-actions/{id}/run [post]
func (h *ScheduledActionHandler) RunScheduledAction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	record, err := h.executor.RunOne(c.Request.Context(), userID, id, recurrence.Today(h.now()))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"execution": record})
}

// GetHistory lists the caller's execution history, newest first.
// @Summary     Get execution history
// @Tags        scheduled-actions
// @Produce     json
// @Security    BearerAuth
// @Param       scheduled_action_id query string false "Only executions of this action"
// @Param       status              query string false "success or failed"
// @Param       page                query int    false "Page number (default 1)"
// @Param       page_size           query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.ScheduledActionHistory] "Paginated history"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /scheduled-actions/history [get]
func (h *ScheduledActionHandler) GetHistory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter := services.HistoryFilter{ScheduledActionID: c.Query("scheduled_action_id")}
	if v := c.Query("status"); v != "" {
		status := models.ExecutionStatus(v)
		if status != models.ExecutionStatusSuccess && status != models.ExecutionStatusFailed {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be 'success' or 'failed'"))
			return
		}
		filter.Status = status
	}

	result, err := h.actionService.History(c.Request.Context(), userID, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
