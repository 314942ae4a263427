package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"splitexpense/internal/recurrence"
	"splitexpense/internal/services"
)

// SchedulerHandler lets an external cron trigger a scheduling pass.
type SchedulerHandler struct {
	executor services.ExecutorServicer
	now      func() time.Time
}

// NewSchedulerHandler creates a new SchedulerHandler.
func NewSchedulerHandler(executor services.ExecutorServicer) *SchedulerHandler {
	return &SchedulerHandler{executor: executor, now: time.Now}
}

// RunDue executes every active action due on or before the given date.
// @Summary     Run due scheduled actions
// @Description Intended for an external cron; authenticated with X-API-Key
// @Tags        internal
// @Produce     json
// @Param       X-API-Key header string true  "Scheduler API key"
// @Param       date      query  string false "Run as of this YYYY-MM-DD date (default today, UTC)"
// @Success     200 {object} services.RunSummary "Pass summary"
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /internal/scheduler/run [post]
func (h *SchedulerHandler) RunDue(c *gin.Context) {
	today, err := parseDateQuery(c, "date", recurrence.Today(h.now()))
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.executor.RunDue(c.Request.Context(), today)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
