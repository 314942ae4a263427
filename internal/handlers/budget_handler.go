package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "splitexpense/internal/errors"
	"splitexpense/internal/models"
	"splitexpense/internal/pagination"
	"splitexpense/internal/services"
)

// BudgetHandler handles budget entry requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
	now           func() time.Time
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService, now: time.Now}
}

// CreateBudgetEntryRequest represents the request payload for a budget entry.
// Amount is a magnitude; Type decides whether it credits or debits the budget.
type CreateBudgetEntryRequest struct {
	Name        string            `json:"name" binding:"required,min=1,max=100"`
	Description string            `json:"description" binding:"max=255"`
	Amount      decimal.Decimal   `json:"amount" swaggertype:"string"`
	Currency    string            `json:"currency" binding:"required,currency"`
	Type        models.BudgetType `json:"type" binding:"required,budget_type"`
	AddedTime   *time.Time        `json:"added_time"`
}

// CreateEntry handles adding a credit or debit to a named budget.
// @Summary     Create a budget entry
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetEntryRequest true "Entry details"
// @Success     201 {object} models.BudgetEntry "Entry created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/entries [post]
func (h *BudgetHandler) CreateEntry(c *gin.Context) {
	userID, groupID, err := getMember(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	in := services.BudgetEntryInput{
		Name:        req.Name,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Type:        req.Type,
	}
	if req.AddedTime != nil {
		in.AddedTime = *req.AddedTime
	}

	entry, err := h.budgetService.CreateEntry(c.Request.Context(), groupID, userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(groupID, userID, "CREATE_BUDGET_ENTRY", "budget_entry", entry.ID, c.ClientIP(),
		map[string]any{"name": entry.Name, "amount": entry.Amount.String(), "currency": entry.Currency})

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// GetEntries lists budget entries, newest first.
// @Summary     List budget entries
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       name      query string false "Only entries of this budget"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.BudgetEntry] "Paginated entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/entries [get]
func (h *BudgetHandler) GetEntries(c *gin.Context) {
	_, groupID, err := getMember(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.budgetService.ListEntries(c.Request.Context(), groupID, strings.TrimSpace(c.Query("name")), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteEntry handles removing a budget entry and reversing it from the totals.
// @Summary     Delete budget entry
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Entry ID"
// @Success     200 {object} MessageResponse "Entry deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/entries/{id} [delete]
func (h *BudgetHandler) DeleteEntry(c *gin.Context) {
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

	if err := h.budgetService.DeleteEntry(c.Request.Context(), groupID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(groupID, userID, "DELETE_BUDGET_ENTRY", "budget_entry", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Budget entry deleted successfully"})
}

// GetTotals returns the running total of each budget per currency.
// @Summary     Get budget totals
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       name query string false "Only totals of this budget"
// @Success     200 {array}  models.BudgetTotal "Totals by budget and currency"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/totals [get]
func (h *BudgetHandler) GetTotals(c *gin.Context) {
	_, groupID, err := getMember(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.budgetService.Totals(c.Request.Context(), groupID, strings.TrimSpace(c.Query("name")))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"totals": totals})
}

// GetReport returns the monthly spend history and rolling averages of a budget.
// @Summary     Get monthly budget report
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       name query string true "Budget name"
// @Success     200 {object} services.MonthlyReport "Monthly report"
// @Failure     400 {object} ErrorResponse "Missing budget name"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/report [get]
func (h *BudgetHandler) GetReport(c *gin.Context) {
	_, groupID, err := getMember(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required"))
		return
	}

	report, err := h.budgetService.MonthlyReport(c.Request.Context(), groupID, name, h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
