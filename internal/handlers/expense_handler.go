package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "splitexpense/internal/errors"
	"splitexpense/internal/pagination"
	"splitexpense/internal/services"
)

// ExpenseHandler handles shared expense requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
	groupService   services.GroupServicer
	auditService   services.AuditServicer
}

// NewExpenseHandler creates a new ExpenseHandler. Group settings supply the
// currency and split of requests that omit them.
func NewExpenseHandler(expenseService services.ExpenseServicer, groupService services.GroupServicer, auditService services.AuditServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService, groupService: groupService, auditService: auditService}
}

// ExpenseRequest is the payload for creating or previewing an expense.
// PaidByUserID is shorthand for one member paying the whole amount. Without
// Currency or SplitPctShares the group's defaults apply.
type ExpenseRequest struct {
	Description    string                     `json:"description" binding:"max=255"`
	Amount         decimal.Decimal            `json:"amount" swaggertype:"string"`
	Currency       string                     `json:"currency" binding:"omitempty,currency"`
	PaidByUserID   string                     `json:"paid_by_user_id" binding:"omitempty,max=64"`
	PaidByShares   map[string]decimal.Decimal `json:"paid_by_shares"`
	SplitPctShares map[string]decimal.Decimal `json:"split_pct_shares"`
}

func (r ExpenseRequest) input() (services.ExpenseInput, error) {
	paid := r.PaidByShares
	switch {
	case r.PaidByUserID != "" && len(paid) > 0:
		return services.ExpenseInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput,
			"Use either paid_by_user_id or paid_by_shares, not both")
	case r.PaidByUserID != "":
		paid = map[string]decimal.Decimal{r.PaidByUserID: r.Amount}
	case len(paid) == 0:
		return services.ExpenseInput{}, apperrors.WithMessage(apperrors.ErrInvalidPayment,
			"paid_by_user_id or paid_by_shares is required")
	}
	return services.ExpenseInput{
		Description:    r.Description,
		Amount:         r.Amount,
		Currency:       r.Currency,
		PaidByShares:   paid,
		SplitPctShares: r.SplitPctShares,
	}, nil
}

func (h *ExpenseHandler) bindExpense(c *gin.Context, groupID string) (services.ExpenseInput, error) {
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return services.ExpenseInput{}, bindError(err)
	}

	if req.Currency == "" || len(req.SplitPctShares) == 0 {
		settings, err := h.groupService.Get(c.Request.Context(), groupID)
		if err != nil {
			return services.ExpenseInput{}, err
		}
		if req.Currency == "" {
			req.Currency = settings.DefaultCurrency
		}
		if len(req.SplitPctShares) == 0 {
			req.SplitPctShares = settings.DefaultShare
		}
	}
	return req.input()
}

// CreateExpense records a shared expense and updates the group's balances.
// @Summary     Create an expense
// @Description Split an expense between group members and record who owes whom
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ExpenseRequest true "Expense details"
// @Success     201 {object} models.Transaction "Expense created"
// @Failure     400 {object} ErrorResponse "Invalid input, split or payment"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, groupID, err := getMember(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	in, err := h.bindExpense(c, groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.expenseService.CreateExpense(c.Request.Context(), groupID, userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(groupID, userID, "CREATE_EXPENSE", "transaction", tx.ID, c.ClientIP(),
		map[string]any{"amount": in.Amount.String(), "currency": in.Currency})

	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}

// PreviewSplit computes the settlement of an expense without recording it.
// @Summary     Preview a split
// @Description Compute who would owe whom for an expense; nothing is stored
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ExpenseRequest true "Expense details"
// @Success     200 {object} split.Result "Computed settlement"
// @Failure     400 {object} ErrorResponse "Invalid split or payment"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /splits/preview [post]
func (h *ExpenseHandler) PreviewSplit(c *gin.Context) {
	_, groupID, err := getMember(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	in, err := h.bindExpense(c, groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.expenseService.PreviewSplit(in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"split": result})
}

// GetExpenses lists the group's expenses, newest first.
// @Summary     List expenses
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [get]
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
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

	result, err := h.expenseService.ListExpenses(c.Request.Context(), groupID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetExpense returns one expense with its shares.
// @Summary     Get expense by ID
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Expense details"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	_, groupID, err := getMember(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.expenseService.GetExpense(c.Request.Context(), groupID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// DeleteExpense soft-deletes an expense and reverses its balance effect.
// @Summary     Delete expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Expense deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
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

	if err := h.expenseService.DeleteExpense(c.Request.Context(), groupID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(groupID, userID, "DELETE_EXPENSE", "transaction", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}
