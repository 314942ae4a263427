package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"splitexpense/internal/services"
)

// BalanceHandler serves the group's materialized balances.
type BalanceHandler struct {
	ledger       services.LedgerServicer
	auditService services.AuditServicer
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(ledger services.LedgerServicer, auditService services.AuditServicer) *BalanceHandler {
	return &BalanceHandler{ledger: ledger, auditService: auditService}
}

// GetBalances returns the caller's netted balance with every counterpart.
// @Summary     Get balances
// @Description Positive amounts are owed to the caller; negative amounts are owed by the caller
// @Tags        balances
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  services.BalanceSummary "Balances by counterpart and currency"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /balances [get]
func (h *BalanceHandler) GetBalances(c *gin.Context) {
	userID, groupID, err := getMember(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.ledger.UserSummary(c.Request.Context(), groupID, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": summary})
}

// GetLedger returns every directed balance row of the group.
// @Summary     Get group ledger
// @Tags        balances
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.UserBalance "Directed balance rows"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /balances/ledger [get]
func (h *BalanceHandler) GetLedger(c *gin.Context) {
	_, groupID, err := getMember(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rows, err := h.ledger.Balances(c.Request.Context(), groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": rows})
}

// RebuildBalances recomputes the group's balances from its live shares.
// @Summary     Rebuild balances
// @Description Discard the group's balance rows and recompute them from non-deleted expense shares
// @Tags        balances
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} MessageResponse "Balances rebuilt"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /balances/rebuild [post]
func (h *BalanceHandler) RebuildBalances(c *gin.Context) {
	userID, groupID, err := getMember(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.ledger.Rebuild(c.Request.Context(), groupID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(groupID, userID, "REBUILD_BALANCES", "user_balance", groupID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Balances rebuilt successfully"})
}
