package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"splitexpense/internal/services"
)

// GroupHandler handles the caller's group settings.
type GroupHandler struct {
	groupService services.GroupServicer
	auditService services.AuditServicer
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupService services.GroupServicer, auditService services.AuditServicer) *GroupHandler {
	return &GroupHandler{groupService: groupService, auditService: auditService}
}

// UpdateGroupSettingsRequest represents the request payload for changing
// group settings. Omitted fields are left unchanged.
type UpdateGroupSettingsRequest struct {
	GroupName       *string                    `json:"group_name" binding:"omitempty,max=100"`
	Budgets         []string                   `json:"budgets" binding:"omitempty,max=100"`
	DefaultShare    map[string]decimal.Decimal `json:"default_share"`
	DefaultCurrency *string                    `json:"default_currency"`
}

// GetGroup returns the caller's group settings.
// @Summary     Get group settings
// @Tags        group
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.GroupSettings "Group settings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /group [get]
func (h *GroupHandler) GetGroup(c *gin.Context) {
	_, groupID, err := getMember(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	settings, err := h.groupService.Get(c.Request.Context(), groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": settings})
}

// UpdateGroup changes the budget list, default split, default currency or name.
// @Summary     Update group settings
// @Tags        group
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateGroupSettingsRequest true "Settings to change"
// @Success     200 {object} models.GroupSettings "Updated settings"
// @Failure     400 {object} ErrorResponse "Invalid settings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /group [put]
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	userID, groupID, err := getMember(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateGroupSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	settings, err := h.groupService.Update(c.Request.Context(), groupID, services.GroupSettingsUpdate{
		GroupName:       req.GroupName,
		Budgets:         req.Budgets,
		DefaultShare:    req.DefaultShare,
		DefaultCurrency: req.DefaultCurrency,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(groupID, userID, "UPDATE_GROUP_SETTINGS", "group", groupID, c.ClientIP(),
		map[string]any{"budgets": settings.Budgets, "default_currency": settings.DefaultCurrency})

	c.JSON(http.StatusOK, gin.H{"group": settings})
}
