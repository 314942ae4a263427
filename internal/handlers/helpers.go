package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "splitexpense/internal/errors"
	"splitexpense/internal/middleware"
	"splitexpense/internal/recurrence"
)

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse represents a simple message response
type MessageResponse struct {
	Message string `json:"message"`
}

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString("userID")
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// getMember returns the authenticated user and the group they act in.
func getMember(c *gin.Context) (userID, groupID string, err error) {
	if userID, err = getUserID(c); err != nil {
		return "", "", err
	}
	groupID = c.GetString("groupID")
	if groupID == "" {
		return "", "", apperrors.WithMessage(apperrors.ErrForbidden, "User does not belong to a group")
	}
	return userID, groupID, nil
}

// parsePathID reads a string ID path parameter.
//
//nolint:unparam // every route names its ID "id" today
func parsePathID(c *gin.Context, param string) (string, error) {
	id := strings.TrimSpace(c.Param(param))
	if id == "" || len(id) > 64 {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parseDateQuery reads an optional YYYY-MM-DD query parameter, falling back
// to today's UTC date.
func parseDateQuery(c *gin.Context, key string, today recurrence.Date) (recurrence.Date, error) {
	v := c.Query(key)
	if v == "" {
		return today, nil
	}
	d, err := recurrence.ParseDate(v)
	if err != nil {
		return recurrence.Date{}, apperrors.WithMessage(apperrors.ErrInvalidInput, key+" must be a YYYY-MM-DD date")
	}
	return d, nil
}

// bindError converts a binding failure into an INVALID_INPUT error.
func bindError(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

func respondWithError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}
