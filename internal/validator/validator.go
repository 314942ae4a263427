// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"splitexpense/internal/models"
	"splitexpense/internal/money"
	"splitexpense/internal/recurrence"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom validators on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("currency", validateCurrency)
	_ = v.RegisterValidation("frequency", validateFrequency)
	_ = v.RegisterValidation("action_type", validateActionType)
	_ = v.RegisterValidation("budget_type", validateBudgetType)
}

func validateCurrency(fl validator.FieldLevel) bool {
	return money.IsSupported(fl.Field().String())
}

func validateFrequency(fl validator.FieldLevel) bool {
	return recurrence.Frequency(fl.Field().String()).IsValid()
}

func validateActionType(fl validator.FieldLevel) bool {
	return models.ActionType(fl.Field().String()).IsValid()
}

func validateBudgetType(fl validator.FieldLevel) bool {
	return models.BudgetType(fl.Field().String()).IsValid()
}
