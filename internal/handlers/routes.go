package handlers

import (
	"github.com/gin-gonic/gin"

	"splitexpense/internal/middleware"
)

// Handlers bundles every handler the API serves.
type Handlers struct {
	Expense         *ExpenseHandler
	Balance         *BalanceHandler
	Budget          *BudgetHandler
	ScheduledAction *ScheduledActionHandler
	Scheduler       *SchedulerHandler
	Group           *GroupHandler
}

// RegisterRoutes mounts the API on v1. Member routes require a bearer token;
// the scheduler trigger requires cronAPIKey in X-API-Key.
func RegisterRoutes(v1 *gin.RouterGroup, h Handlers, cronAPIKey string) {
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	expenses := protected.Group("/expenses")
	expenses.POST("", h.Expense.CreateExpense)
	expenses.GET("", h.Expense.GetExpenses)
	expenses.GET("/:id", h.Expense.GetExpense)
	expenses.DELETE("/:id", h.Expense.DeleteExpense)

	protected.POST("/splits/preview", h.Expense.PreviewSplit)

	balances := protected.Group("/balances")
	balances.GET("", h.Balance.GetBalances)
	balances.GET("/ledger", h.Balance.GetLedger)
	balances.POST("/rebuild", h.Balance.RebuildBalances)

	budgets := protected.Group("/budgets")
	budgets.POST("/entries", h.Budget.CreateEntry)
	budgets.GET("/entries", h.Budget.GetEntries)
	budgets.DELETE("/entries/:id", h.Budget.DeleteEntry)
	budgets.GET("/totals", h.Budget.GetTotals)
	budgets.GET("/report", h.Budget.GetReport)

	protected.GET("/group", h.Group.GetGroup)
	protected.PUT("/group", h.Group.UpdateGroup)

	actions := protected.Group("/scheduled-actions")
	actions.POST("", h.ScheduledAction.CreateScheduledAction)
	actions.GET("", h.ScheduledAction.GetScheduledActions)
	actions.GET("/history", h.ScheduledAction.GetHistory)
	actions.GET("/:id", h.ScheduledAction.GetScheduledAction)
	actions.PUT("/:id", h.ScheduledAction.UpdateScheduledAction)
	actions.DELETE("/:id", h.ScheduledAction.DeleteScheduledAction)
	actions.POST("/:id/run", h.ScheduledAction.RunScheduledAction)

	internal := v1.Group("/internal")
	internal.Use(middleware.CronAuthMiddleware(cronAPIKey))
	internal.POST("/scheduler/run", h.Scheduler.RunDue)
}
