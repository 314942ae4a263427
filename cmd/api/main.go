package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"splitexpense/internal/cache"
	"splitexpense/internal/config"
	"splitexpense/internal/database"
	"splitexpense/internal/handlers"
	"splitexpense/internal/logger"
	"splitexpense/internal/middleware"
	"splitexpense/internal/services"
	"splitexpense/internal/validator"
)

// @title           Split Expense API
// @version         1.0
// @description     Shared expenses, group balances, budgets and recurring actions for small groups.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(appConfig.DB)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnw("failed to close database", "error", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	summaries, err := cache.New[[]services.BalanceSummary](appConfig.BalanceCacheTTL)
	if err != nil {
		return fmt.Errorf("failed to create balance cache: %w", err)
	}
	defer summaries.Close()

	// Initialize services
	db := dbManager.DB()
	ledger := services.NewLedgerService(db, summaries)
	expenseService := services.NewExpenseService(db, ledger)
	budgetService := services.NewBudgetService(db, appConfig.BudgetLookbackYears)
	actionService := services.NewScheduledActionService(db)
	executor := services.NewExecutor(db, ledger, appConfig.SchedulerConcurrency)
	auditService := services.NewAuditService(db)
	groupService := services.NewGroupService(db)

	validator.Register()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(router.Group("/api/v1"), handlers.Handlers{
		Expense:         handlers.NewExpenseHandler(expenseService, groupService, auditService),
		Balance:         handlers.NewBalanceHandler(ledger, auditService),
		Budget:          handlers.NewBudgetHandler(budgetService, auditService),
		ScheduledAction: handlers.NewScheduledActionHandler(actionService, executor, auditService),
		Scheduler:       handlers.NewSchedulerHandler(executor),
		Group:           handlers.NewGroupHandler(groupService, auditService),
	}, appConfig.CronAPIKey)

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting split expense server on port %s", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
