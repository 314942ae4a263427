package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"splitexpense/internal/cache"
	"splitexpense/internal/handlers"
	"splitexpense/internal/logger"
	"splitexpense/internal/middleware"
	"splitexpense/internal/services"
	"splitexpense/internal/testutil"
	"splitexpense/internal/validator"
)

const cronAPIKey = "integration-cron-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	summaries, err := cache.New[[]services.BalanceSummary](0)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	t.Cleanup(summaries.Close)

	// Services
	ledger := services.NewLedgerService(db, summaries)
	expenseService := services.NewExpenseService(db, ledger)
	budgetService := services.NewBudgetService(db, services.DefaultLookbackYears)
	actionService := services.NewScheduledActionService(db)
	executor := services.NewExecutor(db, ledger, services.DefaultConcurrency)
	auditService := services.NewAuditService(db)
	groupService := services.NewGroupService(db)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	handlers.RegisterRoutes(router.Group("/api/v1"), handlers.Handlers{
		Expense:         handlers.NewExpenseHandler(expenseService, groupService, auditService),
		Balance:         handlers.NewBalanceHandler(ledger, auditService),
		Budget:          handlers.NewBudgetHandler(budgetService, auditService),
		ScheduledAction: handlers.NewScheduledActionHandler(actionService, executor, auditService),
		Scheduler:       handlers.NewSchedulerHandler(executor),
		Group:           handlers.NewGroupHandler(groupService, auditService),
	}, cronAPIKey)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// cron triggers a scheduling pass the way an external scheduler would.
func (app *testApp) cron(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, http.NoBody)
	req.Header.Set("X-API-Key", cronAPIKey)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// tokenFor issues an access token for a member of groupID.
func tokenFor(t *testing.T, userID, groupID string) string {
	t.Helper()
	token, err := middleware.GenerateAccessToken(userID, groupID)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

// mustStatus fails the test unless rec has the wanted status.
func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// balanceWith finds the caller's balance with counterpart in currency.
func balanceWith(t *testing.T, rec *httptest.ResponseRecorder, counterpart, currency string) (string, bool) {
	t.Helper()
	for _, raw := range parseJSON(t, rec)["balances"].([]interface{}) {
		b := raw.(map[string]interface{})
		if b["counterpart_id"] == counterpart && b["currency"] == currency {
			return b["amount"].(string), true
		}
	}
	return "", false
}
