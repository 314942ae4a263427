package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"splitexpense/internal/models"
	"splitexpense/internal/recurrence"
	"splitexpense/internal/testutil"
)

func strPtr(s string) *string { return &s }

func restrictBudgets(t *testing.T, db *gorm.DB, groupID string, names ...string) {
	t.Helper()
	_, err := NewGroupService(db).Update(context.Background(), groupID, GroupSettingsUpdate{Budgets: names})
	testutil.AssertNoError(t, err)
}

func TestGetGroupSettings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewGroupService(db)

	settings, err := svc.Get(context.Background(), "g-new")
	testutil.AssertNoError(t, err)
	if settings.GroupID != "g-new" || settings.DefaultCurrency != "USD" {
		t.Errorf("unexpected defaults %+v", settings)
	}
	if settings.Budgets == nil || len(settings.Budgets) != 0 {
		t.Errorf("expected an empty budget list, got %v", settings.Budgets)
	}
	if !settings.AllowsBudget("Anything") {
		t.Error("expected an unconfigured group to allow any budget")
	}
}

func TestUpdateGroupSettings(t *testing.T) {
	t.Run("stores_and_merges_changes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(db)
		ctx := context.Background()
		groupID := testutil.NewGroupID()

		_, err := svc.Update(ctx, groupID, GroupSettingsUpdate{
			GroupName:    strPtr("  Flat 4 "),
			Budgets:      []string{"Food", " Travel", "Food"},
			DefaultShare: testutil.Shares("a", "60", "b", "40"),
		})
		testutil.AssertNoError(t, err)

		_, err = svc.Update(ctx, groupID, GroupSettingsUpdate{DefaultCurrency: strPtr("EUR")})
		testutil.AssertNoError(t, err)

		settings, err := svc.Get(ctx, groupID)
		testutil.AssertNoError(t, err)
		if settings.GroupName != "Flat 4" {
			t.Errorf("expected trimmed name, got %q", settings.GroupName)
		}
		if len(settings.Budgets) != 2 || settings.Budgets[0] != "Food" || settings.Budgets[1] != "Travel" {
			t.Errorf("expected deduplicated budgets, got %v", settings.Budgets)
		}
		testutil.AssertDecimal(t, settings.DefaultShare["a"], "60")
		if settings.DefaultCurrency != "EUR" {
			t.Errorf("expected EUR, got %s", settings.DefaultCurrency)
		}
	})

	t.Run("empty_budget_list_lifts_restriction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(db)
		ctx := context.Background()
		groupID := testutil.NewGroupID()

		restrictBudgets(t, db, groupID, "Food")
		_, err := svc.Update(ctx, groupID, GroupSettingsUpdate{Budgets: []string{}})
		testutil.AssertNoError(t, err)

		settings, err := svc.Get(ctx, groupID)
		testutil.AssertNoError(t, err)
		if !settings.AllowsBudget("Travel") {
			t.Errorf("expected no restriction, got %v", settings.Budgets)
		}
	})

	tests := []struct {
		name string
		upd  GroupSettingsUpdate
		code string
	}{
		{"no_changes", GroupSettingsUpdate{}, "INVALID_INPUT"},
		{"blank_name", GroupSettingsUpdate{GroupName: strPtr("  ")}, "INVALID_GROUP_SETTINGS"},
		{"bad_budget_name", GroupSettingsUpdate{Budgets: []string{"Food; DROP"}}, "INVALID_GROUP_SETTINGS"},
		{"share_not_100", GroupSettingsUpdate{DefaultShare: testutil.Shares("a", "60", "b", "30")}, "INVALID_SPLIT"},
		{"negative_share", GroupSettingsUpdate{DefaultShare: testutil.Shares("a", "120", "b", "-20")}, "INVALID_SPLIT"},
		{"empty_share", GroupSettingsUpdate{DefaultShare: testutil.Shares()}, "INVALID_SPLIT"},
		{"unsupported_currency", GroupSettingsUpdate{DefaultCurrency: strPtr("XYZ")}, "UNSUPPORTED_CURRENCY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			defer testutil.TeardownTestDB(t, db)

			_, err := NewGroupService(db).Update(context.Background(), testutil.NewGroupID(), tt.upd)
			testutil.AssertAppError(t, err, tt.code)

			var count int64
			db.Model(&models.GroupSettings{}).Count(&count)
			if count != 0 {
				t.Errorf("expected nothing stored, got %d rows", count)
			}
		})
	}
}

func TestBudgetRestriction(t *testing.T) {
	t.Run("entry_outside_list_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, 2)
		ctx := context.Background()
		groupID := testutil.NewGroupID()
		restrictBudgets(t, db, groupID, "Food")

		_, err := svc.CreateEntry(ctx, groupID, "a", entryInput("Fod", "10", models.BudgetTypeDebit))
		testutil.AssertAppError(t, err, "BUDGET_NOT_ALLOWED")

		_, err = svc.CreateEntry(ctx, groupID, "a", entryInput("Food", "10", models.BudgetTypeDebit))
		testutil.AssertNoError(t, err)

		var totals int64
		db.Model(&models.BudgetTotal{}).Where("group_id = ?", groupID).Count(&totals)
		if totals != 1 {
			t.Errorf("expected only the Food total, got %d", totals)
		}
	})

	t.Run("report_outside_list_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, 2)
		groupID := testutil.NewGroupID()
		restrictBudgets(t, db, groupID, "Food")

		_, err := svc.MonthlyReport(context.Background(), groupID, "Travel", time.Now())
		testutil.AssertAppError(t, err, "BUDGET_NOT_ALLOWED")

		_, err = svc.MonthlyReport(context.Background(), groupID, "Food", time.Now())
		testutil.AssertNoError(t, err)
	})

	t.Run("scheduled_action_outside_list_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestScheduledActionService(db, "2024-02-01")
		groupID := testutil.NewGroupID()
		restrictBudgets(t, db, groupID, "Food")

		_, err := svc.Create(context.Background(), "a", groupID, ScheduledActionInput{
			ActionType: models.ActionTypeAddBudget,
			Frequency:  recurrence.Monthly,
			StartDate:  recurrence.MustParseDate("2024-03-01"),
			ActionData: testutil.BudgetData("Gym", "40"),
		})
		testutil.AssertAppError(t, err, "BUDGET_NOT_ALLOWED")
	})

	t.Run("executor_records_failure_and_advances", func(t *testing.T) {
		f := newExecutorFixture(t, "2024-03-10")
		groupID := testutil.NewGroupID()
		action := f.action(t, groupID, testutil.BudgetData("Gym", "40"), "2024-01-10", "2024-03-10")
		restrictBudgets(t, f.db, groupID, "Food")

		summary, err := f.exec.RunDue(context.Background(), f.today)
		testutil.AssertNoError(t, err)
		if summary.Failed != 1 {
			t.Fatalf("unexpected summary %+v", summary)
		}

		h := f.history(t, action.ID)
		if len(h) != 1 || h[0].ExecutionStatus != models.ExecutionStatusFailed {
			t.Fatalf("expected one failed record, got %+v", h)
		}
		if got := f.reload(t, action.ID).NextExecutionDate.String(); got != "2024-04-10" {
			t.Errorf("expected the cycle to be skipped to 2024-04-10, got %s", got)
		}

		var entries int64
		f.db.Model(&models.BudgetEntry{}).Where("group_id = ?", groupID).Count(&entries)
		if entries != 0 {
			t.Errorf("expected no entries, got %d", entries)
		}
	})
}
