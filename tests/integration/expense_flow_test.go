package integration

import (
	"fmt"
	"net/http"
	"testing"

	"splitexpense/internal/models"
)

func TestExpenseFlow_CreateBalancesAndDelete(t *testing.T) {
	app := setupApp(t)
	alice := tokenFor(t, "alice", "trip")
	bob := tokenFor(t, "bob", "trip")

	// Step 1: preview a three-way split; nothing is stored
	body := `{"description":"Cabin","amount":"300","currency":"EUR",` +
		`"paid_by_user_id":"alice","split_pct_shares":{"alice":"40","bob":"30","carol":"30"}}`
	rec := app.request("POST", "/api/v1/splits/preview", body, alice)
	mustStatus(t, rec, http.StatusOK)
	transfers := parseJSON(t, rec)["split"].(map[string]interface{})["transfers"].([]interface{})
	if len(transfers) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(transfers))
	}
	var stored int64
	app.DB.Model(&models.Transaction{}).Count(&stored)
	if stored != 0 {
		t.Fatalf("expected preview to store nothing, got %d transactions", stored)
	}

	// Step 2: record it
	rec = app.request("POST", "/api/v1/expenses", body, alice)
	mustStatus(t, rec, http.StatusCreated)
	txID := parseJSON(t, rec)["transaction"].(map[string]interface{})["id"].(string)

	// Step 3: both sides see the debt from their own perspective
	rec = app.request("GET", "/api/v1/balances", "", alice)
	mustStatus(t, rec, http.StatusOK)
	if amount, ok := balanceWith(t, rec, "bob", "EUR"); !ok || amount != "90" {
		t.Errorf("expected bob to owe alice 90, got %q (found=%v)", amount, ok)
	}
	rec = app.request("GET", "/api/v1/balances", "", bob)
	mustStatus(t, rec, http.StatusOK)
	if amount, ok := balanceWith(t, rec, "alice", "EUR"); !ok || amount != "-90" {
		t.Errorf("expected bob to see -90 with alice, got %q (found=%v)", amount, ok)
	}

	// Step 4: bob pays a smaller expense back; the pair nets out
	rec = app.request("POST", "/api/v1/expenses",
		`{"description":"Fuel","amount":"60","currency":"EUR","paid_by_user_id":"bob","split_pct_shares":{"alice":"50","bob":"50"}}`, bob)
	mustStatus(t, rec, http.StatusCreated)

	rec = app.request("GET", "/api/v1/balances", "", alice)
	if amount, _ := balanceWith(t, rec, "bob", "EUR"); amount != "60" {
		t.Errorf("expected net 60 owed by bob, got %q", amount)
	}

	// Step 5: list shows both, newest first
	rec = app.request("GET", "/api/v1/expenses", "", alice)
	mustStatus(t, rec, http.StatusOK)
	list := parseJSON(t, rec)
	if list["total_items"].(float64) != 2 {
		t.Errorf("expected 2 expenses, got %v", list["total_items"])
	}

	// Step 6: deleting the cabin leaves only the fuel debt
	rec = app.request("DELETE", fmt.Sprintf("/api/v1/expenses/%s", txID), "", alice)
	mustStatus(t, rec, http.StatusOK)

	rec = app.request("GET", "/api/v1/balances", "", alice)
	if amount, _ := balanceWith(t, rec, "bob", "EUR"); amount != "-30" {
		t.Errorf("expected alice to owe bob 30 after delete, got %q", amount)
	}

	rec = app.request("GET", fmt.Sprintf("/api/v1/expenses/%s", txID), "", alice)
	mustStatus(t, rec, http.StatusNotFound)

	// Step 7: a rebuild from the remaining shares agrees with the incremental ledger
	rec = app.request("POST", "/api/v1/balances/rebuild", "", alice)
	mustStatus(t, rec, http.StatusOK)

	rec = app.request("GET", "/api/v1/balances", "", alice)
	if amount, _ := balanceWith(t, rec, "bob", "EUR"); amount != "-30" {
		t.Errorf("expected rebuild to keep -30, got %q", amount)
	}
	if _, ok := balanceWith(t, rec, "carol", "EUR"); ok {
		t.Error("expected no balance with carol after her only expense was deleted")
	}
}

func TestExpenseFlow_GroupsAreIsolated(t *testing.T) {
	app := setupApp(t)
	alice := tokenFor(t, "alice", "home")
	mallory := tokenFor(t, "mallory", "elsewhere")

	rec := app.request("POST", "/api/v1/expenses",
		`{"description":"Rent","amount":"1000","currency":"USD","paid_by_user_id":"alice","split_pct_shares":{"alice":"50","bob":"50"}}`, alice)
	mustStatus(t, rec, http.StatusCreated)
	txID := parseJSON(t, rec)["transaction"].(map[string]interface{})["id"].(string)

	rec = app.request("GET", "/api/v1/expenses/"+txID, "", mallory)
	mustStatus(t, rec, http.StatusNotFound)

	rec = app.request("DELETE", "/api/v1/expenses/"+txID, "", mallory)
	mustStatus(t, rec, http.StatusNotFound)

	rec = app.request("GET", "/api/v1/expenses", "", mallory)
	mustStatus(t, rec, http.StatusOK)
	if parseJSON(t, rec)["total_items"].(float64) != 0 {
		t.Error("expected other group to see no expenses")
	}
}

func TestExpenseFlow_Validation(t *testing.T) {
	app := setupApp(t)
	alice := tokenFor(t, "alice", "home")

	tests := []struct {
		name string
		body string
		code string
	}{
		{
			name: "split_not_100",
			body: `{"description":"x","amount":"10","currency":"USD","paid_by_user_id":"alice","split_pct_shares":{"alice":"50","bob":"49"}}`,
			code: "INVALID_SPLIT",
		},
		{
			name: "payments_do_not_cover",
			body: `{"description":"x","amount":"10","currency":"USD","paid_by_shares":{"alice":"9"},"split_pct_shares":{"alice":"100"}}`,
			code: "INVALID_PAYMENT",
		},
		{
			name: "unsupported_currency",
			body: `{"description":"x","amount":"10","currency":"XYZ","paid_by_user_id":"alice","split_pct_shares":{"alice":"100"}}`,
			code: "INVALID_INPUT",
		},
		{
			name: "no_split_and_no_group_default",
			body: `{"description":"x","amount":"10","paid_by_user_id":"alice"}`,
			code: "INVALID_SPLIT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.request("POST", "/api/v1/expenses", tt.body, alice)
			mustStatus(t, rec, http.StatusBadRequest)
			errObj := parseJSON(t, rec)["error"].(map[string]interface{})
			if errObj["code"] != tt.code {
				t.Errorf("expected %s, got %v", tt.code, errObj["code"])
			}
		})
	}

	var count int64
	app.DB.Model(&models.UserBalance{}).Count(&count)
	if count != 0 {
		t.Errorf("expected rejected expenses to leave no balances, got %d rows", count)
	}
}

func TestExpenseFlow_RequiresAuth(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/v1/balances", "", "")
	mustStatus(t, rec, http.StatusUnauthorized)

	rec = app.request("GET", "/api/v1/balances", "", "not-a-token")
	mustStatus(t, rec, http.StatusUnauthorized)
}
