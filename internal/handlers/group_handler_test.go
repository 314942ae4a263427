package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "splitexpense/internal/errors"
	"splitexpense/internal/models"
	"splitexpense/internal/services"
)

// --- mock group service ---

type mockGroupService struct {
	getFn    func(groupID string) (*models.GroupSettings, error)
	updateFn func(groupID string, upd services.GroupSettingsUpdate) (*models.GroupSettings, error)
}

func (m *mockGroupService) Get(_ context.Context, groupID string) (*models.GroupSettings, error) {
	if m.getFn != nil {
		return m.getFn(groupID)
	}
	return &models.GroupSettings{GroupID: groupID, Budgets: []string{}, DefaultCurrency: "USD"}, nil
}

func (m *mockGroupService) Update(_ context.Context, groupID string, upd services.GroupSettingsUpdate) (*models.GroupSettings, error) {
	if m.updateFn != nil {
		return m.updateFn(groupID, upd)
	}
	return &models.GroupSettings{GroupID: groupID}, nil
}

var _ services.GroupServicer = (*mockGroupService)(nil)

func setupGroupRouter(handler *GroupHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectMember(testUserID, testGroupID))
	auth.GET("/group", handler.GetGroup)
	auth.PUT("/group", handler.UpdateGroup)
	return r
}

func TestGroupHandler_GetGroup(t *testing.T) {
	svc := &mockGroupService{
		getFn: func(groupID string) (*models.GroupSettings, error) {
			return &models.GroupSettings{GroupID: groupID, Budgets: []string{"Food"}, DefaultCurrency: "EUR"}, nil
		},
	}
	r := setupGroupRouter(NewGroupHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/group", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	group := parseJSON(t, rec)["group"].(map[string]interface{})
	if group["group_id"] != testGroupID {
		t.Errorf("expected group %s, got %v", testGroupID, group["group_id"])
	}
	if group["default_currency"] != "EUR" {
		t.Errorf("expected EUR, got %v", group["default_currency"])
	}
}

func TestGroupHandler_UpdateGroup(t *testing.T) {
	t.Run("passes changes and audits", func(t *testing.T) {
		var got services.GroupSettingsUpdate
		svc := &mockGroupService{
			updateFn: func(groupID string, upd services.GroupSettingsUpdate) (*models.GroupSettings, error) {
				got = upd
				return &models.GroupSettings{GroupID: groupID, Budgets: upd.Budgets, DefaultCurrency: *upd.DefaultCurrency}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupGroupRouter(NewGroupHandler(svc, audit))

		rec := doRequest(r, "PUT", "/group",
			`{"budgets":["Food","Travel"],"default_currency":"GBP","default_share":{"a":"60","b":"40"}}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(got.Budgets) != 2 || got.Budgets[1] != "Travel" {
			t.Errorf("expected budgets to be passed through, got %v", got.Budgets)
		}
		if got.GroupName != nil {
			t.Errorf("expected omitted group name to stay nil")
		}
		if got.DefaultShare["a"].String() != "60" {
			t.Errorf("expected default share 60 for a, got %v", got.DefaultShare)
		}
		if len(audit.actions) != 1 || audit.actions[0] != "UPDATE_GROUP_SETTINGS" {
			t.Errorf("expected UPDATE_GROUP_SETTINGS audit, got %v", audit.actions)
		}
	})

	t.Run("returns service validation errors", func(t *testing.T) {
		svc := &mockGroupService{
			updateFn: func(_ string, _ services.GroupSettingsUpdate) (*models.GroupSettings, error) {
				return nil, apperrors.ErrInvalidSplit
			},
		}
		r := setupGroupRouter(NewGroupHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/group", `{"default_share":{"a":"10"}}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_SPLIT")
	})

	t.Run("returns 400 on malformed body", func(t *testing.T) {
		r := setupGroupRouter(NewGroupHandler(&mockGroupService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/group", `{"budgets":"Food"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}
