package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"example.com/playguard/internal/auth"
	"example.com/playguard/internal/domain"
	"example.com/playguard/internal/engine"
	"example.com/playguard/internal/persistence/memory"
)

func newTestHandler() (*Handler, *memory.Repository) {
	repo := memory.NewRepository()
	admin := domain.NewAdmin(repo)
	eng := engine.New(repo)
	return NewHandler(admin, eng), repo
}

func withScopes(req *http.Request, scopes ...string) *http.Request {
	scopeSet := make(map[string]struct{}, len(scopes))
	for _, scope := range scopes {
		scopeSet[scope] = struct{}{}
	}
	claims := &auth.Claims{
		Subject:   "admin-1",
		Scopes:    scopeSet,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

func serve(handler *Handler, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestCreateAndListRules(t *testing.T) {
	handler, _ := newTestHandler()

	body := `{"threshold_seconds":36000,"action":"warn","window":"rolling_7d","scope_kind":"global"}`
	req := withScopes(httptest.NewRequest(http.MethodPost, "/v1/rules", strings.NewReader(body)), auth.ScopeLimitsWrite)
	rr := serve(handler, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	var created RuleView
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.RuleID == "" || created.ThresholdSeconds != 36000 {
		t.Fatalf("unexpected rule view: %+v", created)
	}

	req = withScopes(httptest.NewRequest(http.MethodGet, "/v1/rules", nil), auth.ScopeLimitsRead)
	rr = serve(handler, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	var list ListRulesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].RuleID != created.RuleID {
		t.Fatalf("unexpected rule list: %+v", list.Items)
	}
}

func TestCreateRuleValidationFailures(t *testing.T) {
	handler, _ := newTestHandler()

	cases := []struct {
		name string
		body string
	}{
		{"zero threshold", `{"threshold_seconds":0,"action":"warn","window":"rolling_7d","scope_kind":"global"}`},
		{"timeout without duration", `{"threshold_seconds":3600,"action":"timeout","window":"rolling_7d","scope_kind":"global"}`},
		{"unknown window", `{"threshold_seconds":3600,"action":"warn","window":"fortnight","scope_kind":"global"}`},
		{"activity scope without name", `{"threshold_seconds":3600,"action":"warn","window":"rolling_7d","scope_kind":"activity"}`},
		{"unknown scope kind", `{"threshold_seconds":3600,"action":"warn","window":"rolling_7d","scope_kind":"planet"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := withScopes(httptest.NewRequest(http.MethodPost, "/v1/rules", strings.NewReader(tc.body)), auth.ScopeLimitsWrite)
			rr := serve(handler, req)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestRuleScopeForUnknownActivityIs404(t *testing.T) {
	handler, _ := newTestHandler()

	body := `{"threshold_seconds":3600,"action":"warn","window":"rolling_7d","scope_kind":"activity","scope_activity":"missing"}`
	req := withScopes(httptest.NewRequest(http.MethodPost, "/v1/rules", strings.NewReader(body)), auth.ScopeLimitsWrite)
	rr := serve(handler, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestDeleteRule(t *testing.T) {
	handler, repo := newTestHandler()
	admin := domain.NewAdmin(repo)
	rule, err := admin.CreateRule(context.Background(), domain.CreateRuleInput{
		Threshold: 10 * time.Hour,
		Action:    domain.ActionWarn,
		Window:    domain.WindowRolling7d,
		Scope:     domain.GlobalScope(),
	})
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}

	req := withScopes(httptest.NewRequest(http.MethodDelete, "/v1/rules/"+rule.ID, nil), auth.ScopeLimitsWrite)
	rr := serve(handler, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}

	req = withScopes(httptest.NewRequest(http.MethodDelete, "/v1/rules/"+rule.ID, nil), auth.ScopeLimitsWrite)
	rr = serve(handler, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

func TestScopeEnforcement(t *testing.T) {
	handler, _ := newTestHandler()

	// No claims at all.
	req := httptest.NewRequest(http.MethodGet, "/v1/rules", nil)
	rr := serve(handler, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}

	// Read scope cannot write.
	body := `{"threshold_seconds":3600,"action":"warn","window":"rolling_7d","scope_kind":"global"}`
	req = withScopes(httptest.NewRequest(http.MethodPost, "/v1/rules", strings.NewReader(body)), auth.ScopeLimitsRead)
	rr = serve(handler, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}

	// Limits scopes cannot issue overrides.
	req = withScopes(httptest.NewRequest(http.MethodPost, "/v1/users/user-1/pardon", nil), auth.ScopeLimitsWrite)
	rr = serve(handler, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}
}

func TestActivityCatalogEndpoints(t *testing.T) {
	handler, _ := newTestHandler()

	req := withScopes(httptest.NewRequest(http.MethodPost, "/v1/activities", strings.NewReader(`{"name":"skyforge"}`)), auth.ScopeLimitsWrite)
	rr := serve(handler, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	req = withScopes(httptest.NewRequest(http.MethodPatch, "/v1/activities/skyforge", strings.NewReader(`{"enabled":false}`)), auth.ScopeLimitsWrite)
	rr = serve(handler, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}

	req = withScopes(httptest.NewRequest(http.MethodGet, "/v1/activities", nil), auth.ScopeLimitsRead)
	rr = serve(handler, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	var list ListActivitiesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].Enabled {
		t.Fatalf("unexpected catalog: %+v", list.Items)
	}

	req = withScopes(httptest.NewRequest(http.MethodPatch, "/v1/activities/missing", strings.NewReader(`{"enabled":true}`)), auth.ScopeLimitsWrite)
	rr = serve(handler, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

func TestGroupEndpoints(t *testing.T) {
	handler, _ := newTestHandler()

	req := withScopes(httptest.NewRequest(http.MethodPost, "/v1/activities", strings.NewReader(`{"name":"skyforge"}`)), auth.ScopeLimitsWrite)
	if rr := serve(handler, req); rr.Code != http.StatusCreated {
		t.Fatalf("seed activity failed: %d", rr.Code)
	}

	req = withScopes(httptest.NewRequest(http.MethodPost, "/v1/groups", strings.NewReader(`{"name":"shooters"}`)), auth.ScopeLimitsWrite)
	rr := serve(handler, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}
	var group GroupView
	if err := json.Unmarshal(rr.Body.Bytes(), &group); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	req = withScopes(httptest.NewRequest(http.MethodPost, "/v1/groups/"+group.GroupID+"/members", strings.NewReader(`{"activity":"skyforge"}`)), auth.ScopeLimitsWrite)
	rr = serve(handler, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d: %s", rr.Code, rr.Body.String())
	}

	req = withScopes(httptest.NewRequest(http.MethodGet, "/v1/groups", nil), auth.ScopeLimitsRead)
	rr = serve(handler, req)
	var list ListGroupsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(list.Items) != 1 || len(list.Items[0].Members) != 1 {
		t.Fatalf("unexpected groups: %+v", list.Items)
	}

	req = withScopes(httptest.NewRequest(http.MethodDelete, "/v1/groups/"+group.GroupID+"/members/skyforge", nil), auth.ScopeLimitsWrite)
	rr = serve(handler, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}

	req = withScopes(httptest.NewRequest(http.MethodDelete, "/v1/groups/"+group.GroupID, nil), auth.ScopeLimitsWrite)
	rr = serve(handler, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}
}

func TestUserOverrideEndpoints(t *testing.T) {
	handler, repo := newTestHandler()
	ctx := context.Background()

	req := withScopes(httptest.NewRequest(http.MethodPut, "/v1/users/user-1/optin", strings.NewReader(`{"opted_in":true}`)), auth.ScopeLimitsWrite)
	rr := serve(handler, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}

	req = withScopes(httptest.NewRequest(http.MethodPut, "/v1/users/user-1/exempt", strings.NewReader(`{"exempt":true}`)), auth.ScopeOverridesWrite)
	rr = serve(handler, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d: %s", rr.Code, rr.Body.String())
	}
	user, err := repo.User(ctx, "user-1")
	if err != nil || user == nil || !user.Exempt {
		t.Fatalf("expected exempt user, got %+v (err %v)", user, err)
	}

	req = withScopes(httptest.NewRequest(http.MethodPost, "/v1/users/user-1/pardon", nil), auth.ScopeOverridesWrite)
	rr = serve(handler, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}

	req = withScopes(httptest.NewRequest(http.MethodPost, "/v1/users/user-1/reset", nil), auth.ScopeOverridesWrite)
	rr = serve(handler, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}
}

func TestListOptedInUsers(t *testing.T) {
	handler, repo := newTestHandler()
	admin := domain.NewAdmin(repo)
	ctx := context.Background()
	if err := admin.SetOptIn(ctx, "user-1", true); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := admin.SetOptIn(ctx, "user-2", false); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	req := withScopes(httptest.NewRequest(http.MethodGet, "/v1/users", nil), auth.ScopeLimitsRead)
	rr := serve(handler, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	var list ListUsersResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0] != "user-1" {
		t.Fatalf("unexpected users: %+v", list.Items)
	}
}

func TestSummaryAndLeaderboard(t *testing.T) {
	handler, repo := newTestHandler()
	ctx := context.Background()
	admin := domain.NewAdmin(repo)
	if _, err := admin.AddActivity(ctx, "skyforge"); err != nil {
		t.Fatalf("seed activity: %v", err)
	}
	if err := admin.SetOptIn(ctx, "user-1", true); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	start := time.Now().UTC().Add(-3 * time.Hour)
	if err := repo.SaveSession(ctx, domain.Session{
		ID:       "session-1",
		UserID:   "user-1",
		Activity: "skyforge",
		Start:    start,
		End:      start.Add(2 * time.Hour),
		Duration: 2 * time.Hour,
	}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	req := withScopes(httptest.NewRequest(http.MethodGet, "/v1/users/user-1/summary?window_hours=24", nil), auth.ScopeLimitsRead)
	rr := serve(handler, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	var summary SummaryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if summary.TotalSeconds != 7200 || summary.SessionCount != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	req = withScopes(httptest.NewRequest(http.MethodGet, "/v1/leaderboard?limit=5", nil), auth.ScopeLimitsRead)
	rr = serve(handler, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	var board LeaderboardResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &board); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(board.Items) != 1 || board.Items[0].UserID != "user-1" || board.Items[0].TotalSeconds != 7200 {
		t.Fatalf("unexpected leaderboard: %+v", board.Items)
	}
}

func TestTrackingToggle(t *testing.T) {
	handler, repo := newTestHandler()

	req := withScopes(httptest.NewRequest(http.MethodPut, "/v1/tracking", strings.NewReader(`{"enabled":false}`)), auth.ScopeLimitsWrite)
	rr := serve(handler, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}

	enabled, err := repo.TrackingEnabled(context.Background())
	if err != nil {
		t.Fatalf("tracking lookup: %v", err)
	}
	if enabled {
		t.Fatal("expected tracking disabled")
	}
}
