// Package api exposes the admin HTTP surface: rule and catalog
// management, user overrides, and reporting.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/playguard/internal/auth"
	"example.com/playguard/internal/domain"
	"example.com/playguard/internal/engine"
)

// Handler coordinates HTTP requests with the admin service and the
// engine's override gateway.
type Handler struct {
	admin  *domain.Admin
	engine *engine.Engine
}

// NewHandler builds a Handler.
func NewHandler(admin *domain.Admin, eng *engine.Engine) *Handler {
	return &Handler{admin: admin, engine: eng}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/rules", h.rules)
	mux.HandleFunc("/v1/rules/", h.ruleByID)
	mux.HandleFunc("/v1/activities", h.activities)
	mux.HandleFunc("/v1/activities/", h.activityByName)
	mux.HandleFunc("/v1/groups", h.groups)
	mux.HandleFunc("/v1/groups/", h.groupSubtree)
	mux.HandleFunc("/v1/users", h.users)
	mux.HandleFunc("/v1/users/", h.userSubtree)
	mux.HandleFunc("/v1/leaderboard", h.leaderboard)
	mux.HandleFunc("/v1/tracking", h.tracking)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return claims, true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+strings.Join(scopes, " or ")+" required")
	return nil, false
}

func (h *Handler) rules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listRules(w, r)
	case http.MethodPost:
		h.createRule(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeLimitsRead, auth.ScopeLimitsWrite); !ok {
		return
	}

	rules, err := h.admin.ListRules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]RuleView, 0, len(rules))
	for _, rule := range rules {
		items = append(items, toRuleView(rule))
	}
	writeJSON(w, http.StatusOK, ListRulesResponse{Items: items})
}

func (h *Handler) createRule(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeLimitsWrite); !ok {
		return
	}

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	scope, err := req.scope()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	window, err := domain.ParseWindowKind(req.Window)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	rule, err := h.admin.CreateRule(r.Context(), domain.CreateRuleInput{
		Threshold: time.Duration(req.ThresholdSeconds) * time.Second,
		Action:    domain.ActionKind(req.Action),
		Timeout:   time.Duration(req.TimeoutSeconds) * time.Second,
		Window:    window,
		Scope:     scope,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRuleView(*rule))
}

func (h *Handler) ruleByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/rules/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing rule id")
		return
	}
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeLimitsWrite); !ok {
		return
	}

	if err := h.admin.DeleteRule(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := requireScope(w, r, auth.ScopeLimitsRead, auth.ScopeLimitsWrite); !ok {
			return
		}
		activities, err := h.admin.ListActivities(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
			return
		}
		items := make([]ActivityView, 0, len(activities))
		for _, act := range activities {
			items = append(items, toActivityView(act))
		}
		writeJSON(w, http.StatusOK, ListActivitiesResponse{Items: items})
	case http.MethodPost:
		if _, ok := requireScope(w, r, auth.ScopeLimitsWrite); !ok {
			return
		}
		var req NameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		activity, err := h.admin.AddActivity(r.Context(), req.Name)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toActivityView(*activity))
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) activityByName(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/v1/activities/")
	if name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing activity name")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeLimitsWrite); !ok {
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req EnabledRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		if err := h.admin.SetActivityEnabled(r.Context(), name, req.Enabled); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if err := h.admin.RemoveActivity(r.Context(), name); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) groups(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := requireScope(w, r, auth.ScopeLimitsRead, auth.ScopeLimitsWrite); !ok {
			return
		}
		groups, err := h.admin.ListGroups(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
			return
		}
		items := make([]GroupView, 0, len(groups))
		for _, g := range groups {
			items = append(items, toGroupView(g))
		}
		writeJSON(w, http.StatusOK, ListGroupsResponse{Items: items})
	case http.MethodPost:
		if _, ok := requireScope(w, r, auth.ScopeLimitsWrite); !ok {
			return
		}
		var req NameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		group, err := h.admin.CreateGroup(r.Context(), req.Name)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toGroupView(*group))
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

// groupSubtree handles /v1/groups/{id} and /v1/groups/{id}/members[/{activity}].
func (h *Handler) groupSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/groups/")
	parts := strings.SplitN(rest, "/", 3)
	if parts[0] == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing group id")
		return
	}
	groupID := parts[0]

	if _, ok := requireScope(w, r, auth.ScopeLimitsWrite); !ok {
		return
	}

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
			return
		}
		if err := h.admin.DeleteGroup(r.Context(), groupID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case parts[1] == "members" && len(parts) == 2:
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
			return
		}
		var req ActivityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		if err := h.admin.AddGroupMember(r.Context(), groupID, req.Activity); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case parts[1] == "members" && len(parts) == 3:
		if r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
			return
		}
		if err := h.admin.RemoveGroupMember(r.Context(), groupID, parts[2]); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
	}
}

// users lists the opted-in user IDs.
func (h *Handler) users(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeLimitsRead, auth.ScopeLimitsWrite); !ok {
		return
	}

	users, err := h.admin.OptedInUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	if users == nil {
		users = []string{}
	}
	writeJSON(w, http.StatusOK, ListUsersResponse{Items: users})
}

// userSubtree handles /v1/users/{id}/{action}.
func (h *Handler) userSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" || len(parts) != 2 {
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
		return
	}
	userID := parts[0]

	switch parts[1] {
	case "summary":
		h.summary(w, r, userID)
	case "optin":
		h.optIn(w, r, userID)
	case "exclusions":
		h.exclusions(w, r, userID)
	case "pardon":
		h.pardon(w, r, userID)
	case "exempt":
		h.exempt(w, r, userID)
	case "reset":
		h.reset(w, r, userID)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
	}
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeLimitsRead, auth.ScopeLimitsWrite); !ok {
		return
	}

	window := windowHoursParam(r, 7*24)
	summary, err := h.admin.Summary(r.Context(), userID, window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{
		UserID:                userID,
		WindowSeconds:         int64(window / time.Second),
		TotalSeconds:          int64(summary.Total / time.Second),
		SessionCount:          summary.SessionCount,
		LongestSessionSeconds: int64(summary.LongestSession / time.Second),
	})
}

func (h *Handler) optIn(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeLimitsWrite); !ok {
		return
	}
	var req OptInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := h.admin.SetOptIn(r.Context(), userID, req.OptedIn); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) exclusions(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeLimitsWrite); !ok {
		return
	}
	var req ExclusionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := h.admin.SetExclusion(r.Context(), userID, req.Activity, req.Excluded); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pardon(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeOverridesWrite)
	if !ok {
		return
	}
	if err := h.engine.Pardon(r.Context(), claims.Subject, userID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) exempt(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeOverridesWrite)
	if !ok {
		return
	}
	var req ExemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := h.engine.SetExempt(r.Context(), claims.Subject, userID, req.Exempt); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeOverridesWrite)
	if !ok {
		return
	}
	if err := h.engine.Reset(r.Context(), claims.Subject, userID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeLimitsRead, auth.ScopeLimitsWrite); !ok {
		return
	}

	window := windowHoursParam(r, 7*24)
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			if parsed > 100 {
				parsed = 100
			}
			limit = parsed
		}
	}

	entries, err := h.admin.Leaderboard(r.Context(), window, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]LeaderboardItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, LeaderboardItem{
			UserID:       entry.UserID,
			TotalSeconds: int64(entry.Total / time.Second),
		})
	}
	writeJSON(w, http.StatusOK, LeaderboardResponse{
		WindowSeconds: int64(window / time.Second),
		Items:         items,
	})
}

func (h *Handler) tracking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeLimitsWrite); !ok {
		return
	}
	var req EnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := h.admin.SetTrackingEnabled(r.Context(), req.Enabled); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func windowHoursParam(r *http.Request, fallbackHours int) time.Duration {
	hours := fallbackHours
	if raw := r.URL.Query().Get("window_hours"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			hours = parsed
		}
	}
	return time.Duration(hours) * time.Hour
}

// CreateRuleRequest is the payload for POST /v1/rules.
type CreateRuleRequest struct {
	ThresholdSeconds int64  `json:"threshold_seconds"`
	Action           string `json:"action"`
	TimeoutSeconds   int64  `json:"timeout_seconds,omitempty"`
	Window           string `json:"window"`
	ScopeKind        string `json:"scope_kind"`
	ScopeActivity    string `json:"scope_activity,omitempty"`
	ScopeGroupID     string `json:"scope_group_id,omitempty"`
}

func (r CreateRuleRequest) scope() (domain.Scope, error) {
	switch domain.ScopeKind(r.ScopeKind) {
	case domain.ScopeGlobal:
		return domain.GlobalScope(), nil
	case domain.ScopeActivity:
		if strings.TrimSpace(r.ScopeActivity) == "" {
			return domain.Scope{}, errors.New("scope_activity is required for activity scope")
		}
		return domain.ActivityScope(r.ScopeActivity), nil
	case domain.ScopeGroup:
		if strings.TrimSpace(r.ScopeGroupID) == "" {
			return domain.Scope{}, errors.New("scope_group_id is required for group scope")
		}
		return domain.GroupScope(r.ScopeGroupID), nil
	default:
		return domain.Scope{}, errors.New("unknown scope_kind")
	}
}

// RuleView exposes a stored rule.
type RuleView struct {
	RuleID           string `json:"rule_id"`
	ThresholdSeconds int64  `json:"threshold_seconds"`
	Action           string `json:"action"`
	TimeoutSeconds   int64  `json:"timeout_seconds,omitempty"`
	Window           string `json:"window"`
	ScopeKind        string `json:"scope_kind"`
	ScopeActivity    string `json:"scope_activity,omitempty"`
	ScopeGroupID     string `json:"scope_group_id,omitempty"`
}

// ListRulesResponse packages list results.
type ListRulesResponse struct {
	Items []RuleView `json:"items"`
}

// NameRequest carries a single name field for create calls.
type NameRequest struct {
	Name string `json:"name"`
}

// EnabledRequest toggles a boolean flag.
type EnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ActivityRequest names an activity for membership calls.
type ActivityRequest struct {
	Activity string `json:"activity"`
}

// OptInRequest records tracking consent.
type OptInRequest struct {
	OptedIn bool `json:"opted_in"`
}

// ExclusionRequest toggles a per-activity exclusion.
type ExclusionRequest struct {
	Activity string `json:"activity"`
	Excluded bool   `json:"excluded"`
}

// ExemptRequest toggles enforcement exemption.
type ExemptRequest struct {
	Exempt bool `json:"exempt"`
}

// ActivityView exposes a catalog entry.
type ActivityView struct {
	ActivityID string    `json:"activity_id"`
	Name       string    `json:"name"`
	Enabled    bool      `json:"enabled"`
	AddedAt    time.Time `json:"added_at"`
}

// ListActivitiesResponse packages catalog results.
type ListActivitiesResponse struct {
	Items []ActivityView `json:"items"`
}

// GroupView exposes a group and its members.
type GroupView struct {
	GroupID   string    `json:"group_id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

// ListGroupsResponse packages group results.
type ListGroupsResponse struct {
	Items []GroupView `json:"items"`
}

// ListUsersResponse packages the opted-in user IDs.
type ListUsersResponse struct {
	Items []string `json:"items"`
}

// SummaryResponse reports aggregate playtime for one user.
type SummaryResponse struct {
	UserID                string `json:"user_id"`
	WindowSeconds         int64  `json:"window_seconds"`
	TotalSeconds          int64  `json:"total_seconds"`
	SessionCount          int    `json:"session_count"`
	LongestSessionSeconds int64  `json:"longest_session_seconds"`
}

// LeaderboardItem is one ranking row.
type LeaderboardItem struct {
	UserID       string `json:"user_id"`
	TotalSeconds int64  `json:"total_seconds"`
}

// LeaderboardResponse packages ranking results.
type LeaderboardResponse struct {
	WindowSeconds int64             `json:"window_seconds"`
	Items         []LeaderboardItem `json:"items"`
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidRule):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toRuleView(rule domain.ThresholdRule) RuleView {
	return RuleView{
		RuleID:           rule.ID,
		ThresholdSeconds: int64(rule.Threshold / time.Second),
		Action:           string(rule.Action),
		TimeoutSeconds:   int64(rule.Timeout / time.Second),
		Window:           string(rule.Window),
		ScopeKind:        string(rule.Scope.Kind),
		ScopeActivity:    rule.Scope.Activity,
		ScopeGroupID:     rule.Scope.GroupID,
	}
}

func toActivityView(activity domain.Activity) ActivityView {
	return ActivityView{
		ActivityID: activity.ID,
		Name:       activity.Name,
		Enabled:    activity.Enabled,
		AddedAt:    activity.AddedAt,
	}
}

func toGroupView(group domain.ActivityGroup) GroupView {
	members := group.Members
	if members == nil {
		members = []string{}
	}
	return GroupView{
		GroupID:   group.ID,
		Name:      group.Name,
		Members:   members,
		CreatedAt: group.CreatedAt,
	}
}
