// Package memory provides an in-memory Store used by unit tests and
// local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"example.com/playguard/internal/domain"
)

// Repository implements domain.Store with plain maps behind a mutex.
type Repository struct {
	mu sync.RWMutex

	sessions     map[string]domain.Session // by session ID
	users        map[string]domain.User
	exclusions   map[string]map[string]bool // userID -> activity -> excluded
	activities   map[string]domain.Activity // by name
	groups       map[string]domain.ActivityGroup
	rules        map[string]domain.ThresholdRule
	dedupState   map[string]domain.DedupState   // userID|ruleID
	warningState map[string]domain.WarningState // userID|ruleID
	tracking     bool
}

// NewRepository returns an empty repository with tracking enabled.
func NewRepository() *Repository {
	return &Repository{
		sessions:     make(map[string]domain.Session),
		users:        make(map[string]domain.User),
		exclusions:   make(map[string]map[string]bool),
		activities:   make(map[string]domain.Activity),
		groups:       make(map[string]domain.ActivityGroup),
		rules:        make(map[string]domain.ThresholdRule),
		dedupState:   make(map[string]domain.DedupState),
		warningState: make(map[string]domain.WarningState),
		tracking:     true,
	}
}

func stateKey(userID, ruleID string) string {
	return userID + "|" + ruleID
}

func (r *Repository) OpenSession(_ context.Context, userID, activity string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.UserID == userID && s.Activity == activity && s.Open() {
			copied := s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *Repository) SaveSession(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
	return nil
}

func (r *Repository) DiscardSession(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

func (r *Repository) SessionsOverlapping(_ context.Context, userID string, activities []string, from, to time.Time) ([]domain.Session, error) {
	wanted := make(map[string]bool, len(activities))
	for _, a := range activities {
		wanted[a] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Session
	for _, s := range r.sessions {
		if s.UserID != userID || s.Open() || !wanted[s.Activity] {
			continue
		}
		if s.End.Before(from) || s.Start.After(to) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (r *Repository) OpenSessionsForUser(_ context.Context, userID string) ([]domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Session
	for _, s := range r.sessions {
		if s.UserID == userID && s.Open() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (r *Repository) User(_ context.Context, userID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *Repository) UpsertUser(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *Repository) Exclusions(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for activity, excluded := range r.exclusions[userID] {
		if excluded {
			out = append(out, activity)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *Repository) SetExclusion(_ context.Context, userID, activity string, excluded bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.exclusions[userID] == nil {
		r.exclusions[userID] = make(map[string]bool)
	}
	if excluded {
		r.exclusions[userID][activity] = true
	} else {
		delete(r.exclusions[userID], activity)
	}
	return nil
}

func (r *Repository) OptedInUsers(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for id, u := range r.users {
		if u.OptedIn {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *Repository) Activities(_ context.Context) ([]domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Activity, 0, len(r.activities))
	for _, a := range r.activities {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Repository) ActivityByName(_ context.Context, name string) (*domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.activities[strings.ToLower(name)]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *Repository) UpsertActivity(_ context.Context, activity domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities[strings.ToLower(activity.Name)] = activity
	return nil
}

func (r *Repository) RemoveActivity(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.activities, strings.ToLower(name))
	return nil
}

func (r *Repository) Groups(_ context.Context) ([]domain.ActivityGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ActivityGroup, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, copyGroup(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Repository) Group(_ context.Context, id string) (*domain.ActivityGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, nil
	}
	copied := copyGroup(g)
	return &copied, nil
}

func (r *Repository) CreateGroup(_ context.Context, group domain.ActivityGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[group.ID] = copyGroup(group)
	return nil
}

func (r *Repository) DeleteGroup(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, id)
	return nil
}

func (r *Repository) AddGroupMember(_ context.Context, groupID, activity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return domain.ErrNotFound
	}
	if g.Contains(activity) {
		return nil
	}
	g.Members = append(g.Members, activity)
	r.groups[groupID] = g
	return nil
}

func (r *Repository) RemoveGroupMember(_ context.Context, groupID, activity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return domain.ErrNotFound
	}
	members := g.Members[:0]
	for _, m := range g.Members {
		if m != activity {
			members = append(members, m)
		}
	}
	g.Members = members
	r.groups[groupID] = g
	return nil
}

func (r *Repository) GroupsContaining(_ context.Context, activity string) ([]domain.ActivityGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.ActivityGroup
	for _, g := range r.groups {
		if g.Contains(activity) {
			out = append(out, copyGroup(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Repository) Rules(_ context.Context) ([]domain.ThresholdRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ThresholdRule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Threshold < out[j].Threshold })
	return out, nil
}

func (r *Repository) RulesForScope(_ context.Context, scope domain.Scope) ([]domain.ThresholdRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.ThresholdRule
	for _, rule := range r.rules {
		if rule.Scope.Key() == scope.Key() {
			out = append(out, rule)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Threshold < out[j].Threshold })
	return out, nil
}

func (r *Repository) AddRule(_ context.Context, rule domain.ThresholdRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.ID] = rule
	return nil
}

func (r *Repository) DeleteRule(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.rules, id)
	return nil
}

func (r *Repository) DedupState(_ context.Context, userID, ruleID string) (*domain.DedupState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.dedupState[stateKey(userID, ruleID)]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (r *Repository) UpdateDedupState(_ context.Context, state domain.DedupState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dedupState[stateKey(state.UserID, state.RuleID)] = state
	return nil
}

func (r *Repository) WarningState(_ context.Context, userID, ruleID string) (*domain.WarningState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.warningState[stateKey(userID, ruleID)]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (r *Repository) UpdateWarningState(_ context.Context, state domain.WarningState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warningState[stateKey(state.UserID, state.RuleID)] = state
	return nil
}

func (r *Repository) ClearUserState(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	for key, s := range r.dedupState {
		if s.UserID == userID {
			delete(r.dedupState, key)
		}
	}
	for key, s := range r.warningState {
		if s.UserID == userID {
			delete(r.warningState, key)
		}
	}
	return nil
}

func (r *Repository) TrackingEnabled(_ context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tracking, nil
}

func (r *Repository) SetTrackingEnabled(_ context.Context, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracking = enabled
	return nil
}

func (r *Repository) Leaderboard(_ context.Context, from, to time.Time, limit int) ([]domain.LeaderboardEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	totals := make(map[string]time.Duration)
	for _, s := range r.sessions {
		if s.Open() || s.End.Before(from) || s.Start.After(to) {
			continue
		}
		u, ok := r.users[s.UserID]
		if !ok || !u.LeaderboardVisible {
			continue
		}
		totals[s.UserID] += s.Duration
	}

	out := make([]domain.LeaderboardEntry, 0, len(totals))
	for id, total := range totals {
		out = append(out, domain.LeaderboardEntry{UserID: id, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyGroup(g domain.ActivityGroup) domain.ActivityGroup {
	copied := g
	copied.Members = append([]string(nil), g.Members...)
	return copied
}
