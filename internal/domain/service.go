package domain

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Admin orchestrates catalog and rule management for the admin surface.
// Override operations live on the engine's override gateway instead,
// because they must hold the per-user evaluation lock.
type Admin struct {
	store Store
}

// NewAdmin constructs an Admin.
func NewAdmin(store Store) *Admin {
	return &Admin{store: store}
}

// CreateRuleInput captures the payload from the API layer.
type CreateRuleInput struct {
	Threshold time.Duration
	Action    ActionKind
	Timeout   time.Duration
	Window    WindowKind
	Scope     Scope
}

// CreateRule validates and stores a threshold rule. Validation rejects the
// call outright; no partial state is written.
func (a *Admin) CreateRule(ctx context.Context, input CreateRuleInput) (*ThresholdRule, error) {
	rule := ThresholdRule{
		ID:        uuid.NewString(),
		Threshold: input.Threshold,
		Action:    input.Action,
		Timeout:   input.Timeout,
		Window:    input.Window,
		Scope:     input.Scope,
	}
	if err := a.validateRule(ctx, rule); err != nil {
		return nil, err
	}
	if err := a.store.AddRule(ctx, rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (a *Admin) validateRule(ctx context.Context, rule ThresholdRule) error {
	if rule.Threshold <= 0 {
		return fmt.Errorf("%w: threshold must be positive", ErrInvalidRule)
	}
	if !rule.Window.Valid() {
		return fmt.Errorf("%w: unknown window kind %q", ErrInvalidRule, rule.Window)
	}
	switch rule.Action {
	case ActionTimeout:
		if rule.Timeout <= 0 {
			return fmt.Errorf("%w: timeout rules need a positive duration", ErrInvalidRule)
		}
	case ActionWarn:
		if rule.Timeout != 0 {
			return fmt.Errorf("%w: warn rules carry no duration", ErrInvalidRule)
		}
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidRule, rule.Action)
	}

	switch rule.Scope.Kind {
	case ScopeGlobal:
	case ScopeActivity:
		activity, err := a.store.ActivityByName(ctx, rule.Scope.Activity)
		if err != nil {
			return err
		}
		if activity == nil {
			return fmt.Errorf("%w: activity %q", ErrNotFound, rule.Scope.Activity)
		}
	case ScopeGroup:
		group, err := a.store.Group(ctx, rule.Scope.GroupID)
		if err != nil {
			return err
		}
		if group == nil {
			return fmt.Errorf("%w: group %q", ErrNotFound, rule.Scope.GroupID)
		}
	default:
		return fmt.Errorf("%w: unknown scope kind %q", ErrInvalidRule, rule.Scope.Kind)
	}

	// Thresholds must strictly increase within a (scope, window) track.
	existing, err := a.store.RulesForScope(ctx, rule.Scope)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.Window == rule.Window && other.Threshold == rule.Threshold {
			return fmt.Errorf("%w: duplicate %s threshold in scope %s", ErrInvalidRule, rule.Threshold, rule.Scope)
		}
	}
	return nil
}

// DeleteRule removes a rule by ID.
func (a *Admin) DeleteRule(ctx context.Context, id string) error {
	return a.store.DeleteRule(ctx, id)
}

// ListRules returns every rule sorted by scope then ascending threshold.
func (a *Admin) ListRules(ctx context.Context) ([]ThresholdRule, error) {
	rules, err := a.store.Rules(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Scope.Key() != rules[j].Scope.Key() {
			return rules[i].Scope.Key() < rules[j].Scope.Key()
		}
		return rules[i].Threshold < rules[j].Threshold
	})
	return rules, nil
}

// AddActivity registers a trackable activity, enabled by default.
// Re-adding an existing name is a no-op returning the stored record.
func (a *Admin) AddActivity(ctx context.Context, name string) (*Activity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty activity name", ErrInvalidRule)
	}
	if existing, err := a.store.ActivityByName(ctx, name); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}
	activity := Activity{
		ID:      uuid.NewString(),
		Name:    name,
		Enabled: true,
		AddedAt: time.Now().UTC(),
	}
	if err := a.store.UpsertActivity(ctx, activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// SetActivityEnabled toggles tracking for one activity. Disabling halts
// new session creation but preserves history.
func (a *Admin) SetActivityEnabled(ctx context.Context, name string, enabled bool) error {
	activity, err := a.store.ActivityByName(ctx, name)
	if err != nil {
		return err
	}
	if activity == nil {
		return fmt.Errorf("%w: activity %q", ErrNotFound, name)
	}
	activity.Enabled = enabled
	return a.store.UpsertActivity(ctx, *activity)
}

// RemoveActivity drops an activity from the catalog; session history stays.
func (a *Admin) RemoveActivity(ctx context.Context, name string) error {
	return a.store.RemoveActivity(ctx, name)
}

// ListActivities returns the catalog sorted by name.
func (a *Admin) ListActivities(ctx context.Context) ([]Activity, error) {
	return a.store.Activities(ctx)
}

// CreateGroup registers an empty activity group.
func (a *Admin) CreateGroup(ctx context.Context, name string) (*ActivityGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty group name", ErrInvalidRule)
	}
	group := ActivityGroup{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	return &group, nil
}

// ListGroups returns every group with its members.
func (a *Admin) ListGroups(ctx context.Context) ([]ActivityGroup, error) {
	return a.store.Groups(ctx)
}

// DeleteGroup removes a group and its memberships; rules scoped to it
// stop matching anything until re-pointed.
func (a *Admin) DeleteGroup(ctx context.Context, id string) error {
	group, err := a.store.Group(ctx, id)
	if err != nil {
		return err
	}
	if group == nil {
		return fmt.Errorf("%w: group %q", ErrNotFound, id)
	}
	return a.store.DeleteGroup(ctx, id)
}

// AddGroupMember adds a known activity to a group.
func (a *Admin) AddGroupMember(ctx context.Context, groupID, activity string) error {
	group, err := a.store.Group(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return fmt.Errorf("%w: group %q", ErrNotFound, groupID)
	}
	known, err := a.store.ActivityByName(ctx, activity)
	if err != nil {
		return err
	}
	if known == nil {
		return fmt.Errorf("%w: activity %q", ErrNotFound, activity)
	}
	return a.store.AddGroupMember(ctx, groupID, known.Name)
}

// RemoveGroupMember removes an activity from a group.
func (a *Admin) RemoveGroupMember(ctx context.Context, groupID, activity string) error {
	return a.store.RemoveGroupMember(ctx, groupID, activity)
}

// Summary aggregates a user's closed sessions over the trailing window.
func (a *Admin) Summary(ctx context.Context, userID string, window time.Duration) (PlaytimeSummary, error) {
	now := time.Now().UTC()
	activities, err := a.store.Activities(ctx)
	if err != nil {
		return PlaytimeSummary{}, err
	}
	names := make([]string, 0, len(activities))
	for _, act := range activities {
		names = append(names, act.Name)
	}
	sessions, err := a.store.SessionsOverlapping(ctx, userID, names, now.Add(-window), now)
	if err != nil {
		return PlaytimeSummary{}, err
	}
	var summary PlaytimeSummary
	for _, s := range sessions {
		summary.SessionCount++
		summary.Total += s.Duration
		if s.Duration > summary.LongestSession {
			summary.LongestSession = s.Duration
		}
	}
	return summary, nil
}

// Leaderboard ranks visible users by hours in the trailing window.
func (a *Admin) Leaderboard(ctx context.Context, window time.Duration, limit int) ([]LeaderboardEntry, error) {
	now := time.Now().UTC()
	return a.store.Leaderboard(ctx, now.Add(-window), now, limit)
}

// SetTrackingEnabled flips the process-wide tracking flag.
func (a *Admin) SetTrackingEnabled(ctx context.Context, enabled bool) error {
	return a.store.SetTrackingEnabled(ctx, enabled)
}

// SetOptIn records a user's tracking consent, creating the user record on
// first sight.
func (a *Admin) SetOptIn(ctx context.Context, userID string, optedIn bool) error {
	user, err := a.store.User(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		user = &User{ID: userID, LeaderboardVisible: true, CreatedAt: time.Now().UTC()}
	}
	user.OptedIn = optedIn
	return a.store.UpsertUser(ctx, *user)
}

// OptedInUsers lists the IDs of users currently enrolled in tracking,
// the audience for recap-style broadcasts.
func (a *Admin) OptedInUsers(ctx context.Context) ([]string, error) {
	return a.store.OptedInUsers(ctx)
}

// SetExclusion lets a user opt out of one activity.
func (a *Admin) SetExclusion(ctx context.Context, userID, activity string, excluded bool) error {
	known, err := a.store.ActivityByName(ctx, activity)
	if err != nil {
		return err
	}
	if known == nil {
		return fmt.Errorf("%w: activity %q", ErrNotFound, activity)
	}
	return a.store.SetExclusion(ctx, userID, known.Name, excluded)
}
