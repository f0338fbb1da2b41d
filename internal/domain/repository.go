package domain

import (
	"context"
	"time"
)

// Store captures every persistence operation the engine and admin surface
// need. Implementations live under internal/persistence.
type Store interface {
	// Sessions. OpenSession returns nil when the user has no open session
	// for the activity. SaveSession inserts or updates by session ID.
	// DiscardSession removes a single session record (clock-skew drops).
	OpenSession(ctx context.Context, userID, activity string) (*Session, error)
	SaveSession(ctx context.Context, session Session) error
	DiscardSession(ctx context.Context, sessionID string) error
	// SessionsOverlapping returns closed sessions for the named activities
	// with any overlap in [from, to]. An empty activity list matches none.
	SessionsOverlapping(ctx context.Context, userID string, activities []string, from, to time.Time) ([]Session, error)
	OpenSessionsForUser(ctx context.Context, userID string) ([]Session, error)

	// Users and per-activity exclusions.
	User(ctx context.Context, userID string) (*User, error)
	UpsertUser(ctx context.Context, user User) error
	Exclusions(ctx context.Context, userID string) ([]string, error)
	SetExclusion(ctx context.Context, userID, activity string, excluded bool) error
	OptedInUsers(ctx context.Context) ([]string, error)

	// Activity catalog.
	Activities(ctx context.Context) ([]Activity, error)
	ActivityByName(ctx context.Context, name string) (*Activity, error)
	UpsertActivity(ctx context.Context, activity Activity) error
	RemoveActivity(ctx context.Context, name string) error

	// Groups.
	Groups(ctx context.Context) ([]ActivityGroup, error)
	Group(ctx context.Context, id string) (*ActivityGroup, error)
	CreateGroup(ctx context.Context, group ActivityGroup) error
	DeleteGroup(ctx context.Context, id string) error
	AddGroupMember(ctx context.Context, groupID, activity string) error
	RemoveGroupMember(ctx context.Context, groupID, activity string) error
	GroupsContaining(ctx context.Context, activity string) ([]ActivityGroup, error)

	// Threshold rules. RulesForScope returns the scope's track sorted
	// ascending by threshold.
	Rules(ctx context.Context) ([]ThresholdRule, error)
	RulesForScope(ctx context.Context, scope Scope) ([]ThresholdRule, error)
	AddRule(ctx context.Context, rule ThresholdRule) error
	DeleteRule(ctx context.Context, id string) error

	// Dedup and advisory state. Lookups return nil when no state exists
	// yet, which the evaluator treats as armed.
	DedupState(ctx context.Context, userID, ruleID string) (*DedupState, error)
	UpdateDedupState(ctx context.Context, state DedupState) error
	WarningState(ctx context.Context, userID, ruleID string) (*WarningState, error)
	UpdateWarningState(ctx context.Context, state WarningState) error
	// ClearUserState deletes the user's sessions, dedup state, and
	// advisory state: a full re-arm.
	ClearUserState(ctx context.Context, userID string) error

	// Process-wide settings. TrackingEnabled is read on every pass, never
	// cached by callers.
	TrackingEnabled(ctx context.Context) (bool, error)
	SetTrackingEnabled(ctx context.Context, enabled bool) error

	// Reporting.
	Leaderboard(ctx context.Context, from, to time.Time, limit int) ([]LeaderboardEntry, error)
}
