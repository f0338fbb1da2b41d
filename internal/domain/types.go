// Package domain defines the core types and business rules of the
// threshold enforcement engine.
package domain

import "time"

// User is a tracked participant. Only opted-in, non-exempt users
// accumulate sessions.
type User struct {
	ID                 string
	OptedIn            bool
	Exempt             bool
	LeaderboardVisible bool
	CreatedAt          time.Time
}

// Session is a closed or in-progress run of a single activity by a single
// user. Owned by the session tracker; read-only everywhere else.
type Session struct {
	ID       string
	UserID   string
	Activity string
	Start    time.Time
	End      time.Time // zero while the session is open
	Duration time.Duration
}

// Open reports whether the session has not been closed yet.
func (s Session) Open() bool {
	return s.End.IsZero()
}

// Activity is a named trackable program.
type Activity struct {
	ID      string
	Name    string
	Enabled bool
	AddedAt time.Time
}

// ActivityGroup names a set of activities whose playtime is limited
// combined.
type ActivityGroup struct {
	ID        string
	Name      string
	Members   []string // activity names
	CreatedAt time.Time
}

// Contains reports whether the group includes the named activity.
func (g ActivityGroup) Contains(activity string) bool {
	for _, m := range g.Members {
		if m == activity {
			return true
		}
	}
	return false
}

// ActionKind distinguishes the two consequence types a rule can carry.
type ActionKind string

const (
	ActionWarn    ActionKind = "warn"
	ActionTimeout ActionKind = "timeout"
)

// ThresholdRule fires an action when aggregated playtime in its window
// reaches Threshold for its scope.
type ThresholdRule struct {
	ID        string
	Threshold time.Duration
	Action    ActionKind
	Timeout   time.Duration // applied duration; set only for ActionTimeout
	Window    WindowKind
	Scope     Scope
}

// MoreSevere reports whether rule r outranks other: any timeout beats any
// warn, longer timeouts beat shorter ones, and among warns the higher
// threshold wins.
func (r ThresholdRule) MoreSevere(other ThresholdRule) bool {
	if r.Action == ActionTimeout && other.Action != ActionTimeout {
		return true
	}
	if r.Action != ActionTimeout && other.Action == ActionTimeout {
		return false
	}
	if r.Action == ActionTimeout {
		return r.Timeout > other.Timeout
	}
	return r.Threshold > other.Threshold
}

// DedupState is the arm/disarm state machine for one (user, rule) pair.
// Armed=false means the rule has fired and is suppressed until its re-arm
// condition holds.
type DedupState struct {
	UserID             string
	RuleID             string
	Armed              bool
	LastFiredPeriodKey string
	LastFiredAt        time.Time
}

// WarningState suppresses repeat advisories for one (user, rule) pair
// within an arming cycle.
type WarningState struct {
	UserID               string
	RuleID               string
	Advised              bool
	LastAdvisedPeriodKey string
	LastAdvisedAt        time.Time
}

// Action is the single consequence the engine decided to apply.
type Action struct {
	Kind      ActionKind    `json:"kind"`
	Timeout   time.Duration `json:"timeout,omitempty"`
	RuleID    string        `json:"rule_id"`
	UserID    string        `json:"user_id"`
	Scope     Scope         `json:"scope"`
	Window    WindowKind    `json:"window"`
	Total     time.Duration `json:"total"`
	Threshold time.Duration `json:"threshold"`
	At        time.Time     `json:"at"`
}

// Advisory is a non-enforcing heads-up that a user is approaching an
// unfired threshold.
type Advisory struct {
	RuleID    string        `json:"rule_id"`
	UserID    string        `json:"user_id"`
	Scope     Scope         `json:"scope"`
	Window    WindowKind    `json:"window"`
	Total     time.Duration `json:"total"`
	Threshold time.Duration `json:"threshold"`
	Remaining time.Duration `json:"remaining"`
	At        time.Time     `json:"at"`
}

// Revocation asks the enforcement collaborator to lift any active
// timeout for a user. It does not re-arm dedup state.
type Revocation struct {
	UserID  string    `json:"user_id"`
	ActorID string    `json:"actor_id"`
	At      time.Time `json:"at"`
}

// AuditEntry records an administrative override for the external audit
// collaborator.
type AuditEntry struct {
	ActorID      string    `json:"actor_id"`
	ActionType   string    `json:"action_type"` // pardon, exempt, unexempt, reset
	TargetUserID string    `json:"target_user_id"`
	Details      string    `json:"details,omitempty"`
	At           time.Time `json:"at"`
}

// LeaderboardEntry is one row of the most-hours ranking.
type LeaderboardEntry struct {
	UserID string
	Total  time.Duration
}

// PlaytimeSummary aggregates a user's closed sessions over a window.
type PlaytimeSummary struct {
	Total          time.Duration
	SessionCount   int
	LongestSession time.Duration
}
