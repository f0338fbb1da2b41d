// Package events defines the wire payloads exchanged with external
// collaborators over Kafka.
package events

import "time"

// PresenceChanged is the inbound signal from the presence gateway.
type PresenceChanged struct {
	UserID   string    `json:"user_id"`
	Activity string    `json:"activity"`
	Active   bool      `json:"active"`
	At       time.Time `json:"at"`
}

// ActionFired is emitted when the engine applies a warn or timeout. The
// enforcement collaborator owns applying and removing the underlying
// timeout; the notification collaborator owns message selection.
type ActionFired struct {
	Kind             string    `json:"kind"`
	TimeoutSeconds   int64     `json:"timeout_seconds,omitempty"`
	RuleID           string    `json:"rule_id"`
	UserID           string    `json:"user_id"`
	ScopeKind        string    `json:"scope_kind"`
	ScopeActivity    string    `json:"scope_activity,omitempty"`
	ScopeGroupID     string    `json:"scope_group_id,omitempty"`
	Window           string    `json:"window"`
	TotalSeconds     int64     `json:"total_seconds"`
	ThresholdSeconds int64     `json:"threshold_seconds"`
	At               time.Time `json:"at"`
}

// AdvisoryIssued is the pre-threshold heads-up for the notification
// collaborator.
type AdvisoryIssued struct {
	RuleID           string    `json:"rule_id"`
	UserID           string    `json:"user_id"`
	ScopeKind        string    `json:"scope_kind"`
	ScopeActivity    string    `json:"scope_activity,omitempty"`
	ScopeGroupID     string    `json:"scope_group_id,omitempty"`
	Window           string    `json:"window"`
	TotalSeconds     int64     `json:"total_seconds"`
	ThresholdSeconds int64     `json:"threshold_seconds"`
	RemainingSeconds int64     `json:"remaining_seconds"`
	At               time.Time `json:"at"`
}

// EnforcementRevoked asks the enforcement collaborator to lift an active
// timeout (administrative pardon).
type EnforcementRevoked struct {
	UserID  string    `json:"user_id"`
	ActorID string    `json:"actor_id"`
	At      time.Time `json:"at"`
}

// OverrideAudited records an administrative override for the audit
// collaborator.
type OverrideAudited struct {
	ActorID      string    `json:"actor_id"`
	ActionType   string    `json:"action_type"`
	TargetUserID string    `json:"target_user_id"`
	Details      string    `json:"details,omitempty"`
	At           time.Time `json:"at"`
}
