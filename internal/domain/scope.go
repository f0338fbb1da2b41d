package domain

import "fmt"

// ScopeKind tags the unit a rule aggregates over.
type ScopeKind string

const (
	ScopeGlobal   ScopeKind = "global"
	ScopeActivity ScopeKind = "activity"
	ScopeGroup    ScopeKind = "group"
)

// Scope is a tagged variant: Global, a single Activity (by name), or an
// ActivityGroup (by ID). Evaluation logic is identical across kinds; only
// the aggregate source differs.
type Scope struct {
	Kind     ScopeKind `json:"kind"`
	Activity string    `json:"activity,omitempty"`
	GroupID  string    `json:"group_id,omitempty"`
}

// GlobalScope covers every enabled activity the user has not excluded.
func GlobalScope() Scope {
	return Scope{Kind: ScopeGlobal}
}

// ActivityScope covers a single named activity.
func ActivityScope(name string) Scope {
	return Scope{Kind: ScopeActivity, Activity: name}
}

// GroupScope covers the union of a group's member activities.
func GroupScope(id string) Scope {
	return Scope{Kind: ScopeGroup, GroupID: id}
}

// Key returns a stable identifier usable as a map key.
func (s Scope) Key() string {
	switch s.Kind {
	case ScopeActivity:
		return fmt.Sprintf("activity:%s", s.Activity)
	case ScopeGroup:
		return fmt.Sprintf("group:%s", s.GroupID)
	default:
		return "global"
	}
}

func (s Scope) String() string {
	return s.Key()
}
