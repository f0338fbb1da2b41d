package engine

import (
	"context"
	"fmt"
	"time"

	"example.com/playguard/internal/domain"
)

// Aggregate computes the total tracked duration in window for one user
// and scope as of the reference instant. The triggering session is
// required for per-session windows and may be nil otherwise. Sessions
// partially overlapping the window contribute only the overlapping
// portion.
func (e *Engine) Aggregate(ctx context.Context, userID string, scope domain.Scope, kind domain.WindowKind, at time.Time, trigger *domain.Session) (time.Duration, error) {
	if kind == domain.WindowPerSession {
		if trigger == nil {
			return 0, nil
		}
		in, err := e.scopeContains(ctx, userID, scope, trigger.Activity)
		if err != nil {
			return 0, err
		}
		if !in {
			return 0, nil
		}
		return trigger.Duration, nil
	}

	names, mergeOverlaps, err := e.scopeActivities(ctx, userID, scope)
	if err != nil {
		return 0, err
	}
	if len(names) == 0 {
		return 0, nil
	}

	from := kind.Start(at)
	sessions, err := e.store.SessionsOverlapping(ctx, userID, names, from, at)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}

	intervals := make([]domain.Interval, 0, len(sessions))
	for _, s := range sessions {
		if s.Open() {
			continue
		}
		clipped := domain.Interval{From: s.Start, To: s.End}.Clip(from, at)
		if clipped.Duration() > 0 {
			intervals = append(intervals, clipped)
		}
	}

	if mergeOverlaps {
		// Group scope: concurrent sessions across member activities count
		// once per overlapping instant.
		intervals = domain.MergeIntervals(intervals)
	}

	var total time.Duration
	for _, iv := range intervals {
		total += iv.Duration()
	}
	return total, nil
}

// scopeActivities resolves the activity names a scope aggregates over and
// whether overlapping intervals must be merged.
func (e *Engine) scopeActivities(ctx context.Context, userID string, scope domain.Scope) ([]string, bool, error) {
	switch scope.Kind {
	case domain.ScopeActivity:
		return []string{scope.Activity}, false, nil

	case domain.ScopeGroup:
		group, err := e.store.Group(ctx, scope.GroupID)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
		}
		if group == nil {
			return nil, false, fmt.Errorf("%w: group %q", domain.ErrNotFound, scope.GroupID)
		}
		return group.Members, true, nil

	case domain.ScopeGlobal:
		activities, err := e.store.Activities(ctx)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
		}
		exclusions, err := e.store.Exclusions(ctx, userID)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
		}
		excluded := make(map[string]struct{}, len(exclusions))
		for _, name := range exclusions {
			excluded[name] = struct{}{}
		}
		names := make([]string, 0, len(activities))
		for _, act := range activities {
			if !act.Enabled {
				continue
			}
			if _, skip := excluded[act.Name]; skip {
				continue
			}
			names = append(names, act.Name)
		}
		return names, false, nil

	default:
		return nil, false, fmt.Errorf("%w: scope kind %q", domain.ErrNotFound, scope.Kind)
	}
}

func (e *Engine) scopeContains(ctx context.Context, userID string, scope domain.Scope, activity string) (bool, error) {
	names, _, err := e.scopeActivities(ctx, userID, scope)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if name == activity {
			return true, nil
		}
	}
	return false, nil
}
