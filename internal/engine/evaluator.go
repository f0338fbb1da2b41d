package engine

import (
	"context"
	"fmt"
	"time"

	"example.com/playguard/internal/domain"
)

// firing is a rule whose condition holds and whose dedup state allows it
// to fire in this pass.
type firing struct {
	rule  domain.ThresholdRule
	total time.Duration
}

// evaluate runs the escalation evaluator and the proactive warning
// advisor for one closed session. It returns zero or one action (the
// globally most severe candidate) plus any advisories. Every qualifying
// rule is de-armed, superseded or not, so a superseded rule cannot
// re-fire for the same excursion once the winning action expires.
func (e *Engine) evaluate(ctx context.Context, userID string, trigger *domain.Session, at time.Time) (*Result, error) {
	recordEvaluation()

	scopes, err := e.scopesFor(ctx, trigger.Activity)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]time.Duration)
	var candidates []firing
	for _, scope := range scopes {
		rules, err := e.candidateRules(ctx, scope)
		if err != nil {
			return nil, err
		}
		for _, rule := range rules {
			total, err := e.totalFor(ctx, totals, userID, scope, rule.Window, at, trigger)
			if err != nil {
				return nil, err
			}
			// ruleArmed runs even below threshold so hysteresis re-arm
			// transitions are persisted the moment the aggregate drops.
			armed, err := e.ruleArmed(ctx, userID, rule, total, at, trigger)
			if err != nil {
				return nil, err
			}
			if total < rule.Threshold {
				continue
			}
			if !armed {
				recordSuppressed()
				continue
			}
			candidates = append(candidates, firing{rule: rule, total: total})
		}
	}

	result := &Result{}
	firedRules := make(map[string]struct{}, len(candidates))
	if len(candidates) > 0 {
		winner := candidates[0]
		for _, c := range candidates[1:] {
			if c.rule.MoreSevere(winner.rule) {
				winner = c
			}
		}
		for _, c := range candidates {
			firedRules[c.rule.ID] = struct{}{}
			if err := e.disarm(ctx, userID, c.rule, at, trigger); err != nil {
				return nil, err
			}
			if c.rule.ID != winner.rule.ID {
				recordSuperseded()
			}
		}
		action := domain.Action{
			Kind:      winner.rule.Action,
			Timeout:   winner.rule.Timeout,
			RuleID:    winner.rule.ID,
			UserID:    userID,
			Scope:     winner.rule.Scope,
			Window:    winner.rule.Window,
			Total:     winner.total,
			Threshold: winner.rule.Threshold,
			At:        at,
		}
		result.Action = &action
		recordActionFired(action)
	}

	advisories, err := e.advise(ctx, userID, scopes, totals, firedRules, at, trigger)
	if err != nil {
		return nil, err
	}
	result.Advisories = advisories
	return result, nil
}

// totalFor memoizes aggregates per (scope, window) within one pass; a
// scope's rules often share a window kind.
func (e *Engine) totalFor(ctx context.Context, totals map[string]time.Duration, userID string, scope domain.Scope, kind domain.WindowKind, at time.Time, trigger *domain.Session) (time.Duration, error) {
	key := scope.Key() + "|" + string(kind)
	if total, ok := totals[key]; ok {
		return total, nil
	}
	total, err := e.Aggregate(ctx, userID, scope, kind, at, trigger)
	if err != nil {
		return 0, err
	}
	totals[key] = total
	return total, nil
}

// ruleArmed applies the arm/disarm state machine. Missing state counts as
// armed. Re-arm transitions observed here are persisted so the state
// machine stays explicit in storage:
//   - rolling windows re-arm once the aggregate drops below the threshold
//     (hysteresis),
//   - calendar windows re-arm when the period key changes,
//   - per-session rules never persist arming: each new session is its own
//     arming cycle, keyed by session ID.
func (e *Engine) ruleArmed(ctx context.Context, userID string, rule domain.ThresholdRule, total time.Duration, at time.Time, trigger *domain.Session) (bool, error) {
	state, err := e.store.DedupState(ctx, userID, rule.ID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	if state == nil {
		return true, nil
	}

	if rule.Window == domain.WindowPerSession {
		return trigger != nil && state.LastFiredPeriodKey != trigger.ID, nil
	}

	if rule.Window.Calendar() {
		periodKey := rule.Window.PeriodKey(at)
		if !state.Armed && state.LastFiredPeriodKey != periodKey {
			state.Armed = true
			if err := e.store.UpdateDedupState(ctx, *state); err != nil {
				return false, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
			}
		}
		return state.Armed && state.LastFiredPeriodKey != periodKey, nil
	}

	// Rolling window: hysteresis.
	if !state.Armed && total < rule.Threshold {
		state.Armed = true
		if err := e.store.UpdateDedupState(ctx, *state); err != nil {
			return false, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
		}
	}
	return state.Armed, nil
}

// disarm marks a rule fired for its current arming cycle.
func (e *Engine) disarm(ctx context.Context, userID string, rule domain.ThresholdRule, at time.Time, trigger *domain.Session) error {
	periodKey := rule.Window.PeriodKey(at)
	if rule.Window == domain.WindowPerSession && trigger != nil {
		periodKey = trigger.ID
	}
	state := domain.DedupState{
		UserID:             userID,
		RuleID:             rule.ID,
		Armed:              false,
		LastFiredPeriodKey: periodKey,
		LastFiredAt:        at,
	}
	if err := e.store.UpdateDedupState(ctx, state); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	return nil
}
