package engine

import (
	"context"
	"fmt"
	"time"

	"example.com/playguard/internal/domain"
)

// advise emits at most one advisory per scope: for the smallest unfired
// rule whose aggregate has entered the proximity band
// [proximity*threshold, threshold). A rule is advised at most once per
// arming cycle; rolling windows re-arm the advisory when the aggregate
// drops back out of the band, calendar windows on a period-key change,
// per-session rules on a new session.
func (e *Engine) advise(ctx context.Context, userID string, scopes []domain.Scope, totals map[string]time.Duration, firedRules map[string]struct{}, at time.Time, trigger *domain.Session) ([]domain.Advisory, error) {
	if e.proximity <= 0 || e.proximity >= 1 {
		return nil, nil
	}

	var advisories []domain.Advisory
	for _, scope := range scopes {
		rules, err := e.candidateRules(ctx, scope)
		if err != nil {
			return nil, err
		}
		for _, rule := range rules {
			if _, fired := firedRules[rule.ID]; fired {
				continue
			}
			total, err := e.totalFor(ctx, totals, userID, scope, rule.Window, at, trigger)
			if err != nil {
				return nil, err
			}
			if total >= rule.Threshold {
				// Already exceeded; a smaller rule cannot be "approaching".
				continue
			}
			band := time.Duration(e.proximity * float64(rule.Threshold))
			if total < band {
				if err := e.rearmAdvisory(ctx, userID, rule); err != nil {
					return nil, err
				}
				// Rules are sorted ascending; nothing closer follows.
				break
			}
			advised, err := e.alreadyAdvised(ctx, userID, rule, at, trigger)
			if err != nil {
				return nil, err
			}
			if advised {
				break
			}
			advisories = append(advisories, domain.Advisory{
				RuleID:    rule.ID,
				UserID:    userID,
				Scope:     scope,
				Window:    rule.Window,
				Total:     total,
				Threshold: rule.Threshold,
				Remaining: rule.Threshold - total,
				At:        at,
			})
			if err := e.markAdvised(ctx, userID, rule, at, trigger); err != nil {
				return nil, err
			}
			recordAdvisory()
			break
		}
	}
	return advisories, nil
}

func (e *Engine) alreadyAdvised(ctx context.Context, userID string, rule domain.ThresholdRule, at time.Time, trigger *domain.Session) (bool, error) {
	state, err := e.store.WarningState(ctx, userID, rule.ID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	if state == nil {
		return false, nil
	}
	switch {
	case rule.Window == domain.WindowPerSession:
		return trigger != nil && state.LastAdvisedPeriodKey == trigger.ID, nil
	case rule.Window.Calendar():
		return state.LastAdvisedPeriodKey == rule.Window.PeriodKey(at), nil
	default:
		return state.Advised, nil
	}
}

// rearmAdvisory clears the advised flag for rolling-window rules whose
// aggregate has fallen back below the proximity band.
func (e *Engine) rearmAdvisory(ctx context.Context, userID string, rule domain.ThresholdRule) error {
	if rule.Window.Calendar() || rule.Window == domain.WindowPerSession {
		return nil
	}
	state, err := e.store.WarningState(ctx, userID, rule.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	if state == nil || !state.Advised {
		return nil
	}
	state.Advised = false
	if err := e.store.UpdateWarningState(ctx, *state); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	return nil
}

func (e *Engine) markAdvised(ctx context.Context, userID string, rule domain.ThresholdRule, at time.Time, trigger *domain.Session) error {
	periodKey := rule.Window.PeriodKey(at)
	if rule.Window == domain.WindowPerSession && trigger != nil {
		periodKey = trigger.ID
	}
	state := domain.WarningState{
		UserID:               userID,
		RuleID:               rule.ID,
		Advised:              true,
		LastAdvisedPeriodKey: periodKey,
		LastAdvisedAt:        at,
	}
	if err := e.store.UpdateWarningState(ctx, state); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	return nil
}
