package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/playguard/internal/domain"
)

// HandleActivityChanged is the entry point for presence events. A start
// signal opens a session; a stop signal closes the matching session and
// runs a full evaluation pass. Duplicate signals in either direction are
// no-ops.
func (e *Engine) HandleActivityChanged(ctx context.Context, userID, activity string, active bool, at time.Time) (*Result, error) {
	unlock := e.locks.acquire(userID)
	defer unlock()

	act, err := e.shouldTrack(ctx, userID, activity)
	if err != nil {
		return nil, err
	}
	if act == nil {
		return nil, nil
	}

	// Sessions are keyed by the catalog's canonical name, not the raw
	// event casing, so aggregation and scope resolution see them.
	if active {
		return nil, e.startSession(ctx, userID, act.Name, at)
	}

	closed, err := e.stopSession(ctx, userID, act.Name, at)
	if err != nil || closed == nil {
		return nil, err
	}

	result, err := e.evaluate(ctx, userID, closed, at)
	if err != nil {
		return nil, err
	}
	e.publishResult(ctx, result)
	return result, nil
}

// shouldTrack applies the gate conditions: the process-wide tracking
// flag, user opt-in/exemption, activity enablement, and the user's
// per-activity exclusions. The flag is read fresh on every call. A
// non-nil result is the catalog entry the event resolved to.
func (e *Engine) shouldTrack(ctx context.Context, userID, activity string) (*domain.Activity, error) {
	enabled, err := e.store.TrackingEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	if !enabled {
		return nil, nil
	}

	user, err := e.store.User(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	if user == nil || !user.OptedIn || user.Exempt {
		return nil, nil
	}

	act, err := e.store.ActivityByName(ctx, activity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	if act == nil || !act.Enabled {
		return nil, nil
	}

	exclusions, err := e.store.Exclusions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	for _, excluded := range exclusions {
		if excluded == act.Name {
			return nil, nil
		}
	}
	return act, nil
}

func (e *Engine) startSession(ctx context.Context, userID, activity string, at time.Time) error {
	open, err := e.store.OpenSession(ctx, userID, activity)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	if open != nil {
		// Duplicate start signal; keep the original session.
		return nil
	}

	session := domain.Session{
		ID:       uuid.NewString(),
		UserID:   userID,
		Activity: activity,
		Start:    at,
	}
	if err := e.store.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	recordSessionOpened()
	return nil
}

func (e *Engine) stopSession(ctx context.Context, userID, activity string, at time.Time) (*domain.Session, error) {
	open, err := e.store.OpenSession(ctx, userID, activity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	if open == nil {
		// Duplicate stop signal, or a late signal after a reset.
		return nil, nil
	}

	if !at.After(open.Start) {
		// Clock skew produced a non-positive duration. Drop the session
		// and log the anomaly; this never fails the batch.
		e.logger.Printf("anomaly: stale stop for user=%s activity=%s start=%s at=%s: %v",
			userID, activity, open.Start.Format(time.RFC3339), at.Format(time.RFC3339), domain.ErrStaleClock)
		recordAnomaly()
		if err := e.store.DiscardSession(ctx, open.ID); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
		}
		return nil, nil
	}

	open.End = at
	open.Duration = at.Sub(open.Start)
	if err := e.store.SaveSession(ctx, *open); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	recordSessionClosed(open.Duration)
	return open, nil
}
