package engine

import (
	"context"
	"fmt"
	"time"

	"example.com/playguard/internal/domain"
)

// Pardon lifts any active timeout for the user by publishing a
// revocation for the enforcement collaborator. Dedup state is left
// alone: a pardoned user is not automatically re-armed. Idempotent.
func (e *Engine) Pardon(ctx context.Context, actorID, userID string) error {
	unlock := e.locks.acquire(userID)
	defer unlock()

	at := time.Now().UTC()
	if e.publisher != nil {
		if err := e.publisher.PublishRevocation(ctx, domain.Revocation{UserID: userID, ActorID: actorID, At: at}); err != nil {
			return err
		}
	}
	e.audit(ctx, actorID, "pardon", userID, "")
	return nil
}

// SetExempt toggles the user's exemption. Enabling it closes any open
// sessions at the toggle instant (they are kept, not discarded) and halts
// all further tracking and evaluation until un-exempted. Idempotent.
func (e *Engine) SetExempt(ctx context.Context, actorID, userID string, exempt bool) error {
	unlock := e.locks.acquire(userID)
	defer unlock()

	user, err := e.store.User(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	if user == nil {
		user = &domain.User{ID: userID, LeaderboardVisible: true, CreatedAt: time.Now().UTC()}
	}
	user.Exempt = exempt
	if err := e.store.UpsertUser(ctx, *user); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}

	if exempt {
		at := time.Now().UTC()
		open, err := e.store.OpenSessionsForUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
		}
		for _, session := range open {
			if !at.After(session.Start) {
				continue
			}
			session.End = at
			session.Duration = at.Sub(session.Start)
			if err := e.store.SaveSession(ctx, session); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
			}
			recordSessionClosed(session.Duration)
		}
	}

	action := "exempt"
	if !exempt {
		action = "unexempt"
	}
	e.audit(ctx, actorID, action, userID, "")
	return nil
}

// Reset wipes the user's session history plus all dedup and advisory
// state: a full re-arm. Idempotent.
func (e *Engine) Reset(ctx context.Context, actorID, userID string) error {
	unlock := e.locks.acquire(userID)
	defer unlock()

	if err := e.store.ClearUserState(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	e.audit(ctx, actorID, "reset", userID, "sessions, dedup state, and advisory state cleared")
	return nil
}

func (e *Engine) audit(ctx context.Context, actorID, actionType, targetUserID, details string) {
	if e.publisher == nil {
		return
	}
	entry := domain.AuditEntry{
		ActorID:      actorID,
		ActionType:   actionType,
		TargetUserID: targetUserID,
		Details:      details,
		At:           time.Now().UTC(),
	}
	if err := e.publisher.PublishAudit(ctx, entry); err != nil {
		e.logger.Printf("publish audit failed (action=%s, target=%s): %v", actionType, targetUserID, err)
		recordPublishError("audit")
	}
}
