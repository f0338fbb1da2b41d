package engine

import (
	"context"
	"fmt"

	"example.com/playguard/internal/domain"
)

// scopesFor lists the scope tracks touched by a session of the given
// activity: the activity itself, every group containing it, and global.
// Each track is evaluated independently.
func (e *Engine) scopesFor(ctx context.Context, activity string) ([]domain.Scope, error) {
	scopes := []domain.Scope{domain.ActivityScope(activity)}

	groups, err := e.store.GroupsContaining(ctx, activity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	for _, group := range groups {
		scopes = append(scopes, domain.GroupScope(group.ID))
	}

	return append(scopes, domain.GlobalScope()), nil
}

// candidateRules returns the scope's rules ordered ascending by
// threshold, as stored.
func (e *Engine) candidateRules(ctx context.Context, scope domain.Scope) ([]domain.ThresholdRule, error) {
	rules, err := e.store.RulesForScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRepositoryUnavailable, err)
	}
	return rules, nil
}
