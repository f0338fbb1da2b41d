// Package engine turns activity start/stop events into windowed playtime
// aggregates, matches them against graduated threshold rules, and decides
// the single most severe action to apply per evaluation pass.
package engine

import (
	"context"
	"log"

	"example.com/playguard/internal/domain"
)

// DefaultProximity is the fraction of a threshold at which proactive
// advisories start firing.
const DefaultProximity = 0.9

// Publisher receives engine outcomes. Delivery, message wording, and the
// actual platform timeout are downstream concerns.
type Publisher interface {
	PublishAction(ctx context.Context, action domain.Action) error
	PublishAdvisory(ctx context.Context, advisory domain.Advisory) error
	PublishRevocation(ctx context.Context, rev domain.Revocation) error
	PublishAudit(ctx context.Context, entry domain.AuditEntry) error
}

// Result is the outcome of one evaluation pass for one user.
type Result struct {
	Action     *domain.Action
	Advisories []domain.Advisory
}

// Engine wires the session tracker, window aggregator, rule resolver,
// escalation evaluator, and proactive warning advisor behind a per-user
// exclusive section.
type Engine struct {
	store     domain.Store
	publisher Publisher
	locks     *userLocks
	proximity float64
	logger    *log.Logger
}

// Option configures optional behaviour for the Engine.
type Option func(*Engine)

// WithLogger overrides the logger used to report anomalies and errors.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithProximity sets the advisory proximity fraction. Values outside
// (0, 1) disable proactive advisories.
func WithProximity(fraction float64) Option {
	return func(e *Engine) {
		e.proximity = fraction
	}
}

// WithPublisher attaches the downstream sink for actions and advisories.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

// New constructs an Engine over the given store.
func New(store domain.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		locks:     newUserLocks(),
		proximity: DefaultProximity,
		logger:    log.New(log.Writer(), "[engine] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) publishResult(ctx context.Context, result *Result) {
	if e.publisher == nil || result == nil {
		return
	}
	if result.Action != nil {
		if err := e.publisher.PublishAction(ctx, *result.Action); err != nil {
			e.logger.Printf("publish action failed (user=%s, rule=%s): %v", result.Action.UserID, result.Action.RuleID, err)
			recordPublishError("action")
		}
	}
	for _, advisory := range result.Advisories {
		if err := e.publisher.PublishAdvisory(ctx, advisory); err != nil {
			e.logger.Printf("publish advisory failed (user=%s, rule=%s): %v", advisory.UserID, advisory.RuleID, err)
			recordPublishError("advisory")
		}
	}
}
