package domain

import "errors"

var (
	// ErrNotFound indicates an unknown activity, group, rule, or user.
	// Mutating calls that hit it leave no partial state behind.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRule rejects a malformed threshold rule before it is stored.
	ErrInvalidRule = errors.New("invalid threshold rule")
	// ErrStaleClock marks an event timestamp that precedes already-recorded
	// state for the same session. The event is dropped and logged; it never
	// fails a batch.
	ErrStaleClock = errors.New("stale event timestamp")
	// ErrRepositoryUnavailable wraps storage faults. It aborts only the
	// affected user's evaluation pass.
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
