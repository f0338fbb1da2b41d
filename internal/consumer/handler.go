package consumer

import (
	"context"

	"example.com/playguard/internal/engine"
	"example.com/playguard/internal/events"
)

// EngineHandler forwards presence changes to the enforcement engine.
type EngineHandler struct {
	engine *engine.Engine
}

// NewEngineHandler wraps an engine in the Handler interface.
func NewEngineHandler(eng *engine.Engine) *EngineHandler {
	return &EngineHandler{engine: eng}
}

// Handle evaluates a single presence change. Enforcement outcomes are
// published by the engine itself; the processor only needs the error.
func (h *EngineHandler) Handle(ctx context.Context, event events.PresenceChanged) error {
	_, err := h.engine.HandleActivityChanged(ctx, event.UserID, event.Activity, event.Active, event.At)
	return err
}
