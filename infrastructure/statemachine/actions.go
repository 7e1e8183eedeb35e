package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/duelist/domain/combat"
)

// TransitionPayload carries the target state and the action label that
// becomes the actor's LastAction.
type TransitionPayload struct {
	To    combat.State
	Label string
}

// recordTransition stamps the actor with the transition.
// In statekit, actions receive a pointer to the context. Since our context is *Context,
// actions receive **Context.
func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).Actor == nil {
		return
	}

	c := *ctx
	payload, ok := event.Payload.(TransitionPayload)
	if !ok {
		return
	}
	if payload.Label != "" {
		c.Actor.LastAction = payload.Label
		c.Actor.LastActionAt = c.Now
	}
}
