package chat

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Router fans envelopes out to the endpoints registered on a board. Delivery
// is attempted independently per endpoint: a dead endpoint is evicted from
// the registry and closed, and the rest of the fan-out proceeds.
type Router struct {
	registry *Registry
}

func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// Broadcast delivers env to every endpoint on the board except, when not
// uuid.Nil, the excluded identity. Failures are handled by eviction and never
// surfaced to the sender.
func (rt *Router) Broadcast(boardID uuid.UUID, env *Envelope, exclude uuid.UUID) {
	payload, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("board_id", boardID.String()).Msg("broadcast: marshal envelope")
		return
	}

	for _, ep := range rt.registry.snapshot(boardID) {
		if exclude != uuid.Nil && ep.UserID() == exclude {
			continue
		}
		if deliverErr := ep.deliver(payload); deliverErr != nil {
			rt.evict(boardID, ep)
		}
	}
}

// SendDirect delivers env to exactly one endpoint if registered. Fire and
// forget: an absent target or a failed delivery is treated as already
// evicted, with no error surfaced.
func (rt *Router) SendDirect(boardID, userID uuid.UUID, env *Envelope) {
	ep, ok := rt.registry.get(boardID, userID)
	if !ok {
		return
	}

	payload, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("board_id", boardID.String()).Msg("send direct: marshal envelope")
		return
	}

	if deliverErr := ep.deliver(payload); deliverErr != nil {
		rt.evict(boardID, ep)
	}
}

func (rt *Router) evict(boardID uuid.UUID, ep *Endpoint) {
	rt.registry.Unregister(boardID, ep.UserID(), ep)
	ep.Close("delivery failed")
	log.Debug().
		Str("board_id", boardID.String()).
		Str("user_id", ep.UserID().String()).
		Msg("evicted unreachable endpoint")
}
