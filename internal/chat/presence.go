package chat

import (
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Registry tracks which identities are connected to which board. It is the
// only mutable state shared across sessions; every mutation goes through
// Register/Unregister under a single mutex so the one-endpoint-per-
// (board, identity) invariant holds under arbitrary interleavings.
//
// Board entries are created lazily on first registration and pruned as soon
// as the last member leaves; an empty board never lingers in the map.
type Registry struct {
	mu     sync.Mutex
	boards map[uuid.UUID]map[uuid.UUID]*Endpoint
}

func NewRegistry() *Registry {
	return &Registry{
		boards: make(map[uuid.UUID]map[uuid.UUID]*Endpoint),
	}
}

// Register inserts ep under (boardID, userID). When the identity already has
// an endpoint on the board the new connection wins and the prior endpoint is
// returned so the caller can close it explicitly instead of leaking a
// dangling connection.
func (r *Registry) Register(boardID, userID uuid.UUID, ep *Endpoint) (superseded *Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.boards[boardID]
	if !ok {
		members = make(map[uuid.UUID]*Endpoint)
		r.boards[boardID] = members
	}

	superseded = members[userID]
	members[userID] = ep
	return superseded
}

// Unregister removes the entry for (boardID, userID), but only when the
// registered endpoint is ep; a superseded session's deferred cleanup must not
// remove its replacement. A nil ep matches any endpoint. Reports whether an
// entry was removed: idempotent, never an error for absent entries.
func (r *Registry) Unregister(boardID, userID uuid.UUID, ep *Endpoint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.boards[boardID]
	if !ok {
		return false
	}

	current, ok := members[userID]
	if !ok {
		return false
	}
	if ep != nil && current != ep {
		return false
	}

	delete(members, userID)
	if len(members) == 0 {
		delete(r.boards, boardID)
	}
	return true
}

// ListOnline returns a snapshot of the identities currently connected to the
// board. No ordering guarantee.
func (r *Registry) ListOnline(boardID uuid.UUID) []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.boards[boardID]
	if !ok {
		return []uuid.UUID{}
	}
	return lo.Keys(members)
}

// Count returns the number of live connections on the board.
func (r *Registry) Count(boardID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boards[boardID])
}

// get returns the endpoint for (boardID, userID) if registered.
func (r *Registry) get(boardID, userID uuid.UUID) (*Endpoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.boards[boardID]
	if !ok {
		return nil, false
	}
	ep, ok := members[userID]
	return ep, ok
}

// snapshot copies the board's endpoints out from under the lock so delivery
// attempts never run while holding it.
func (r *Registry) snapshot(boardID uuid.UUID) []*Endpoint {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.boards[boardID]
	if !ok {
		return nil
	}
	return lo.Values(members)
}
