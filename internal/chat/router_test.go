package chat

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_BroadcastWithExclusion(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	router := NewRouter(reg)
	boardID := uuid.New()

	_, aliceConn, aliceID := newTestEndpoint(reg, boardID, "alice")
	_, bobConn, _ := newTestEndpoint(reg, boardID, "bob")

	router.Broadcast(boardID, NewTyping(aliceID, "alice", true), aliceID)

	require.Eventually(t, func() bool {
		return bobConn.received(t, KindTyping)
	}, waitFor, tick)

	assert.False(t, aliceConn.received(t, KindTyping), "sender excluded from its own typing event")
}

func TestRouter_BroadcastEchoesWithoutExclusion(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	router := NewRouter(reg)
	boardID := uuid.New()

	_, aliceConn, aliceID := newTestEndpoint(reg, boardID, "alice")
	_, bobConn, _ := newTestEndpoint(reg, boardID, "bob")

	router.Broadcast(boardID, NewChat(aliceID, "alice", "hi"), uuid.Nil)

	require.Eventually(t, func() bool {
		return aliceConn.received(t, KindChat) && bobConn.received(t, KindChat)
	}, waitFor, tick)
}

func TestRouter_BoardsDoNotLeak(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	router := NewRouter(reg)
	boardA := uuid.New()
	boardB := uuid.New()

	_, _, aliceID := newTestEndpoint(reg, boardA, "alice")
	_, aliceAConn, _ := newTestEndpoint(reg, boardA, "alice2")
	_, otherConn, _ := newTestEndpoint(reg, boardB, "someone-else")

	router.Broadcast(boardA, NewChat(aliceID, "alice", "board A only"), uuid.Nil)

	require.Eventually(t, func() bool {
		return aliceAConn.received(t, KindChat)
	}, waitFor, tick)

	assert.False(t, otherConn.received(t, KindChat), "envelope crossed board boundary")
}

func TestRouter_ClosedEndpointIsEvictedWithoutAbortingFanout(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	router := NewRouter(reg)
	boardID := uuid.New()

	deadEp, _, deadID := newTestEndpoint(reg, boardID, "dead")
	_, liveConn, _ := newTestEndpoint(reg, boardID, "live")

	deadEp.Close("gone")

	router.Broadcast(boardID, NewSystem("ping"), uuid.Nil)

	require.Eventually(t, func() bool {
		return liveConn.received(t, KindSystem)
	}, waitFor, tick)

	assert.NotContains(t, reg.ListOnline(boardID), deadID)
	assert.Equal(t, 1, reg.Count(boardID))
}

func TestRouter_FailedWriterLeadsToEviction(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	router := NewRouter(reg)
	boardID := uuid.New()

	_, deadConn, deadID := newTestEndpoint(reg, boardID, "flaky")
	deadConn.setFailWrites()

	// First delivery enqueues fine; the writer then fails and marks the
	// endpoint dead. Subsequent deliveries observe that and evict.
	router.Broadcast(boardID, NewSystem("one"), uuid.Nil)

	require.Eventually(t, func() bool {
		router.Broadcast(boardID, NewSystem("again"), uuid.Nil)
		return reg.Count(boardID) == 0
	}, waitFor, tick)

	assert.NotContains(t, reg.ListOnline(boardID), deadID)
}

func TestRouter_SendDirect(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	router := NewRouter(reg)
	boardID := uuid.New()

	_, aliceConn, aliceID := newTestEndpoint(reg, boardID, "alice")
	_, bobConn, _ := newTestEndpoint(reg, boardID, "bob")

	router.SendDirect(boardID, aliceID, NewSystem("just for you"))

	require.Eventually(t, func() bool {
		return aliceConn.received(t, KindSystem)
	}, waitFor, tick)

	assert.False(t, bobConn.received(t, KindSystem))

	// Absent target is fire-and-forget.
	router.SendDirect(boardID, uuid.New(), NewSystem("nobody home"))
	router.SendDirect(uuid.New(), aliceID, NewSystem("no such board"))
}

func TestRouter_PerEndpointFIFO(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	router := NewRouter(reg)
	boardID := uuid.New()

	_, conn, _ := newTestEndpoint(reg, boardID, "alice")

	const n = 10
	sender := uuid.New()
	for i := range n {
		router.Broadcast(boardID, NewChat(sender, "sender", fmt.Sprintf("msg-%d", i)), uuid.Nil)
	}

	require.Eventually(t, func() bool {
		return len(conn.envelopes(t)) == n
	}, waitFor, tick)

	for i, env := range conn.envelopes(t) {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), env.Message)
	}
}
