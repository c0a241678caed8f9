package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	testQueueSize    = 16
	testWriteTimeout = time.Second
	waitFor          = 2 * time.Second
	tick             = 5 * time.Millisecond
)

var errConnClosed = errors.New("fake conn closed")

// fakeConn is an in-memory chat.Conn. The test side pushes inbound frames
// with push and inspects outbound frames with envelopes.
type fakeConn struct {
	in chan []byte

	mu         sync.Mutex
	writes     [][]byte
	failWrites bool

	closeOnce   sync.Once
	closed      chan struct{}
	closeReason string
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.in:
		return data, nil
	case <-c.closed:
		return nil, errConnClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) Write(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWrites {
		return errors.New("write to dead peer")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	c.writes = append(c.writes, buf)
	return nil
}

func (c *fakeConn) Close(reason string) error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closeReason = reason
		c.mu.Unlock()
		close(c.closed)
	})
	return nil
}

// push feeds one inbound frame to the session reading this conn.
func (c *fakeConn) push(data string) {
	c.in <- []byte(data)
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) reason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeReason
}

func (c *fakeConn) setFailWrites() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failWrites = true
}

// envelopes decodes everything written to the conn so far.
func (c *fakeConn) envelopes(t *testing.T) []Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Envelope, 0, len(c.writes))
	for _, w := range c.writes {
		var env Envelope
		require.NoError(t, json.Unmarshal(w, &env))
		out = append(out, env)
	}
	return out
}

// findKind returns the first envelope of the given kind written to the conn.
func findKind(t *testing.T, c *fakeConn, kind Kind) Envelope {
	t.Helper()
	for _, env := range c.envelopes(t) {
		if env.Type == kind {
			return env
		}
	}
	t.Fatalf("no %s envelope delivered", kind)
	return Envelope{}
}

// received reports whether the conn has seen an envelope of the given kind.
func (c *fakeConn) received(t *testing.T, kind Kind) bool {
	t.Helper()
	for _, env := range c.envelopes(t) {
		if env.Type == kind {
			return true
		}
	}
	return false
}

// newTestEndpoint registers a fresh endpoint on the registry and returns it
// with its conn.
func newTestEndpoint(reg *Registry, boardID uuid.UUID, username string) (*Endpoint, *fakeConn, uuid.UUID) {
	conn := newFakeConn()
	userID := uuid.New()
	ep := NewEndpoint(userID, username, conn, testQueueSize, testWriteTimeout)
	reg.Register(boardID, userID, ep)
	return ep, conn, userID
}
