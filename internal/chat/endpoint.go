package chat

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Conn is the transport a session and its endpoint operate on. The websocket
// layer wraps the real connection; tests use in-memory pipes.
type Conn interface {
	// Read blocks until the next inbound frame, the peer disconnects, or ctx
	// is canceled.
	Read(ctx context.Context) ([]byte, error)
	// Write sends one frame, honoring ctx for timeout.
	Write(ctx context.Context, data []byte) error
	// Close tears the connection down. Safe to call more than once.
	Close(reason string) error
}

// errEndpointDead is returned by deliver when the endpoint can no longer
// accept frames: its writer failed, it was closed, or its queue is full
// (a stalled peer must not hold up fan-out to the rest of the board).
var errEndpointDead = errors.New("chat: endpoint dead")

// Endpoint is the live writable handle for a single connection. Outbound
// frames go through a bounded queue drained by a dedicated writer goroutine,
// so delivery order is FIFO per endpoint and a slow peer never blocks the
// caller.
type Endpoint struct {
	userID   uuid.UUID
	username string

	conn         Conn
	queue        chan []byte
	writeTimeout time.Duration

	closeOnce sync.Once
	closed    chan struct{}
	failed    atomic.Bool
}

func NewEndpoint(userID uuid.UUID, username string, conn Conn, queueSize int, writeTimeout time.Duration) *Endpoint {
	e := &Endpoint{
		userID:       userID,
		username:     username,
		conn:         conn,
		queue:        make(chan []byte, queueSize),
		writeTimeout: writeTimeout,
		closed:       make(chan struct{}),
	}
	go e.writeLoop()
	return e
}

func (e *Endpoint) UserID() uuid.UUID { return e.userID }
func (e *Endpoint) Username() string  { return e.username }

// deliver enqueues one frame for the writer goroutine. It never blocks:
// a full queue means the peer has stalled past its budget and the endpoint
// is reported dead so the caller can evict it.
func (e *Endpoint) deliver(payload []byte) error {
	if e.failed.Load() {
		return errEndpointDead
	}
	select {
	case <-e.closed:
		return errEndpointDead
	default:
	}
	select {
	case e.queue <- payload:
		return nil
	default:
		return errEndpointDead
	}
}

// Close shuts the endpoint down and closes the underlying connection.
// Idempotent.
func (e *Endpoint) Close(reason string) {
	e.closeOnce.Do(func() {
		close(e.closed)
		_ = e.conn.Close(reason)
	})
}

func (e *Endpoint) writeLoop() {
	for {
		select {
		case <-e.closed:
			return
		case payload := <-e.queue:
			ctx, cancel := context.WithTimeout(context.Background(), e.writeTimeout)
			err := e.conn.Write(ctx, payload)
			cancel()
			if err != nil {
				e.failed.Store(true)
				return
			}
		}
	}
}
