package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Session owns one connection's lifecycle on a board: register, announce,
// receive loop, deregister, announce departure. Authentication and
// authorization have already happened by the time a Session is constructed;
// a session that exists is allowed to be here.
type Session struct {
	boardID  uuid.UUID
	userID   uuid.UUID
	username string

	conn     Conn
	registry *Registry
	router   *Router

	queueSize    int
	writeTimeout time.Duration
}

func NewSession(boardID, userID uuid.UUID, username string, conn Conn, registry *Registry, router *Router, queueSize int, writeTimeout time.Duration) *Session {
	return &Session{
		boardID:      boardID,
		userID:       userID,
		username:     username,
		conn:         conn,
		registry:     registry,
		router:       router,
		queueSize:    queueSize,
		writeTimeout: writeTimeout,
	}
}

// Run registers the session's endpoint, announces the join, and blocks in the
// receive loop until the connection drops. Any exit path deregisters exactly
// once and, when this session was still the board's current entry for the
// identity, broadcasts the leave notice.
func (s *Session) Run(ctx context.Context) {
	ep := NewEndpoint(s.userID, s.username, s.conn, s.queueSize, s.writeTimeout)

	if old := s.registry.Register(s.boardID, s.userID, ep); old != nil {
		// Latest wins: close the superseded connection instead of leaking it.
		old.Close("superseded by newer connection")
	}

	defer func() {
		removed := s.registry.Unregister(s.boardID, s.userID, ep)
		ep.Close("session closed")
		if removed {
			// The departing identity cannot receive this, so no exclusion is
			// needed after deregistration.
			s.router.Broadcast(s.boardID, NewUserLeft(s.userID, s.username), uuid.Nil)
		}
		log.Debug().
			Str("board_id", s.boardID.String()).
			Str("user_id", s.userID.String()).
			Msg("session closed")
	}()

	s.router.Broadcast(s.boardID, NewUserJoined(s.userID, s.username), s.userID)
	s.router.SendDirect(s.boardID, s.userID,
		NewSystem(fmt.Sprintf("Welcome to the board chat, %s!", s.username)))

	log.Info().
		Str("board_id", s.boardID.String()).
		Str("user_id", s.userID.String()).
		Str("username", s.username).
		Msg("session active")

	for {
		data, err := s.conn.Read(ctx)
		if err != nil {
			return
		}
		s.dispatch(data)
	}
}

// dispatch routes one inbound frame. Chat and task updates echo back to the
// sender; typing indicators never do.
func (s *Session) dispatch(data []byte) {
	switch frame := ParseInbound(data).(type) {
	case ChatFrame:
		s.router.Broadcast(s.boardID, NewChat(s.userID, s.username, frame.Message), uuid.Nil)
	case TypingFrame:
		s.router.Broadcast(s.boardID, NewTyping(s.userID, s.username, frame.IsTyping), s.userID)
	case TaskUpdateFrame:
		s.router.Broadcast(s.boardID, NewTaskUpdate(s.userID, s.username, frame.TaskID, frame.Action, frame.Details), uuid.Nil)
	case RawFrame:
		s.router.Broadcast(s.boardID, NewChat(s.userID, s.username, frame.Text), uuid.Nil)
	}
}
