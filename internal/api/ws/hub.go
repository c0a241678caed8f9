package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/teamflow/boardchat/internal/auth"
	"github.com/teamflow/boardchat/internal/chat"
)

// Hub owns the WebSocket entry point for board channels. One ServeBoard call
// runs one session for the life of the connection.
type Hub struct {
	verifier   *auth.Verifier
	authorizer *auth.Authorizer
	registry   *chat.Registry
	router     *chat.Router

	queueSize    int
	writeTimeout time.Duration
}

func NewHub(verifier *auth.Verifier, authorizer *auth.Authorizer, registry *chat.Registry, router *chat.Router, queueSize int, writeTimeout time.Duration) *Hub {
	return &Hub{
		verifier:     verifier,
		authorizer:   authorizer,
		registry:     registry,
		router:       router,
		queueSize:    queueSize,
		writeTimeout: writeTimeout,
	}
}

// ServeBoard handles a connection attempt to a board channel. The bearer
// token travels as a query parameter because not every client runtime can
// set headers on the WebSocket handshake.
//
// Verification and authorization run before the upgrade. A rejected client
// still gets the 1008 close code, which requires completing the handshake:
// the connection is accepted and closed immediately, with nothing registered
// and no read loop started.
func (h *Hub) ServeBoard(w http.ResponseWriter, r *http.Request) {
	boardID, err := uuid.Parse(chi.URLParam(r, "boardID"))
	if err != nil {
		http.Error(w, "invalid board id", http.StatusBadRequest)
		return
	}

	token := r.URL.Query().Get("token")

	identity, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			log.Debug().Str("board_id", boardID.String()).Str("reason", string(authErr.Reason)).Msg("websocket token rejected")
			h.rejectPolicy(w, r, "invalid token")
			return
		}
		log.Error().Err(err).Msg("websocket token verification")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if _, err = h.authorizer.Authorize(r.Context(), identity, boardID); err != nil {
		var accessErr *auth.AccessError
		if errors.As(err, &accessErr) {
			log.Debug().
				Str("board_id", boardID.String()).
				Str("user_id", identity.ID.String()).
				Str("reason", string(accessErr.Reason)).
				Msg("websocket access denied")
			h.rejectPolicy(w, r, "access denied")
			return
		}
		log.Error().Err(err).Msg("websocket authorization")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	session := chat.NewSession(
		boardID, identity.ID, identity.Username,
		&wsConn{conn: conn},
		h.registry, h.router,
		h.queueSize, h.writeTimeout,
	)
	session.Run(r.Context())
}

// rejectPolicy completes the handshake and immediately closes with a
// policy-violation status. Only the generic reason reaches the client.
func (h *Hub) rejectPolicy(w http.ResponseWriter, r *http.Request, reason string) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	_ = conn.Close(websocket.StatusPolicyViolation, reason)
}
