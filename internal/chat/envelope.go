package chat

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind tags the outbound envelope variants.
type Kind string

const (
	KindChat       Kind = "chat"
	KindTyping     Kind = "typing"
	KindTaskUpdate Kind = "task_update"
	KindSystem     Kind = "system"
	KindUserJoined Kind = "user_joined"
	KindUserLeft   Kind = "user_left"
)

// Envelope is the wire-level unit sent to clients. Transient: it lives only
// in process memory, there is no persistence or history replay.
type Envelope struct {
	Type      Kind            `json:"type"`
	UserID    string          `json:"user_id,omitempty"`
	Username  string          `json:"username,omitempty"`
	Message   string          `json:"message,omitempty"`
	IsTyping  *bool           `json:"is_typing,omitempty"`
	TaskID    string          `json:"task_id,omitempty"`
	Action    string          `json:"action,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewChat(userID uuid.UUID, username, message string) *Envelope {
	return &Envelope{
		Type:      KindChat,
		UserID:    userID.String(),
		Username:  username,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

func NewTyping(userID uuid.UUID, username string, isTyping bool) *Envelope {
	return &Envelope{
		Type:      KindTyping,
		UserID:    userID.String(),
		Username:  username,
		IsTyping:  &isTyping,
		Timestamp: time.Now().UTC(),
	}
}

func NewTaskUpdate(userID uuid.UUID, username, taskID, action string, details json.RawMessage) *Envelope {
	if details == nil {
		details = json.RawMessage("{}")
	}
	return &Envelope{
		Type:      KindTaskUpdate,
		UserID:    userID.String(),
		Username:  username,
		TaskID:    taskID,
		Action:    action,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

func NewSystem(message string) *Envelope {
	return &Envelope{
		Type:      KindSystem,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

func NewUserJoined(userID uuid.UUID, username string) *Envelope {
	return &Envelope{
		Type:      KindUserJoined,
		UserID:    userID.String(),
		Username:  username,
		Timestamp: time.Now().UTC(),
	}
}

func NewUserLeft(userID uuid.UUID, username string) *Envelope {
	return &Envelope{
		Type:      KindUserLeft,
		UserID:    userID.String(),
		Username:  username,
		Timestamp: time.Now().UTC(),
	}
}

// InboundFrame is the closed set of frames a client can send. A type switch
// over {ChatFrame, TypingFrame, TaskUpdateFrame, RawFrame} covers every case.
type InboundFrame interface {
	inboundFrame()
}

// ChatFrame is a structured chat message.
type ChatFrame struct {
	Message string
}

// TypingFrame signals the sender's typing state.
type TypingFrame struct {
	IsTyping bool
}

// TaskUpdateFrame notifies the board of a task change. Details is opaque to
// the hub and relayed as-is.
type TaskUpdateFrame struct {
	TaskID  string
	Action  string // created, updated, deleted
	Details json.RawMessage
}

// RawFrame is the fallback for payloads that fail structured parsing,
// including unknown type tags. Legacy clients send bare plain text; it is
// relayed as a chat message.
type RawFrame struct {
	Text string
}

func (ChatFrame) inboundFrame()       {}
func (TypingFrame) inboundFrame()     {}
func (TaskUpdateFrame) inboundFrame() {}
func (RawFrame) inboundFrame()        {}

// ParseInbound classifies a raw client frame. A missing type tag defaults to
// chat; anything that is not a structured payload with a recognized tag
// degrades to RawFrame rather than being dropped.
func ParseInbound(data []byte) InboundFrame {
	var in struct {
		Type     string          `json:"type"`
		Message  string          `json:"message"`
		IsTyping bool            `json:"is_typing"`
		TaskID   string          `json:"task_id"`
		Action   string          `json:"action"`
		Details  json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return RawFrame{Text: string(data)}
	}

	switch in.Type {
	case "", string(KindChat):
		return ChatFrame{Message: in.Message}
	case string(KindTyping):
		return TypingFrame{IsTyping: in.IsTyping}
	case string(KindTaskUpdate):
		return TaskUpdateFrame{TaskID: in.TaskID, Action: in.Action, Details: in.Details}
	default:
		return RawFrame{Text: string(data)}
	}
}
