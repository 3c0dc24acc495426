package model

import (
	"encoding/json"
	"time"
)

// Session is the API view of a group session (not the GORM entity).
type Session struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description,omitempty"`
	CreatorID       string        `json:"creator_id"`
	Mode            SessionMode   `json:"mode"`
	MaxParticipants int           `json:"max_participants"`
	IsActive        bool          `json:"is_active"`
	Participants    []Participant `json:"participants,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Participant is the API view of a membership row.
type Participant struct {
	UserID   string            `json:"user_id"`
	Role     ParticipantRole   `json:"role"`
	Status   ParticipantStatus `json:"status"`
	JoinedAt time.Time         `json:"joined_at"`
}

// Message is the API view of a session message.
type Message struct {
	ID        string      `json:"id"`
	SessionID string      `json:"session_id"`
	UserID    string      `json:"user_id"`
	Body      string      `json:"body,omitempty"`
	Type      MessageType `json:"type"`
	FilePath  string      `json:"file_path,omitempty"`
	FileSize  int64       `json:"file_size,omitempty"`
	FileMime  string      `json:"file_mime,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// CreateSessionRequest is the request body for POST /sessions.
type CreateSessionRequest struct {
	Title           string `json:"title" binding:"required,max=255"`
	Description     string `json:"description"`
	Mode            string `json:"mode" binding:"required,oneof=audio message"`
	MaxParticipants int    `json:"max_participants" binding:"required,min=2"`
}

// UpdateSessionRequest is the request body for PATCH /sessions/:id.
// Mode is accepted so a mismatch can be rejected explicitly; it is never
// applied. Description is a pointer so an omitted field leaves the stored
// value alone while an empty string clears it.
type UpdateSessionRequest struct {
	Title           string  `json:"title" binding:"required,max=255"`
	Description     *string `json:"description"`
	Mode            string  `json:"mode"`
	MaxParticipants int     `json:"max_participants" binding:"required,min=2"`
}

// CreateSessionResponse is the response for POST /sessions.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	WSURL     string `json:"ws_url"`
	IsActive  bool   `json:"is_active"`
}

// InviteRequest is the request body for POST /sessions/:id/invite.
type InviteRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// PostMessageRequest is the request body for POST /sessions/:id/messages.
type PostMessageRequest struct {
	Body string `json:"body" binding:"required"`
	Type string `json:"type" binding:"omitempty,oneof=text audio"`
}

// SessionParticipantsResponse is the response for GET /sessions/:id/participants.
type SessionParticipantsResponse struct {
	SessionID    string        `json:"session_id"`
	Participants []Participant `json:"participants"`
}

// SessionMessagesResponse is the response for GET /sessions/:id/messages.
type SessionMessagesResponse struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}

// SignalType enumerates relayable signaling events.
type SignalType string

const (
	SignalTypeOffer        SignalType = "offer"
	SignalTypeAnswer       SignalType = "answer"
	SignalTypeICECandidate SignalType = "ice-candidate"
	SignalTypeJoin         SignalType = "join"
	SignalTypeLeave        SignalType = "leave"
	SignalTypeMute         SignalType = "mute"
	SignalTypeUnmute       SignalType = "unmute"
)

// ValidSignalType reports whether t is one of the relayable event types.
func ValidSignalType(t SignalType) bool {
	switch t {
	case SignalTypeOffer, SignalTypeAnswer, SignalTypeICECandidate,
		SignalTypeJoin, SignalTypeLeave, SignalTypeMute, SignalTypeUnmute:
		return true
	}
	return false
}

// SignalEnvelope is an ephemeral relay message. To empty means broadcast to
// every other peer in the session. Never persisted, delivered at most once.
type SignalEnvelope struct {
	Type SignalType      `json:"type"`
	From string          `json:"from"`
	To   string          `json:"to,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}
