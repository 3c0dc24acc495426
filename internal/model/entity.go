package model

import "time"

// SessionMode is fixed at creation and never changes afterwards.
type SessionMode string

const (
	SessionModeAudio   SessionMode = "audio"
	SessionModeMessage SessionMode = "message"
)

// ParticipantRole distinguishes the session owner from everyone else.
type ParticipantRole string

const (
	ParticipantRoleCreator     ParticipantRole = "creator"
	ParticipantRoleParticipant ParticipantRole = "participant"
)

// ParticipantStatus is the membership state. Removed participants keep their
// row so history stays queryable; only the creator can bring them back.
type ParticipantStatus string

const (
	ParticipantStatusPending ParticipantStatus = "pending"
	ParticipantStatusActive  ParticipantStatus = "active"
	ParticipantStatusRemoved ParticipantStatus = "removed"
)

// MessageType mirrors the session mode a message was posted under.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeAudio MessageType = "audio"
)

// GroupSession — group counseling session (GORM).
type GroupSession struct {
	ID              string    `gorm:"type:uuid;primaryKey"`
	Title           string    `gorm:"size:255;not null"`
	Description     string    `gorm:"type:text"`
	CreatorID       string    `gorm:"type:uuid;not null;index"`
	Mode            string    `gorm:"size:10;not null;default:message"` // audio, message
	MaxParticipants int       `gorm:"not null;default:10"`
	IsActive        bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`

	Participants []SessionParticipant `gorm:"foreignKey:SessionID"`
}

func (GroupSession) TableName() string { return "group_sessions" }

// SessionParticipant — membership row, one per (session, user).
type SessionParticipant struct {
	SessionID string    `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"type:uuid;primaryKey"`
	Role      string    `gorm:"size:20;not null;default:participant"` // creator, participant
	Status    string    `gorm:"size:20;not null;default:pending"`     // pending, active, removed
	JoinedAt  time.Time `gorm:"column:joined_at;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (SessionParticipant) TableName() string { return "session_participants" }

// SessionMessage — persisted chat/audio-event entry in a session.
type SessionMessage struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	SessionID string    `gorm:"type:uuid;not null;index"`
	UserID    string    `gorm:"type:uuid;not null;index"`
	Body      string    `gorm:"type:text"`
	Type      string    `gorm:"size:10;not null;default:text"` // text, audio
	FilePath  string    `gorm:"size:512"`
	FileSize  int64     `gorm:"default:0"`
	FileMime  string    `gorm:"size:100"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (SessionMessage) TableName() string { return "session_messages" }
