package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionStatus represents the lifecycle state of a chat session
type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusWaiting SessionStatus = "waiting"
	SessionStatusClosed  SessionStatus = "closed"
)

// ChatSession represents one continuous visitor conversation. Sessions are
// closed by an operator (or the stale-session cron job) and are never deleted;
// messages outlive a closed session for audit history.
type ChatSession struct {
	ID            string        `gorm:"type:uuid;primaryKey" json:"id"`
	VisitorName   string        `gorm:"type:varchar(255)" json:"visitor_name,omitempty"`
	VisitorEmail  string        `gorm:"type:varchar(255)" json:"visitor_email,omitempty"`
	Status        SessionStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	LastMessageAt time.Time     `gorm:"not null;index" json:"last_message_at"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	// Relationships
	Messages []ChatMessage `gorm:"foreignKey:SessionID" json:"messages,omitempty"`
}

// TableName specifies the table name for ChatSession
func (ChatSession) TableName() string {
	return "chat_sessions"
}

// BeforeCreate assigns the opaque session identifier
func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.LastMessageAt.IsZero() {
		s.LastMessageAt = time.Now().UTC()
	}
	return nil
}

// IsOpen reports whether the session still appears in the admin queue
func (s *ChatSession) IsOpen() bool {
	return s.Status == SessionStatusActive || s.Status == SessionStatusWaiting
}
