package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SenderRole identifies which side of the conversation authored a message
type SenderRole string

const (
	SenderRoleUser  SenderRole = "user"
	SenderRoleAdmin SenderRole = "admin"
)

// AttachmentMarker prefixes the body of messages that carry a file, so the
// message always has displayable text even when the client renders the link.
const AttachmentMarker = "\U0001F4CE"

// ChatMessage is a single entry in a session transcript. Messages are
// append-only: nothing is ever mutated after insert except the IsRead flag,
// which is flipped in bulk by MarkSessionRead. CreatedAt is the sole ordering
// key; arrival order over the live feed carries no guarantee.
type ChatMessage struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID   string     `gorm:"type:uuid;not null;index" json:"session_id"`
	SenderRole  SenderRole `gorm:"type:varchar(10);not null" json:"sender_role"`
	SenderName  string     `gorm:"type:varchar(255)" json:"sender_name,omitempty"`
	SenderEmail string     `gorm:"type:varchar(255)" json:"sender_email,omitempty"`
	Body        string     `gorm:"type:text;not null" json:"body"`
	FileURL     string     `gorm:"type:varchar(1024)" json:"file_url,omitempty"`
	FileName    string     `gorm:"type:varchar(255)" json:"file_name,omitempty"`
	FileType    string     `gorm:"type:varchar(120)" json:"file_type,omitempty"`
	IsRead      bool       `gorm:"not null;default:false" json:"is_read"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`

	// Relationships
	Session ChatSession `gorm:"foreignKey:SessionID" json:"-"`
}

// TableName specifies the table name for ChatMessage
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// BeforeCreate assigns the opaque message identifier
func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// HasAttachment reports whether the message carries a file descriptor
func (m *ChatMessage) HasAttachment() bool {
	return m.FileURL != ""
}

// Attachment is the descriptor returned by the upload step and referenced by
// the follow-up attachment message.
type Attachment struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
}
