package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactStatus tracks whether the back office has seen and answered a message
type ContactStatus string

const (
	ContactStatusUnread  ContactStatus = "UNREAD"
	ContactStatusRead    ContactStatus = "READ"
	ContactStatusReplied ContactStatus = "REPLIED"
)

// ContactMessage is an inquiry submitted through the public contact form
type ContactMessage struct {
	ID        string        `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string        `gorm:"type:varchar(255);not null" json:"name"`
	Email     string        `gorm:"type:varchar(255);not null" json:"email"`
	Subject   string        `gorm:"type:varchar(255);not null" json:"subject"`
	Message   string        `gorm:"type:text;not null" json:"message"`
	Status    ContactStatus `gorm:"type:varchar(20);not null;default:'UNREAD';index" json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// TableName specifies the table name for ContactMessage
func (ContactMessage) TableName() string {
	return "contact_messages"
}

func (m *ContactMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
