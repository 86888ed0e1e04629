package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentStatus represents the booking lifecycle
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
)

// Appointment is a valuation appointment booked through the public site
type Appointment struct {
	ID        string            `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string            `gorm:"type:varchar(255);not null" json:"name"`
	Email     string            `gorm:"type:varchar(255);not null" json:"email"`
	Phone     string            `gorm:"type:varchar(50);not null" json:"phone"`
	Location  string            `gorm:"type:varchar(255);not null;index" json:"location"`
	ItemType  string            `gorm:"type:varchar(120);not null" json:"item_type"`
	DateTime  time.Time         `gorm:"not null" json:"date_time"`
	Notes     string            `gorm:"type:text" json:"notes,omitempty"`
	PhotoURL  string            `gorm:"type:varchar(1024)" json:"photo_url,omitempty"`
	Status    AppointmentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// TableName specifies the table name for Appointment
func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
