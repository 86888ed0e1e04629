package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransportRequest is a request for secure armored transport of valuables
type TransportRequest struct {
	ID              string     `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string     `gorm:"type:varchar(255);not null" json:"name"`
	Email           string     `gorm:"type:varchar(255);not null" json:"email"`
	Phone           string     `gorm:"type:varchar(50);not null" json:"phone"`
	PickupAddress   string     `gorm:"type:text;not null" json:"pickup_address"`
	EstimatedValue  string     `gorm:"type:varchar(120);not null" json:"estimated_value"`
	ItemDescription string     `gorm:"type:text" json:"item_description,omitempty"`
	PreferredDate   *time.Time `json:"preferred_date,omitempty"`
	Notes           string     `gorm:"type:text" json:"notes,omitempty"`
	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName specifies the table name for TransportRequest
func (TransportRequest) TableName() string {
	return "transport_requests"
}

func (r *TransportRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
