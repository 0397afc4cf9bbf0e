package domain

import (
	"time"
)

// Contact is a per-user contact record matched by phone number. The webhook
// pipeline only fills empty fields from analytics extraction; it never
// overwrites data a user has edited.
type Contact struct {
	ID                string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID            string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_contacts_user_phone"`
	PhoneNumber       string    `json:"phone_number" gorm:"type:varchar(32);not null;uniqueIndex:idx_contacts_user_phone"`
	Name              *string   `json:"name" gorm:"type:varchar(255)"`
	Email             *string   `json:"email" gorm:"type:varchar(255)"`
	CompanyName       *string   `json:"company_name" gorm:"type:varchar(255)"`
	NotConnectedCount int       `json:"not_connected_count" gorm:"not null;default:0"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Contact) TableName() string {
	return "contacts"
}
