package domain

import (
	"time"
)

// Call represents one durable call record, keyed by the voice provider's
// conversation id. Repeated webhook deliveries for the same conversation
// mutate this row in place rather than inserting a new one.
type Call struct {
	ID                     string    `json:"id" gorm:"type:uuid;primaryKey"`
	ExternalConversationID string    `json:"external_conversation_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_calls_external_conversation_id"`
	VoiceAgentID           string    `json:"voice_agent_id" gorm:"type:uuid;not null;index"`
	UserID                 string    `json:"user_id" gorm:"type:uuid;not null;index"`
	PhoneNumber            string    `json:"phone_number" gorm:"type:varchar(32)"`
	CallerName             *string   `json:"caller_name" gorm:"type:varchar(255)"`
	CallerEmail            *string   `json:"caller_email" gorm:"type:varchar(255)"`
	ContactID              *string   `json:"contact_id" gorm:"type:uuid;index"`
	DurationSeconds        int       `json:"duration_seconds" gorm:"not null;default:0"`
	DurationMinutes        int       `json:"duration_minutes" gorm:"not null;default:0"` // billing unit, ceiling of seconds/60
	CreditsUsed            int       `json:"credits_used" gorm:"not null;default:0"`
	Status                 string    `json:"status" gorm:"type:varchar(32);not null;default:'in_progress'"`
	Metadata               JSONB     `json:"metadata" gorm:"type:jsonb"`
	StartedAt              time.Time `json:"started_at"`
	CreatedAt              time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt              time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Call) TableName() string {
	return "calls"
}

// DurationMinutesFor converts a reported duration to billing minutes,
// rounding up to the next whole minute. 61 seconds bills as 2 minutes.
func DurationMinutesFor(durationSeconds int) int {
	if durationSeconds <= 0 {
		return 0
	}
	return (durationSeconds + 59) / 60
}
