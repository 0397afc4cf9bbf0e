package domain

import (
	"time"
)

// VoiceAgent maps the voice provider's agent id to the internal agent and its
// owning user. The webhook pipeline only reads this table; agent CRUD lives in
// the main application.
type VoiceAgent struct {
	ID              string    `json:"id" gorm:"type:uuid;primaryKey"`
	ProviderAgentID string    `json:"provider_agent_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_voice_agents_provider_agent_id"`
	UserID          string    `json:"user_id" gorm:"type:uuid;not null;index"`
	AgentName       string    `json:"agent_name" gorm:"type:varchar(255);not null"`
	Disabled        bool      `json:"disabled" gorm:"default:false"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (VoiceAgent) TableName() string {
	return "voice_agents"
}
