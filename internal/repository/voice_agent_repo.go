package repository

import (
	"context"
	"fmt"

	"github.com/ClareAI/astra-lead-service/internal/domain"
	"gorm.io/gorm"
)

// VoiceAgentRepository handles read access to the agent directory
type VoiceAgentRepository struct {
	db *gorm.DB
}

// NewVoiceAgentRepository creates a new voice agent repository
func NewVoiceAgentRepository(db *gorm.DB) *VoiceAgentRepository {
	return &VoiceAgentRepository{db: db}
}

// GetByProviderAgentID resolves the voice provider's agent id to the internal
// agent record. Returns (nil, nil) when no agent is registered under that id.
func (r *VoiceAgentRepository) GetByProviderAgentID(ctx context.Context, providerAgentID string) (*domain.VoiceAgent, error) {
	var agent domain.VoiceAgent
	if err := r.db.WithContext(ctx).Where("provider_agent_id = ?", providerAgentID).First(&agent).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get voice agent: %w", err)
	}
	return &agent, nil
}

// Exists checks if a voice agent exists by internal id
func (r *VoiceAgentRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.VoiceAgent{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check voice agent existence: %w", err)
	}
	return count > 0, nil
}
