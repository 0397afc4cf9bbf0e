package repository

import (
	"context"

	"gorm.io/gorm"
)

// RepositoryManager combines all repositories used by the webhook pipeline
type RepositoryManager interface {
	VoiceAgent() *VoiceAgentRepository
	Call() *CallRepository
	Transcript() *TranscriptRepository
	LeadAnalytics() *LeadAnalyticsRepository
	Contact() *ContactRepository

	// Health check
	Ping(ctx context.Context) error

	// Close connection
	Close() error
}

// GormRepositoryManager implements RepositoryManager using GORM
type GormRepositoryManager struct {
	db                *gorm.DB
	voiceAgentRepo    *VoiceAgentRepository
	callRepo          *CallRepository
	transcriptRepo    *TranscriptRepository
	leadAnalyticsRepo *LeadAnalyticsRepository
	contactRepo       *ContactRepository
}

// NewGormRepositoryManager creates a new GORM repository manager
func NewGormRepositoryManager(db *gorm.DB) *GormRepositoryManager {
	return &GormRepositoryManager{
		db:                db,
		voiceAgentRepo:    NewVoiceAgentRepository(db),
		callRepo:          NewCallRepository(db),
		transcriptRepo:    NewTranscriptRepository(db),
		leadAnalyticsRepo: NewLeadAnalyticsRepository(db),
		contactRepo:       NewContactRepository(db),
	}
}

// VoiceAgent returns the voice agent repository
func (m *GormRepositoryManager) VoiceAgent() *VoiceAgentRepository {
	return m.voiceAgentRepo
}

// Call returns the call repository
func (m *GormRepositoryManager) Call() *CallRepository {
	return m.callRepo
}

// Transcript returns the transcript repository
func (m *GormRepositoryManager) Transcript() *TranscriptRepository {
	return m.transcriptRepo
}

// LeadAnalytics returns the lead analytics repository
func (m *GormRepositoryManager) LeadAnalytics() *LeadAnalyticsRepository {
	return m.leadAnalyticsRepo
}

// Contact returns the contact repository
func (m *GormRepositoryManager) Contact() *ContactRepository {
	return m.contactRepo
}

// Ping checks the database connection
func (m *GormRepositoryManager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (m *GormRepositoryManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
