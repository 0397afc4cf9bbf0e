package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ClareAI/astra-lead-service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LeadAnalyticsRepository handles database operations for lead analytics records
type LeadAnalyticsRepository struct {
	db *gorm.DB
}

// NewLeadAnalyticsRepository creates a new lead analytics repository
func NewLeadAnalyticsRepository(db *gorm.DB) *LeadAnalyticsRepository {
	return &LeadAnalyticsRepository{db: db}
}

// Create persists a lead analytics record for a call. The unique index on
// call_id plus ON CONFLICT DO NOTHING means a retried delivery keeps the
// first parsed row instead of inserting a duplicate.
func (r *LeadAnalyticsRepository) Create(ctx context.Context, analytics *domain.LeadAnalytics) error {
	if analytics.ID == "" {
		analytics.ID = uuid.New().String()
	}
	now := time.Now()
	if analytics.CreatedAt.IsZero() {
		analytics.CreatedAt = now
	}
	analytics.UpdatedAt = now

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "call_id"}},
		DoNothing: true,
	}).Create(analytics)
	if result.Error != nil {
		return fmt.Errorf("failed to create lead analytics: %w", result.Error)
	}
	return nil
}

// GetByCallID retrieves the lead analytics record for a call
func (r *LeadAnalyticsRepository) GetByCallID(ctx context.Context, callID string) (*domain.LeadAnalytics, error) {
	var analytics domain.LeadAnalytics
	if err := r.db.WithContext(ctx).Where("call_id = ?", callID).First(&analytics).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lead analytics: %w", err)
	}
	return &analytics, nil
}
