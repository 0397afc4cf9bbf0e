package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ClareAI/astra-lead-service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TranscriptRepository handles database operations for call transcripts
type TranscriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// Create stores a transcript and its segments
func (r *TranscriptRepository) Create(ctx context.Context, transcript *domain.CallTranscript, segments []*domain.CallTranscriptSegment) error {
	if transcript.ID == "" {
		transcript.ID = uuid.New().String()
	}
	now := time.Now()
	if transcript.CreatedAt.IsZero() {
		transcript.CreatedAt = now
	}
	transcript.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(transcript).Error; err != nil {
		return fmt.Errorf("failed to create transcript: %w", err)
	}

	if len(segments) == 0 {
		return nil
	}
	for i, seg := range segments {
		if seg.ID == "" {
			seg.ID = uuid.New().String()
		}
		seg.TranscriptID = transcript.ID
		seg.Position = i
		if seg.CreatedAt.IsZero() {
			seg.CreatedAt = now
		}
	}
	if err := r.db.WithContext(ctx).CreateInBatches(segments, 100).Error; err != nil {
		return fmt.Errorf("failed to create transcript segments: %w", err)
	}
	return nil
}

// GetByCallID retrieves the transcript for a call
func (r *TranscriptRepository) GetByCallID(ctx context.Context, callID string) (*domain.CallTranscript, error) {
	var transcript domain.CallTranscript
	if err := r.db.WithContext(ctx).Where("call_id = ?", callID).First(&transcript).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return &transcript, nil
}

// GetSegments retrieves the ordered segments of a transcript
func (r *TranscriptRepository) GetSegments(ctx context.Context, transcriptID string) ([]*domain.CallTranscriptSegment, error) {
	var segments []*domain.CallTranscriptSegment
	if err := r.db.WithContext(ctx).
		Where("transcript_id = ?", transcriptID).
		Order("position ASC").
		Find(&segments).Error; err != nil {
		return nil, fmt.Errorf("failed to get transcript segments: %w", err)
	}
	return segments, nil
}
