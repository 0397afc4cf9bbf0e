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

// CallRepository handles database operations for call records
type CallRepository struct {
	db *gorm.DB
}

// NewCallRepository creates a new call repository
func NewCallRepository(db *gorm.DB) *CallRepository {
	return &CallRepository{db: db}
}

// GetByExternalConversationID retrieves a call by the provider's conversation id
func (r *CallRepository) GetByExternalConversationID(ctx context.Context, externalConversationID string) (*domain.Call, error) {
	var call domain.Call
	if err := r.db.WithContext(ctx).Where("external_conversation_id = ?", externalConversationID).First(&call).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}
	return &call, nil
}

// GetByID retrieves a call by its internal id
func (r *CallRepository) GetByID(ctx context.Context, id string) (*domain.Call, error) {
	var call domain.Call
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&call).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}
	return &call, nil
}

// UpsertByExternalID finds or creates the call row for a conversation id and
// returns it along with whether it was newly created.
//
// The insert carries an ON CONFLICT DO NOTHING on the unique
// external_conversation_id index, so two near-simultaneous first deliveries
// for the same conversation collapse into one row; the loser of the race falls
// through to the in-place update path. Updates merge metadata (new keys
// overlay old ones, previously stored keys are kept) and recompute duration,
// credits and status from the latest notification, which is what makes
// at-least-once redelivery safe.
func (r *CallRepository) UpsertByExternalID(ctx context.Context, incoming *domain.Call) (*domain.Call, bool, error) {
	if incoming.ExternalConversationID == "" {
		return nil, false, fmt.Errorf("external conversation id cannot be empty")
	}

	existing, err := r.GetByExternalConversationID(ctx, incoming.ExternalConversationID)
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		if incoming.ID == "" {
			incoming.ID = uuid.New().String()
		}
		now := time.Now()
		incoming.CreatedAt = now
		incoming.UpdatedAt = now

		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_conversation_id"}},
			DoNothing: true,
		}).Create(incoming)
		if result.Error != nil {
			return nil, false, fmt.Errorf("failed to create call: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			return incoming, true, nil
		}

		// Lost the insert race to a concurrent delivery; treat as update.
		existing, err = r.GetByExternalConversationID(ctx, incoming.ExternalConversationID)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, fmt.Errorf("call vanished after conflicting insert for conversation %s", incoming.ExternalConversationID)
		}
	}

	existing.Metadata = existing.Metadata.Merge(incoming.Metadata)
	existing.Status = incoming.Status
	existing.DurationSeconds = incoming.DurationSeconds
	existing.DurationMinutes = incoming.DurationMinutes
	existing.CreditsUsed = incoming.CreditsUsed
	if incoming.PhoneNumber != "" {
		existing.PhoneNumber = incoming.PhoneNumber
	}
	if !incoming.StartedAt.IsZero() {
		existing.StartedAt = incoming.StartedAt
	}
	existing.UpdatedAt = time.Now()

	if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, false, fmt.Errorf("failed to update call: %w", err)
	}
	return existing, false, nil
}

// FillCallerIdentity sets caller name/email from analytics extraction, but
// only where the column is still empty. The pipeline never overwrites
// identity data that is already on the record.
func (r *CallRepository) FillCallerIdentity(ctx context.Context, callID string, name, email *string) error {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if name != nil && *name != "" {
		updates["caller_name"] = gorm.Expr("COALESCE(caller_name, ?)", *name)
	}
	if email != nil && *email != "" {
		updates["caller_email"] = gorm.Expr("COALESCE(caller_email, ?)", *email)
	}
	if len(updates) == 1 {
		return nil
	}

	if err := r.db.WithContext(ctx).Model(&domain.Call{}).Where("id = ?", callID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to fill caller identity: %w", err)
	}
	return nil
}

// LinkContact records the contact a call was attributed to
func (r *CallRepository) LinkContact(ctx context.Context, callID string, contactID string) error {
	updates := map[string]interface{}{
		"contact_id": contactID,
		"updated_at": time.Now(),
	}
	if err := r.db.WithContext(ctx).Model(&domain.Call{}).Where("id = ?", callID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to link contact: %w", err)
	}
	return nil
}
