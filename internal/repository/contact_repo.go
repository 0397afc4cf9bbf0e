package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ClareAI/astra-lead-service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactRepository handles database operations for per-user contacts
type ContactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// GetByUserAndPhone retrieves a contact by owning user and phone number
func (r *ContactRepository) GetByUserAndPhone(ctx context.Context, userID, phoneNumber string) (*domain.Contact, error) {
	var contact domain.Contact
	if err := r.db.WithContext(ctx).Where("user_id = ? AND phone_number = ?", userID, phoneNumber).First(&contact).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &contact, nil
}

// CreateOrUpdate finds or creates the contact for (user, phone) and fills
// empty name/email/company fields from the given values. Fields a user has
// already populated are left untouched.
func (r *ContactRepository) CreateOrUpdate(ctx context.Context, userID, phoneNumber string, name, email, companyName *string) (*domain.Contact, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}
	if phoneNumber == "" {
		return nil, fmt.Errorf("phone number cannot be empty")
	}

	existing, err := r.GetByUserAndPhone(ctx, userID, phoneNumber)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if existing == nil {
		contact := &domain.Contact{
			ID:          uuid.New().String(),
			UserID:      userID,
			PhoneNumber: phoneNumber,
			Name:        name,
			Email:       email,
			CompanyName: companyName,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := r.db.WithContext(ctx).Create(contact).Error; err != nil {
			return nil, fmt.Errorf("failed to create contact: %w", err)
		}
		return contact, nil
	}

	changed := false
	if isEmpty(existing.Name) && !isEmpty(name) {
		existing.Name = name
		changed = true
	}
	if isEmpty(existing.Email) && !isEmpty(email) {
		existing.Email = email
		changed = true
	}
	if isEmpty(existing.CompanyName) && !isEmpty(companyName) {
		existing.CompanyName = companyName
		changed = true
	}
	if changed {
		existing.UpdatedAt = now
		if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
			return nil, fmt.Errorf("failed to update contact: %w", err)
		}
	}
	return existing, nil
}

// IncrementNotConnected bumps the not-connected counter for a contact
func (r *ContactRepository) IncrementNotConnected(ctx context.Context, contactID string) error {
	updates := map[string]interface{}{
		"not_connected_count": gorm.Expr("not_connected_count + 1"),
		"updated_at":          time.Now(),
	}
	if err := r.db.WithContext(ctx).Model(&domain.Contact{}).Where("id = ?", contactID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to increment not-connected count: %w", err)
	}
	return nil
}

func isEmpty(s *string) bool {
	return s == nil || *s == ""
}
