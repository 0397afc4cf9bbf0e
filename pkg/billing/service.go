package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// BillingService is an HTTP client for the credit ledger service. The ledger
// owns idempotency: a deduction is applied at most once per reference id, so
// retried webhook deliveries that reach the deduction step cannot double-charge.
type BillingService struct {
	BaseURL string
	Client  *http.Client
}

// DeductRequest is the wire format for a credit deduction.
type DeductRequest struct {
	UserID      string `json:"user_id"`
	Amount      int    `json:"amount"`
	Description string `json:"description"`
	ReferenceID string `json:"reference_id"`
}

// DeductResponse is the ledger's acknowledgment of a deduction.
type DeductResponse struct {
	Success          bool   `json:"success"`
	TransactionID    string `json:"transaction_id,omitempty"`
	RemainingCredits int64  `json:"remaining_credits,omitempty"`
	Message          string `json:"message,omitempty"`
}

func NewBillingService(baseURL string) *BillingService {
	return &BillingService{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// DeductCredits deducts the given amount of credits from a user's balance.
// The referenceID (call id) doubles as the ledger-side idempotency key.
func (s *BillingService) DeductCredits(ctx context.Context, userID string, amount int, description string, referenceID string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if amount <= 0 {
		return fmt.Errorf("deduction amount must be positive, got %d", amount)
	}

	url := fmt.Sprintf("%s/billing/v1/credits/deduct", s.BaseURL)

	payload, err := json.Marshal(DeductRequest{
		UserID:      userID,
		Amount:      amount,
		Description: description,
		ReferenceID: referenceID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal deduct request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deduction failed with status %d: %s", resp.StatusCode, string(body))
	}

	// Be tolerant of extra fields from the ledger; only the success flag matters here.
	var response DeductResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !response.Success {
		return fmt.Errorf("deduction rejected by ledger: %s", response.Message)
	}

	zap.L().Info("Credits deducted",
		zap.String("user_id", userID),
		zap.Int("amount", amount),
		zap.String("reference_id", referenceID),
		zap.String("transaction_id", response.TransactionID),
		zap.Int64("remaining_credits", response.RemainingCredits))

	return nil
}
