package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB represents a PostgreSQL JSONB field
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface for JSONB
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for JSONB
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into JSONB", value)
	}

	return json.Unmarshal(bytes, j)
}

// Merge overlays the keys of other onto j without dropping existing keys.
// Keys present in both take the value from other.
func (j JSONB) Merge(other JSONB) JSONB {
	if j == nil {
		j = JSONB{}
	}
	for k, v := range other {
		j[k] = v
	}
	return j
}

// CallStatus constants for call record status
const (
	CallStatusInProgress = "in_progress"
	CallStatusCompleted  = "completed"
	CallStatusFailed     = "failed"
	CallStatusCancelled  = "cancelled"
)

// Provider webhook status values for a finished conversation
const (
	WebhookStatusDone   = "done"
	WebhookStatusFailed = "failed"
	WebhookStatusError  = "error"
)
