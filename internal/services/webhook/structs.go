package webhook

import (
	"context"
	"time"

	"github.com/ClareAI/astra-lead-service/internal/domain"
)

// TranscriptEntry is one turn of the conversation as reported by the provider.
type TranscriptEntry struct {
	Role           string  `json:"role"`
	Message        string  `json:"message"`
	TimeInCallSecs float64 `json:"time_in_call_secs"`
}

// CanonicalPayload is the single normalized in-memory shape every downstream
// component operates on, regardless of which historical wire format arrived.
type CanonicalPayload struct {
	ConversationID  string
	AgentProviderID string
	Status          string // done|failed|error
	Transcript      []TranscriptEntry
	StartTime       time.Time
	DurationSeconds int
	PhoneNumber     string

	// AnalysisRaw is the embedded LLM-generated analytics string, empty when
	// the call completed without analysis. Absence is not an error.
	AnalysisRaw string

	// ProviderMetadata carries the provider's metadata subtree verbatim; it
	// is merged into the call record's metadata blob on upsert.
	ProviderMetadata domain.JSONB
}

// AgentDirectory resolves provider agent ids to internal agents.
type AgentDirectory interface {
	GetByProviderAgentID(ctx context.Context, providerAgentID string) (*domain.VoiceAgent, error)
}

// CallStore is the durable call record interface used by the pipeline.
type CallStore interface {
	UpsertByExternalID(ctx context.Context, incoming *domain.Call) (*domain.Call, bool, error)
	FillCallerIdentity(ctx context.Context, callID string, name, email *string) error
	LinkContact(ctx context.Context, callID string, contactID string) error
}

// TranscriptStore persists transcripts.
type TranscriptStore interface {
	Create(ctx context.Context, transcript *domain.CallTranscript, segments []*domain.CallTranscriptSegment) error
}

// LeadStore persists parsed lead analytics.
type LeadStore interface {
	Create(ctx context.Context, analytics *domain.LeadAnalytics) error
}

// ContactStore creates or updates per-user contacts.
type ContactStore interface {
	CreateOrUpdate(ctx context.Context, userID, phoneNumber string, name, email, companyName *string) (*domain.Contact, error)
	IncrementNotConnected(ctx context.Context, contactID string) error
}

// CreditLedger deducts credits from a user's balance. The ledger owns
// idempotency per reference id.
type CreditLedger interface {
	DeductCredits(ctx context.Context, userID string, amount int, description string, referenceID string) error
}

// StatsInvalidator notifies cache owners that an agent's call stats are
// stale. Implementations must not block the pipeline on failure.
type StatsInvalidator interface {
	InvalidateAgentStats(ctx context.Context, agentID, conversationID string)
}

// StepResult records the outcome of one side-effect step.
type StepResult struct {
	Step string
	Err  error
}

// ProcessingReport summarizes one webhook's trip through the pipeline.
// Side-effect failures are collected here instead of short-circuiting.
type ProcessingReport struct {
	ProcessingID   string
	ConversationID string
	CallID         string
	Created        bool
	Steps          []StepResult
}

// FailedSteps returns the steps that ended in error.
func (r *ProcessingReport) FailedSteps() []StepResult {
	var failed []StepResult
	for _, s := range r.Steps {
		if s.Err != nil {
			failed = append(failed, s)
		}
	}
	return failed
}
