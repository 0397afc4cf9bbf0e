package webhook

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ClareAI/astra-lead-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgentDirectory struct {
	agents map[string]*domain.VoiceAgent
	err    error
}

func (f *fakeAgentDirectory) GetByProviderAgentID(ctx context.Context, providerAgentID string) (*domain.VoiceAgent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.agents[providerAgentID], nil
}

type fakeCallStore struct {
	calls      map[string]*domain.Call
	upsertErr  error
	filledName *string
	filledMail *string
	linkedTo   string
}

func newFakeCallStore() *fakeCallStore {
	return &fakeCallStore{calls: make(map[string]*domain.Call)}
}

func (f *fakeCallStore) UpsertByExternalID(ctx context.Context, incoming *domain.Call) (*domain.Call, bool, error) {
	if f.upsertErr != nil {
		return nil, false, f.upsertErr
	}
	if existing, ok := f.calls[incoming.ExternalConversationID]; ok {
		existing.Status = incoming.Status
		existing.DurationSeconds = incoming.DurationSeconds
		existing.DurationMinutes = incoming.DurationMinutes
		existing.CreditsUsed = incoming.CreditsUsed
		return existing, false, nil
	}
	incoming.ID = fmt.Sprintf("call-%d", len(f.calls)+1)
	f.calls[incoming.ExternalConversationID] = incoming
	return incoming, true, nil
}

func (f *fakeCallStore) FillCallerIdentity(ctx context.Context, callID string, name, email *string) error {
	f.filledName = name
	f.filledMail = email
	return nil
}

func (f *fakeCallStore) LinkContact(ctx context.Context, callID string, contactID string) error {
	f.linkedTo = contactID
	return nil
}

type fakeTranscriptStore struct {
	transcript *domain.CallTranscript
	segments   []*domain.CallTranscriptSegment
	err        error
}

func (f *fakeTranscriptStore) Create(ctx context.Context, transcript *domain.CallTranscript, segments []*domain.CallTranscriptSegment) error {
	if f.err != nil {
		return f.err
	}
	f.transcript = transcript
	f.segments = segments
	return nil
}

type fakeLeadStore struct {
	created *domain.LeadAnalytics
	err     error
}

func (f *fakeLeadStore) Create(ctx context.Context, analytics *domain.LeadAnalytics) error {
	if f.err != nil {
		return f.err
	}
	f.created = analytics
	return nil
}

type fakeContactStore struct {
	contact         *domain.Contact
	notConnectedFor []string
	err             error
}

func (f *fakeContactStore) CreateOrUpdate(ctx context.Context, userID, phoneNumber string, name, email, companyName *string) (*domain.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.contact = &domain.Contact{ID: "contact-1", UserID: userID, PhoneNumber: phoneNumber}
	if name != nil {
		f.contact.Name = name
	}
	return f.contact, nil
}

func (f *fakeContactStore) IncrementNotConnected(ctx context.Context, contactID string) error {
	f.notConnectedFor = append(f.notConnectedFor, contactID)
	return nil
}

type deduction struct {
	userID      string
	amount      int
	description string
	referenceID string
}

type fakeLedger struct {
	deductions []deduction
	err        error
}

func (f *fakeLedger) DeductCredits(ctx context.Context, userID string, amount int, description string, referenceID string) error {
	if f.err != nil {
		return f.err
	}
	f.deductions = append(f.deductions, deduction{userID, amount, description, referenceID})
	return nil
}

type fakeInvalidator struct {
	agentIDs []string
}

func (f *fakeInvalidator) InvalidateAgentStats(ctx context.Context, agentID, conversationID string) {
	f.agentIDs = append(f.agentIDs, agentID)
}

type pipelineFixture struct {
	agents      *fakeAgentDirectory
	calls       *fakeCallStore
	transcripts *fakeTranscriptStore
	leads       *fakeLeadStore
	contacts    *fakeContactStore
	ledger      *fakeLedger
	invalidator *fakeInvalidator
	service     *Service
}

func newPipelineFixture() *pipelineFixture {
	f := &pipelineFixture{
		agents: &fakeAgentDirectory{agents: map[string]*domain.VoiceAgent{
			"agent_abc": {ID: "va-1", ProviderAgentID: "agent_abc", UserID: "user-1"},
		}},
		calls:       newFakeCallStore(),
		transcripts: &fakeTranscriptStore{},
		leads:       &fakeLeadStore{},
		contacts:    &fakeContactStore{},
		ledger:      &fakeLedger{},
		invalidator: &fakeInvalidator{},
	}
	f.service = NewService(f.agents, f.calls, f.transcripts, f.leads, f.contacts, f.ledger, f.invalidator, nil)
	return f
}

func donePayload() *CanonicalPayload {
	return &CanonicalPayload{
		ConversationID:  "conv-1",
		AgentProviderID: "agent_abc",
		Status:          domain.WebhookStatusDone,
		DurationSeconds: 61,
		PhoneNumber:     "+919876543210",
		StartTime:       time.Unix(1767000000, 0),
		Transcript: []TranscriptEntry{
			{Role: "agent", Message: "Hello!", TimeInCallSecs: 0},
			{Role: "user", Message: "Hi, tell me about pricing", TimeInCallSecs: 3},
			{Role: "agent", Message: "Sure, our plans start at...", TimeInCallSecs: 7},
		},
		AnalysisRaw: `{"intent_score": 3, "urgency_score": 2, "budget_score": 2, "fit_score": 2, "engagement_score": 2, "cta_demo_clicked": true, "extraction": {"name": "Priya", "email": "priya@example.com"}}`,
	}
}

func TestProcessPostCallHappyPath(t *testing.T) {
	f := newPipelineFixture()

	report, err := f.service.ProcessPostCall(context.Background(), donePayload())
	require.NoError(t, err)
	assert.True(t, report.Created)
	assert.Empty(t, report.FailedSteps())
	assert.NotEmpty(t, report.ProcessingID)

	call := f.calls.calls["conv-1"]
	require.NotNil(t, call)
	assert.Equal(t, report.CallID, call.ID)
	assert.Equal(t, domain.CallStatusCompleted, call.Status)
	assert.Equal(t, 61, call.DurationSeconds)
	assert.Equal(t, 2, call.DurationMinutes)
	assert.Equal(t, 2, call.CreditsUsed)

	require.NotNil(t, f.transcripts.transcript)
	assert.Equal(t, "agent: Hello!\nuser: Hi, tell me about pricing\nagent: Sure, our plans start at...", f.transcripts.transcript.FullText)
	assert.Len(t, f.transcripts.segments, 3)

	require.NotNil(t, f.leads.created)
	assert.Equal(t, call.ID, f.leads.created.CallID)
	assert.Equal(t, 11, f.leads.created.TotalScore)
	require.NotNil(t, f.calls.filledName)
	assert.Equal(t, "Priya", *f.calls.filledName)

	require.NotNil(t, f.contacts.contact)
	assert.Equal(t, "user-1", f.contacts.contact.UserID)
	assert.Equal(t, "contact-1", f.calls.linkedTo)

	require.Len(t, f.ledger.deductions, 1)
	d := f.ledger.deductions[0]
	assert.Equal(t, "user-1", d.userID)
	assert.Equal(t, 2, d.amount)
	assert.Equal(t, "Call to +919876543210 - 2 min", d.description)
	assert.Equal(t, call.ID, d.referenceID)

	assert.Equal(t, []string{"va-1"}, f.invalidator.agentIDs)
}

func TestProcessPostCallIdempotentRedelivery(t *testing.T) {
	f := newPipelineFixture()

	first, err := f.service.ProcessPostCall(context.Background(), donePayload())
	require.NoError(t, err)
	second, err := f.service.ProcessPostCall(context.Background(), donePayload())
	require.NoError(t, err)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.CallID, second.CallID)
	assert.Len(t, f.calls.calls, 1)

	// The ledger sees both deliveries with the same reference id; applying
	// the deduction at most once is its responsibility.
	require.Len(t, f.ledger.deductions, 2)
	assert.Equal(t, f.ledger.deductions[0].referenceID, f.ledger.deductions[1].referenceID)
}

func TestProcessPostCallUnknownAgent(t *testing.T) {
	f := newPipelineFixture()
	payload := donePayload()
	payload.AgentProviderID = "agent_unknown"

	_, err := f.service.ProcessPostCall(context.Background(), payload)
	assert.ErrorIs(t, err, ErrAgentNotFound)
	assert.Empty(t, f.calls.calls)
	assert.Nil(t, f.transcripts.transcript)
	assert.Empty(t, f.ledger.deductions)
}

func TestProcessPostCallUpsertFailureAborts(t *testing.T) {
	f := newPipelineFixture()
	f.calls.upsertErr = errors.New("connection refused")

	_, err := f.service.ProcessPostCall(context.Background(), donePayload())
	require.Error(t, err)
	assert.Nil(t, f.transcripts.transcript)
	assert.Nil(t, f.leads.created)
	assert.Empty(t, f.ledger.deductions)
}

func TestProcessPostCallBillingGatedOnErrorStatus(t *testing.T) {
	f := newPipelineFixture()
	payload := donePayload()
	payload.Status = domain.WebhookStatusError

	report, err := f.service.ProcessPostCall(context.Background(), payload)
	require.NoError(t, err)
	assert.Empty(t, report.FailedSteps())

	call := f.calls.calls["conv-1"]
	require.NotNil(t, call)
	assert.Equal(t, domain.CallStatusFailed, call.Status)
	assert.Empty(t, f.ledger.deductions, "failed calls must never be billed")
	assert.Equal(t, []string{"contact-1"}, f.contacts.notConnectedFor)
}

func TestProcessPostCallZeroDurationNotBilled(t *testing.T) {
	f := newPipelineFixture()
	payload := donePayload()
	payload.DurationSeconds = 0

	_, err := f.service.ProcessPostCall(context.Background(), payload)
	require.NoError(t, err)
	assert.Empty(t, f.ledger.deductions)
}

func TestProcessPostCallPartialFailureIsolation(t *testing.T) {
	f := newPipelineFixture()
	f.contacts.err = errors.New("contacts table locked")

	report, err := f.service.ProcessPostCall(context.Background(), donePayload())
	require.NoError(t, err, "a side-effect failure must not fail the webhook")

	failed := report.FailedSteps()
	require.Len(t, failed, 1)
	assert.Equal(t, "contact_creation", failed[0].Step)

	// Everything around the failed step still committed.
	assert.Len(t, f.calls.calls, 1)
	assert.NotNil(t, f.transcripts.transcript)
	assert.NotNil(t, f.leads.created)
	assert.Len(t, f.ledger.deductions, 1)
	assert.Len(t, f.invalidator.agentIDs, 1)
}

func TestProcessPostCallWithoutAnalysis(t *testing.T) {
	f := newPipelineFixture()
	payload := donePayload()
	payload.AnalysisRaw = ""

	report, err := f.service.ProcessPostCall(context.Background(), payload)
	require.NoError(t, err)
	assert.Empty(t, report.FailedSteps())
	assert.Nil(t, f.leads.created)
	assert.Nil(t, f.calls.filledName)

	// The contact is still created from the phone number alone.
	require.NotNil(t, f.contacts.contact)
	assert.Nil(t, f.contacts.contact.Name)
}

func TestProcessPostCallWithoutPhoneSkipsContact(t *testing.T) {
	f := newPipelineFixture()
	payload := donePayload()
	payload.PhoneNumber = ""

	report, err := f.service.ProcessPostCall(context.Background(), payload)
	require.NoError(t, err)
	assert.Empty(t, report.FailedSteps())
	assert.Nil(t, f.contacts.contact)
}
