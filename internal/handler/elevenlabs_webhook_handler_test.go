package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ClareAI/astra-lead-service/internal/domain"
	"github.com/ClareAI/astra-lead-service/internal/services/webhook"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgents struct{ agent *domain.VoiceAgent }

func (s *stubAgents) GetByProviderAgentID(ctx context.Context, providerAgentID string) (*domain.VoiceAgent, error) {
	return s.agent, nil
}

type stubCalls struct{ created bool }

func (s *stubCalls) UpsertByExternalID(ctx context.Context, incoming *domain.Call) (*domain.Call, bool, error) {
	s.created = true
	incoming.ID = "call-1"
	return incoming, true, nil
}

func (s *stubCalls) FillCallerIdentity(ctx context.Context, callID string, name, email *string) error {
	return nil
}

func (s *stubCalls) LinkContact(ctx context.Context, callID string, contactID string) error {
	return nil
}

type stubTranscripts struct{}

func (stubTranscripts) Create(ctx context.Context, transcript *domain.CallTranscript, segments []*domain.CallTranscriptSegment) error {
	return nil
}

type stubLeads struct{}

func (stubLeads) Create(ctx context.Context, analytics *domain.LeadAnalytics) error { return nil }

type stubContacts struct{ err error }

func (s *stubContacts) CreateOrUpdate(ctx context.Context, userID, phoneNumber string, name, email, companyName *string) (*domain.Contact, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Contact{ID: "contact-1"}, nil
}

func (s *stubContacts) IncrementNotConnected(ctx context.Context, contactID string) error {
	return nil
}

type stubLedger struct{}

func (stubLedger) DeductCredits(ctx context.Context, userID string, amount int, description string, referenceID string) error {
	return nil
}

func newTestRouter(secret string, agent *domain.VoiceAgent, contacts *stubContacts) (*mux.Router, *stubCalls) {
	calls := &stubCalls{}
	if contacts == nil {
		contacts = &stubContacts{}
	}
	service := webhook.NewService(
		&stubAgents{agent: agent}, calls, stubTranscripts{}, stubLeads{}, contacts, stubLedger{}, nil, nil,
	)
	verifier := webhook.NewSignatureVerifier(secret, webhook.DefaultSignatureTolerance)
	h := NewElevenLabsWebhookHandler(service, verifier, nil)

	router := mux.NewRouter()
	h.SetupWebhookRoutes(router)
	return router, calls
}

func validBody() []byte {
	return []byte(`{
		"conversation_id": "conv-1",
		"agent_id": "agent_abc",
		"status": "done",
		"duration_seconds": 61,
		"phone_number": "+919876543210"
	}`)
}

func signHeader(secret string, body []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	return fmt.Sprintf("t=%d,v0=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func postWebhook(router *mux.Router, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/voice/post-call", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlePostCallSuccess(t *testing.T) {
	agent := &domain.VoiceAgent{ID: "va-1", ProviderAgentID: "agent_abc", UserID: "user-1"}
	router, calls := newTestRouter("secret", agent, nil)

	body := validBody()
	rec := postWebhook(router, body, signHeader("secret", body))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, calls.created)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Contains(t, resp, "processing_time_ms")
}

func TestHandlePostCallRejectsBadSignature(t *testing.T) {
	agent := &domain.VoiceAgent{ID: "va-1", ProviderAgentID: "agent_abc", UserID: "user-1"}
	router, calls := newTestRouter("secret", agent, nil)

	rec := postWebhook(router, validBody(), "t=123,v0=deadbeef")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, calls.created, "rejected deliveries must not touch storage")
}

func TestHandlePostCallPermissiveWithoutSecret(t *testing.T) {
	agent := &domain.VoiceAgent{ID: "va-1", ProviderAgentID: "agent_abc", UserID: "user-1"}
	router, _ := newTestRouter("", agent, nil)

	rec := postWebhook(router, validBody(), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlePostCallMalformedPayload(t *testing.T) {
	agent := &domain.VoiceAgent{ID: "va-1", ProviderAgentID: "agent_abc", UserID: "user-1"}
	router, _ := newTestRouter("", agent, nil)

	rec := postWebhook(router, []byte(`{"status": "done"}`), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
}

func TestHandlePostCallUnknownAgent(t *testing.T) {
	router, _ := newTestRouter("", nil, nil)

	rec := postWebhook(router, validBody(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePostCallPartialFailureStillSucceeds(t *testing.T) {
	agent := &domain.VoiceAgent{ID: "va-1", ProviderAgentID: "agent_abc", UserID: "user-1"}
	router, calls := newTestRouter("", agent, &stubContacts{err: fmt.Errorf("contacts unavailable")})

	rec := postWebhook(router, validBody(), "")

	assert.Equal(t, http.StatusOK, rec.Code, "side-effect failures must not fail the delivery")
	assert.True(t, calls.created)
}

func TestHandleHealth(t *testing.T) {
	router, _ := newTestRouter("", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/voice/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
