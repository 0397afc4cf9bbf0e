package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ClareAI/astra-lead-service/internal/domain"
	"github.com/ClareAI/astra-lead-service/internal/observability/metrics"
	"github.com/ClareAI/astra-lead-service/internal/services/analytics"
	"github.com/ClareAI/astra-lead-service/pkg/logger"
	phoneutil "github.com/ClareAI/astra-lead-service/pkg/phone"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrAgentNotFound aborts the pipeline before any side effects run: without
// an owning user there is nothing to bill or attribute data to.
var ErrAgentNotFound = errors.New("no agent registered for provider agent id")

// Service drives the post-call processing chain: call upsert (mandatory),
// then transcript storage, lead-analytics storage, contact auto-creation and
// credit billing as independent, individually-failable steps.
type Service struct {
	agents      AgentDirectory
	calls       CallStore
	transcripts TranscriptStore
	leads       LeadStore
	contacts    ContactStore
	ledger      CreditLedger
	invalidator StatsInvalidator        // optional
	metrics     *metrics.WebhookMetrics // optional, methods are nil-safe
}

// NewService wires the pipeline's collaborators. invalidator and m may be nil.
func NewService(
	agents AgentDirectory,
	calls CallStore,
	transcripts TranscriptStore,
	leads LeadStore,
	contacts ContactStore,
	ledger CreditLedger,
	invalidator StatsInvalidator,
	m *metrics.WebhookMetrics,
) *Service {
	return &Service{
		agents:      agents,
		calls:       calls,
		transcripts: transcripts,
		leads:       leads,
		contacts:    contacts,
		ledger:      ledger,
		invalidator: invalidator,
		metrics:     m,
	}
}

// ProcessPostCall runs the whole pipeline for one normalized notification.
//
// Only two errors abort processing: an unresolvable agent reference and a
// failed call upsert. Every later step is caught at its boundary, logged
// with the processing and conversation ids, recorded in the report and then
// ignored, so one failing side effect never rolls back the others.
func (s *Service) ProcessPostCall(ctx context.Context, payload *CanonicalPayload) (*ProcessingReport, error) {
	report := &ProcessingReport{
		ProcessingID:   uuid.New().String(),
		ConversationID: payload.ConversationID,
	}

	agent, err := s.agents.GetByProviderAgentID(ctx, payload.AgentProviderID)
	if err != nil {
		return report, fmt.Errorf("agent lookup failed: %w", err)
	}
	if agent == nil {
		return report, fmt.Errorf("%w: %s", ErrAgentNotFound, payload.AgentProviderID)
	}

	call, created, err := s.upsertCall(ctx, payload, agent)
	if err != nil {
		return report, err
	}
	report.CallID = call.ID
	report.Created = created

	logger.Base().Info("call record upserted",
		zap.String("processing_id", report.ProcessingID),
		zap.String("conversation_id", payload.ConversationID),
		zap.String("call_id", call.ID),
		zap.Bool("created", created),
		zap.String("status", call.Status),
		zap.Int("duration_minutes", call.DurationMinutes))

	// The analytics string is parsed before the side-effect steps because
	// both lead storage and contact extraction consume the result. Parsing
	// never fails; the worst case is a "Raw" record.
	var parsed *analytics.ParsedAnalytics
	if payload.AnalysisRaw != "" {
		parsed = analytics.Parse(payload.AnalysisRaw)
		analytics.ApplyEngagementCap(parsed, len(payload.Transcript))
		s.metrics.ObserveParserTier(parsed.ParseTier)
	}

	s.runStep(ctx, report, "transcript_storage", func(ctx context.Context) error {
		return s.storeTranscript(ctx, call, payload.Transcript)
	})

	s.runStep(ctx, report, "lead_analytics_storage", func(ctx context.Context) error {
		return s.storeLeadAnalytics(ctx, call, parsed)
	})

	s.runStep(ctx, report, "contact_creation", func(ctx context.Context) error {
		return s.upsertContact(ctx, call, agent, parsed)
	})

	s.runStep(ctx, report, "billing_deduction", func(ctx context.Context) error {
		return s.deductCredits(ctx, call, agent, payload.Status)
	})

	// Cache invalidation is a notification to the stats cache owner, never a
	// blocking call and never a failure.
	if s.invalidator != nil {
		s.invalidator.InvalidateAgentStats(ctx, agent.ID, payload.ConversationID)
	}

	return report, nil
}

// upsertCall builds the call row from the notification and upserts it by
// conversation id.
func (s *Service) upsertCall(ctx context.Context, payload *CanonicalPayload, agent *domain.VoiceAgent) (*domain.Call, bool, error) {
	minutes := domain.DurationMinutesFor(payload.DurationSeconds)
	call := &domain.Call{
		ExternalConversationID: payload.ConversationID,
		VoiceAgentID:           agent.ID,
		UserID:                 agent.UserID,
		PhoneNumber:            phoneutil.NormalizeE164(payload.PhoneNumber),
		DurationSeconds:        payload.DurationSeconds,
		DurationMinutes:        minutes,
		CreditsUsed:            minutes,
		Status:                 callStatusFor(payload.Status),
		Metadata:               payload.ProviderMetadata,
		StartedAt:              payload.StartTime,
	}

	upserted, created, err := s.calls.UpsertByExternalID(ctx, call)
	if err != nil {
		return nil, false, fmt.Errorf("call upsert failed for conversation %s: %w", payload.ConversationID, err)
	}
	return upserted, created, nil
}

// callStatusFor maps the notification status onto the call state machine:
// done completes the call, anything else fails it.
func callStatusFor(webhookStatus string) string {
	switch webhookStatus {
	case domain.WebhookStatusDone:
		return domain.CallStatusCompleted
	case domain.WebhookStatusError:
		return domain.CallStatusFailed
	default:
		return domain.CallStatusFailed
	}
}

// runStep executes one side-effect step, catching and recording its failure.
func (s *Service) runStep(ctx context.Context, report *ProcessingReport, step string, fn func(context.Context) error) {
	err := fn(ctx)
	report.Steps = append(report.Steps, StepResult{Step: step, Err: err})
	if err != nil {
		s.metrics.ObserveStepFailure(step)
		logger.Base().Error("side-effect step failed, continuing",
			zap.String("processing_id", report.ProcessingID),
			zap.String("conversation_id", report.ConversationID),
			zap.String("step", step),
			zap.Error(err))
	}
}

// storeTranscript persists the transcript entries with a concatenated
// full-text rendering.
func (s *Service) storeTranscript(ctx context.Context, call *domain.Call, entries []TranscriptEntry) error {
	if len(entries) == 0 {
		return nil
	}

	lines := make([]string, 0, len(entries))
	segments := make([]*domain.CallTranscriptSegment, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("%s: %s", entry.Role, entry.Message))
		segments = append(segments, &domain.CallTranscriptSegment{
			Role:           entry.Role,
			Message:        entry.Message,
			TimeInCallSecs: entry.TimeInCallSecs,
		})
	}

	transcript := &domain.CallTranscript{
		CallID:   call.ID,
		FullText: strings.Join(lines, "\n"),
	}
	return s.transcripts.Create(ctx, transcript, segments)
}

// storeLeadAnalytics persists the parsed record and backfills the call's
// caller identity from the extraction fields.
func (s *Service) storeLeadAnalytics(ctx context.Context, call *domain.Call, parsed *analytics.ParsedAnalytics) error {
	if parsed == nil {
		return nil
	}

	record := leadAnalyticsToDomain(call.ID, parsed)
	if err := s.leads.Create(ctx, record); err != nil {
		return err
	}

	if parsed.ExtractedName != "" || parsed.ExtractedEmail != "" {
		if err := s.calls.FillCallerIdentity(ctx, call.ID,
			strPtr(parsed.ExtractedName), strPtr(parsed.ExtractedEmail)); err != nil {
			return err
		}
	}
	return nil
}

// upsertContact creates or updates the per-user contact for the caller and
// links it to the call. It needs the parsed extraction output, so it runs
// after the analytics step logically.
func (s *Service) upsertContact(ctx context.Context, call *domain.Call, agent *domain.VoiceAgent, parsed *analytics.ParsedAnalytics) error {
	if call.PhoneNumber == "" {
		return nil
	}

	var name, email, company *string
	if parsed != nil {
		name = strPtr(parsed.ExtractedName)
		email = strPtr(parsed.ExtractedEmail)
		company = strPtr(parsed.ExtractedCompany)
	}

	contact, err := s.contacts.CreateOrUpdate(ctx, agent.UserID, call.PhoneNumber, name, email, company)
	if err != nil {
		return err
	}
	if err := s.calls.LinkContact(ctx, call.ID, contact.ID); err != nil {
		return err
	}

	// A failed call means the contact did not pick up or the call dropped;
	// the counter feeds retry prioritization in the main application.
	if call.Status == domain.CallStatusFailed {
		return s.contacts.IncrementNotConnected(ctx, contact.ID)
	}
	return nil
}

// deductCredits bills the owning user for the call. Deduction only happens
// for successfully completed calls with billable minutes; a failed or
// errored call is never charged, regardless of reported duration.
func (s *Service) deductCredits(ctx context.Context, call *domain.Call, agent *domain.VoiceAgent, webhookStatus string) error {
	if webhookStatus != domain.WebhookStatusDone {
		return nil
	}
	if call.DurationMinutes <= 0 {
		return nil
	}

	description := fmt.Sprintf("Call to %s - %d min", call.PhoneNumber, call.DurationMinutes)
	return s.ledger.DeductCredits(ctx, agent.UserID, call.DurationMinutes, description, call.ID)
}

// leadAnalyticsToDomain maps the parser output to the persisted record.
func leadAnalyticsToDomain(callID string, a *analytics.ParsedAnalytics) *domain.LeadAnalytics {
	return &domain.LeadAnalytics{
		CallID: callID,

		IntentLevel:     a.Intent.Level,
		IntentScore:     a.Intent.Score,
		UrgencyLevel:    a.Urgency.Level,
		UrgencyScore:    a.Urgency.Score,
		BudgetLevel:     a.Budget.Level,
		BudgetScore:     a.Budget.Score,
		FitLevel:        a.Fit.Level,
		FitScore:        a.Fit.Score,
		EngagementLevel: a.Engagement.Level,
		EngagementScore: a.Engagement.Score,

		TotalScore:    a.TotalScore,
		LeadStatusTag: a.LeadStatusTag,

		CTAPricingClicked:   a.CTAPricingClicked,
		CTADemoClicked:      a.CTADemoClicked,
		CTAFollowupClicked:  a.CTAFollowupClicked,
		CTASampleClicked:    a.CTASampleClicked,
		CTAEscalatedToHuman: a.CTAEscalatedToHuman,

		ExtractedName:     strPtr(a.ExtractedName),
		ExtractedEmail:    strPtr(a.ExtractedEmail),
		ExtractedCompany:  strPtr(a.ExtractedCompany),
		SmartNotification: strPtr(a.SmartNotification),
		DemoBookDatetime:  strPtr(a.DemoBookDatetime),

		RawAnalysisData: strPtr(a.RawAnalysisData),
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
