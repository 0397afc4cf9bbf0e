package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ClareAI/astra-lead-service/internal/observability/metrics"
	"github.com/ClareAI/astra-lead-service/internal/services/webhook"
	"github.com/ClareAI/astra-lead-service/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// maxWebhookBodyBytes bounds inbound payloads; transcripts are large but a
// post-call notification should never approach this.
const maxWebhookBodyBytes = 10 << 20

// signatureHeader is the provider's signature header name.
const signatureHeader = "ElevenLabs-Signature"

// ElevenLabsWebhookHandler receives post-call notifications from the voice
// provider and hands them to the processing pipeline.
type ElevenLabsWebhookHandler struct {
	service  *webhook.Service
	verifier *webhook.SignatureVerifier
	metrics  *metrics.WebhookMetrics
}

func NewElevenLabsWebhookHandler(service *webhook.Service, verifier *webhook.SignatureVerifier, m *metrics.WebhookMetrics) *ElevenLabsWebhookHandler {
	return &ElevenLabsWebhookHandler{
		service:  service,
		verifier: verifier,
		metrics:  m,
	}
}

// SetupWebhookRoutes registers the webhook endpoints on the given router.
func (h *ElevenLabsWebhookHandler) SetupWebhookRoutes(router *mux.Router) {
	webhookRouter := router.PathPrefix("/webhooks/voice").Subrouter()
	webhookRouter.Use(ValidationMiddleware)
	webhookRouter.HandleFunc("/post-call", h.HandlePostCall).Methods("POST")
	webhookRouter.HandleFunc("/health", h.HandleHealth).Methods("GET")
}

// HandlePostCall is the single ingestion endpoint. The provider retries on
// non-2xx, so only genuinely fatal outcomes return an error status; partial
// side-effect failures still acknowledge the delivery.
func (h *ElevenLabsWebhookHandler) HandlePostCall(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		h.metrics.ObserveInbound("read_error")
		writeWebhookError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	if ok, reason := h.verifier.Verify(rawBody, r.Header.Get(signatureHeader)); !ok {
		h.metrics.ObserveInbound("invalid_signature")
		logger.Base().Warn("webhook signature rejected",
			zap.String("reason", reason),
			zap.String("remote_addr", r.RemoteAddr))
		writeWebhookError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	payload, err := webhook.NormalizePayload(rawBody)
	if err != nil {
		h.metrics.ObserveInbound("malformed_payload")
		logger.Base().Warn("webhook payload rejected",
			zap.Error(err),
			zap.String("remote_addr", r.RemoteAddr))
		writeWebhookError(w, http.StatusBadRequest, "malformed payload")
		return
	}

	report, err := h.service.ProcessPostCall(r.Context(), payload)
	if err != nil {
		h.metrics.ObserveInbound("processing_error")
		logger.Base().Error("webhook processing failed",
			zap.String("processing_id", report.ProcessingID),
			zap.String("conversation_id", payload.ConversationID),
			zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, webhook.ErrAgentNotFound) {
			// An unknown agent will not become known on retry; acknowledge
			// with 404 so the provider stops redelivering.
			status = http.StatusNotFound
		}
		writeWebhookError(w, status, err.Error())
		return
	}

	elapsed := time.Since(start)
	h.metrics.ObserveInbound("ok")
	h.metrics.ObserveLatency(elapsed.Seconds())

	logger.Base().Info("webhook processed",
		zap.String("processing_id", report.ProcessingID),
		zap.String("conversation_id", report.ConversationID),
		zap.String("call_id", report.CallID),
		zap.Bool("created", report.Created),
		zap.Int("failed_steps", len(report.FailedSteps())),
		zap.Duration("processing_time", elapsed))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":            true,
		"processing_time_ms": elapsed.Milliseconds(),
	})
}

// HandleHealth responds to provider and load-balancer health probes.
func (h *ElevenLabsWebhookHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"service": "astra-lead-service",
	})
}

func writeWebhookError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
