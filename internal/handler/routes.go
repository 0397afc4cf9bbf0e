package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ClareAI/astra-lead-service/internal/cache"
	"github.com/ClareAI/astra-lead-service/internal/config"
	"github.com/ClareAI/astra-lead-service/internal/observability/metrics"
	"github.com/ClareAI/astra-lead-service/internal/repository"
	"github.com/ClareAI/astra-lead-service/internal/services/webhook"
	"github.com/ClareAI/astra-lead-service/pkg/billing"
	"github.com/ClareAI/astra-lead-service/pkg/logger"
	"github.com/ClareAI/astra-lead-service/pkg/redis"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HandlerManager wires repositories, external clients and the webhook
// pipeline, and registers all HTTP routes.
type HandlerManager struct {
	config         *config.ServiceConfig
	repoManager    repository.RepositoryManager
	webhookService *webhook.Service
	verifier       *webhook.SignatureVerifier
	metrics        *metrics.WebhookMetrics
}

// NewHandlerManager creates and initializes all services and handlers.
func NewHandlerManager(cfg *config.ServiceConfig) (*HandlerManager, error) {
	repoManager, err := repository.NewRepositoryManager()
	if err != nil {
		logger.Base().Error("failed to connect to database", zap.Error(err))
		return nil, err
	}

	// Redis is optional: without it the service still ingests webhooks, only
	// the stats cache invalidation is skipped.
	var invalidator webhook.StatsInvalidator
	redisSvc, err := redis.NewRedisService(&redis.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Base().Warn("failed to initialize redis, running without stats cache invalidation", zap.Error(err))
	} else {
		invalidator = cache.NewAgentStatsInvalidator(redisSvc)
	}

	billingSvc := billing.NewBillingService(cfg.BillingBaseURL)

	webhookMetrics := metrics.NewWebhookMetrics(nil)

	webhookService := webhook.NewService(
		repoManager.VoiceAgent(),
		repoManager.Call(),
		repoManager.Transcript(),
		repoManager.LeadAnalytics(),
		repoManager.Contact(),
		billingSvc,
		invalidator,
		webhookMetrics,
	)

	verifier := webhook.NewSignatureVerifier(
		cfg.WebhookSecret,
		time.Duration(cfg.WebhookToleranceSec)*time.Second,
	)
	if !verifier.Enforcing() {
		logger.Base().Warn("webhook signature verification disabled, no secret configured")
	}

	return &HandlerManager{
		config:         cfg,
		repoManager:    repoManager,
		webhookService: webhookService,
		verifier:       verifier,
		metrics:        webhookMetrics,
	}, nil
}

// SetupAllRoutes sets up all routes with middleware
func (hm *HandlerManager) SetupAllRoutes(router *mux.Router) {
	if hm.config.EnableCORS {
		router.Use(CORSMiddleware)
	}
	router.Use(LoggingMiddleware)

	webhookHandler := NewElevenLabsWebhookHandler(hm.webhookService, hm.verifier, hm.metrics)
	webhookHandler.SetupWebhookRoutes(router)

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/health", hm.handleServiceHealth).Methods("GET")

	logger.Base().Info("all application routes registered")
}

// handleServiceHealth reports overall service health including the database.
func (hm *HandlerManager) handleServiceHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := "healthy"
	httpStatus := http.StatusOK
	if err := hm.repoManager.Ping(ctx); err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
		logger.Base().Error("database health check failed", zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  status,
		"service": "astra-lead-service",
	})
}

// Close releases held resources.
func (hm *HandlerManager) Close() error {
	return hm.repoManager.Close()
}
