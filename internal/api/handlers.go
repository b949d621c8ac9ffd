// Package api exposes the analysis engines over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bravola/insights/internal/domain"
	"github.com/bravola/insights/internal/feedback"
	"github.com/bravola/insights/internal/pkg/logger"
	"github.com/bravola/insights/internal/predictor"
	"github.com/bravola/insights/internal/repository/postgres"
)

// BenchmarkService produces peer performance analyses.
type BenchmarkService interface {
	AnalyzePerformance(ctx context.Context, merchantID string) (*domain.BenchmarkResult, error)
}

// DiscoveryService produces persona and maturity profiles.
type DiscoveryService interface {
	AnalyzeProfile(ctx context.Context, merchantID string) (*domain.DiscoveryResult, error)
}

// StrategyService produces ranked growth recommendations.
type StrategyService interface {
	Recommend(ctx context.Context, merchantID string, limit int, exclude []string) ([]domain.RecommendationCandidate, error)
}

// FeedbackService records outcomes and reports prediction quality.
type FeedbackService interface {
	RecordOutcome(ctx context.Context, merchantID, category string, predicted, actual *float64) (*domain.OutcomeFeedback, error)
	AccuracyReport(ctx context.Context, window int) (*feedback.AccuracyReport, error)
}

// DriftService runs on-demand drift checks.
type DriftService interface {
	CheckDrift(ctx context.Context, threshold float64) feedback.DriftReport
}

// CacheService invalidates cached merchant features.
type CacheService interface {
	Invalidate(ctx context.Context, merchantID string) (int, error)
}

// RuleService is the admin surface over decision rules.
type RuleService interface {
	ListActive(ctx context.Context) ([]domain.DecisionRule, error)
	Create(ctx context.Context, rule domain.DecisionRule) (*domain.DecisionRule, error)
	SetActive(ctx context.Context, id int, active bool) error
	Delete(ctx context.Context, id int) error
}

// ModelStatus reports model availability for health checks.
type ModelStatus interface {
	Ready() bool
	Reason() string
	Version() string
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	benchmarks BenchmarkService
	discovery  DiscoveryService
	strategies StrategyService
	feedback   FeedbackService
	drift      DriftService
	cache      CacheService
	rules      RuleService
	models     ModelStatus
}

// NewHandlers creates the handler set.
func NewHandlers(
	benchmarks BenchmarkService,
	discovery DiscoveryService,
	strategies StrategyService,
	fb FeedbackService,
	drift DriftService,
	cache CacheService,
	rules RuleService,
	models ModelStatus,
) *Handlers {
	return &Handlers{
		benchmarks: benchmarks,
		discovery:  discovery,
		strategies: strategies,
		feedback:   fb,
		drift:      drift,
		cache:      cache,
		rules:      rules,
		models:     models,
	}
}

// HealthCheck reports service and model availability.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":        "ok",
		"models_loaded": h.models.Ready(),
	}
	if h.models.Ready() {
		body["model_version"] = h.models.Version()
	} else {
		body["models_reason"] = h.models.Reason()
	}
	respondJSON(w, http.StatusOK, body)
}

// HandleBenchmark returns the merchant's peer performance analysis.
func (h *Handlers) HandleBenchmark(w http.ResponseWriter, r *http.Request) {
	merchantID := chi.URLParam(r, "merchantID")

	result, err := h.benchmarks.AnalyzePerformance(r.Context(), merchantID)
	if err != nil {
		respondAnalysisError(w, merchantID, "benchmark", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// HandleDiscovery returns the merchant's persona and maturity profile.
func (h *Handlers) HandleDiscovery(w http.ResponseWriter, r *http.Request) {
	merchantID := chi.URLParam(r, "merchantID")

	result, err := h.discovery.AnalyzeProfile(r.Context(), merchantID)
	if err != nil {
		respondAnalysisError(w, merchantID, "discovery", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// HandleStrategies returns ranked growth recommendations.
// Query params: limit (int), exclude (comma-separated strategy names).
func (h *Handlers) HandleStrategies(w http.ResponseWriter, r *http.Request) {
	merchantID := chi.URLParam(r, "merchantID")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	var exclude []string
	if raw := r.URL.Query().Get("exclude"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				exclude = append(exclude, name)
			}
		}
	}

	recs, err := h.strategies.Recommend(r.Context(), merchantID, limit, exclude)
	if err != nil {
		respondAnalysisError(w, merchantID, "strategies", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"merchant_id":     merchantID,
		"recommendations": recs,
		"total":           len(recs),
	})
}

type feedbackRequest struct {
	MerchantID string   `json:"merchant_id"`
	Category   string   `json:"category"`
	Predicted  *float64 `json:"predicted_value"`
	Actual     *float64 `json:"actual_value"`
}

// HandleFeedback records a predicted-vs-actual outcome.
func (h *Handlers) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.MerchantID == "" {
		respondError(w, http.StatusBadRequest, "merchant_id is required")
		return
	}
	if req.Category == "" {
		req.Category = "roi"
	}

	saved, err := h.feedback.RecordOutcome(r.Context(), req.MerchantID, req.Category, req.Predicted, req.Actual)
	if err != nil {
		logger.Error("record outcome failed", "merchant_id", req.MerchantID, "error", err.Error())
		respondError(w, http.StatusInternalServerError, "failed to record outcome")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"event":             saved,
		"accuracy_category": saved.AccuracyCategory(),
	})
}

// HandleDrift runs an on-demand drift check.
// Query param: threshold (float, optional).
func (h *Handlers) HandleDrift(w http.ResponseWriter, r *http.Request) {
	threshold := 0.0
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "threshold must be a positive number")
			return
		}
		threshold = parsed
	}
	respondJSON(w, http.StatusOK, h.drift.CheckDrift(r.Context(), threshold))
}

// HandleAccuracy reports recent prediction quality.
func (h *Handlers) HandleAccuracy(w http.ResponseWriter, r *http.Request) {
	window := 100
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "window must be a positive integer")
			return
		}
		window = parsed
	}

	report, err := h.feedback.AccuracyReport(r.Context(), window)
	if err != nil {
		logger.Error("accuracy report failed", "error", err.Error())
		respondError(w, http.StatusInternalServerError, "failed to build accuracy report")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// HandleInvalidate drops the merchant's cached features. Upstream data syncs
// call this after writing new orders or campaigns.
func (h *Handlers) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	merchantID := chi.URLParam(r, "merchantID")

	deleted, err := h.cache.Invalidate(r.Context(), merchantID)
	if err != nil {
		logger.Error("cache invalidation failed", "merchant_id", merchantID, "error", err.Error())
		respondError(w, http.StatusInternalServerError, "failed to invalidate cache")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"merchant_id": merchantID,
		"invalidated": deleted,
	})
}

// HandleListRules returns the active decision rules.
func (h *Handlers) HandleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.ListActive(r.Context())
	if err != nil {
		logger.Error("list rules failed", "error", err.Error())
		respondError(w, http.StatusInternalServerError, "failed to load rules")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rules": rules,
		"total": len(rules),
	})
}

// HandleCreateRule stores a new decision rule.
func (h *Handlers) HandleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule domain.DecisionRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if rule.RuleName == "" || rule.ConditionMetric == "" {
		respondError(w, http.StatusBadRequest, "rule_name and condition_metric are required")
		return
	}
	switch rule.Operator {
	case domain.OpGreaterThan, domain.OpLessThan, domain.OpEquals, domain.OpContains:
	default:
		respondError(w, http.StatusBadRequest, "operator must be one of gt, lt, eq, contains")
		return
	}
	switch rule.ActionType {
	case domain.ActionBoostScore, domain.ActionFilterOut:
	default:
		respondError(w, http.StatusBadRequest, "action_type must be boost_score or filter_out")
		return
	}

	saved, err := h.rules.Create(r.Context(), rule)
	if err != nil {
		logger.Error("create rule failed", "rule", rule.RuleName, "error", err.Error())
		respondError(w, http.StatusInternalServerError, "failed to create rule")
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

// HandleSetRuleActive toggles a rule on or off.
func (h *Handlers) HandleSetRuleActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "ruleID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "rule id must be an integer")
		return
	}
	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.rules.SetActive(r.Context(), id, req.IsActive); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			respondError(w, http.StatusNotFound, "rule not found")
			return
		}
		logger.Error("set rule active failed", "rule_id", id, "error", err.Error())
		respondError(w, http.StatusInternalServerError, "failed to update rule")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "is_active": req.IsActive})
}

// HandleDeleteRule removes a rule.
func (h *Handlers) HandleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "ruleID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "rule id must be an integer")
		return
	}

	if err := h.rules.Delete(r.Context(), id); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			respondError(w, http.StatusNotFound, "rule not found")
			return
		}
		logger.Error("delete rule failed", "rule_id", id, "error", err.Error())
		respondError(w, http.StatusInternalServerError, "failed to delete rule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondAnalysisError(w http.ResponseWriter, merchantID, operation string, err error) {
	switch {
	case errors.Is(err, predictor.ErrModelsNotLoaded):
		respondError(w, http.StatusServiceUnavailable, "models not loaded")
	case errors.Is(err, postgres.ErrNotFound):
		respondError(w, http.StatusNotFound, "merchant not found")
	default:
		logger.Error(operation+" failed", "merchant_id", merchantID, "error", err.Error())
		respondError(w, http.StatusInternalServerError, operation+" failed")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
