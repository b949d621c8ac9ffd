package strategy

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/bravola/insights/internal/benchmark"
	appconfig "github.com/bravola/insights/internal/config"
	"github.com/bravola/insights/internal/domain"
	"github.com/bravola/insights/internal/features"
	"github.com/bravola/insights/internal/pkg/logger"
	"github.com/bravola/insights/internal/predictor"
)

// Scoring multipliers. The base score is shaped multiplicatively so each
// signal scales with the ones before it.
const (
	benchmarkGapBoost  = 1.2
	personaFitBoost    = 1.15
	revenueShare       = 0.1
	roiNormalizer      = 150
	confidenceEligible = 0.75
	confidenceBlocked  = 0.45
)

// RankSource is the trained base-score model.
type RankSource interface {
	Rank(fv domain.FeatureVector) (float64, error)
}

// RuleSource loads the operator decision rules.
type RuleSource interface {
	ListActive(ctx context.Context) ([]domain.DecisionRule, error)
}

// ProfileSource supplies the merchant's persona and maturity, best effort.
type ProfileSource interface {
	AnalyzeProfile(ctx context.Context, merchantID string) (*domain.DiscoveryResult, error)
}

// PerformanceSource supplies the merchant's benchmark score, best effort.
type PerformanceSource interface {
	AnalyzePerformance(ctx context.Context, merchantID string) (*domain.BenchmarkResult, error)
}

// Orchestrator produces the ranked growth-action list for a merchant.
type Orchestrator struct {
	features    benchmark.FeatureSource
	ranker      RankSource
	rules       RuleSource
	profiles    ProfileSource
	performance PerformanceSource
	templates   []domain.ActionTemplate
	cfg         appconfig.StrategyConfig
}

// NewOrchestrator wires the recommendation pipeline. templates may be nil to
// use the built-in catalog; profiles and performance may be nil, dropping
// those boosts.
func NewOrchestrator(
	source benchmark.FeatureSource,
	ranker RankSource,
	rules RuleSource,
	profiles ProfileSource,
	performance PerformanceSource,
	templates []domain.ActionTemplate,
	cfg appconfig.StrategyConfig,
) *Orchestrator {
	if len(templates) == 0 {
		templates = DefaultTemplates()
	}
	return &Orchestrator{
		features:    source,
		ranker:      ranker,
		rules:       rules,
		profiles:    profiles,
		performance: performance,
		templates:   templates,
		cfg:         cfg,
	}
}

// Recommend scores every non-excluded template and returns the top candidates
// by priority, capped at limit (the configured default when limit <= 0).
// An unavailable ranking model yields an empty list, not an error.
func (o *Orchestrator) Recommend(ctx context.Context, merchantID string, limit int, exclude []string) ([]domain.RecommendationCandidate, error) {
	if limit <= 0 {
		limit = o.cfg.DefaultLimit
	}

	fv, err := o.features.Vector(ctx, merchantID, features.SetAll)
	if err != nil {
		return nil, fmt.Errorf("recommend %s: %w", merchantID, err)
	}

	base, err := o.ranker.Rank(fv)
	if errors.Is(err, predictor.ErrModelsNotLoaded) {
		logger.Warn("ranking model unavailable, returning no recommendations",
			"merchant_id", merchantID)
		return []domain.RecommendationCandidate{}, nil
	}
	if err != nil {
		logger.Warn("base ranking failed, using fallback score",
			"merchant_id", merchantID, "error", err.Error())
		base = o.cfg.FallbackBaseScore
	}

	var persona, maturity string
	if o.profiles != nil {
		if profile, err := o.profiles.AnalyzeProfile(ctx, merchantID); err == nil {
			persona, maturity = profile.Persona, profile.MaturityStage
		} else {
			logger.Warn("profile unavailable for recommendation boosts",
				"merchant_id", merchantID, "error", err.Error())
		}
	}

	benchmarkScore := -1.0
	if o.performance != nil {
		if perf, err := o.performance.AnalyzePerformance(ctx, merchantID); err == nil {
			benchmarkScore = perf.OverallScore
		} else {
			logger.Warn("benchmark unavailable for recommendation boosts",
				"merchant_id", merchantID, "error", err.Error())
		}
	}

	var rules []domain.DecisionRule
	if o.rules != nil {
		if rules, err = o.rules.ListActive(ctx); err != nil {
			logger.Warn("decision rules unavailable, ranking without them",
				"merchant_id", merchantID, "error", err.Error())
			rules = nil
		}
	}

	rctx := buildRuleContext(fv, persona, maturity, benchmarkScore)
	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[strings.ToLower(strings.TrimSpace(name))] = true
	}

	candidates := make([]domain.RecommendationCandidate, 0, len(o.templates))
	for _, tmpl := range o.templates {
		if excluded[strings.ToLower(tmpl.Name)] {
			continue
		}
		if c, keep := o.scoreTemplate(tmpl, fv, base, persona, maturity, benchmarkScore, rules, rctx); keep {
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PriorityScore > candidates[j].PriorityScore
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// scoreTemplate runs one template through the scoring pipeline. keep is false
// when a filter_out rule removed the candidate.
func (o *Orchestrator) scoreTemplate(
	tmpl domain.ActionTemplate,
	fv domain.FeatureVector,
	base float64,
	persona, maturity string,
	benchmarkScore float64,
	rules []domain.DecisionRule,
	rctx ruleContext,
) (domain.RecommendationCandidate, bool) {
	score := base
	var reasons []string

	eligible, misses := checkEligibility(tmpl, fv, maturity)

	score *= tmpl.ExpectedROI / 100

	if benchmarkScore >= 0 && benchmarkScore < 50 {
		score *= benchmarkGapBoost
		reasons = append(reasons, "Performance below peer median, prioritizing high-impact actions")
	}
	if persona != "" && personaBoostApplies(persona, tmpl.Name) {
		score *= personaFitBoost
		reasons = append(reasons, fmt.Sprintf("Strong fit for the %s persona", persona))
	}
	if !eligible {
		score *= o.cfg.EligibilityPenalty
		reasons = append(reasons, misses...)
	}

	for _, rule := range rules {
		if !ruleTargets(rule, tmpl.Category) {
			continue
		}
		matched, valid := evaluateRule(rule, rctx)
		if !valid {
			logger.Warn("skipping unevaluable decision rule",
				"rule", rule.RuleName, "metric", rule.ConditionMetric)
			continue
		}
		if !matched {
			continue
		}
		if rule.ActionType == domain.ActionFilterOut {
			return domain.RecommendationCandidate{}, false
		}
		score *= rule.ImpactFactor
		reasons = append(reasons, fmt.Sprintf("Adjusted by rule %q", rule.RuleName))
	}

	// Small jitter breaks persistent ties between near-identical scores.
	score *= 1 + (rand.Float64()*2-1)*o.cfg.JitterPercent/100

	confidence := confidenceEligible
	if !eligible {
		confidence = confidenceBlocked
	}

	return domain.RecommendationCandidate{
		StrategyName:     tmpl.Name,
		StrategyType:     tmpl.Category,
		Description:      tmpl.Description,
		PriorityScore:    score,
		ExpectedROI:      tmpl.ExpectedROI,
		EstimatedRevenue: fv.Get(domain.FeatMonthlyRevenue) * revenueShare * (tmpl.ExpectedROI / roiNormalizer),
		ConfidenceScore:  confidence,
		ActionSteps:      tmpl.ActionSteps,
		Effort:           tmpl.Effort,
		Timeline:         tmpl.Timeline,
		IsEligible:       eligible,
		Reasons:          reasons,
	}, true
}

// checkEligibility tests the template's minimums against the merchant. A zero
// minimum means no requirement; the maturity gate only applies when the
// merchant's stage is known.
func checkEligibility(tmpl domain.ActionTemplate, fv domain.FeatureVector, maturity string) (bool, []string) {
	var misses []string

	if tmpl.MinSubscribers > 0 && fv.Get(domain.FeatEmailSubscribers) < float64(tmpl.MinSubscribers) {
		misses = append(misses, fmt.Sprintf("Needs at least %d email subscribers", tmpl.MinSubscribers))
	}
	if tmpl.MinAOV > 0 && fv.Get(domain.FeatAOV) < tmpl.MinAOV {
		misses = append(misses, fmt.Sprintf("Needs an average order value of at least %.0f", tmpl.MinAOV))
	}
	if tmpl.MinCustomers > 0 && fv.Get(domain.FeatTotalCustomers) < float64(tmpl.MinCustomers) {
		misses = append(misses, fmt.Sprintf("Needs at least %d customers", tmpl.MinCustomers))
	}
	if tmpl.MinOrders > 0 && fv.Get(domain.FeatTotalOrders) < float64(tmpl.MinOrders) {
		misses = append(misses, fmt.Sprintf("Needs at least %d orders", tmpl.MinOrders))
	}
	if tmpl.MinLTV > 0 && fv.Get(domain.FeatLTV) < tmpl.MinLTV {
		misses = append(misses, fmt.Sprintf("Needs a customer LTV of at least %.0f", tmpl.MinLTV))
	}
	if len(tmpl.MinMaturity) > 0 && maturity != "" {
		found := false
		for _, stage := range tmpl.MinMaturity {
			if stage == maturity {
				found = true
				break
			}
		}
		if !found {
			misses = append(misses, fmt.Sprintf("Best suited to %s merchants", strings.Join(tmpl.MinMaturity, " or ")))
		}
	}

	return len(misses) == 0, misses
}

// buildRuleContext snapshots the merchant state decision rules can condition
// on.
func buildRuleContext(fv domain.FeatureVector, persona, maturity string, benchmarkScore float64) ruleContext {
	rctx := ruleContext{
		"monthly_revenue":      fv.Get(domain.FeatMonthlyRevenue),
		"revenue":              fv.Get(domain.FeatMonthlyRevenue),
		"aov":                  fv.Get(domain.FeatAOV),
		"ltv":                  fv.Get(domain.FeatLTV),
		"subscribers":          fv.Get(domain.FeatEmailSubscribers),
		"customers":            fv.Get(domain.FeatTotalCustomers),
		"orders":               fv.Get(domain.FeatTotalOrders),
		"repeat_purchase_rate": fv.Get(domain.FeatRepeatPurchaseRate),
	}
	if persona != "" {
		rctx["persona"] = persona
	}
	if maturity != "" {
		rctx["maturity"] = maturity
	}
	if benchmarkScore >= 0 {
		rctx["benchmark_score"] = benchmarkScore
	}
	return rctx
}
