package benchmark

import (
	"context"
	"fmt"
	"math"

	"github.com/bravola/insights/internal/domain"
	"github.com/bravola/insights/internal/features"
	"github.com/bravola/insights/internal/pkg/logger"
	"github.com/bravola/insights/internal/predictor"
)

// Core metrics scored against the peer distribution. Overall score is their
// unweighted mean.
var scoredMetrics = []string{
	domain.FeatAOV,
	domain.FeatLTV,
	domain.FeatRepeatPurchaseRate,
}

var improvementTactics = map[string]domain.ImprovementArea{
	domain.FeatAOV: {
		Area: "Average Order Value",
		Tactics: []string{
			"Bundle complementary products",
			"Add a free-shipping threshold above the current AOV",
			"Surface upsells at checkout",
		},
	},
	domain.FeatLTV: {
		Area: "Customer Lifetime Value",
		Tactics: []string{
			"Launch a loyalty or rewards program",
			"Build post-purchase email flows",
			"Introduce a subscription option for repeat items",
		},
	},
	domain.FeatRepeatPurchaseRate: {
		Area: "Repeat Purchases",
		Tactics: []string{
			"Send replenishment reminders timed to product usage",
			"Run win-back campaigns for lapsed customers",
			"Offer a second-purchase incentive",
		},
	},
}

// FeatureSource yields the feature vector the engine scores.
type FeatureSource interface {
	Vector(ctx context.Context, merchantID, featureSet string) (domain.FeatureVector, error)
}

// Engine produces peer-relative performance analyses.
type Engine struct {
	features   FeatureSource
	clusterer  predictor.Predictor
	benchmarks map[int]domain.PeerBenchmark
	version    string
}

// NewEngine wires a benchmark engine. benchmarks may be nil when the model
// registry is unavailable; analyses then fail with ErrModelsNotLoaded.
func NewEngine(source FeatureSource, clusterer predictor.Predictor, benchmarks map[int]domain.PeerBenchmark, version string) *Engine {
	return &Engine{features: source, clusterer: clusterer, benchmarks: benchmarks, version: version}
}

// AnalyzePerformance scores the merchant's core metrics against its peer
// group. Returns predictor.ErrModelsNotLoaded when the clusterer or the
// percentile tables are unavailable.
func (e *Engine) AnalyzePerformance(ctx context.Context, merchantID string) (*domain.BenchmarkResult, error) {
	if len(e.benchmarks) == 0 {
		return nil, predictor.ErrModelsNotLoaded
	}

	fv, err := e.features.Vector(ctx, merchantID, features.SetAll)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", merchantID, err)
	}

	group, err := e.clusterer.Cluster(fv)
	if err != nil {
		return nil, err
	}

	peers, ok := e.benchmarks[group]
	if !ok {
		// Stale cluster assignment against a newer benchmark table; score
		// against the default group rather than failing the request.
		logger.Warn("no benchmark table for peer group, using default",
			"merchant_id", merchantID, "peer_group", group)
		peers, ok = e.benchmarks[0]
		if !ok {
			return nil, predictor.ErrModelsNotLoaded
		}
	}

	result := &domain.BenchmarkResult{
		PeerGroupID:   group,
		PeerGroupName: fmt.Sprintf("Peer Group %d", group+1),
		ModelVersion:  e.version,
	}

	var total float64
	for _, metric := range scoredMetrics {
		p := peers[metric]
		value := fv.Get(metric)
		score := Score(value, p)
		total += score

		result.Metrics = append(result.Metrics, domain.ScoreResult{
			Metric: metric,
			Value:  value,
			P25:    p.P25,
			P50:    p.P50,
			P75:    p.P75,
			Score:  score,
			Status: StatusFor(score),
		})

		if score < 50 {
			result.Gaps = append(result.Gaps, domain.MetricGap{
				Metric: metric,
				Gap:    p.P50 - value,
			})
			if area, ok := improvementTactics[metric]; ok {
				result.ImprovementAreas = append(result.ImprovementAreas, area)
			}
		}
	}

	result.OverallScore = total / float64(len(scoredMetrics))
	result.EngagementScore = math.Min(100, fv.Get(domain.FeatCampaignEngagement)*100)

	return result, nil
}
