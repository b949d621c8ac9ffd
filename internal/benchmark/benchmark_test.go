package benchmark

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bravola/insights/internal/domain"
	"github.com/bravola/insights/internal/predictor"
)

var anchors = domain.MetricPercentiles{P25: 20, P50: 40, P75: 80}

func TestScoreAnchors(t *testing.T) {
	assert.InDelta(t, 25.0, Score(20, anchors), 1e-9)
	assert.InDelta(t, 50.0, Score(40, anchors), 1e-9)
	assert.InDelta(t, 75.0, Score(80, anchors), 1e-9)
}

func TestScoreMidpoints(t *testing.T) {
	assert.InDelta(t, 37.5, Score(30, anchors), 1e-9)
	assert.InDelta(t, 62.5, Score(60, anchors), 1e-9)
	assert.InDelta(t, 12.5, Score(10, anchors), 1e-9)
}

func TestScoreMonotonic(t *testing.T) {
	prev := -1.0
	for v := 0.0; v <= 200; v += 0.5 {
		score := Score(v, anchors)
		assert.GreaterOrEqual(t, score, prev, "score must not decrease at value %v", v)
		prev = score
	}
}

func TestScoreClamp(t *testing.T) {
	assert.InDelta(t, 100.0, Score(1e6, anchors), 1e-9)
	assert.InDelta(t, 0.0, Score(0, anchors), 1e-9)
}

func TestScoreDegenerateDistributions(t *testing.T) {
	// Zero p25 scores flat 25 instead of dividing by zero.
	assert.InDelta(t, 25.0, Score(0, domain.MetricPercentiles{P25: 0, P50: 40, P75: 80}), 1e-9)

	// A repeated anchor collapses its segment; values on the anchor score the
	// segment floor and values past it interpolate through the next segment.
	assert.InDelta(t, 25.0, Score(20, domain.MetricPercentiles{P25: 20, P50: 20, P75: 80}), 1e-9)
	assert.InDelta(t, 50.0+25.0*5.0/60.0, Score(25, domain.MetricPercentiles{P25: 20, P50: 20, P75: 80}), 1e-9)
	assert.InDelta(t, 50.0, Score(40, domain.MetricPercentiles{P25: 20, P50: 40, P75: 40}), 1e-9)
	assert.InDelta(t, 81.25, Score(50, domain.MetricPercentiles{P25: 20, P50: 40, P75: 40}), 1e-9)

	// All-zero percentiles score flat 75 above the top band.
	assert.InDelta(t, 75.0, Score(10, domain.MetricPercentiles{}), 1e-9)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, domain.StatusAbove, StatusFor(60.1))
	assert.Equal(t, domain.StatusAverage, StatusFor(60))
	assert.Equal(t, domain.StatusAverage, StatusFor(40))
	assert.Equal(t, domain.StatusBelow, StatusFor(39.9))
}

type stubFeatures struct {
	fv  domain.FeatureVector
	err error
}

func (s stubFeatures) Vector(ctx context.Context, merchantID, featureSet string) (domain.FeatureVector, error) {
	return s.fv, s.err
}

type stubClusterer struct {
	group int
	err   error
}

func (s stubClusterer) Classify(domain.FeatureVector) (string, float64, error) {
	return "", 0, errors.New("not a classifier")
}
func (s stubClusterer) Cluster(domain.FeatureVector) (int, error) { return s.group, s.err }
func (s stubClusterer) Rank(domain.FeatureVector) (float64, error) {
	return 0, errors.New("not a ranker")
}

func testBenchmarks() map[int]domain.PeerBenchmark {
	return map[int]domain.PeerBenchmark{
		0: {
			domain.FeatAOV:                {P25: 20, P50: 40, P75: 80},
			domain.FeatLTV:                {P25: 100, P50: 200, P75: 400},
			domain.FeatRepeatPurchaseRate: {P25: 1, P50: 2, P75: 4},
		},
	}
}

func TestAnalyzePerformance(t *testing.T) {
	fv := domain.FeatureVector{
		domain.FeatAOV:                40,  // scores 50
		domain.FeatLTV:                400, // scores 75
		domain.FeatRepeatPurchaseRate: 1,   // scores 25
		domain.FeatCampaignEngagement: 0.3,
	}
	engine := NewEngine(stubFeatures{fv: fv}, stubClusterer{group: 0}, testBenchmarks(), "2.3")

	result, err := engine.AnalyzePerformance(context.Background(), "m1")
	require.NoError(t, err)

	assert.Equal(t, 0, result.PeerGroupID)
	assert.InDelta(t, 50.0, result.OverallScore, 1e-9)
	assert.InDelta(t, 30.0, result.EngagementScore, 1e-9)
	assert.Equal(t, "2.3", result.ModelVersion)
	require.Len(t, result.Metrics, 3)
	assert.Equal(t, domain.StatusAverage, result.Metrics[0].Status)
	assert.Equal(t, domain.StatusAbove, result.Metrics[1].Status)
	assert.Equal(t, domain.StatusBelow, result.Metrics[2].Status)

	// Only repeat_purchase_rate scored below 50.
	require.Len(t, result.Gaps, 1)
	assert.Equal(t, domain.FeatRepeatPurchaseRate, result.Gaps[0].Metric)
	assert.InDelta(t, 1.0, result.Gaps[0].Gap, 1e-9)
	require.Len(t, result.ImprovementAreas, 1)
	assert.Equal(t, "Repeat Purchases", result.ImprovementAreas[0].Area)
}

func TestAnalyzePerformanceEngagementClamped(t *testing.T) {
	fv := domain.FeatureVector{domain.FeatCampaignEngagement: 2.5}
	engine := NewEngine(stubFeatures{fv: fv}, stubClusterer{}, testBenchmarks(), "1.0")

	result, err := engine.AnalyzePerformance(context.Background(), "m1")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, result.EngagementScore, 1e-9)
}

func TestAnalyzePerformanceUnknownGroupFallsBack(t *testing.T) {
	fv := domain.FeatureVector{domain.FeatAOV: 40}
	engine := NewEngine(stubFeatures{fv: fv}, stubClusterer{group: 7}, testBenchmarks(), "1.0")

	result, err := engine.AnalyzePerformance(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, 7, result.PeerGroupID)
	assert.InDelta(t, 50.0, result.Metrics[0].Score, 1e-9, "scored against the default table")
}

func TestAnalyzePerformanceModelsNotLoaded(t *testing.T) {
	engine := NewEngine(stubFeatures{}, stubClusterer{}, nil, "")
	_, err := engine.AnalyzePerformance(context.Background(), "m1")
	assert.ErrorIs(t, err, predictor.ErrModelsNotLoaded)

	engine = NewEngine(stubFeatures{fv: domain.FeatureVector{}},
		stubClusterer{err: predictor.ErrModelsNotLoaded}, testBenchmarks(), "")
	_, err = engine.AnalyzePerformance(context.Background(), "m1")
	assert.ErrorIs(t, err, predictor.ErrModelsNotLoaded)
}

func TestAnalyzePerformanceFeatureError(t *testing.T) {
	wantErr := errors.New("db down")
	engine := NewEngine(stubFeatures{err: wantErr}, stubClusterer{}, testBenchmarks(), "")
	_, err := engine.AnalyzePerformance(context.Background(), "m1")
	assert.ErrorIs(t, err, wantErr)
}
