package domain

// PerformanceStatus is the qualitative read of a percentile score.
type PerformanceStatus string

const (
	StatusAbove   PerformanceStatus = "above"
	StatusAverage PerformanceStatus = "average"
	StatusBelow   PerformanceStatus = "below"
)

// MetricPercentiles holds a peer group's distribution anchors for one metric.
// Immutable once produced by the offline training run.
type MetricPercentiles struct {
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
}

// PeerBenchmark maps metric names to peer percentile anchors for one peer
// group. Read-only to the analysis core.
type PeerBenchmark map[string]MetricPercentiles

// ScoreResult is the scored position of one metric against its peer
// distribution. Always recomputed from the current feature vector and peer
// benchmark, never persisted on its own.
type ScoreResult struct {
	Metric string            `json:"metric"`
	Value  float64           `json:"value"`
	P25    float64           `json:"p25"`
	P50    float64           `json:"p50"`
	P75    float64           `json:"p75"`
	Score  float64           `json:"score"`
	Status PerformanceStatus `json:"status"`
}

// MetricGap describes the distance to the peer median for an underperforming
// metric.
type MetricGap struct {
	Metric string  `json:"metric"`
	Gap    float64 `json:"gap"`
}

// ImprovementArea names a growth lever with suggested tactics.
type ImprovementArea struct {
	Area    string   `json:"area"`
	Tactics []string `json:"tactics"`
}

// BenchmarkResult is the full output of a performance analysis.
type BenchmarkResult struct {
	PeerGroupID      int               `json:"peer_group_id"`
	PeerGroupName    string            `json:"peer_group_name"`
	OverallScore     float64           `json:"overall_score"`
	EngagementScore  float64           `json:"engagement_score"`
	Metrics          []ScoreResult     `json:"metrics"`
	Gaps             []MetricGap       `json:"gap_analysis"`
	ImprovementAreas []ImprovementArea `json:"improvement_areas"`
	ModelVersion     string            `json:"model_version"`
}
