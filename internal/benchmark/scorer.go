// Package benchmark scores a merchant's metrics against peer percentile
// distributions and rolls them up into a performance analysis.
package benchmark

import (
	"math"

	"github.com/bravola/insights/internal/domain"
)

// Score maps a metric value onto a 0..100 scale against peer percentile
// anchors. The mapping is piecewise linear with fixed points at the
// percentiles: p25 scores 25, p50 scores 50, p75 scores 75. Degenerate
// distributions (a zero or repeated anchor) score flat at the segment floor
// instead of dividing by zero. Values beyond p75 extrapolate linearly and
// clamp at 100.
func Score(value float64, p domain.MetricPercentiles) float64 {
	switch {
	case value <= p.P25:
		if p.P25 == 0 {
			return 25
		}
		return 25 * (value / p.P25)
	case value <= p.P50:
		if p.P50 == p.P25 {
			return 25
		}
		return 25 + 25*((value-p.P25)/(p.P50-p.P25))
	case value <= p.P75:
		if p.P75 == p.P50 {
			return 50
		}
		return 50 + 25*((value-p.P50)/(p.P75-p.P50))
	default:
		if p.P75 == 0 {
			return 75
		}
		return math.Min(100, 75+25*((value-p.P75)/p.P75))
	}
}

// StatusFor buckets a percentile score into a qualitative read.
func StatusFor(score float64) domain.PerformanceStatus {
	switch {
	case score > 60:
		return domain.StatusAbove
	case score < 40:
		return domain.StatusBelow
	default:
		return domain.StatusAverage
	}
}
