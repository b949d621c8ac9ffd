package feedback

import (
	"context"
	"math"

	"github.com/montanaflynn/stats"

	appconfig "github.com/bravola/insights/internal/config"
	"github.com/bravola/insights/internal/pkg/logger"
)

// DriftReport is the outcome of one drift check.
type DriftReport struct {
	Drifted          bool    `json:"drifted"`
	BaselineAccuracy float64 `json:"baseline_accuracy"`
	CurrentAccuracy  float64 `json:"current_accuracy"`
	Drift            float64 `json:"drift"`
	Threshold        float64 `json:"threshold"`
	Samples          int     `json:"samples"`
	Reason           string  `json:"reason,omitempty"`
}

// DriftChecker compares the trained baseline accuracy against an accuracy
// proxy derived from recent outcome variance.
type DriftChecker struct {
	store      Store
	baseline   float64
	minSamples int
	window     int
	threshold  float64
}

// NewDriftChecker wires a drift checker. baselineAccuracy comes from the
// training metadata; zero falls back to the configured default.
func NewDriftChecker(store Store, baselineAccuracy float64, cfg appconfig.DriftConfig) *DriftChecker {
	if baselineAccuracy <= 0 {
		baselineAccuracy = cfg.BaselineAccuracy
	}
	return &DriftChecker{
		store:      store,
		baseline:   baselineAccuracy,
		minSamples: cfg.MinSamples,
		window:     cfg.WindowSize,
		threshold:  cfg.Threshold,
	}
}

// CheckDrift evaluates recent outcomes against the baseline. threshold <= 0
// uses the configured default. The check never fails: any internal error is
// logged and reported as no drift, since a broken check must not trigger
// retraining.
func (c *DriftChecker) CheckDrift(ctx context.Context, threshold float64) DriftReport {
	if threshold <= 0 {
		threshold = c.threshold
	}
	report := DriftReport{
		BaselineAccuracy: c.baseline,
		Threshold:        threshold,
	}

	recent, err := c.store.RecentComplete(ctx, c.window)
	if err != nil {
		logger.Error("drift check failed, assuming no drift", "error", err.Error())
		report.Reason = "feedback store unavailable"
		return report
	}

	variances := make([]float64, 0, len(recent))
	for _, row := range recent {
		if row.Variance != nil {
			variances = append(variances, math.Abs(*row.Variance))
		}
	}
	report.Samples = len(variances)

	if len(variances) < c.minSamples {
		report.Reason = "insufficient samples"
		return report
	}

	meanVariance, err := stats.Mean(variances)
	if err != nil {
		logger.Error("drift check failed, assuming no drift", "error", err.Error())
		report.Reason = "aggregation failed"
		return report
	}

	// A mean variance of 0.1 reads as roughly 90% accuracy.
	report.CurrentAccuracy = 1 - meanVariance
	report.Drift = (c.baseline - report.CurrentAccuracy) / c.baseline
	report.Drifted = report.Drift > threshold

	logger.Info("drift check",
		"baseline", report.BaselineAccuracy,
		"current", report.CurrentAccuracy,
		"drift", report.Drift,
		"drifted", report.Drifted,
		"samples", report.Samples)
	return report
}
