package feedback

import (
	"context"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/bravola/insights/internal/domain"
)

// within this relative tolerance a prediction counts as accurate
const accuracyTolerance = 0.20

// AccuracyMetrics summarizes prediction error over a set of outcomes.
type AccuracyMetrics struct {
	MAE           float64 `json:"mae"`
	RMSE          float64 `json:"rmse"`
	MAPE          float64 `json:"mape"`
	AccuracyScore float64 `json:"accuracy_score"`
	Samples       int     `json:"samples"`
}

// BiasReport flags consistent over- or under-prediction.
type BiasReport struct {
	Biased    bool    `json:"biased"`
	Direction string  `json:"direction,omitempty"`
	Magnitude float64 `json:"magnitude"`
}

// Suggestion is one model maintenance action derived from the metrics.
type Suggestion struct {
	Priority string `json:"priority"`
	Action   string `json:"action"`
	Reason   string `json:"reason"`
}

// AccuracyReport is the full ops-facing view of recent prediction quality.
type AccuracyReport struct {
	Metrics     AccuracyMetrics `json:"metrics"`
	Bias        BiasReport      `json:"bias"`
	Suggestions []Suggestion    `json:"suggestions"`
}

// PredictionAccuracy computes error metrics over complete outcomes. Rows
// without both values are skipped. Relative errors divide by max(actual, 1)
// so near-zero actuals do not explode the percentages.
func PredictionAccuracy(rows []domain.OutcomeFeedback) AccuracyMetrics {
	var absErrs, sqErrs []float64
	var relSum float64
	withinTolerance := 0

	for _, row := range rows {
		if row.Predicted == nil || row.Actual == nil {
			continue
		}
		err := *row.Predicted - *row.Actual
		absErrs = append(absErrs, math.Abs(err))
		sqErrs = append(sqErrs, err*err)

		rel := math.Abs(err) / math.Max(*row.Actual, 1)
		relSum += rel
		if rel <= accuracyTolerance {
			withinTolerance++
		}
	}
	if len(absErrs) == 0 {
		return AccuracyMetrics{}
	}

	mae, _ := stats.Mean(absErrs)
	meanSq, _ := stats.Mean(sqErrs)
	n := float64(len(absErrs))

	return AccuracyMetrics{
		MAE:           mae,
		RMSE:          math.Sqrt(meanSq),
		MAPE:          relSum / n * 100,
		AccuracyScore: float64(withinTolerance) / n * 100,
		Samples:       len(absErrs),
	}
}

// SystematicBias checks whether the signed variance drifts consistently in
// one direction. Magnitudes above 10 units flag a bias.
func SystematicBias(rows []domain.OutcomeFeedback) BiasReport {
	var variances []float64
	for _, row := range rows {
		if row.Variance != nil {
			variances = append(variances, *row.Variance)
		}
	}
	if len(variances) == 0 {
		return BiasReport{}
	}

	mean, err := stats.Mean(variances)
	if err != nil || math.Abs(mean) <= 10 {
		return BiasReport{Magnitude: math.Abs(mean)}
	}

	direction := "under"
	if mean > 0 {
		direction = "over"
	}
	return BiasReport{Biased: true, Direction: direction, Magnitude: math.Abs(mean)}
}

// AccuracyReport builds the full report over the most recent complete
// outcomes.
func (e *Engine) AccuracyReport(ctx context.Context, window int) (*AccuracyReport, error) {
	rows, err := e.store.RecentComplete(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("accuracy report: %w", err)
	}

	report := &AccuracyReport{
		Metrics: PredictionAccuracy(rows),
		Bias:    SystematicBias(rows),
	}

	if report.Metrics.Samples > 0 && report.Metrics.AccuracyScore < 60 {
		report.Suggestions = append(report.Suggestions, Suggestion{
			Priority: "high",
			Action:   "Retrain models with recent data",
			Reason:   fmt.Sprintf("Only %.1f%% of predictions within tolerance", report.Metrics.AccuracyScore),
		})
	}
	if report.Metrics.MAPE > 30 {
		report.Suggestions = append(report.Suggestions, Suggestion{
			Priority: "high",
			Action:   "Review prediction variance",
			Reason:   fmt.Sprintf("MAPE at %.1f%%", report.Metrics.MAPE),
		})
	}
	if report.Bias.Biased {
		report.Suggestions = append(report.Suggestions, Suggestion{
			Priority: "medium",
			Action:   fmt.Sprintf("Adjust model baseline by %.1f", report.Bias.Magnitude),
			Reason:   fmt.Sprintf("Consistent %s-prediction", report.Bias.Direction),
		})
	}
	return report, nil
}
