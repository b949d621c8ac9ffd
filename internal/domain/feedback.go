package domain

import "time"

// OutcomeStatus marks whether a feedback event carries both values needed for
// drift aggregation.
type OutcomeStatus string

const (
	OutcomeComplete   OutcomeStatus = "complete"
	OutcomeIncomplete OutcomeStatus = "incomplete"
)

// Prediction accuracy categories derived from variance percentage.
const (
	AccuracyExcellent = "excellent"
	AccuracyGood      = "good"
	AccuracyFair      = "fair"
	AccuracyPoor      = "poor"
)

// OutcomeFeedback is one predicted-vs-actual observation. Rows are append
// only and never updated after creation. Variance is nil until both values
// are known.
type OutcomeFeedback struct {
	ID         int           `json:"id" db:"id"`
	EventID    string        `json:"event_id" db:"event_id"`
	MerchantID string        `json:"merchant_id" db:"merchant_id"`
	Category   string        `json:"category" db:"category"`
	Predicted  *float64      `json:"predicted_value" db:"predicted_value"`
	Actual     *float64      `json:"actual_value" db:"actual_value"`
	Variance   *float64      `json:"variance" db:"variance"`
	Status     OutcomeStatus `json:"status" db:"status"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
}

// AccuracyCategory buckets the relative prediction error. predicted==0 with a
// nonzero variance is treated as a poor prediction.
func (o OutcomeFeedback) AccuracyCategory() string {
	if o.Variance == nil || o.Predicted == nil {
		return ""
	}
	if *o.Predicted == 0 {
		if *o.Variance == 0 {
			return AccuracyExcellent
		}
		return AccuracyPoor
	}
	pct := *o.Variance / *o.Predicted * 100
	if pct < 0 {
		pct = -pct
	}
	switch {
	case pct < 10:
		return AccuracyExcellent
	case pct < 25:
		return AccuracyGood
	case pct < 50:
		return AccuracyFair
	default:
		return AccuracyPoor
	}
}
