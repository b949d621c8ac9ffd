package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bravola/insights/internal/domain"
	"github.com/google/uuid"
)

// FeedbackRepo persists outcome feedback events. Rows are append-only.
type FeedbackRepo struct{ db *sql.DB }

// NewFeedbackRepo creates a Postgres-backed feedback repository.
func NewFeedbackRepo(db *sql.DB) *FeedbackRepo { return &FeedbackRepo{db: db} }

// Insert appends a feedback event and returns it with its generated ids.
func (r *FeedbackRepo) Insert(ctx context.Context, f domain.OutcomeFeedback) (*domain.OutcomeFeedback, error) {
	if f.EventID == "" {
		f.EventID = fmt.Sprintf("FB_%s", uuid.New().String()[:8])
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO feedback_events
			(event_id, merchant_id, category, predicted_value, actual_value,
			 variance, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at
	`, f.EventID, f.MerchantID, f.Category, f.Predicted, f.Actual,
		f.Variance, f.Status,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert feedback: %w", err)
	}
	return &f, nil
}

// RecentComplete returns the newest feedback events that carry a known
// variance, up to limit. Incomplete events are excluded.
func (r *FeedbackRepo) RecentComplete(ctx context.Context, limit int) ([]domain.OutcomeFeedback, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, merchant_id, COALESCE(category,''),
		       predicted_value, actual_value, variance, status, created_at
		FROM feedback_events
		WHERE variance IS NOT NULL AND status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, domain.OutcomeComplete, limit)
	if err != nil {
		return nil, fmt.Errorf("recent feedback: %w", err)
	}
	defer rows.Close()

	var events []domain.OutcomeFeedback
	for rows.Next() {
		var f domain.OutcomeFeedback
		if err := rows.Scan(&f.ID, &f.EventID, &f.MerchantID, &f.Category,
			&f.Predicted, &f.Actual, &f.Variance, &f.Status, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		events = append(events, f)
	}
	return events, rows.Err()
}
