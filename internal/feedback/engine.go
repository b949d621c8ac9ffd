// Package feedback records predicted-vs-actual outcomes and watches them for
// model drift and systematic prediction error.
package feedback

import (
	"context"
	"fmt"

	"github.com/bravola/insights/internal/domain"
	"github.com/bravola/insights/internal/pkg/logger"
)

// Store is the persistence the feedback loop needs.
type Store interface {
	Insert(ctx context.Context, f domain.OutcomeFeedback) (*domain.OutcomeFeedback, error)
	RecentComplete(ctx context.Context, limit int) ([]domain.OutcomeFeedback, error)
}

// Engine appends outcome observations. Rows are append only; a later actual
// for the same prediction is a new event, not an update.
type Engine struct {
	store Store
}

// NewEngine creates a feedback engine over the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// RecordOutcome stores one observation. When either value is missing the row
// is kept with status incomplete and no variance, excluded from every
// aggregate until a complete observation arrives.
func (e *Engine) RecordOutcome(ctx context.Context, merchantID, category string, predicted, actual *float64) (*domain.OutcomeFeedback, error) {
	event := domain.OutcomeFeedback{
		MerchantID: merchantID,
		Category:   category,
		Predicted:  predicted,
		Actual:     actual,
		Status:     domain.OutcomeIncomplete,
	}
	if predicted != nil && actual != nil {
		variance := *actual - *predicted
		event.Variance = &variance
		event.Status = domain.OutcomeComplete
	}

	saved, err := e.store.Insert(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("record outcome for %s: %w", merchantID, err)
	}

	logger.Info("outcome recorded",
		"event_id", saved.EventID,
		"merchant_id", merchantID,
		"category", category,
		"status", string(saved.Status))
	return saved, nil
}
