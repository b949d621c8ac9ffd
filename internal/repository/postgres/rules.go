package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bravola/insights/internal/domain"
)

// RuleRepo manages decision rules in PostgreSQL. The orchestrator only reads
// the active set; create/update exist for the administrative surface.
type RuleRepo struct{ db *sql.DB }

// NewRuleRepo creates a Postgres-backed decision rule repository.
func NewRuleRepo(db *sql.DB) *RuleRepo { return &RuleRepo{db: db} }

// ListActive returns all active decision rules, newest first.
func (r *RuleRepo) ListActive(ctx context.Context) ([]domain.DecisionRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, rule_name, COALESCE(description,''), condition_metric,
		       operator, threshold_value, action_type, target_strategy_type,
		       impact_factor, is_active, created_at
		FROM strategy_rules
		WHERE is_active
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.DecisionRule
	for rows.Next() {
		var dr domain.DecisionRule
		if err := rows.Scan(&dr.ID, &dr.RuleName, &dr.Description,
			&dr.ConditionMetric, &dr.Operator, &dr.ThresholdValue,
			&dr.ActionType, &dr.TargetStrategyType, &dr.ImpactFactor,
			&dr.IsActive, &dr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, dr)
	}
	return rules, rows.Err()
}

// Create inserts a new decision rule and returns it with its generated id.
func (r *RuleRepo) Create(ctx context.Context, dr domain.DecisionRule) (*domain.DecisionRule, error) {
	if dr.ImpactFactor == 0 {
		dr.ImpactFactor = 1.0
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO strategy_rules
			(rule_name, description, condition_metric, operator, threshold_value,
			 action_type, target_strategy_type, impact_factor, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at
	`, dr.RuleName, dr.Description, dr.ConditionMetric, dr.Operator,
		dr.ThresholdValue, dr.ActionType, dr.TargetStrategyType,
		dr.ImpactFactor, dr.IsActive,
	).Scan(&dr.ID, &dr.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create rule: %w", err)
	}
	return &dr, nil
}

// SetActive flips a rule's active flag.
func (r *RuleRepo) SetActive(ctx context.Context, id int, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE strategy_rules SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("set rule active: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a rule.
func (r *RuleRepo) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM strategy_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
