package strategy

import (
	"strconv"
	"strings"

	"github.com/bravola/insights/internal/domain"
)

// ruleContext is the snapshot of merchant state a rule condition reads.
// Values are float64 for numeric metrics and string for labels.
type ruleContext map[string]interface{}

// ruleTargets reports whether a rule applies to a template category.
func ruleTargets(rule domain.DecisionRule, category string) bool {
	return rule.TargetStrategyType == domain.RuleTargetAll ||
		strings.EqualFold(rule.TargetStrategyType, category)
}

// evaluateRule checks a rule condition against the context. valid is false
// when the rule cannot be evaluated (unknown metric, threshold that does not
// coerce to the operator's type); such rules are skipped, never matched.
func evaluateRule(rule domain.DecisionRule, rctx ruleContext) (matched, valid bool) {
	raw, exists := rctx[rule.ConditionMetric]
	if !exists {
		return false, false
	}
	threshold := strings.TrimSpace(rule.ThresholdValue)

	switch rule.Operator {
	case domain.OpGreaterThan, domain.OpLessThan:
		value, ok := raw.(float64)
		if !ok {
			return false, false
		}
		want, err := strconv.ParseFloat(threshold, 64)
		if err != nil {
			return false, false
		}
		if rule.Operator == domain.OpGreaterThan {
			return value > want, true
		}
		return value < want, true

	case domain.OpEquals:
		if value, ok := raw.(float64); ok {
			want, err := strconv.ParseFloat(threshold, 64)
			if err != nil {
				return false, false
			}
			return value == want, true
		}
		value, ok := raw.(string)
		if !ok {
			return false, false
		}
		return strings.EqualFold(value, threshold), true

	case domain.OpContains:
		value, ok := raw.(string)
		if !ok {
			return false, false
		}
		return strings.Contains(strings.ToLower(value), strings.ToLower(threshold)), true

	default:
		return false, false
	}
}
