package domain

import "time"

// RuleOperator enumerates the comparison operators a decision rule may use.
type RuleOperator string

const (
	OpGreaterThan RuleOperator = "gt"
	OpLessThan    RuleOperator = "lt"
	OpEquals      RuleOperator = "eq"
	OpContains    RuleOperator = "contains"
)

// RuleAction enumerates what a matched rule does to a candidate.
type RuleAction string

const (
	ActionBoostScore RuleAction = "boost_score"
	ActionFilterOut  RuleAction = "filter_out"
)

// RuleTargetAll matches a rule against every strategy type.
const RuleTargetAll = "All"

// DecisionRule is a stored condition→action record that adjusts
// recommendation ranking without a code change. Rules are created and edited
// by an administrative surface; the orchestrator only reads them.
//
// ThresholdValue is stored as text and coerced at evaluation time to the type
// implied by the operator. ImpactFactor is only meaningful for boost_score.
type DecisionRule struct {
	ID                 int          `json:"id" db:"id"`
	RuleName           string       `json:"rule_name" db:"rule_name"`
	Description        string       `json:"description" db:"description"`
	ConditionMetric    string       `json:"condition_metric" db:"condition_metric"`
	Operator           RuleOperator `json:"operator" db:"operator"`
	ThresholdValue     string       `json:"threshold_value" db:"threshold_value"`
	ActionType         RuleAction   `json:"action_type" db:"action_type"`
	TargetStrategyType string       `json:"target_strategy_type" db:"target_strategy_type"`
	ImpactFactor       float64      `json:"impact_factor" db:"impact_factor"`
	IsActive           bool         `json:"is_active" db:"is_active"`
	CreatedAt          time.Time    `json:"created_at" db:"created_at"`
}

// EffortTier is the implementation effort estimate for an action template.
type EffortTier string

const (
	EffortLow    EffortTier = "low"
	EffortMedium EffortTier = "medium"
	EffortHigh   EffortTier = "high"
)

// ActionTemplate is one entry of the static growth-action catalog produced by
// the offline training job. Eligibility minimums of zero mean "no
// requirement"; MinMaturity empty means any stage qualifies.
type ActionTemplate struct {
	Name           string     `json:"name"`
	Category       string     `json:"category"`
	Description    string     `json:"description"`
	ExpectedROI    float64    `json:"expected_roi"`
	MinSubscribers int        `json:"min_subscribers,omitempty"`
	MinAOV         float64    `json:"min_aov,omitempty"`
	MinCustomers   int        `json:"min_customers,omitempty"`
	MinOrders      int        `json:"min_orders,omitempty"`
	MinLTV         float64    `json:"min_ltv,omitempty"`
	MinMaturity    []string   `json:"min_maturity,omitempty"`
	ActionSteps    []string   `json:"action_steps"`
	Effort         EffortTier `json:"estimated_effort"`
	Timeline       string     `json:"timeline"`
}

// RecommendationCandidate is one scored, ranked growth action produced per
// orchestration run. Transient; the caller decides whether to persist it.
type RecommendationCandidate struct {
	StrategyName     string     `json:"strategy_name"`
	StrategyType     string     `json:"strategy_type"`
	Description      string     `json:"description"`
	PriorityScore    float64    `json:"priority_score"`
	ExpectedROI      float64    `json:"expected_roi"`
	EstimatedRevenue float64    `json:"estimated_revenue"`
	ConfidenceScore  float64    `json:"confidence_score"`
	ActionSteps      []string   `json:"action_steps"`
	Effort           EffortTier `json:"estimated_effort"`
	Timeline         string     `json:"timeline"`
	IsEligible       bool       `json:"is_eligible"`
	Reasons          []string   `json:"reasons"`
}
