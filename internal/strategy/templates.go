// Package strategy ranks growth-action templates for a merchant by combining
// a trained base score with ROI weighting, profile boosts, and operator
// decision rules.
package strategy

import "github.com/bravola/insights/internal/domain"

// Template categories used for rule targeting.
const (
	CategoryAutomation   = "Email Automation"
	CategoryRetention    = "Retention"
	CategorySegmentation = "Segmentation"
	CategoryCampaign     = "Campaign"
	CategoryPromotion    = "Promotion"
)

// DefaultTemplates is the built-in growth-action catalog, used when the
// artifact bundle does not ship its own.
func DefaultTemplates() []domain.ActionTemplate {
	return []domain.ActionTemplate{
		{
			Name:           "Welcome Series",
			Category:       CategoryAutomation,
			Description:    "Automated onboarding flow that introduces new subscribers to the brand and drives the first purchase.",
			ExpectedROI:    150,
			MinSubscribers: 100,
			MinMaturity:    []string{domain.MaturityStartup, domain.MaturityGrowth},
			ActionSteps: []string{
				"Map the first 30 days of the subscriber journey",
				"Write a 3-5 email welcome sequence",
				"Add a first-purchase incentive to the final email",
				"Set up the automation trigger on signup",
			},
			Effort:   domain.EffortMedium,
			Timeline: "1-2 weeks",
		},
		{
			Name:        "Abandoned Cart",
			Category:    CategoryAutomation,
			Description: "Recover revenue from shoppers who added to cart but never checked out.",
			ExpectedROI: 250,
			MinAOV:      30,
			ActionSteps: []string{
				"Enable cart tracking on the storefront",
				"Build a 2-3 email recovery sequence",
				"Test incentive vs. no-incentive variants",
			},
			Effort:   domain.EffortMedium,
			Timeline: "1-2 weeks",
		},
		{
			Name:         "Win-Back",
			Category:     CategoryRetention,
			Description:  "Re-activate customers who have not purchased in their usual cycle.",
			ExpectedROI:  180,
			MinCustomers: 200,
			ActionSteps: []string{
				"Define lapsed thresholds from purchase-cycle data",
				"Create an escalating offer sequence",
				"Suppress recent purchasers from the audience",
			},
			Effort:   domain.EffortLow,
			Timeline: "3-5 days",
		},
		{
			Name:        "Post-Purchase",
			Category:    CategoryAutomation,
			Description: "Follow up after every order to build loyalty and drive the next purchase.",
			ExpectedROI: 140,
			MinOrders:   100,
			ActionSteps: []string{
				"Design order confirmation and delivery follow-ups",
				"Add a review request at the right delay",
				"Recommend complementary products post-delivery",
			},
			Effort:   domain.EffortMedium,
			Timeline: "1-2 weeks",
		},
		{
			Name:        "VIP Segment",
			Category:    CategorySegmentation,
			Description: "Identify top customers and treat them to exclusive offers and early access.",
			ExpectedROI: 300,
			MinLTV:      200,
			MinMaturity: []string{domain.MaturityScaleUp, domain.MaturityMature},
			ActionSteps: []string{
				"Define VIP criteria from LTV and order frequency",
				"Build the dynamic VIP segment",
				"Launch an early-access or exclusive-perk program",
				"Measure incremental revenue against a holdout",
			},
			Effort:   domain.EffortHigh,
			Timeline: "2-3 weeks",
		},
		{
			Name:           "New Product Launch",
			Category:       CategoryCampaign,
			Description:    "Coordinated announcement campaign for new arrivals.",
			ExpectedROI:    160,
			MinSubscribers: 500,
			ActionSteps: []string{
				"Build a teaser and announcement sequence",
				"Segment by past category affinity",
				"Follow up with social proof after launch",
			},
			Effort:   domain.EffortMedium,
			Timeline: "1-2 weeks",
		},
		{
			Name:        "Seasonal Promotion",
			Category:    CategoryPromotion,
			Description: "Time-boxed promotional push around a seasonal moment.",
			ExpectedROI: 200,
			ActionSteps: []string{
				"Pick the seasonal moment and offer structure",
				"Build urgency with a countdown sequence",
				"Plan inventory for the expected demand spike",
			},
			Effort:   domain.EffortLow,
			Timeline: "3-5 days",
		},
		{
			Name:           "Re-engagement",
			Category:       CategoryRetention,
			Description:    "Wake up inactive subscribers before list hygiene removes them.",
			ExpectedROI:    120,
			MinSubscribers: 300,
			ActionSteps: []string{
				"Segment subscribers with no opens in 90 days",
				"Send a preference-update and incentive sequence",
				"Sunset non-responders to protect deliverability",
			},
			Effort:   domain.EffortLow,
			Timeline: "2-4 days",
		},
	}
}

// personaBoosts lists the strategies that fit each persona's playbook.
// Matching candidates get a fixed multiplier during scoring.
var personaBoosts = map[string][]string{
	domain.PersonaDiscountDiscounter: {"Seasonal Promotion", "VIP Segment"},
	domain.PersonaBrandBuilder:       {"Post-Purchase", "VIP Segment"},
	domain.PersonaProductPusher:      {"New Product Launch"},
	domain.PersonaLifecycleMaster:    {"Welcome Series", "Re-engagement"},
	domain.PersonaSegmentSpecialist:  {"VIP Segment", "Abandoned Cart"},
}

func personaBoostApplies(persona, strategyName string) bool {
	for _, name := range personaBoosts[persona] {
		if name == strategyName {
			return true
		}
	}
	return false
}
