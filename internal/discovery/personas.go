// Package discovery classifies a merchant's marketing persona and business
// maturity stage and enriches the labels with descriptive profiles.
package discovery

import "github.com/bravola/insights/internal/domain"

var personaProfiles = map[string]domain.PersonaProfile{
	domain.PersonaDiscountDiscounter: {
		Characteristics: []string{
			"Leans on discounts to drive conversion",
			"High promotional email volume",
			"Price-sensitive customer base",
		},
		Strengths: []string{
			"Strong short-term conversion rates",
			"Effective at moving seasonal inventory",
		},
		Opportunities: []string{
			"Build full-price purchase habits with value-led messaging",
			"Protect margin with tiered instead of blanket discounts",
		},
	},
	domain.PersonaBrandBuilder: {
		Characteristics: []string{
			"Invests in brand storytelling over promotions",
			"Consistent content cadence",
			"Above-average engagement rates",
		},
		Strengths: []string{
			"Loyal, high-intent audience",
			"Healthy margins from full-price selling",
		},
		Opportunities: []string{
			"Convert engagement into repeat purchases with lifecycle flows",
			"Reward the most engaged segment explicitly",
		},
	},
	domain.PersonaProductPusher: {
		Characteristics: []string{
			"Campaigns center on product drops and launches",
			"Large catalog, frequent new arrivals",
		},
		Strengths: []string{
			"Strong launch-spike revenue",
			"Audience conditioned to check new arrivals",
		},
		Opportunities: []string{
			"Smooth revenue between launches with evergreen flows",
			"Cross-sell the back catalog to launch buyers",
		},
	},
	domain.PersonaLifecycleMaster: {
		Characteristics: []string{
			"Automated flows cover the full customer journey",
			"Segmented sends with strong deliverability hygiene",
		},
		Strengths: []string{
			"High revenue per recipient",
			"Predictable, automated revenue base",
		},
		Opportunities: []string{
			"Layer predictive send-time and product recommendations",
			"Expand to underused channels with the same rigor",
		},
	},
	domain.PersonaSegmentSpecialist: {
		Characteristics: []string{
			"Deep audience segmentation",
			"Tailored offers per customer group",
		},
		Strengths: []string{
			"High relevance and click-through rates",
			"Low unsubscribe rates",
		},
		Opportunities: []string{
			"Automate segment maintenance to reduce manual effort",
			"Test broader reach campaigns against control segments",
		},
	},
}

var maturityProfiles = map[string]domain.MaturityProfile{
	domain.MaturityStartup: {
		Indicators: []string{
			"Building the first repeatable acquisition channel",
			"Small but growing customer base",
		},
		NextStage: []string{
			"Set up welcome and abandoned-cart automation",
			"Establish baseline metrics before scaling spend",
		},
	},
	domain.MaturityGrowth: {
		Indicators: []string{
			"Consistent month-over-month revenue growth",
			"Core automations in place",
		},
		NextStage: []string{
			"Diversify acquisition beyond the primary channel",
			"Introduce customer segmentation",
		},
	},
	domain.MaturityScaleUp: {
		Indicators: []string{
			"Multiple proven channels",
			"Dedicated marketing function",
		},
		NextStage: []string{
			"Optimize unit economics and retention cohorts",
			"Invest in lifetime value over first-purchase volume",
		},
	},
	domain.MaturityMature: {
		Indicators: []string{
			"Stable, diversified revenue",
			"Sophisticated measurement in place",
		},
		NextStage: []string{
			"Defend share with loyalty and brand investment",
			"Incubate new product lines or markets",
		},
	},
}

// ProfileFor returns the descriptive profile for a persona label. Unknown
// labels return a zero profile.
func ProfileFor(persona string) domain.PersonaProfile {
	return personaProfiles[persona]
}

// MaturityFor returns the descriptive profile for a maturity stage.
func MaturityFor(stage string) domain.MaturityProfile {
	return maturityProfiles[stage]
}
