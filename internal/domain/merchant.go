package domain

import "time"

// Merchant represents a store account under analysis.
type Merchant struct {
	ID                      string     `json:"id" db:"id"`
	MerchantID              string     `json:"merchant_id" db:"merchant_id"`
	ShopDomain              string     `json:"shop_domain" db:"shop_domain"`
	Name                    string     `json:"name" db:"name"`
	MonthlyRevenue          float64    `json:"monthly_revenue" db:"monthly_revenue"`
	TotalCustomers          int        `json:"total_customers" db:"total_customers"`
	TotalOrders             int        `json:"total_orders" db:"total_orders"`
	AOV                     float64    `json:"aov" db:"aov"`
	RepeatPurchaseRate      float64    `json:"repeat_purchase_rate" db:"repeat_purchase_rate"`
	LTV                     float64    `json:"ltv" db:"ltv"`
	EmailSubscriberCount    int        `json:"email_subscriber_count" db:"email_subscriber_count"`
	CustomerAcquisitionCost float64    `json:"customer_acquisition_cost" db:"customer_acquisition_cost"`
	CreatedAt               time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt               *time.Time `json:"updated_at" db:"updated_at"`
}

// FeatureVector is a flat named numeric snapshot of a merchant's behavior,
// used as model input. Missing upstream aggregates are substituted with 0
// before use; a vector is never partially populated.
type FeatureVector map[string]float64

// Get returns the named feature, or 0 when absent.
func (fv FeatureVector) Get(name string) float64 {
	return fv[name]
}

// Clone returns an independent copy of the vector.
func (fv FeatureVector) Clone() FeatureVector {
	out := make(FeatureVector, len(fv))
	for k, v := range fv {
		out[k] = v
	}
	return out
}

// Feature names produced by the extractor. Keeping these as constants avoids
// string drift between the extractor, the engines, and the model artifacts.
const (
	FeatMonthlyRevenue          = "monthly_revenue"
	FeatTotalCustomers          = "total_customers"
	FeatTotalOrders             = "total_orders"
	FeatAOV                     = "aov"
	FeatRepeatPurchaseRate      = "repeat_purchase_rate"
	FeatLTV                     = "ltv"
	FeatEmailSubscribers        = "email_subscriber_count"
	FeatCustomerAcquisitionCost = "customer_acquisition_cost"
	FeatOrderValueStd           = "order_value_std"
	FeatDiscountFrequency       = "discount_frequency"
	FeatAvgItemsPerOrder        = "avg_items_per_order"
	FeatAvgOrdersPerCustomer    = "avg_orders_per_customer"
	FeatMarketingOptInRate      = "marketing_opt_in_rate"
	FeatTotalCampaigns          = "total_campaigns"
	FeatAvgOpenRate             = "avg_open_rate"
	FeatAvgClickRate            = "avg_click_rate"
	FeatAvgConversionRate       = "avg_conversion_rate"
	FeatCampaignEngagement      = "campaign_engagement"
	FeatRevenuePerCustomer      = "revenue_per_customer"
	FeatCustomerQuality         = "customer_quality_score"
	FeatMarketingSophistication = "marketing_sophistication"
)
