package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bravola/insights/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// MerchantRepo implements merchant lookup and aggregate queries against
// PostgreSQL.
type MerchantRepo struct{ db *sql.DB }

// NewMerchantRepo creates a Postgres-backed merchant repository.
func NewMerchantRepo(db *sql.DB) *MerchantRepo { return &MerchantRepo{db: db} }

// Get returns a merchant by its external merchant id.
func (r *MerchantRepo) Get(ctx context.Context, merchantID string) (*domain.Merchant, error) {
	m := &domain.Merchant{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, merchant_id, COALESCE(shop_domain,''), COALESCE(name,''),
		       COALESCE(monthly_revenue,0), COALESCE(total_customers,0),
		       COALESCE(total_orders,0), COALESCE(aov,0),
		       COALESCE(repeat_purchase_rate,0), COALESCE(ltv,0),
		       COALESCE(email_subscriber_count,0),
		       COALESCE(customer_acquisition_cost,0), created_at, updated_at
		FROM merchants
		WHERE merchant_id = $1
	`, merchantID).Scan(
		&m.ID, &m.MerchantID, &m.ShopDomain, &m.Name,
		&m.MonthlyRevenue, &m.TotalCustomers, &m.TotalOrders, &m.AOV,
		&m.RepeatPurchaseRate, &m.LTV, &m.EmailSubscriberCount,
		&m.CustomerAcquisitionCost, &m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get merchant: %w", err)
	}
	return m, nil
}

// OrderAggregates holds per-merchant order statistics.
type OrderAggregates struct {
	TotalOrders      int
	AOV              float64
	TotalRevenue     float64
	OrderValueStd    float64
	AvgItemsPerOrder float64
	DiscountedOrders int
}

// OrderAggregates computes order statistics for one merchant. Missing data
// yields zero values, never an error.
func (r *MerchantRepo) OrderAggregates(ctx context.Context, merchantID string) (OrderAggregates, error) {
	var agg OrderAggregates
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(final_price),0),
		       COALESCE(SUM(final_price),0),
		       COALESCE(STDDEV(final_price),0),
		       COALESCE(AVG(line_items_count),0),
		       COUNT(*) FILTER (WHERE discount_amount > 0)
		FROM orders
		WHERE merchant_id = $1
	`, merchantID).Scan(
		&agg.TotalOrders, &agg.AOV, &agg.TotalRevenue,
		&agg.OrderValueStd, &agg.AvgItemsPerOrder, &agg.DiscountedOrders,
	)
	if err != nil {
		return OrderAggregates{}, fmt.Errorf("order aggregates: %w", err)
	}
	return agg, nil
}

// CustomerAggregates holds per-merchant customer statistics.
type CustomerAggregates struct {
	TotalCustomers       int
	AvgOrdersPerCustomer float64
	AvgCustomerLTV       float64
	MarketingOptIns      int
	VerifiedEmails       int
}

// CustomerAggregates computes customer statistics for one merchant.
func (r *MerchantRepo) CustomerAggregates(ctx context.Context, merchantID string) (CustomerAggregates, error) {
	var agg CustomerAggregates
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(order_count),0),
		       COALESCE(AVG(total_spent),0),
		       COUNT(*) FILTER (WHERE accepts_marketing),
		       COUNT(*) FILTER (WHERE email_verified)
		FROM customers
		WHERE merchant_id = $1
	`, merchantID).Scan(
		&agg.TotalCustomers, &agg.AvgOrdersPerCustomer, &agg.AvgCustomerLTV,
		&agg.MarketingOptIns, &agg.VerifiedEmails,
	)
	if err != nil {
		return CustomerAggregates{}, fmt.Errorf("customer aggregates: %w", err)
	}
	return agg, nil
}

// CampaignAggregates holds per-merchant marketing-send statistics.
type CampaignAggregates struct {
	TotalCampaigns    int
	AvgOpenRate       float64
	AvgClickRate      float64
	AvgConversionRate float64
	CampaignTypes     int
}

// CampaignAggregates computes marketing campaign statistics for one merchant.
func (r *MerchantRepo) CampaignAggregates(ctx context.Context, merchantID string) (CampaignAggregates, error) {
	var agg CampaignAggregates
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(open_rate),0),
		       COALESCE(AVG(click_rate),0),
		       COALESCE(AVG(conversion_rate),0),
		       COUNT(DISTINCT campaign_type)
		FROM campaigns
		WHERE merchant_id = $1
	`, merchantID).Scan(
		&agg.TotalCampaigns, &agg.AvgOpenRate, &agg.AvgClickRate,
		&agg.AvgConversionRate, &agg.CampaignTypes,
	)
	if err != nil {
		return CampaignAggregates{}, fmt.Errorf("campaign aggregates: %w", err)
	}
	return agg, nil
}
