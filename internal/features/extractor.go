// Package features builds per-merchant feature vectors from transactional
// aggregates, with a redis read-through cache in front of the extraction.
package features

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/bravola/insights/internal/domain"
	"github.com/bravola/insights/internal/repository/postgres"
)

// AggregateSource provides the backing-store queries the extractor needs.
// *postgres.MerchantRepo satisfies it.
type AggregateSource interface {
	Get(ctx context.Context, merchantID string) (*domain.Merchant, error)
	OrderAggregates(ctx context.Context, merchantID string) (postgres.OrderAggregates, error)
	CustomerAggregates(ctx context.Context, merchantID string) (postgres.CustomerAggregates, error)
	CampaignAggregates(ctx context.Context, merchantID string) (postgres.CampaignAggregates, error)
}

// Extractor assembles fixed-name feature vectors from raw aggregates.
// Extraction is idempotent and side-effect free; concurrent calls for the
// same merchant are safe.
type Extractor struct {
	source AggregateSource
}

// NewExtractor creates a feature extractor over the given aggregate source.
func NewExtractor(source AggregateSource) *Extractor {
	return &Extractor{source: source}
}

// Extract computes the full feature vector for a merchant. The three
// aggregate queries run concurrently. Aggregates that come back empty
// contribute zeros; the vector is never partially populated.
func (e *Extractor) Extract(ctx context.Context, merchantID string) (domain.FeatureVector, error) {
	merchant, err := e.source.Get(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("extract features: %w", err)
	}

	var (
		orders    postgres.OrderAggregates
		customers postgres.CustomerAggregates
		campaigns postgres.CampaignAggregates
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = e.source.OrderAggregates(gctx, merchantID)
		return err
	})
	g.Go(func() error {
		var err error
		customers, err = e.source.CustomerAggregates(gctx, merchantID)
		return err
	})
	g.Go(func() error {
		var err error
		campaigns, err = e.source.CampaignAggregates(gctx, merchantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extract features: %w", err)
	}

	return buildVector(merchant, orders, customers, campaigns), nil
}

func buildVector(
	m *domain.Merchant,
	orders postgres.OrderAggregates,
	customers postgres.CustomerAggregates,
	campaigns postgres.CampaignAggregates,
) domain.FeatureVector {
	totalOrders := float64(orders.TotalOrders)
	totalCustomers := float64(customers.TotalCustomers)

	repeatRate := 0.0
	if totalCustomers > 0 {
		repeatRate = totalOrders / totalCustomers
	}
	discountFreq := 0.0
	if orders.TotalOrders > 0 {
		discountFreq = float64(orders.DiscountedOrders) / totalOrders
	}
	optInRate := 0.0
	verifiedRate := 0.0
	if customers.TotalCustomers > 0 {
		optInRate = float64(customers.MarketingOptIns) / totalCustomers
		verifiedRate = float64(customers.VerifiedEmails) / totalCustomers
	}
	engagement := (campaigns.AvgOpenRate + campaigns.AvgClickRate) / 2

	fv := domain.FeatureVector{
		domain.FeatMonthlyRevenue:          m.MonthlyRevenue,
		domain.FeatTotalCustomers:          totalCustomers,
		domain.FeatTotalOrders:             totalOrders,
		domain.FeatAOV:                     orders.AOV,
		domain.FeatRepeatPurchaseRate:      repeatRate,
		domain.FeatLTV:                     m.LTV,
		domain.FeatEmailSubscribers:        float64(m.EmailSubscriberCount),
		domain.FeatCustomerAcquisitionCost: m.CustomerAcquisitionCost,
		domain.FeatOrderValueStd:           orders.OrderValueStd,
		domain.FeatDiscountFrequency:       discountFreq,
		domain.FeatAvgItemsPerOrder:        orders.AvgItemsPerOrder,
		domain.FeatAvgOrdersPerCustomer:    customers.AvgOrdersPerCustomer,
		domain.FeatMarketingOptInRate:      optInRate,
		domain.FeatTotalCampaigns:          float64(campaigns.TotalCampaigns),
		domain.FeatAvgOpenRate:             campaigns.AvgOpenRate,
		domain.FeatAvgClickRate:            campaigns.AvgClickRate,
		domain.FeatAvgConversionRate:       campaigns.AvgConversionRate,
		domain.FeatCampaignEngagement:      engagement,
	}

	// Derived features
	if totalCustomers > 0 {
		fv[domain.FeatRevenuePerCustomer] = m.MonthlyRevenue / totalCustomers
	} else {
		fv[domain.FeatRevenuePerCustomer] = 0
	}
	fv[domain.FeatCustomerQuality] = optInRate*0.3 + repeatRate*0.4 + verifiedRate*0.3
	fv[domain.FeatMarketingSophistication] = float64(campaigns.CampaignTypes)*0.3 +
		engagement*0.4 + math.Min(float64(campaigns.TotalCampaigns)/10, 1)*0.3

	// Aggregates can surface NaN when upstream columns hold garbage; models
	// read missing-as-zero, so normalize here.
	for k, v := range fv {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			fv[k] = 0
		}
	}
	return fv
}
