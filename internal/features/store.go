package features

import (
	"context"
	"fmt"

	"github.com/bravola/insights/internal/domain"
)

// Feature set names accepted by the store. A set selects which slice of the
// full vector the caller gets back; extraction always computes everything so
// the cache stays consistent across sets.
const (
	SetAll       = "all"
	SetCommerce  = "commerce"
	SetMarketing = "marketing"
)

var featureSets = map[string][]string{
	SetAll: nil, // nil means the full vector
	SetCommerce: {
		domain.FeatMonthlyRevenue, domain.FeatTotalCustomers, domain.FeatTotalOrders,
		domain.FeatAOV, domain.FeatRepeatPurchaseRate, domain.FeatLTV,
		domain.FeatOrderValueStd, domain.FeatDiscountFrequency,
		domain.FeatAvgItemsPerOrder, domain.FeatAvgOrdersPerCustomer,
		domain.FeatRevenuePerCustomer, domain.FeatCustomerQuality,
	},
	SetMarketing: {
		domain.FeatEmailSubscribers, domain.FeatMarketingOptInRate,
		domain.FeatTotalCampaigns, domain.FeatAvgOpenRate, domain.FeatAvgClickRate,
		domain.FeatAvgConversionRate, domain.FeatCampaignEngagement,
		domain.FeatMarketingSophistication,
	},
}

// Store is the read-through entry point for feature vectors: cache hit
// returns the cached copy verbatim, a miss extracts fresh and writes back
// best-effort.
type Store struct {
	extractor *Extractor
	cache     *Cache
}

// NewStore wires the extractor behind the cache.
func NewStore(extractor *Extractor, cache *Cache) *Store {
	return &Store{extractor: extractor, cache: cache}
}

// Vector returns the feature vector for (merchant, feature set). featureSet
// must be one of the registered set names; an empty string means "all".
func (s *Store) Vector(ctx context.Context, merchantID, featureSet string) (domain.FeatureVector, error) {
	if featureSet == "" {
		featureSet = SetAll
	}
	names, ok := featureSets[featureSet]
	if !ok {
		return nil, fmt.Errorf("unknown feature set %q", featureSet)
	}

	if cached := s.cache.Get(ctx, merchantID, featureSet); cached != nil {
		return cached, nil
	}

	full, err := s.extractor.Extract(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	fv := full
	if names != nil {
		fv = make(domain.FeatureVector, len(names))
		for _, name := range names {
			fv[name] = full.Get(name)
		}
	}

	s.cache.Set(ctx, merchantID, featureSet, fv)
	return fv, nil
}

// Invalidate drops every cached set for a merchant. Call after a data sync
// so the next read recomputes from fresh aggregates.
func (s *Store) Invalidate(ctx context.Context, merchantID string) (int, error) {
	return s.cache.Invalidate(ctx, merchantID)
}
