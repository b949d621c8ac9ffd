package features

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bravola/insights/internal/domain"
	"github.com/bravola/insights/internal/repository/postgres"
)

// stubSource serves canned aggregates and counts extraction round trips.
type stubSource struct {
	merchant  domain.Merchant
	orders    postgres.OrderAggregates
	customers postgres.CustomerAggregates
	campaigns postgres.CampaignAggregates
	calls     int
}

func (s *stubSource) Get(ctx context.Context, merchantID string) (*domain.Merchant, error) {
	s.calls++
	m := s.merchant
	m.ID = merchantID
	return &m, nil
}

func (s *stubSource) OrderAggregates(ctx context.Context, merchantID string) (postgres.OrderAggregates, error) {
	return s.orders, nil
}

func (s *stubSource) CustomerAggregates(ctx context.Context, merchantID string) (postgres.CustomerAggregates, error) {
	return s.customers, nil
}

func (s *stubSource) CampaignAggregates(ctx context.Context, merchantID string) (postgres.CampaignAggregates, error) {
	return s.campaigns, nil
}

func testSource() *stubSource {
	return &stubSource{
		merchant: domain.Merchant{
			MonthlyRevenue:          50000,
			LTV:                     240,
			EmailSubscriberCount:    1200,
			CustomerAcquisitionCost: 18,
		},
		orders: postgres.OrderAggregates{
			TotalOrders:      800,
			AOV:              62.5,
			OrderValueStd:    14.2,
			AvgItemsPerOrder: 2.1,
			DiscountedOrders: 200,
		},
		customers: postgres.CustomerAggregates{
			TotalCustomers:       500,
			AvgOrdersPerCustomer: 1.6,
			MarketingOptIns:      300,
			VerifiedEmails:       450,
		},
		campaigns: postgres.CampaignAggregates{
			TotalCampaigns:    12,
			AvgOpenRate:       0.22,
			AvgClickRate:      0.04,
			AvgConversionRate: 0.02,
			CampaignTypes:     3,
		},
	}
}

func newTestStore(t *testing.T, source *stubSource) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewStore(NewExtractor(source), NewCache(client, time.Hour)), mr
}

func TestExtractorDerivedFeatures(t *testing.T) {
	source := testSource()
	fv, err := NewExtractor(source).Extract(context.Background(), "m1")
	require.NoError(t, err)

	assert.InDelta(t, 50000.0, fv.Get(domain.FeatMonthlyRevenue), 1e-9)
	assert.InDelta(t, 1.6, fv.Get(domain.FeatRepeatPurchaseRate), 1e-9) // 800/500
	assert.InDelta(t, 0.25, fv.Get(domain.FeatDiscountFrequency), 1e-9) // 200/800
	assert.InDelta(t, 0.6, fv.Get(domain.FeatMarketingOptInRate), 1e-9) // 300/500
	assert.InDelta(t, 0.13, fv.Get(domain.FeatCampaignEngagement), 1e-9)
	assert.InDelta(t, 100.0, fv.Get(domain.FeatRevenuePerCustomer), 1e-9)
	// 0.6*0.3 + 1.6*0.4 + 0.9*0.3
	assert.InDelta(t, 1.09, fv.Get(domain.FeatCustomerQuality), 1e-9)
	// 3*0.3 + 0.13*0.4 + min(12/10,1)*0.3
	assert.InDelta(t, 1.252, fv.Get(domain.FeatMarketingSophistication), 1e-9)
}

func TestExtractorZeroDenominators(t *testing.T) {
	source := &stubSource{}
	fv, err := NewExtractor(source).Extract(context.Background(), "empty")
	require.NoError(t, err)

	assert.Zero(t, fv.Get(domain.FeatRepeatPurchaseRate))
	assert.Zero(t, fv.Get(domain.FeatDiscountFrequency))
	assert.Zero(t, fv.Get(domain.FeatRevenuePerCustomer))
	assert.Zero(t, fv.Get(domain.FeatMarketingOptInRate))
}

func TestStoreVectorReadThrough(t *testing.T) {
	source := testSource()
	store, mr := newTestStore(t, source)
	ctx := context.Background()

	first, err := store.Vector(ctx, "m1", SetAll)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)
	assert.True(t, mr.Exists("features:m1:all"))

	second, err := store.Vector(ctx, "m1", SetAll)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls, "second read must come from cache")
	assert.Equal(t, first, second)
}

func TestStoreVectorSubsets(t *testing.T) {
	source := testSource()
	store, _ := newTestStore(t, source)
	ctx := context.Background()

	commerce, err := store.Vector(ctx, "m1", SetCommerce)
	require.NoError(t, err)
	assert.Contains(t, commerce, domain.FeatAOV)
	assert.NotContains(t, commerce, domain.FeatAvgOpenRate)

	marketing, err := store.Vector(ctx, "m1", SetMarketing)
	require.NoError(t, err)
	assert.Contains(t, marketing, domain.FeatAvgOpenRate)
	assert.NotContains(t, marketing, domain.FeatAOV)

	_, err = store.Vector(ctx, "m1", "bogus")
	assert.Error(t, err)
}

func TestStoreVectorRedisDown(t *testing.T) {
	source := testSource()
	store, mr := newTestStore(t, source)
	mr.Close()

	fv, err := store.Vector(context.Background(), "m1", SetAll)
	require.NoError(t, err, "redis outage must not block feature serving")
	assert.InDelta(t, 62.5, fv.Get(domain.FeatAOV), 1e-9)
}

func TestCacheInvalidate(t *testing.T) {
	source := testSource()
	store, mr := newTestStore(t, source)
	ctx := context.Background()

	_, err := store.Vector(ctx, "m1", SetAll)
	require.NoError(t, err)
	_, err = store.Vector(ctx, "m1", SetCommerce)
	require.NoError(t, err)
	_, err = store.Vector(ctx, "other", SetAll)
	require.NoError(t, err)

	deleted, err := store.Invalidate(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.False(t, mr.Exists("features:m1:all"))
	assert.True(t, mr.Exists("features:other:all"), "other merchants stay cached")

	_, err = store.Vector(ctx, "m1", SetAll)
	require.NoError(t, err)
	assert.Equal(t, 4, source.calls, "invalidated merchant recomputes")
}

func TestCacheCorruptEntryEvicted(t *testing.T) {
	source := testSource()
	store, mr := newTestStore(t, source)
	ctx := context.Background()

	require.NoError(t, mr.Set("features:m1:all", "{not json"))

	fv, err := store.Vector(ctx, "m1", SetAll)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls, "corrupt entry falls through to extraction")
	assert.NotEmpty(t, fv)
}
