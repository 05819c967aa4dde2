package quote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gw2-optimal-lister/internal/catalog"
	"gw2-optimal-lister/internal/core/lookup"
	"gw2-optimal-lister/internal/core/model"
)

type fakeCatalog struct {
	prices      []catalog.Price
	listings    []catalog.Listing
	items       []catalog.Item
	pricesErr   error
	listingsErr error
	itemsErr    error
	delay       time.Duration

	mu        sync.Mutex
	itemCalls int
}

func (f *fakeCatalog) FetchPrices(ctx context.Context, _ ...int64) ([]catalog.Price, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.prices, f.pricesErr
}

func (f *fakeCatalog) FetchListings(ctx context.Context, _ ...int64) ([]catalog.Listing, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.listings, f.listingsErr
}

func (f *fakeCatalog) FetchItems(_ context.Context, _ []int64) ([]catalog.Item, error) {
	f.mu.Lock()
	f.itemCalls++
	f.mu.Unlock()
	return f.items, f.itemsErr
}

type backfillRecorder struct {
	names map[string]int64
}

func (b *backfillRecorder) Backfill(name string, id int64) bool {
	if b.names == nil {
		b.names = make(map[string]int64)
	}
	b.names[name] = id
	return true
}

func ironOre() *fakeCatalog {
	return &fakeCatalog{
		prices: []catalog.Price{{
			ID:    19699,
			Buys:  catalog.PriceLevel{UnitPrice: 100, Quantity: 1234},
			Sells: catalog.PriceLevel{UnitPrice: 150, Quantity: 40},
		}},
		listings: []catalog.Listing{{
			ID:    19699,
			Sells: []catalog.ListingEntry{{Listings: 2, UnitPrice: 150, Quantity: 5}, {Listings: 1, UnitPrice: 151, Quantity: 9}},
		}},
		items: []catalog.Item{{ID: 19699, Name: "Iron Ore"}},
	}
}

func TestFetch_ByName(t *testing.T) {
	cat := ironOre()
	f := New(cat, nil, zap.NewNop())

	q, err := f.Fetch(context.Background(), lookup.Resolution{ItemID: 19699, DisplayName: "iron ore"})
	require.NoError(t, err)
	require.Equal(t, "iron ore", q.Name)
	require.True(t, q.NameResolved)
	require.Equal(t, int64(100), *q.BestBid)
	require.Equal(t, int64(1234), q.BestBidDepth)
	require.Equal(t, int64(150), *q.BestAsk)
	require.Equal(t, int64(5), *q.BestAskDepth)
	require.Equal(t, 0, cat.itemCalls, "名称输入不应额外查询名称")
}

func TestFetch_LiteralIDResolvesAndBackfillsName(t *testing.T) {
	cat := ironOre()
	rec := &backfillRecorder{}
	f := New(cat, rec, zap.NewNop())

	q, err := f.Fetch(context.Background(), lookup.Resolution{ItemID: 19699, DisplayName: "Item ID: 19699", Literal: true})
	require.NoError(t, err)
	require.Equal(t, "Iron Ore", q.Name)
	require.True(t, q.NameResolved)
	require.Equal(t, map[string]int64{"Iron Ore": 19699}, rec.names)
}

func TestFetch_NameLookupFailureIsSwallowed(t *testing.T) {
	cat := ironOre()
	cat.itemsErr = catalog.ErrNetwork
	rec := &backfillRecorder{}
	f := New(cat, rec, zap.NewNop())

	q, err := f.Fetch(context.Background(), lookup.Resolution{ItemID: 19699, Literal: true})
	require.NoError(t, err)
	require.Equal(t, "Item ID: 19699", q.Name)
	require.False(t, q.NameResolved)
	require.Empty(t, rec.names)
}

func TestFetch_ZeroPricesAreAbsent(t *testing.T) {
	cat := ironOre()
	cat.prices[0].Buys = catalog.PriceLevel{}
	cat.prices[0].Sells = catalog.PriceLevel{}
	cat.listings[0].Sells = nil
	f := New(cat, nil, zap.NewNop())

	q, err := f.Fetch(context.Background(), lookup.Resolution{ItemID: 19699, DisplayName: "Iron Ore"})
	require.NoError(t, err)
	require.Nil(t, q.BestBid)
	require.Nil(t, q.BestAsk)
	require.NotNil(t, q.BestAskDepth)
	require.Equal(t, int64(0), *q.BestAskDepth, "有订单簿但无卖单时深度为 0")
}

func TestFetch_NoListingsDepthIsNil(t *testing.T) {
	cat := ironOre()
	cat.listings = nil
	f := New(cat, nil, zap.NewNop())

	q, err := f.Fetch(context.Background(), lookup.Resolution{ItemID: 19699, DisplayName: "Iron Ore"})
	require.NoError(t, err)
	require.Nil(t, q.BestAskDepth)
	require.Equal(t, int64(0), q.AskDepth())
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeCatalog)
		want  error
	}{
		{"价格 404", func(c *fakeCatalog) { c.pricesErr = catalog.ErrNotFound }, catalog.ErrNotFound},
		{"订单簿限流", func(c *fakeCatalog) { c.listingsErr = catalog.ErrRateLimited }, catalog.ErrRateLimited},
		{"网络错误", func(c *fakeCatalog) { c.pricesErr = catalog.ErrNetwork }, catalog.ErrNetwork},
		{"格式异常", func(c *fakeCatalog) { c.listingsErr = catalog.ErrMalformedResponse }, catalog.ErrMalformedResponse},
		{"空价格列表", func(c *fakeCatalog) { c.prices = nil }, ErrNoPriceData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := ironOre()
			tt.setup(cat)
			_, err := New(cat, nil, zap.NewNop()).Fetch(context.Background(), lookup.Resolution{ItemID: 19699})
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.want), "err=%v, want %v", err, tt.want)
		})
	}
}

func TestFetch_EmptyPriceListIsNotFound(t *testing.T) {
	cat := ironOre()
	cat.prices = []catalog.Price{}
	_, err := New(cat, nil, zap.NewNop()).Fetch(context.Background(), lookup.Resolution{ItemID: 1})
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestFetch_ReadsRunConcurrently(t *testing.T) {
	cat := ironOre()
	cat.delay = 100 * time.Millisecond
	f := New(cat, nil, zap.NewNop())

	start := time.Now()
	_, err := f.Fetch(context.Background(), lookup.Resolution{ItemID: 19699, DisplayName: "Iron Ore"})
	require.NoError(t, err)
	require.Less(t, time.Since(start), 190*time.Millisecond)
}

func TestFetch_QuoteFeedsAdvisorShape(t *testing.T) {
	cat := ironOre()
	q, err := New(cat, nil, zap.NewNop()).Fetch(context.Background(), lookup.Resolution{ItemID: 19699, DisplayName: "Iron Ore"})
	require.NoError(t, err)
	require.Equal(t, model.Quote{
		ItemID:       19699,
		Name:         "Iron Ore",
		NameResolved: true,
		BestBid:      model.Int64Ptr(100),
		BestBidDepth: 1234,
		BestAsk:      model.Int64Ptr(150),
		BestAskDepth: model.Int64Ptr(5),
	}, q)
}
