// Package quote 为单个物品获取实时报价：最优买卖价、买一深度与卖一深度。
package quote

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gw2-optimal-lister/internal/catalog"
	"gw2-optimal-lister/internal/core/lookup"
	"gw2-optimal-lister/internal/core/model"
)

// ErrNoPriceData 价格接口返回空列表
var ErrNoPriceData = errors.New("无价格数据")

// Catalog 报价所需的远程接口
type Catalog interface {
	FetchPrices(ctx context.Context, ids ...int64) ([]catalog.Price, error)
	FetchListings(ctx context.Context, ids ...int64) ([]catalog.Listing, error)
	FetchItems(ctx context.Context, ids []int64) ([]catalog.Item, error)
}

// NameBackfiller 名称回填接口
type NameBackfiller interface {
	Backfill(name string, id int64) bool
}

// Fetcher 报价获取器
// 每次查询不做自动重试，失败原样返回给调用方
type Fetcher struct {
	catalog Catalog
	names   NameBackfiller
	logger  *zap.Logger
}

// New 创建报价获取器
// 参数 names: 字面 ID 查询得到名称后的回填目标，可为 nil
func New(cat Catalog, names NameBackfiller, logger *zap.Logger) *Fetcher {
	return &Fetcher{catalog: cat, names: names, logger: logger.Named("quote")}
}

// Fetch 获取报价
// 价格与订单簿两次读取并发执行，任一失败则整体失败；
// 字面 ID 输入额外尝试查询名称，该查询失败不影响报价，名称退回 "Item ID: N"
func (f *Fetcher) Fetch(ctx context.Context, res lookup.Resolution) (model.Quote, error) {
	id := res.ItemID
	q := model.Quote{
		ItemID:       id,
		Name:         res.DisplayName,
		NameResolved: !res.Literal,
	}
	if q.Name == "" {
		q.Name = model.FallbackName(id)
	}

	var (
		prices   []catalog.Price
		listings []catalog.Listing
		name     string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prices, err = f.catalog.FetchPrices(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		listings, err = f.catalog.FetchListings(gctx, id)
		return err
	})
	if res.Literal {
		g.Go(func() error {
			name = f.fetchName(gctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return q, err
	}

	if len(prices) == 0 {
		return q, fmt.Errorf("%w: 物品 %d: %w", ErrNoPriceData, id, catalog.ErrNotFound)
	}
	applyPrice(&q, prices[0])
	applyListings(&q, listings)

	if name != "" {
		q.Name = name
		q.NameResolved = true
		if f.names != nil {
			f.names.Backfill(name, id)
		}
	}
	return q, nil
}

// fetchName 尽力查询物品名称，失败返回空串
func (f *Fetcher) fetchName(ctx context.Context, id int64) string {
	items, err := f.catalog.FetchItems(ctx, []int64{id})
	if err != nil {
		f.logger.Warn("查询物品名称失败", zap.Int64("item_id", id), zap.Error(err))
		return ""
	}
	for _, it := range items {
		if it.ID == id && it.Name != "" {
			return it.Name
		}
	}
	return ""
}

// applyPrice 价格为 0 表示该侧无挂单
func applyPrice(q *model.Quote, p catalog.Price) {
	if p.Buys.UnitPrice > 0 {
		q.BestBid = model.Int64Ptr(p.Buys.UnitPrice)
	}
	q.BestBidDepth = p.Buys.Quantity
	if p.Sells.UnitPrice > 0 {
		q.BestAsk = model.Int64Ptr(p.Sells.UnitPrice)
	}
}

// applyListings 卖一深度：有卖单取第一档数量，无卖单为 0，无订单簿数据为 nil
func applyListings(q *model.Quote, listings []catalog.Listing) {
	if len(listings) == 0 {
		return
	}
	sells := listings[0].Sells
	if len(sells) == 0 {
		q.BestAskDepth = model.Int64Ptr(0)
		return
	}
	q.BestAskDepth = model.Int64Ptr(sells[0].Quantity)
}
