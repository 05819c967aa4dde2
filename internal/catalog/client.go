package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"gw2-optimal-lister/internal/config"
	"gw2-optimal-lister/internal/util/fastparse"
)

// maxBodyBytes 单个响应体读取上限
const maxBodyBytes = 32 << 20

// Client 目录 API 客户端
// 所有接口共享同一个 http.Client（含超时）与客户端限速器，可被多个 goroutine 并发使用。
type Client struct {
	// baseURL API 根地址（不含末尾斜杠）
	baseURL string
	// client HTTP 客户端
	client *http.Client
	// limiter 请求限速器，为 nil 时不限速
	limiter *rate.Limiter
	// observer 请求耗时观察者，为 nil 时不统计
	observer Observer
	// logger 日志记录器
	logger *zap.Logger
}

// Observer 接收每次请求的耗时与结果
type Observer interface {
	Observe(endpoint string, d time.Duration, err error)
}

// SetObserver 设置请求耗时观察者，需在发出请求前调用
func (c *Client) SetObserver(o Observer) {
	c.observer = o
}

// NewClient 创建目录 API 客户端
// 参数 cfg: API 配置（地址、超时、限速）
// 参数 logger: 日志记录器
func NewClient(cfg *config.APIConfig, logger *zap.Logger) *Client {
	var limiter *rate.Limiter
	if cfg.RateLimitPerSec > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), burst)
	}
	return &Client{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: cfg.Timeout(),
		},
		limiter: limiter,
		logger:  logger.Named("catalog"),
	}
}

// FetchTradeableIDs 获取所有可交易物品 ID（保持服务端顺序）
func (c *Client) FetchTradeableIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := c.getJSON(ctx, PathTradeableIDs, nil, &ids); err != nil {
		return nil, fmt.Errorf("获取可交易物品列表失败: %w", err)
	}
	return ids, nil
}

// FetchItems 批量获取物品详情
// 参数 ids: 物品 ID 列表（不超过 200 个）
// 部分 ID 无效时服务端返回 206，仍视为成功
func (c *Client) FetchItems(ctx context.Context, ids []int64) ([]Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []Item
	if err := c.getJSON(ctx, PathItems, idsQuery(ids), &items); err != nil {
		return nil, fmt.Errorf("获取物品详情失败: %w", err)
	}
	return items, nil
}

// FetchPrices 获取最优买卖价
func (c *Client) FetchPrices(ctx context.Context, ids ...int64) ([]Price, error) {
	var prices []Price
	if err := c.getJSON(ctx, PathPrices, idsQuery(ids), &prices); err != nil {
		return nil, fmt.Errorf("获取价格失败: %w", err)
	}
	return prices, nil
}

// FetchListings 获取订单簿深度
func (c *Client) FetchListings(ctx context.Context, ids ...int64) ([]Listing, error) {
	var listings []Listing
	if err := c.getJSON(ctx, PathListings, idsQuery(ids), &listings); err != nil {
		return nil, fmt.Errorf("获取挂单深度失败: %w", err)
	}
	return listings, nil
}

func idsQuery(ids []int64) url.Values {
	return url.Values{"ids": []string{fastparse.JoinIDs(ids)}}
}

// getJSON 执行 GET 请求并把响应体解码到 out
// 错误统一归类为 ErrNetwork / ErrNotFound / ErrRateLimited / ErrMalformedResponse / ErrUnexpectedStatus
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) (err error) {
	if c.observer != nil {
		start := time.Now()
		defer func() {
			c.observer.Observe(path, time.Since(start), err)
		}()
	}

	body, err := c.doRequest(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}

// doRequest 执行 HTTP GET 请求
// 返回: 响应体字节数组
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: 等待限速令牌失败: %w", ErrNetwork, err)
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", "gw2-optimal-lister/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: 发送请求失败: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	// 206: /v2/items 中部分 ID 无效
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		c.logger.Debug("目录 API 返回非成功状态码", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return nil, newStatusError(resp.StatusCode, u)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: 读取响应体失败: %w", ErrNetwork, err)
	}

	return body, nil
}
