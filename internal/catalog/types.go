// Package catalog 封装远程交易行目录 API（GW2 v2 接口）。
// 只读 GET，无鉴权；404 表示物品不存在或不可交易，429 表示触发限流。
package catalog

// 接口路径
const (
	// PathTradeableIDs 所有可交易物品 ID 列表（不带 ids 参数的价格接口）
	PathTradeableIDs = "/v2/commerce/prices"
	// PathItems 物品详情，参数 ids=a,b,c
	PathItems = "/v2/items"
	// PathPrices 最优买卖价，参数 ids=id
	PathPrices = "/v2/commerce/prices"
	// PathListings 订单簿深度，参数 ids=id
	PathListings = "/v2/commerce/listings"
)

// Item 物品详情（只保留构建名称索引需要的字段）
// API: GET /v2/items?ids=...
type Item struct {
	// ID 物品 ID
	ID int64 `json:"id"`
	// Name 物品名称，可能为空
	Name string `json:"name"`
}

// PriceLevel 单侧最优价
type PriceLevel struct {
	// UnitPrice 单价（铜币），0 表示无挂单
	UnitPrice int64 `json:"unit_price"`
	// Quantity 该价位总数量
	Quantity int64 `json:"quantity"`
}

// Price 最优买卖价汇总
// API: GET /v2/commerce/prices?ids=...
type Price struct {
	// ID 物品 ID
	ID int64 `json:"id"`
	// Whitelisted 是否允许免费账号交易
	Whitelisted bool `json:"whitelisted"`
	// Buys 最高求购
	Buys PriceLevel `json:"buys"`
	// Sells 最低出售
	Sells PriceLevel `json:"sells"`
}

// ListingEntry 订单簿中的一个价位
type ListingEntry struct {
	// Listings 该价位的挂单笔数
	Listings int64 `json:"listings"`
	// UnitPrice 单价（铜币）
	UnitPrice int64 `json:"unit_price"`
	// Quantity 该价位总数量
	Quantity int64 `json:"quantity"`
}

// Listing 订单簿深度，价位按最优价排序
// API: GET /v2/commerce/listings?ids=...
type Listing struct {
	// ID 物品 ID
	ID int64 `json:"id"`
	// Buys 求购价位（价格从高到低）
	Buys []ListingEntry `json:"buys"`
	// Sells 出售价位（价格从低到高）
	Sells []ListingEntry `json:"sells"`
}
