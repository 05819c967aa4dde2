package model

// Quote 单次查询的实时报价
// 价格单位为铜币；BestBid/BestAsk 为 nil 表示该侧无挂单（API 返回 0 或缺失）。
// 只在一次展示周期内有效，不做缓存。
type Quote struct {
	// ItemID 物品 ID
	ItemID int64 `json:"item_id"`
	// Name 展示名称（已解析名称或 "Item ID: N"）
	Name string `json:"name"`
	// NameResolved 名称是否来自索引或远程查询
	NameResolved bool `json:"name_resolved"`
	// BestBid 最高求购价
	BestBid *int64 `json:"best_bid"`
	// BestBidDepth 最高求购价位的总需求量
	BestBidDepth int64 `json:"best_bid_depth"`
	// BestAsk 最低出售价
	BestAsk *int64 `json:"best_ask"`
	// BestAskDepth 最低出售价位的数量；无订单簿数据时为 nil，有订单簿但无卖单时为 0
	BestAskDepth *int64 `json:"best_ask_depth"`
}

// AskDepth 卖一数量，nil 视为 0
func (q *Quote) AskDepth() int64 {
	if q == nil || q.BestAskDepth == nil {
		return 0
	}
	return *q.BestAskDepth
}

// Report 一次查询的完整结果
type Report struct {
	// Quote 报价
	Quote Quote `json:"quote"`
	// Suggestion 挂单建议
	Suggestion Suggestion `json:"suggestion"`
}

// Int64Ptr 返回 v 的指针
func Int64Ptr(v int64) *int64 {
	return &v
}
