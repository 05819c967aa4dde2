package model

import "math"

// Verdict 挂单建议结论
type Verdict string

const (
	// VerdictInsufficientData 买卖至少一侧无挂单，Missing 指明缺哪侧
	VerdictInsufficientData Verdict = "insufficient_data"
	// VerdictDegenerateAsk 卖一价非正
	VerdictDegenerateAsk Verdict = "degenerate_ask"
	// VerdictInstantSellOptimal 卖一 <= 买一，直接卖给求购单即可
	VerdictInstantSellOptimal Verdict = "instant_sell_optimal"
	// VerdictCannotUndercut 卖一已是最小单位，无法再压价
	VerdictCannotUndercut Verdict = "cannot_undercut"
	// VerdictListingBetter 压价挂单的税后收入高于直接卖出
	VerdictListingBetter Verdict = "listing_better"
	// VerdictInstantSellBetter 直接卖出的税后收入不低于压价挂单
	VerdictInstantSellBetter Verdict = "instant_sell_better"
)

// MissingSide 缺失挂单的一侧
type MissingSide string

const (
	// MissingNone 两侧都有挂单
	MissingNone MissingSide = ""
	// MissingAsks 无出售挂单
	MissingAsks MissingSide = "no_asks"
	// MissingBids 无求购挂单
	MissingBids MissingSide = "no_bids"
	// MissingBoth 两侧都无挂单
	MissingBoth MissingSide = "no_orders"
)

// Quantity 建议挂单数量
type Quantity struct {
	// Units 与卖一数量一致的建议数量
	Units int64 `json:"units"`
	// AtLeastOne 卖一数量未知或为 0 时，建议"至少 1 件"
	AtLeastOne bool `json:"at_least_one"`
}

// Suggestion 挂单建议（由报价与税率纯函数推导，计算后不可变）
// 收入字段为浮点铜币；展示时统一使用 RoundCopper 四舍五入到整数。
type Suggestion struct {
	// Verdict 结论
	Verdict Verdict `json:"verdict"`
	// Missing 数据不足时缺失的一侧
	Missing MissingSide `json:"missing,omitempty"`
	// ListPrice 建议挂单价（卖一 - 1），无建议时为 nil
	ListPrice *int64 `json:"list_price"`
	// ListQuantity 建议挂单数量
	ListQuantity Quantity `json:"list_quantity"`
	// InstantProceeds 直接卖给买一的税后单件收入
	InstantProceeds float64 `json:"instant_proceeds"`
	// ListProceeds 按建议价成交的税后单件收入
	ListProceeds float64 `json:"list_proceeds"`
	// ProfitDeltaPerUnit 两种方式的单件收入差（非负）
	ProfitDeltaPerUnit float64 `json:"profit_delta_per_unit"`
}

// HasListing 是否给出了挂单价
func (s *Suggestion) HasListing() bool {
	return s.ListPrice != nil
}

// ProfitDeltaCopper 单件收入差，四舍五入到铜币
func (s *Suggestion) ProfitDeltaCopper() int64 {
	return RoundCopper(s.ProfitDeltaPerUnit)
}

// RoundCopper 浮点铜币四舍五入（远离零）到整数
func RoundCopper(v float64) int64 {
	return int64(math.Round(v))
}
