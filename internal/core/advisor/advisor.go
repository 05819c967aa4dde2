// Package advisor 根据最优买卖价给出挂单建议。
//
// instant = bid × tax
// list    = (ask - 1) × tax
// 单件收入差 = |list - instant|
//
// 除税率乘法外全部为整数铜币运算；展示收入时统一四舍五入到整数（model.RoundCopper）。
package advisor

import (
	"gw2-optimal-lister/internal/core/model"
)

// Advise 计算挂单建议（纯函数）
// 参数 bid/ask: 最高求购价/最低出售价，nil 表示该侧无挂单
// 参数 askDepth: 卖一数量，nil 表示未知
// 参数 taxRate: 扣税后保留比例
func Advise(bid, ask, askDepth *int64, taxRate float64) model.Suggestion {
	switch {
	case bid == nil && ask == nil:
		return model.Suggestion{Verdict: model.VerdictInsufficientData, Missing: model.MissingBoth}
	case ask == nil:
		return model.Suggestion{Verdict: model.VerdictInsufficientData, Missing: model.MissingAsks}
	case bid == nil:
		return model.Suggestion{Verdict: model.VerdictInsufficientData, Missing: model.MissingBids}
	}

	if *ask <= 0 {
		return model.Suggestion{Verdict: model.VerdictDegenerateAsk}
	}

	instant := float64(*bid) * taxRate
	// 卖一已是最小单位时优先于交叉盘判断：ask=1 无论买一多少都无法压价
	listPrice := *ask - 1
	if listPrice <= 0 {
		return model.Suggestion{Verdict: model.VerdictCannotUndercut, InstantProceeds: instant}
	}

	if *ask <= *bid {
		return model.Suggestion{Verdict: model.VerdictInstantSellOptimal, InstantProceeds: instant}
	}

	list := float64(listPrice) * taxRate
	s := model.Suggestion{
		ListPrice:       model.Int64Ptr(listPrice),
		ListQuantity:    quantity(askDepth),
		InstantProceeds: instant,
		ListProceeds:    list,
	}
	if list > instant {
		s.Verdict = model.VerdictListingBetter
		s.ProfitDeltaPerUnit = list - instant
	} else {
		s.Verdict = model.VerdictInstantSellBetter
		s.ProfitDeltaPerUnit = instant - list
	}
	return s
}

// ForQuote 对报价计算挂单建议
func ForQuote(q *model.Quote, taxRate float64) model.Suggestion {
	return Advise(q.BestBid, q.BestAsk, q.BestAskDepth, taxRate)
}

// quantity 卖一数量为正时跟随，否则为"至少 1 件"
func quantity(askDepth *int64) model.Quantity {
	if askDepth != nil && *askDepth > 0 {
		return model.Quantity{Units: *askDepth}
	}
	return model.Quantity{AtLeastOne: true}
}
