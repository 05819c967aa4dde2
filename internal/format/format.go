// Package format 把报价与挂单建议渲染为面向玩家的文本。
// 价格按 金/银/铜（1g = 100s = 10000c）显示，数量带千位分隔符。
package format

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"gw2-optimal-lister/internal/core/model"
)

// NA 无数据占位
const NA = "N/A"

// Price 把铜币数转换为 "Xg Ys Zc"
// 为 0 的单位省略，全为 0 时输出 "0c"；负数输出 "N/A"
func Price(copper int64) string {
	if copper < 0 {
		return NA
	}
	gold := copper / 10000
	silver := copper % 10000 / 100
	rem := copper % 100

	parts := make([]string, 0, 3)
	if gold > 0 {
		parts = append(parts, fmt.Sprintf("%dg", gold))
	}
	if silver > 0 {
		parts = append(parts, fmt.Sprintf("%ds", silver))
	}
	if rem > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%dc", rem))
	}
	return strings.Join(parts, " ")
}

// PricePtr nil 输出 "N/A"
func PricePtr(copper *int64) string {
	if copper == nil {
		return NA
	}
	return Price(*copper)
}

// Proceeds 浮点收入四舍五入后格式化
func Proceeds(copper float64) string {
	return Price(model.RoundCopper(copper))
}

// Quantity 千位分隔的数量，如 1,234
func Quantity(n int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

// BidLine 买一价格与需求量，如 "1s (Demand: 1,234)"
func BidLine(q *model.Quote) string {
	if q.BestBid == nil {
		return NA
	}
	s := Price(*q.BestBid)
	if q.BestBidDepth > 0 {
		s += fmt.Sprintf(" (Demand: %s)", Quantity(q.BestBidDepth))
	}
	return s
}

// AskLine 卖一价格与供给量，如 "1s 50c (Supply: 5)"
func AskLine(q *model.Quote) string {
	if q.BestAsk == nil {
		return NA
	}
	s := Price(*q.BestAsk)
	if d := q.AskDepth(); d > 0 {
		s += fmt.Sprintf(" (Supply: %s)", Quantity(d))
	}
	return s
}

// SuggestedQuantity 建议数量文本
func SuggestedQuantity(s *model.Suggestion) string {
	switch s.Verdict {
	case model.VerdictListingBetter:
		if s.ListQuantity.AtLeastOne || s.ListQuantity.Units <= 0 {
			return "Up to 1+"
		}
		return "Up to " + Quantity(s.ListQuantity.Units)
	case model.VerdictInstantSellBetter:
		return "Consider"
	default:
		return NA
	}
}

// ProfitInfo 收益说明
func ProfitInfo(q *model.Quote, s *model.Suggestion) string {
	switch s.Verdict {
	case model.VerdictInsufficientData:
		if s.Missing == model.MissingBids {
			return "No buy orders found."
		}
		return "No sell orders found."
	case model.VerdictDegenerateAsk:
		return "Sell price is zero or negative."
	case model.VerdictInstantSellOptimal:
		return fmt.Sprintf("Lowest sell (%s) <= highest buy (%s). Instant sell likely optimal.",
			PricePtr(q.BestAsk), PricePtr(q.BestBid))
	case model.VerdictCannotUndercut:
		return "Lowest sell price is 1c. Cannot undercut."
	case model.VerdictListingBetter:
		return fmt.Sprintf("Listing at %s could yield ~%s more profit/item (after tax) than instant selling at %s.",
			PricePtr(s.ListPrice), Proceeds(s.ProfitDeltaPerUnit), PricePtr(q.BestBid))
	case model.VerdictInstantSellBetter:
		return fmt.Sprintf("Listing at %s yields ~%s LESS profit/item than instant selling at %s. Instant sell may be better, or list higher.",
			PricePtr(s.ListPrice), Proceeds(s.ProfitDeltaPerUnit), PricePtr(q.BestBid))
	default:
		return "Could not determine prices."
	}
}

// Describe 渲染完整结果面板
func Describe(r *model.Report) string {
	q, s := &r.Quote, &r.Suggestion
	var b strings.Builder
	fmt.Fprintf(&b, "Item:            %s\n", q.Name)
	fmt.Fprintf(&b, "Item ID:         %d\n", q.ItemID)
	fmt.Fprintf(&b, "Highest Buy:     %s\n", BidLine(q))
	fmt.Fprintf(&b, "Lowest Sell:     %s\n", AskLine(q))
	fmt.Fprintf(&b, "Suggested Price: %s\n", PricePtr(s.ListPrice))
	fmt.Fprintf(&b, "Suggested Qty:   %s\n", SuggestedQuantity(s))
	fmt.Fprintf(&b, "Profit Info:     %s\n", ProfitInfo(q, s))
	return b.String()
}
