package format

import (
	"strings"
	"testing"

	"gw2-optimal-lister/internal/core/advisor"
	"gw2-optimal-lister/internal/core/model"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		copper int64
		want   string
	}{
		{0, "0c"},
		{5, "5c"},
		{100, "1s"},
		{149, "1s 49c"},
		{10000, "1g"},
		{10005, "1g 5c"},
		{1234567, "123g 45s 67c"},
		{-1, "N/A"},
	}
	for _, tt := range tests {
		if got := Price(tt.copper); got != tt.want {
			t.Errorf("Price(%d) = %q, want %q", tt.copper, got, tt.want)
		}
	}
	if got := PricePtr(nil); got != "N/A" {
		t.Errorf("PricePtr(nil) = %q", got)
	}
}

func TestProceedsRoundsToNearest(t *testing.T) {
	if got := Proceeds(41.65); got != "42c" {
		t.Errorf("Proceeds(41.65) = %q, want 42c", got)
	}
	if got := Proceeds(126.49); got != "1s 26c" {
		t.Errorf("Proceeds(126.49) = %q, want 1s 26c", got)
	}
}

func TestQuantity(t *testing.T) {
	if got := Quantity(1234567); got != "1,234,567" {
		t.Errorf("Quantity = %q, want 1,234,567", got)
	}
	if got := Quantity(56); got != "56" {
		t.Errorf("Quantity = %q, want 56", got)
	}
}

func p(v int64) *int64 { return &v }

func TestDescribe_ListingBetter(t *testing.T) {
	q := model.Quote{
		ItemID: 19699, Name: "Iron Ore",
		BestBid: p(100), BestBidDepth: 1234,
		BestAsk: p(150), BestAskDepth: p(5),
	}
	r := model.Report{Quote: q, Suggestion: advisor.ForQuote(&q, 0.85)}
	out := Describe(&r)

	for _, want := range []string{
		"Iron Ore",
		"(Demand: 1,234)",
		"1s 50c (Supply: 5)",
		"Suggested Price: 1s 49c",
		"Up to 5",
		"Listing at 1s 49c could yield ~42c more profit/item (after tax) than instant selling at 1s.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("输出缺少 %q:\n%s", want, out)
		}
	}
}

func TestProfitInfo_Verdicts(t *testing.T) {
	tests := []struct {
		name     string
		bid, ask *int64
		want     string
	}{
		{"无卖单", p(100), nil, "No sell orders found."},
		{"无买单", nil, p(100), "No buy orders found."},
		{"两侧都无", nil, nil, "No sell orders found."},
		{"无法压价", p(100), p(1), "Lowest sell price is 1c. Cannot undercut."},
		{"卖一低于买一", p(200), p(150), "Lowest sell (1s 50c) <= highest buy (2s). Instant sell likely optimal."},
		{"挂单更差", p(100), p(101), "LESS profit/item"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := model.Quote{BestBid: tt.bid, BestAsk: tt.ask}
			s := advisor.ForQuote(&q, 0.85)
			if got := ProfitInfo(&q, &s); !strings.Contains(got, tt.want) {
				t.Errorf("ProfitInfo = %q, want contains %q", got, tt.want)
			}
		})
	}
}

func TestSuggestedQuantity(t *testing.T) {
	s := advisor.Advise(p(100), p(200), nil, 0.85)
	if got := SuggestedQuantity(&s); got != "Up to 1+" {
		t.Errorf("SuggestedQuantity = %q, want Up to 1+", got)
	}
	s = advisor.Advise(p(100), p(200), p(2500), 0.85)
	if got := SuggestedQuantity(&s); got != "Up to 2,500" {
		t.Errorf("SuggestedQuantity = %q, want Up to 2,500", got)
	}
	s = advisor.Advise(p(100), p(101), p(3), 0.85)
	if got := SuggestedQuantity(&s); got != "Consider" {
		t.Errorf("SuggestedQuantity = %q, want Consider", got)
	}
}
