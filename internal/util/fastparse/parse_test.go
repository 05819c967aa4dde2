package fastparse

import (
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestParseItemID(t *testing.T) {
	tests := []struct {
		input  string
		want   int64
		wantOK bool
	}{
		{"19699", 19699, true},
		{"0", 0, true},
		{"007", 7, true},
		{"", 0, false},
		{"-1", 0, false},
		{"+5", 0, false},
		{" 12", 0, false},
		{"12a", 0, false},
		{"Iron Ore", 0, false},
		{"99999999999999999999", 0, false}, // 溢出
	}

	for _, tt := range tests {
		got, ok := ParseItemID(tt.input)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseItemID(%q) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

// TestParseItemID_RoundTrip 非负整数格式化后应能原样解析
func TestParseItemID_RoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatInt 与 ParseItemID 互逆", prop.ForAll(
		func(id int64) bool {
			got, ok := ParseItemID(FormatInt(id))
			return ok && got == id
		},
		gen.Int64Range(0, 1<<62),
	))

	properties.TestingRun(t)
}

func TestJoinIDs(t *testing.T) {
	if got := JoinIDs(nil); got != "" {
		t.Errorf("JoinIDs(nil) = %q, want empty", got)
	}
	if got := JoinIDs([]int64{24, 19699, 1}); got != "24,19699,1" {
		t.Errorf("JoinIDs = %q", got)
	}
	ids := make([]int64, 200)
	for i := range ids {
		ids[i] = int64(i)
	}
	want := ""
	for i := range ids {
		if i > 0 {
			want += ","
		}
		want += strconv.Itoa(i)
	}
	if got := JoinIDs(ids); got != want {
		t.Errorf("JoinIDs(200 ids) mismatch")
	}
}
