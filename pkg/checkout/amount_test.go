package checkout

import (
	"math"
	"testing"
)

func TestComputeAmountDue(t *testing.T) {
	tests := []struct {
		name                     string
		subtotal, shop, platform int64
		want                     int64
	}{
		{name: "no vouchers", subtotal: 50000, want: 50000},
		{name: "shop only", subtotal: 50000, shop: 10000, want: 40000},
		{name: "both", subtotal: 50000, shop: 10000, platform: 5000, want: 35000},
		{name: "floored at zero", subtotal: 50000, shop: 30000, platform: 30000, want: 0},
		{name: "exactly zero", subtotal: 20000, shop: 20000, want: 0},
		{name: "negative discount ignored", subtotal: 1000, shop: -500, want: 1000},
		{name: "negative subtotal", subtotal: -1, want: 0},
		{name: "huge discounts saturate", subtotal: 0, shop: math.MaxInt64, platform: math.MaxInt64, want: 0},
		{name: "huge platform discount", subtotal: 50000, shop: 1, platform: math.MaxInt64, want: 0},
		{name: "max subtotal", subtotal: math.MaxInt64, shop: 1, want: math.MaxInt64 - 1},
		{name: "min int discount ignored", subtotal: 1000, shop: math.MinInt64, want: 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeAmountDue(tt.subtotal, tt.shop, tt.platform); got != tt.want {
				t.Fatalf("ComputeAmountDue(%d,%d,%d) = %d, want %d", tt.subtotal, tt.shop, tt.platform, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(50000, 30000, 30000)
	if s.AmountDue != 0 {
		t.Fatalf("expected amount due 0, got %d", s.AmountDue)
	}
	if s.Subtotal != 50000 || s.ShopDiscount != 30000 || s.PlatformDiscount != 30000 {
		t.Fatalf("unexpected summary %+v", s)
	}
}
