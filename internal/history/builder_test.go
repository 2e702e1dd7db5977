package history

import (
	"math"
	"testing"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
)

const nowHour = int64(500000)

func bucket(tokenID string, offset int, price float64) *domain.PriceBucket {
	return &domain.PriceBucket{
		TokenID:    tokenID,
		HourBucket: nowHour - int64(offset),
		ObservedAt: (nowHour - int64(offset)) * domain.SecondsPerBucket,
		PriceUSD:   price,
	}
}

func TestBuildHistoryFillPolicy(t *testing.T) {
	tests := []struct {
		name   string
		points int
		rows   []*domain.PriceBucket
		want   map[string]float64
	}{
		{
			// Gap bounded on both sides takes the older neighbor: the
			// backward carry pass runs before forward fill.
			name:   "interior gap inherits older neighbor",
			points: 5,
			rows: []*domain.PriceBucket{
				bucket("tok", 1, 10),
				bucket("tok", 5, 20),
			},
			want: map[string]float64{"1h": 10, "2h": 20, "3h": 20, "4h": 20, "5h": 20},
		},
		{
			// Slots older than the oldest known value take the last
			// known value from the forward pass.
			name:   "trailing gap forward filled",
			points: 5,
			rows: []*domain.PriceBucket{
				bucket("tok", 1, 10),
				bucket("tok", 3, 30),
			},
			want: map[string]float64{"1h": 10, "2h": 30, "3h": 30, "4h": 30, "5h": 30},
		},
		{
			// Slots newer than the only known value take it via carry.
			name:   "leading gap carried toward now",
			points: 4,
			rows: []*domain.PriceBucket{
				bucket("tok", 3, 7),
			},
			want: map[string]float64{"1h": 7, "2h": 7, "3h": 7, "4h": 7},
		},
		{
			name:   "dense window untouched",
			points: 3,
			rows: []*domain.PriceBucket{
				bucket("tok", 1, 1),
				bucket("tok", 2, 2),
				bucket("tok", 3, 3),
			},
			want: map[string]float64{"1h": 1, "2h": 2, "3h": 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildHistory(nowHour, tt.rows, []string{"tok"}, tt.points, nil)

			series := got["tok"]
			if len(series) != tt.points {
				t.Fatalf("series has %d points, want %d", len(series), tt.points)
			}
			for label, want := range tt.want {
				if series[label] != want {
					t.Errorf("series[%s] = %v, want %v", label, series[label], want)
				}
			}
		})
	}
}

func TestBuildHistoryFallback(t *testing.T) {
	fallback := map[string]float64{"empty": 42}
	got := BuildHistory(nowHour, nil, []string{"empty", "unknown"}, 3, fallback)

	for i := 1; i <= 3; i++ {
		if v := got["empty"][Label(i)]; v != 42 {
			t.Errorf("empty[%s] = %v, want fallback 42", Label(i), v)
		}
		if v := got["unknown"][Label(i)]; v != 0 {
			t.Errorf("unknown[%s] = %v, want 0", Label(i), v)
		}
	}
}

func TestBuildHistoryRowsOutsideWindowIgnored(t *testing.T) {
	rows := []*domain.PriceBucket{
		bucket("tok", 0, 99),  // current hour, outside the 1..points range
		bucket("tok", 10, 88), // older than the window
		bucket("tok", 2, 5),
	}
	got := BuildHistory(nowHour, rows, []string{"tok"}, 3, nil)

	want := map[string]float64{"1h": 5, "2h": 5, "3h": 5}
	for label, v := range want {
		if got["tok"][label] != v {
			t.Errorf("series[%s] = %v, want %v", label, got["tok"][label], v)
		}
	}
}

func TestBuildHistoryTotality(t *testing.T) {
	got := BuildHistory(nowHour, nil, []string{"a", "b"}, DefaultPoints, nil)

	for _, id := range []string{"a", "b"} {
		if len(got[id]) != DefaultPoints {
			t.Errorf("token %s has %d points, want %d", id, len(got[id]), DefaultPoints)
		}
	}
}

func TestBuildVolumeHistoryZeroFill(t *testing.T) {
	rows := []*domain.VolumeSum{
		{TokenID: "tok", HourBucket: nowHour - 1, VolumeUSD: 100},
		{TokenID: "tok", HourBucket: nowHour - 4, VolumeUSD: 250},
	}
	got := BuildVolumeHistory(nowHour, rows, []string{"tok"}, 5)

	want := map[string]float64{"1h": 100, "2h": 0, "3h": 0, "4h": 250, "5h": 0}
	series := got["tok"]
	if len(series) != 5 {
		t.Fatalf("series has %d points, want 5", len(series))
	}
	for label, v := range want {
		if series[label] != v {
			t.Errorf("series[%s] = %v, want %v", label, series[label], v)
		}
	}
}

func TestAdjustPrice(t *testing.T) {
	tests := []struct {
		raw      float64
		decimals int
		want     float64
	}{
		{18e18, 6, 18},      // divisor 10^18
		{18e18, 18, 18e12},  // divisor 10^6
		{5e15, 9, 5},        // divisor 10^15
		{0, 18, 0},
		{1.5e6, 18, 1.5},
	}

	for _, tt := range tests {
		got := AdjustPrice(tt.raw, tt.decimals)
		if math.Abs(got-tt.want) > tt.want*1e-12 {
			t.Errorf("AdjustPrice(%v, %d) = %v, want %v", tt.raw, tt.decimals, got, tt.want)
		}
	}
}

func TestNowPricesPicksLatestBucket(t *testing.T) {
	rows := []*domain.PriceBucket{
		bucket("a", 5, 1),
		bucket("a", 2, 2),
		bucket("a", 8, 3),
		bucket("b", 1, 9),
	}
	got := NowPrices(rows)

	if got["a"] != 2 {
		t.Errorf("NowPrices[a] = %v, want 2 (offset 2 is the newest bucket)", got["a"])
	}
	if got["b"] != 9 {
		t.Errorf("NowPrices[b] = %v, want 9", got["b"])
	}
	if len(got) != 2 {
		t.Errorf("NowPrices returned %d tokens, want 2", len(got))
	}
}

func TestLabel(t *testing.T) {
	if Label(1) != "1h" || Label(48) != "48h" {
		t.Errorf("Label(1)=%q Label(48)=%q, want 1h and 48h", Label(1), Label(48))
	}
}
