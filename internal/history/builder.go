// Package history reconstructs dense, fixed-length hourly series from
// sparse bucket rows.
package history

import (
	"fmt"
	"math"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
)

// DefaultPoints is the series length served by the read API.
const DefaultPoints = 48

// Label formats an hour offset as its series key ("1h".."48h").
func Label(offset int) string {
	return fmt.Sprintf("%dh", offset)
}

// BuildHistory turns sparse price buckets into dense per-token series.
// Offset i (1..points) maps to bucket nowHour - i, so index 1 is the
// most recent hour. The result is total: every token in tokenIDs gets
// exactly points labeled values.
//
// Fill policy, two passes over the offset buffer:
//  1. backward carry — scanning oldest-first, the most recently seen
//     value propagates toward newer unset slots, closing gaps that are
//     bounded on the old side;
//  2. forward fill — scanning newest-first, the first known value seeds
//     "last known", which every later unset slot inherits.
//
// A gap bounded on both sides therefore takes the older neighbor: the
// carry pass runs first and wins before forward fill can reach the gap.
// That ordering is intentional and pinned by tests; do not reorder the
// passes.
//
// A token with no buckets at all gets its fallback value (typically the
// live price) in every slot, or zero when no fallback is known.
func BuildHistory(
	nowHour int64,
	rows []*domain.PriceBucket,
	tokenIDs []string,
	points int,
	fallback map[string]float64,
) map[string]map[string]float64 {
	raw := make(map[string]map[int64]float64)
	for _, r := range rows {
		m, ok := raw[r.TokenID]
		if !ok {
			m = make(map[int64]float64)
			raw[r.TokenID] = m
		}
		m[r.HourBucket] = r.PriceUSD
	}

	result := make(map[string]map[string]float64, len(tokenIDs))

	for _, tokenID := range tokenIDs {
		buckets := raw[tokenID]
		buffer := make([]*float64, points)

		for i := 1; i <= points; i++ {
			if v, ok := buckets[nowHour-int64(i)]; ok {
				v := v
				buffer[i-1] = &v
			}
		}

		// Pass 1: backward carry, oldest slot first.
		var carry *float64
		for i := points - 1; i >= 0; i-- {
			if buffer[i] != nil {
				carry = buffer[i]
			} else if carry != nil {
				buffer[i] = carry
			}
		}

		// Pass 2: forward fill seeded by the first known value.
		var lastKnown *float64
		for i := 0; i < points; i++ {
			if buffer[i] != nil {
				lastKnown = buffer[i]
				break
			}
		}
		if lastKnown != nil {
			for i := 0; i < points; i++ {
				if buffer[i] == nil {
					buffer[i] = lastKnown
				} else {
					lastKnown = buffer[i]
				}
			}
		} else {
			fb := fallback[tokenID]
			for i := 0; i < points; i++ {
				fb := fb
				buffer[i] = &fb
			}
		}

		series := make(map[string]float64, points)
		for i := 1; i <= points; i++ {
			series[Label(i)] = *buffer[i-1]
		}
		result[tokenID] = series
	}

	return result
}

// BuildVolumeHistory turns per-(token, hour) volume sums into dense
// series. Unlike prices, hours with no trades are genuinely zero, so
// there is no carry or fill.
func BuildVolumeHistory(
	nowHour int64,
	rows []*domain.VolumeSum,
	tokenIDs []string,
	points int,
) map[string]map[string]float64 {
	raw := make(map[string]map[int64]float64)
	for _, r := range rows {
		m, ok := raw[r.TokenID]
		if !ok {
			m = make(map[int64]float64)
			raw[r.TokenID] = m
		}
		m[r.HourBucket] = r.VolumeUSD
	}

	result := make(map[string]map[string]float64, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		buckets := raw[tokenID]
		series := make(map[string]float64, points)
		for i := 1; i <= points; i++ {
			series[Label(i)] = buckets[nowHour-int64(i)]
		}
		result[tokenID] = series
	}

	return result
}

// AdjustPrice converts a raw stored price magnitude to a display price.
// Stored values are integer-scaled against an assumed 18-decimal
// USD-scaled source and a 6-decimal display convention, so the divisor
// is 10^(18 - (decimals - 6)) — a fixed calibration, not a generic
// decimal shift.
func AdjustPrice(raw float64, decimals int) float64 {
	adjustment := 18 - (decimals - 6)
	return raw / math.Pow(10, float64(adjustment))
}

// NowPrices extracts the most recent bucket price per token from a
// window of rows, used as the live price and the fill fallback.
func NowPrices(rows []*domain.PriceBucket) map[string]float64 {
	type latest struct {
		bucket int64
		price  float64
	}

	latestByToken := make(map[string]latest)
	for _, r := range rows {
		if cur, ok := latestByToken[r.TokenID]; !ok || r.HourBucket > cur.bucket {
			latestByToken[r.TokenID] = latest{bucket: r.HourBucket, price: r.PriceUSD}
		}
	}

	out := make(map[string]float64, len(latestByToken))
	for id, l := range latestByToken {
		out[id] = l.price
	}
	return out
}
