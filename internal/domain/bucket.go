package domain

// SecondsPerBucket is the time-series granularity.
const SecondsPerBucket = 3600

// HourBucket converts a unix-seconds timestamp to its hour bucket.
func HourBucket(unixSeconds int64) int64 {
	return unixSeconds / SecondsPerBucket
}

// PriceBucket holds one price observation per (token, hour).
// Corresponds to prices table in PostgreSQL; a newer delivery for the
// same bucket overwrites price and observed timestamp unconditionally.
type PriceBucket struct {
	TokenID    string
	HourBucket int64
	ObservedAt int64   // unix seconds of the observation that last wrote this row
	PriceUSD   float64 // raw integer-scaled magnitude, see history.AdjustPrice
}

// VolumeBucket accumulates swap volume per (token, pool, source, hour).
// Corresponds to volume table in PostgreSQL; the usd/native fields are
// additive and must be incremented atomically at the store.
type VolumeBucket struct {
	TokenID      string
	Pool         string
	Source       string
	HourBucket   int64
	VolumeUSD    float64
	VolumeNative float64
}

// VolumeGroup is one (token, pool, source) group with its summed volume
// over the trailing aggregation window.
type VolumeGroup struct {
	TokenID     string
	Pool        string
	Source      string
	TotalVolume float64
}

// VolumeSum is a per-(token, hour) volume total across all venues.
type VolumeSum struct {
	TokenID    string
	HourBucket int64
	VolumeUSD  float64
}
