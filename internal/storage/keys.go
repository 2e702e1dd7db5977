package storage

import "time"

// Cache key layout and expiries.
const (
	KeyActiveTokens = "tokens:active"
	KeyTokenRecords = "tokens:records"
	KeyTokenPrefix  = "token:"

	ActiveTTL  = 3600 * time.Second
	RecordsTTL = 172800 * time.Second
)
