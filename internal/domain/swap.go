package domain

// Swap represents a raw swap delivery from the indexer.
// Corresponds to swaps table in PostgreSQL. The unique id absorbs
// duplicate webhook deliveries before volume accumulation.
type Swap struct {
	ID           string // indexer-assigned unique swap id
	VID          *int64 // indexer version id (nullable)
	Timestamp    int64  // unix seconds
	Pair         string // pool address
	Token0       string // first leg token id
	Token1       string // second leg token id
	Token0Amount *string
	Token1Amount *string
	Account      *string
	AmountUSD    float64
	AmountNative float64
	Source       string // venue identifier
}
