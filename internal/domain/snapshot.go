package domain

// ActiveToken is one entry of the active-token ranking: a token whose
// trailing 48h volume exceeded the threshold, with its dominant venue.
type ActiveToken struct {
	TokenID     string  `json:"token_id"`
	TotalVolume float64 `json:"total_volume"`
	ActivePool  string  `json:"active_pool"`
	Source      string  `json:"source"`

	// Display metadata resolved from the tokens table at refresh time.
	Name        *string `json:"name"`
	Symbol      *string `json:"symbol"`
	Decimals    *int    `json:"decimals"`
	CreatedAt   *int64  `json:"created_at"`
	HolderCount int64   `json:"holder_count"`
}

// ActiveSnapshot is the cached output of an aggregation run, written
// solely by the ranking refresher and read-only everywhere else.
// Absence from the cache means stale, treated as empty.
type ActiveSnapshot struct {
	UpdatedAt int64         `json:"updatedAt"` // unix milliseconds
	Tokens    []ActiveToken `json:"tokens"`
}

// IDs returns the token ids of all snapshot entries.
func (s *ActiveSnapshot) IDs() []string {
	ids := make([]string, 0, len(s.Tokens))
	for _, t := range s.Tokens {
		ids = append(ids, t.TokenID)
	}
	return ids
}
