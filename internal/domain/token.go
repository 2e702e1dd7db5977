package domain

import "strings"

// DefaultDecimals is assumed when a token's on-chain decimals are unknown.
const DefaultDecimals = 18

// Token represents a launched token's identity.
// Corresponds to tokens table in PostgreSQL.
type Token struct {
	ID          string  // chain address, stored lowercase
	Name        *string // token name (nullable)
	Symbol      *string // token symbol (nullable)
	Decimals    *int    // on-chain decimals (nullable, default 18)
	CreatedAt   *int64  // launch timestamp, unix seconds (nullable)
	Pool        *string // launch pool address (nullable)
	Source      *string // launch venue identifier (nullable)
	HolderCount *int64  // latest known holder count (nullable)
}

// DecimalsOrDefault returns the token's decimals, or DefaultDecimals when unset.
func (t *Token) DecimalsOrDefault() int {
	if t.Decimals == nil {
		return DefaultDecimals
	}
	return *t.Decimals
}

// TokenRecord is the cache-resident form of a recently launched token,
// kept in the tokens:records list with most recent launches first.
type TokenRecord struct {
	ID          string  `json:"id"`
	Name        *string `json:"name"`
	Symbol      *string `json:"symbol"`
	Decimals    *int    `json:"decimals"`
	CreatedAt   *int64  `json:"created_at"`
	Pool        *string `json:"pool"`
	Source      *string `json:"source"`
	HolderCount *int64  `json:"holder_count,omitempty"`
}

// NormalizeTokenID lowercases a chain address. Addresses are
// case-insensitive identifiers but textual storage is not.
func NormalizeTokenID(id string) string {
	return strings.ToLower(id)
}
