package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
)

// ErrInvalidPayload is returned when a webhook body matches none of the
// accepted shapes.
var ErrInvalidPayload = errors.New("invalid payload")

// UnixTime decodes a JSON timestamp that may arrive as an RFC3339 string
// or a unix-seconds number, normalizing to unix seconds.
type UnixTime int64

// UnmarshalJSON implements json.Unmarshaler.
func (u *UnixTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("parse timestamp %q: %w", s, err)
		}
		*u = UnixTime(t.Unix())
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("parse timestamp: %w", err)
	}
	*u = UnixTime(n)
	return nil
}

// PriceRecord is one incoming price observation.
type PriceRecord struct {
	ID        string   `json:"id"`
	Timestamp UnixTime `json:"timestamp"`
	TokenID   string   `json:"token"`
	PriceUSD  float64  `json:"price_usd"`
}

// SwapRecord is one incoming swap observation. Indexers disagree on the
// leg field names, so both spellings are decoded.
type SwapRecord struct {
	ID           string   `json:"id"`
	VID          *int64   `json:"vid"`
	Timestamp    UnixTime `json:"timestamp"`
	Pair         string   `json:"pair"`
	Token0       string   `json:"token0"`
	Token1       string   `json:"token1"`
	Token0Alt    string   `json:"token_0"`
	Token1Alt    string   `json:"token_1"`
	Token0Amount *string  `json:"token_0_amount"`
	Token1Amount *string  `json:"token_1_amount"`
	Account      *string  `json:"account"`
	AmountUSD    float64  `json:"amount_usd"`
	AmountNative float64  `json:"amount_native"`
	Source       *string  `json:"source"`
}

// Swap converts the record to its canonical domain form. An absent
// source becomes the literal "null" so the volume bucket key stays
// stable across deliveries that omit it.
func (r *SwapRecord) Swap() *domain.Swap {
	token0 := r.Token0
	if token0 == "" {
		token0 = r.Token0Alt
	}
	token1 := r.Token1
	if token1 == "" {
		token1 = r.Token1Alt
	}

	source := "null"
	if r.Source != nil && *r.Source != "" {
		source = *r.Source
	}

	return &domain.Swap{
		ID:           r.ID,
		VID:          r.VID,
		Timestamp:    int64(r.Timestamp),
		Pair:         r.Pair,
		Token0:       token0,
		Token1:       token1,
		Token0Amount: r.Token0Amount,
		Token1Amount: r.Token1Amount,
		Account:      r.Account,
		AmountUSD:    r.AmountUSD,
		AmountNative: r.AmountNative,
		Source:       source,
	}
}

// TokenRecord is one incoming token identity record.
type TokenRecord struct {
	ID        string  `json:"id"`
	Name      *string `json:"name"`
	Symbol    *string `json:"symbol"`
	Decimals  *int    `json:"decimals"`
	CreatedAt *int64  `json:"created_at"`
	Pool      *string `json:"pool"`
	Source    *string `json:"source"`
}

// HolderRecord is one incoming holder-count update.
type HolderRecord struct {
	ID          string `json:"id"`
	HolderCount int64  `json:"holderCount"`
}

// DecodeTokenBatch normalizes the duck-typed token webhook body into a
// single canonical batch. Accepted shapes: {"tokens": [...]},
// {"tokens": {...}}, a bare array, or a single record with an id.
func DecodeTokenBatch(body []byte) ([]TokenRecord, error) {
	var envelope struct {
		Tokens json.RawMessage `json:"tokens"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Tokens) > 0 {
		var batch []TokenRecord
		if err := json.Unmarshal(envelope.Tokens, &batch); err == nil {
			return batch, nil
		}
		var one TokenRecord
		if err := json.Unmarshal(envelope.Tokens, &one); err == nil {
			return []TokenRecord{one}, nil
		}
		return nil, ErrInvalidPayload
	}

	var batch []TokenRecord
	if err := json.Unmarshal(body, &batch); err == nil {
		return batch, nil
	}

	var one TokenRecord
	if err := json.Unmarshal(body, &one); err == nil && one.ID != "" {
		return []TokenRecord{one}, nil
	}

	return nil, ErrInvalidPayload
}

// DecodePriceBatch decodes the price webhook body, a bare array.
func DecodePriceBatch(body []byte) ([]PriceRecord, error) {
	var batch []PriceRecord
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return batch, nil
}

// DecodeSwapBatch decodes the swap webhook body, a bare array.
func DecodeSwapBatch(body []byte) ([]SwapRecord, error) {
	var batch []SwapRecord
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return batch, nil
}

// DecodeHolderBatch decodes the holder webhook body, array-or-one.
func DecodeHolderBatch(body []byte) ([]HolderRecord, error) {
	var batch []HolderRecord
	if err := json.Unmarshal(body, &batch); err == nil {
		return batch, nil
	}

	var one HolderRecord
	if err := json.Unmarshal(body, &one); err == nil {
		return []HolderRecord{one}, nil
	}

	return nil, ErrInvalidPayload
}
