// Package subgraph queries the external indexer for live token prices.
// It sits at the system boundary: read handlers use it only to fill the
// gap-fill fallback map, and any failure degrades to a zero fallback.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// DefaultTimeout bounds a single subgraph round trip.
const DefaultTimeout = 10 * time.Second

// PriceSource provides live prices for a token-id set.
type PriceSource interface {
	NowPrices(ctx context.Context, tokenIDs []string) (map[string]float64, error)
}

// Client implements PriceSource over the indexer's GraphQL endpoint.
type Client struct {
	endpoint string
	client   *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a subgraph client for the given GraphQL endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ PriceSource = (*Client)(nil)

const priceQuery = `
query GetCurrentTokenPrices($tokenAddresses: [String!]!) {
  tokens(where: { id_in: $tokenAddresses }) {
    id
    symbol
    latestPriceUSD
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

type rawTokenPrice struct {
	ID             string `json:"id"`
	Symbol         string `json:"symbol"`
	LatestPriceUSD string `json:"latestPriceUSD"`
}

// NowPrices fetches the latest indexed USD price per token id. Ids
// absent from the response are absent from the result.
func (c *Client) NowPrices(ctx context.Context, tokenIDs []string) (map[string]float64, error) {
	if len(tokenIDs) == 0 {
		return map[string]float64{}, nil
	}

	var data struct {
		Tokens []rawTokenPrice `json:"tokens"`
	}
	err := c.query(ctx, priceQuery, map[string]any{"tokenAddresses": tokenIDs}, &data)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(data.Tokens))
	for _, t := range data.Tokens {
		price, err := strconv.ParseFloat(t.LatestPriceUSD, 64)
		if err != nil {
			price = 0
		}
		prices[t.ID] = price
	}
	return prices, nil
}

// query executes one GraphQL request and decodes data into out.
func (c *Client) query(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post graphql query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("subgraph error: status %d", resp.StatusCode)
	}

	var gqlResp graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	if len(gqlResp.Errors) > 0 && string(gqlResp.Errors) != "null" {
		return fmt.Errorf("subgraph error payload: %s", gqlResp.Errors)
	}

	if err := json.Unmarshal(gqlResp.Data, out); err != nil {
		return fmt.Errorf("decode graphql data: %w", err)
	}
	return nil
}
