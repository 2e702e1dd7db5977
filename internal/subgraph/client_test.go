package subgraph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNowPrices(t *testing.T) {
	var gotRequest graphqlRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"tokens": [
			{"id": "0xa", "symbol": "AAA", "latestPriceUSD": "1.25"},
			{"id": "0xb", "symbol": "BBB", "latestPriceUSD": "not-a-number"}
		]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	prices, err := client.NowPrices(context.Background(), []string{"0xa", "0xb", "0xc"})
	if err != nil {
		t.Fatalf("now prices: %v", err)
	}

	if prices["0xa"] != 1.25 {
		t.Errorf("prices[0xa] = %v, want 1.25", prices["0xa"])
	}
	// Unparseable price degrades to zero rather than failing the call.
	if v, ok := prices["0xb"]; !ok || v != 0 {
		t.Errorf("prices[0xb] = %v (present=%v), want 0", v, ok)
	}
	// 0xc absent from the response stays absent.
	if _, ok := prices["0xc"]; ok {
		t.Error("prices[0xc] present, want absent")
	}

	addrs, ok := gotRequest.Variables["tokenAddresses"].([]any)
	if !ok || len(addrs) != 3 {
		t.Errorf("tokenAddresses variable = %v, want 3 ids", gotRequest.Variables["tokenAddresses"])
	}
}

func TestNowPricesEmptyInput(t *testing.T) {
	client := NewClient("http://unused.invalid")
	prices, err := client.NowPrices(context.Background(), nil)
	if err != nil {
		t.Fatalf("now prices: %v", err)
	}
	if len(prices) != 0 {
		t.Errorf("prices = %v, want empty without any request", prices)
	}
}

func TestNowPricesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.NowPrices(context.Background(), []string{"0xa"}); err == nil {
		t.Fatal("expected error on non-2xx status")
	}
}

func TestNowPricesGraphQLErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": null, "errors": [{"message": "field missing"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.NowPrices(context.Background(), []string{"0xa"}); err == nil {
		t.Fatal("expected error on graphql errors payload")
	}
}

func TestWithHTTPClient(t *testing.T) {
	custom := &http.Client{}
	client := NewClient("http://unused.invalid", WithHTTPClient(custom))
	if client.client != custom {
		t.Error("custom http client not applied")
	}
}
