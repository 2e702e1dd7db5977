package metadata

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/piperxprotocol/piperxBackend/internal/domain"
	"github.com/piperxprotocol/piperxBackend/internal/storage/memory"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func i64Ptr(n int64) *int64   { return &n }

func TestMergePrecedence(t *testing.T) {
	rows := []*domain.Token{
		{ID: "0xA", Name: strPtr("RowName"), Symbol: strPtr("ROW")},
	}
	records := []domain.TokenRecord{
		{ID: "0xa", Name: strPtr("RecordName"), Decimals: intPtr(9)},
	}
	snap := &domain.ActiveSnapshot{Tokens: []domain.ActiveToken{
		{TokenID: "0xA", Name: strPtr("SnapName"), CreatedAt: i64Ptr(100), ActivePool: "0xp", Source: "dex", HolderCount: 5},
	}}

	merged := Merge(rows, records, snap)

	m, ok := merged["0xa"]
	if !ok {
		t.Fatalf("merged keys = %v, want lowercase 0xa", merged)
	}
	// Row wins the contested name; each later source only fills holes.
	if m.Name == nil || *m.Name != "RowName" {
		t.Errorf("name = %v, want RowName", m.Name)
	}
	if m.Symbol == nil || *m.Symbol != "ROW" {
		t.Errorf("symbol = %v, want ROW", m.Symbol)
	}
	if m.Decimals == nil || *m.Decimals != 9 {
		t.Errorf("decimals = %v, want 9 from cached record", m.Decimals)
	}
	if m.CreatedAt == nil || *m.CreatedAt != 100 {
		t.Errorf("created_at = %v, want 100 from snapshot", m.CreatedAt)
	}
	if m.Pool == nil || *m.Pool != "0xp" || m.Source == nil || *m.Source != "dex" {
		t.Errorf("pool/source = %v/%v, want 0xp/dex from snapshot", m.Pool, m.Source)
	}
	if m.HolderCount == nil || *m.HolderCount != 5 {
		t.Errorf("holder count = %v, want 5 from snapshot", m.HolderCount)
	}
}

func TestMergeSnapshotOnlyToken(t *testing.T) {
	snap := &domain.ActiveSnapshot{Tokens: []domain.ActiveToken{
		{TokenID: "0xB", Symbol: strPtr("BBB"), ActivePool: "0xq", Source: "dex"},
	}}

	merged := Merge(nil, nil, snap)
	m, ok := merged["0xb"]
	if !ok {
		t.Fatal("snapshot-only token missing from merge")
	}
	if m.Symbol == nil || *m.Symbol != "BBB" {
		t.Errorf("symbol = %v, want BBB", m.Symbol)
	}
}

func TestMergeSkipsEmptyIDs(t *testing.T) {
	records := []domain.TokenRecord{{ID: "", Name: strPtr("ghost")}}
	merged := Merge(nil, records, nil)
	if len(merged) != 0 {
		t.Errorf("merged = %v, want empty", merged)
	}
}

func TestDecimalsOrDefault(t *testing.T) {
	var m Metadata
	if m.DecimalsOrDefault() != domain.DefaultDecimals {
		t.Errorf("default decimals = %d, want %d", m.DecimalsOrDefault(), domain.DefaultDecimals)
	}
	m.Decimals = intPtr(6)
	if m.DecimalsOrDefault() != 6 {
		t.Errorf("decimals = %d, want 6", m.DecimalsOrDefault())
	}
}

func TestResolveDegradesOnCacheFailure(t *testing.T) {
	tokens := memory.NewTokenStore()
	ctx := context.Background()

	if err := tokens.Upsert(ctx, &domain.Token{ID: "0xa", Symbol: strPtr("AAA")}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	resolver := NewResolver(tokens, &failingCache{}, log.New(io.Discard, "", 0))
	meta, err := resolver.Resolve(ctx, []string{"0xa"})
	if err != nil {
		t.Fatalf("resolve should survive cache failure: %v", err)
	}
	if m := meta["0xa"]; m.Symbol == nil || *m.Symbol != "AAA" {
		t.Errorf("store row lost when cache fails: %+v", m)
	}
}

// failingCache fails every read and write.
type failingCache struct{}

func (c *failingCache) GetActive(context.Context) (*domain.ActiveSnapshot, error) {
	return nil, context.DeadlineExceeded
}

func (c *failingCache) SetActive(context.Context, *domain.ActiveSnapshot) error {
	return context.DeadlineExceeded
}

func (c *failingCache) GetRecords(context.Context) ([]domain.TokenRecord, error) {
	return nil, context.DeadlineExceeded
}

func (c *failingCache) SetRecords(context.Context, []domain.TokenRecord) error {
	return context.DeadlineExceeded
}

func (c *failingCache) GetToken(context.Context, string) (*domain.TokenRecord, error) {
	return nil, context.DeadlineExceeded
}

func (c *failingCache) SetToken(context.Context, *domain.TokenRecord) error {
	return context.DeadlineExceeded
}
