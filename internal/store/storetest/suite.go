// Package storetest provides a compliance suite for store.Store
// implementations.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gts-commerce/cart-service/internal/store"
)

// Run exercises the store contract against a fresh implementation returned by
// makeStore. Implementations should provide a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()
	key := "cart:user:" + uuid.New().String()

	// Empty read
	if fields, err := s.ReadAll(ctx, key); err != nil || len(fields) != 0 {
		t.Fatalf("ReadAll empty: fields=%v err=%v", fields, err)
	}

	// Field writes and read-back
	if err := s.WriteField(ctx, key, "p1", `{"qty":1}`); err != nil {
		t.Fatalf("WriteField p1: %v", err)
	}
	if err := s.WriteField(ctx, key, "p2", `{"qty":2}`); err != nil {
		t.Fatalf("WriteField p2: %v", err)
	}
	fields, err := s.ReadAll(ctx, key)
	if err != nil || len(fields) != 2 || fields["p1"] != `{"qty":1}` {
		t.Fatalf("ReadAll after writes: fields=%v err=%v", fields, err)
	}

	// Single-field read distinguishes absent from present
	if val, ok, err := s.ReadField(ctx, key, "p1"); err != nil || !ok || val != `{"qty":1}` {
		t.Fatalf("ReadField p1: val=%q ok=%v err=%v", val, ok, err)
	}
	if _, ok, err := s.ReadField(ctx, key, "nope"); err != nil || ok {
		t.Fatalf("ReadField absent: ok=%v err=%v", ok, err)
	}

	// Overwrite is last-write-wins at the field level
	if err := s.WriteField(ctx, key, "p1", `{"qty":9}`); err != nil {
		t.Fatalf("WriteField overwrite: %v", err)
	}
	if fields, _ := s.ReadAll(ctx, key); fields["p1"] != `{"qty":9}` {
		t.Fatalf("overwrite not applied: %v", fields)
	}

	// Field delete
	if err := s.DeleteField(ctx, key, "p2"); err != nil {
		t.Fatalf("DeleteField: %v", err)
	}
	if fields, _ := s.ReadAll(ctx, key); len(fields) != 1 {
		t.Fatalf("DeleteField not applied: %v", fields)
	}

	// TTL refresh does not disturb fields
	if err := s.RefreshTTL(ctx, key, time.Hour); err != nil {
		t.Fatalf("RefreshTTL: %v", err)
	}
	if fields, _ := s.ReadAll(ctx, key); len(fields) != 1 {
		t.Fatalf("fields lost after RefreshTTL: %v", fields)
	}

	// Batch: write, delete, TTL refresh, key delete in one round trip
	other := "cart:guest:" + uuid.New().String()
	if err := s.WriteField(ctx, other, "px", "x"); err != nil {
		t.Fatalf("WriteField other: %v", err)
	}
	results, err := s.ExecuteBatch(ctx, []store.BatchOp{
		store.WriteFieldOp(key, "p3", `{"qty":3}`),
		store.DeleteFieldOp(key, "p1"),
		store.RefreshTTLOp(key, time.Hour),
		store.DeleteKeyOp(other),
	})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("ExecuteBatch results: want 4, got %d", len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("batch op %d failed: %v", i, r.Err)
		}
	}
	fields, _ = s.ReadAll(ctx, key)
	if _, ok := fields["p1"]; ok {
		t.Fatalf("batch delete not applied: %v", fields)
	}
	if fields["p3"] != `{"qty":3}` {
		t.Fatalf("batch write not applied: %v", fields)
	}
	if otherFields, _ := s.ReadAll(ctx, other); len(otherFields) != 0 {
		t.Fatalf("batch key delete not applied: %v", otherFields)
	}

	// Whole-key delete
	if err := s.DeleteKey(ctx, key); err != nil {
		t.Fatalf("DeleteKey: %v", err)
	}
	if fields, _ := s.ReadAll(ctx, key); len(fields) != 0 {
		t.Fatalf("DeleteKey not applied: %v", fields)
	}

	// Empty batch is a no-op
	if results, err := s.ExecuteBatch(ctx, nil); err != nil || results != nil {
		t.Fatalf("empty batch: results=%v err=%v", results, err)
	}
}
