package store

import (
	"context"
	"testing"

	"github.com/periodhub/personakit/core"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	defer ms.Close()

	if _, err := ms.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("Get(missing) error = %v, want store not found", err)
	}

	if err := ms.Set(ctx, "k1", []byte("v1")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := ms.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("Get() = %q, want v1", got)
	}

	if err := ms.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := ms.Get(ctx, "k1"); !core.IsStoreNotFound(err) {
		t.Errorf("Get after delete error = %v, want store not found", err)
	}
}

func TestMemoryStoreBatch(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	defer ms.Close()

	kvs := map[string][]byte{"a": []byte("1"), "b": []byte("2")}
	if err := ms.BatchSet(ctx, kvs); err != nil {
		t.Fatalf("BatchSet() error = %v", err)
	}

	got, err := ms.BatchGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("BatchGet() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("BatchGet() = %d entries, want 2 (missing keys skipped)", len(got))
	}
	if string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Errorf("BatchGet() = %v", got)
	}
}

func TestMemoryStoreZSet(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	defer ms.Close()

	ms.ZAdd(ctx, "rank", 0.5, "mid")
	ms.ZAdd(ctx, "rank", 0.9, "top")
	ms.ZAdd(ctx, "rank", 0.1, "low")

	got, err := ms.ZRange(ctx, "rank", 0, -1)
	if err != nil {
		t.Fatalf("ZRange() error = %v", err)
	}
	want := []string{"top", "mid", "low"}
	if len(got) != len(want) {
		t.Fatalf("ZRange() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ZRange()[%d] = %s, want %s (score descending)", i, got[i], want[i])
		}
	}

	top2, err := ms.ZRange(ctx, "rank", 0, 1)
	if err != nil {
		t.Fatalf("ZRange() error = %v", err)
	}
	if len(top2) != 2 || top2[0] != "top" || top2[1] != "mid" {
		t.Errorf("ZRange(0,1) = %v, want [top mid]", top2)
	}

	score, err := ms.ZScore(ctx, "rank", "top")
	if err != nil || score != 0.9 {
		t.Errorf("ZScore(top) = %v, %v, want 0.9", score, err)
	}
	if _, err := ms.ZScore(ctx, "rank", "nobody"); !core.IsStoreNotFound(err) {
		t.Errorf("ZScore(nobody) error = %v, want store not found", err)
	}
}

func TestMemoryStoreHash(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	defer ms.Close()

	ms.HSet(ctx, "h", "f1", []byte("v1"))
	ms.HSet(ctx, "h", "f2", []byte("v2"))

	got, err := ms.HGet(ctx, "h", "f1")
	if err != nil || string(got) != "v1" {
		t.Errorf("HGet(f1) = %q, %v, want v1", got, err)
	}
	if _, err := ms.HGet(ctx, "h", "f3"); !core.IsStoreNotFound(err) {
		t.Errorf("HGet(f3) error = %v, want store not found", err)
	}

	all, err := ms.HGetAll(ctx, "h")
	if err != nil {
		t.Fatalf("HGetAll() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("HGetAll() = %d fields, want 2", len(all))
	}

	empty, err := ms.HGetAll(ctx, "nope")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("HGetAll on missing key = %v, %v, want empty map", empty, err)
	}

	// Delete 连带清理 zset 与 hash
	ms.ZAdd(ctx, "h", 1, "m")
	ms.Delete(ctx, "h")
	if _, err := ms.HGet(ctx, "h", "f1"); !core.IsStoreNotFound(err) {
		t.Error("Delete should clear hash fields")
	}
	if _, err := ms.ZScore(ctx, "h", "m"); !core.IsStoreNotFound(err) {
		t.Error("Delete should clear zset members")
	}
}
