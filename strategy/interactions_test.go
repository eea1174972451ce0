package strategy

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/periodhub/personakit/core"
	"github.com/periodhub/personakit/store"
)

// plainStore 包装 MemoryStore 但只暴露 Store 接口，用于覆盖 JSON 整块降级路径。
type plainStore struct{ core.Store }

func TestInteractionsPersistViaHash(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	defer backend.Close()

	first := NewMemoryInteractions(WithInteractionsStore(backend))
	first.RecordInteraction(ctx, "u1", "a", core.InteractionShare, 0)
	first.RecordInteraction(ctx, "u1", "b", core.InteractionClick, 0)
	first.RecordInteraction(ctx, "u1", "b", core.InteractionClick, 0)

	// 新实例从同一后端恢复，得分应与内存态一致
	second := NewMemoryInteractions(WithInteractionsStore(backend))
	if err := second.Load(ctx, "u1"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := first.UserItems("u1")
	got := second.UserItems("u1")
	if len(got) != 2 {
		t.Fatalf("restored items = %d, want 2", len(got))
	}
	for id, w := range want {
		if math.Abs(got[id]-w) > 1e-9 {
			t.Errorf("restored score[%s] = %v, want %v", id, got[id], w)
		}
	}

	// Hash 字段按内容 ID 分字段存储
	fields, err := backend.HGetAll(ctx, interactionsKey("u1"))
	if err != nil {
		t.Fatalf("HGetAll() error = %v", err)
	}
	if len(fields) != 2 {
		t.Errorf("hash fields = %d, want one per content", len(fields))
	}
}

func TestTopInteractedUsesRank(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	defer backend.Close()

	m := NewMemoryInteractions(WithInteractionsStore(backend))
	m.RecordInteraction(ctx, "u1", "low", core.InteractionView, 0)      // 0.1
	m.RecordInteraction(ctx, "u1", "high", core.InteractionShare, 0)    // 1.0
	m.RecordInteraction(ctx, "u1", "mid", core.InteractionDownload, 0)  // 0.8

	got := m.TopInteracted(ctx, "u1", 2)
	if !reflect.DeepEqual(got, []string{"high", "mid"}) {
		t.Errorf("TopInteracted() = %v, want [high mid]", got)
	}

	// 有序集合分数与内存得分同步
	score, err := backend.ZScore(ctx, interactionsRankKey("u1"), "high")
	if err != nil {
		t.Fatalf("ZScore() error = %v", err)
	}
	if score != 1.0 {
		t.Errorf("rank score = %v, want 1.0", score)
	}
}

func TestTopInteractedInMemoryFallback(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryInteractions()
	m.RecordInteraction(ctx, "u1", "b", core.InteractionClick, 0)    // 0.3
	m.RecordInteraction(ctx, "u1", "a", core.InteractionClick, 0)    // 0.3
	m.RecordInteraction(ctx, "u1", "c", core.InteractionDownload, 0) // 0.8

	got := m.TopInteracted(ctx, "u1", 10)
	// 得分降序，同分按 ID 字典序
	if !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Errorf("TopInteracted() = %v, want [c a b]", got)
	}
	if got := m.TopInteracted(ctx, "u1", 0); got != nil {
		t.Errorf("TopInteracted(limit 0) = %v, want nil", got)
	}
}

func TestInteractionsJSONFallback(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	defer backend.Close()
	wrapped := plainStore{Store: backend}

	first := NewMemoryInteractions(WithInteractionsStore(wrapped))
	first.RecordInteraction(ctx, "u1", "a", core.InteractionLike, 0)

	// 不支持 Hash 的后端写整块 JSON
	if _, err := backend.Get(ctx, interactionsKey("u1")); err != nil {
		t.Fatalf("expected JSON blob under %s, got %v", interactionsKey("u1"), err)
	}

	second := NewMemoryInteractions(WithInteractionsStore(wrapped))
	if err := second.Load(ctx, "u1"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := second.UserItems("u1")["a"]; got != 0.9 {
		t.Errorf("restored score = %v, want 0.9", got)
	}
}
