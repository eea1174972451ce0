package strategy

import (
	"context"
	"testing"

	"github.com/periodhub/personakit/core"
)

func candidate(id, category string) *core.Item {
	return core.NewItemFromContent(&core.ContentItem{
		ID:       id,
		Type:     core.ContentArticle,
		Category: category,
	})
}

func TestCollaborativeDisjointUsersYieldNothing(t *testing.T) {
	ctx := context.Background()
	interactions := NewMemoryInteractions()
	interactions.RecordInteraction(ctx, "u1", "a", core.InteractionShare, 0)
	interactions.RecordInteraction(ctx, "u2", "b", core.InteractionShare, 0)

	s := &Collaborative{Interactions: interactions}
	rctx := &core.RecommendContext{UserID: "u1"}
	got, err := s.Score(ctx, rctx, []*core.Item{candidate("b", "relief")})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("disjoint interaction vectors must not produce recommendations, got %d", len(got))
	}
}

func TestCollaborativeRecommendsNeighborFavorites(t *testing.T) {
	ctx := context.Background()
	interactions := NewMemoryInteractions()
	// u1 与 u2/u3 通过内容 a 关联；x 是两个近邻都喜欢的新内容
	interactions.RecordInteraction(ctx, "u1", "a", core.InteractionShare, 0)
	interactions.RecordInteraction(ctx, "u2", "a", core.InteractionShare, 0)
	interactions.RecordInteraction(ctx, "u2", "x", core.InteractionLike, 0)
	interactions.RecordInteraction(ctx, "u3", "a", core.InteractionShare, 0)
	interactions.RecordInteraction(ctx, "u3", "x", core.InteractionDownload, 0)

	s := &Collaborative{Interactions: interactions}
	rctx := &core.RecommendContext{UserID: "u1"}
	got, err := s.Score(ctx, rctx, []*core.Item{candidate("x", "relief"), candidate("y", "lifestyle")})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "x" {
		t.Fatalf("Score() = %v, want only x", itemIDs(got))
	}
	if got[0].Confidence != 0.7 {
		t.Errorf("Confidence = %v, want 0.7", got[0].Confidence)
	}
	if got[0].Score <= 0.3 {
		t.Errorf("Score = %v, should exceed the 0.3 threshold", got[0].Score)
	}
	if got[0].LabelValue("reason") == "" {
		t.Error("collaborative items should carry a reason label")
	}
}

func TestCollaborativeRequiresTwoSupporters(t *testing.T) {
	ctx := context.Background()
	interactions := NewMemoryInteractions()
	interactions.RecordInteraction(ctx, "u1", "a", core.InteractionShare, 0)
	interactions.RecordInteraction(ctx, "u2", "a", core.InteractionShare, 0)
	interactions.RecordInteraction(ctx, "u2", "x", core.InteractionLike, 0)

	s := &Collaborative{Interactions: interactions}
	rctx := &core.RecommendContext{UserID: "u1"}
	got, err := s.Score(ctx, rctx, []*core.Item{candidate("x", "relief")})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("a single supporter must not be enough, got %v", itemIDs(got))
	}
}

func TestInteractionScores(t *testing.T) {
	tests := []struct {
		name     string
		typ      core.InteractionType
		duration float64
		want     float64
	}{
		{"plain view", core.InteractionView, 0, 0.1},
		{"engaged view", core.InteractionView, 90, 0.3},
		{"deep view", core.InteractionView, 400, 0.6},
		{"click", core.InteractionClick, 0, 0.3},
		{"download", core.InteractionDownload, 0, 0.8},
		{"share", core.InteractionShare, 0, 1.0},
		{"like", core.InteractionLike, 0, 0.9},
		{"skip", core.InteractionSkip, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := interactionScore(tt.typ, tt.duration); got != tt.want {
				t.Errorf("interactionScore(%s, %v) = %v, want %v", tt.typ, tt.duration, got, tt.want)
			}
		})
	}
}

func TestInteractionAccumulationCapped(t *testing.T) {
	ctx := context.Background()
	interactions := NewMemoryInteractions()
	for i := 0; i < 5; i++ {
		interactions.RecordInteraction(ctx, "u1", "a", core.InteractionShare, 0)
	}
	if got := interactions.UserItems("u1")["a"]; got != 1.0 {
		t.Errorf("accumulated score = %v, want capped at 1.0", got)
	}
	if !interactions.HasInteracted("u1", "a") {
		t.Error("HasInteracted should be true after recording")
	}
	if interactions.HasInteracted("u1", "b") {
		t.Error("HasInteracted should be false for unseen content")
	}
}

func itemIDs(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
