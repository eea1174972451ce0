package strategy

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/periodhub/personakit/core"
)

// stubStrategy 对每个候选给固定分数。
type stubStrategy struct {
	name       string
	score      float64
	confidence float64
	err        error
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Score(_ context.Context, _ *core.RecommendContext, candidates []*core.Item) ([]*core.Item, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*core.Item, 0, len(candidates))
	for _, cand := range candidates {
		item := core.NewItemFromContent(cand.Content())
		item.Score = s.score
		item.Confidence = s.confidence
		out = append(out, item)
	}
	return out, nil
}

func TestFanoutWeightedMerge(t *testing.T) {
	n := &Fanout{Sources: []Weighted{
		{Strategy: &stubStrategy{name: "one", score: 0.8, confidence: 0.6}, Weight: 0.5},
		{Strategy: &stubStrategy{name: "two", score: 0.4, confidence: 0.9}, Weight: 0.25},
	}}

	rctx := &core.RecommendContext{UserID: "u1"}
	got, err := n.Process(context.Background(), rctx, []*core.Item{candidate("a", "relief")})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 merged item", len(got))
	}

	want := 0.8*0.5 + 0.4*0.25
	if math.Abs(got[0].Score-want) > 1e-9 {
		t.Errorf("Score = %v, want %v (weighted sum)", got[0].Score, want)
	}
	if got[0].Confidence != 0.9 {
		t.Errorf("Confidence = %v, want max of contributors (0.9)", got[0].Confidence)
	}
	if got[0].LabelValue("strategy") == "" {
		t.Error("merged item should carry strategy labels")
	}
}

func TestFanoutFailingStrategyIsIgnored(t *testing.T) {
	n := &Fanout{Sources: []Weighted{
		{Strategy: &stubStrategy{name: "ok", score: 0.6, confidence: 0.5}, Weight: 1},
		{Strategy: &stubStrategy{name: "broken", err: errors.New("boom")}, Weight: 1},
	}}

	rctx := &core.RecommendContext{UserID: "u1"}
	got, err := n.Process(context.Background(), rctx, []*core.Item{candidate("a", "relief")})
	if err != nil {
		t.Fatalf("Process() error = %v, a failing strategy must not break the fanout", err)
	}
	if len(got) != 1 || math.Abs(got[0].Score-0.6) > 1e-9 {
		t.Errorf("got %v, want the healthy strategy's contribution only", got)
	}
}

func TestFanoutEmptyInput(t *testing.T) {
	n := DefaultFanout(NewMemoryInteractions())
	got, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("empty candidates should yield empty output, got %d", len(got))
	}
}

func TestContentBasedMatchesInterests(t *testing.T) {
	p := core.NewEmptyProfile("u1")
	p.InterestTopics = []core.InterestTopic{{Topic: "热敷", Relevance: 1.0}}
	rctx := &core.RecommendContext{UserID: "u1", User: p}

	tagged := core.NewItemFromContent(&core.ContentItem{
		ID: "a", Type: core.ContentArticle, Category: "relief", Tags: []string{"热敷"},
	})
	unrelated := core.NewItemFromContent(&core.ContentItem{
		ID: "b", Type: core.ContentArticle, Category: "other", Tags: []string{"饮食"},
	})

	s := &ContentBased{}
	got, err := s.Score(context.Background(), rctx, []*core.Item{tagged, unrelated})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("Score() = %v, want only the tagged item", itemIDs(got))
	}
	if math.Abs(got[0].Score-0.8) > 1e-9 {
		t.Errorf("Score = %v, want 0.8 (relevance x0.8 tag match)", got[0].Score)
	}
	if got[0].Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", got[0].Confidence)
	}
}

func TestPopularityThreshold(t *testing.T) {
	hot := core.NewItemFromContent(&core.ContentItem{ID: "hot", Popularity: 0.9})
	cold := core.NewItemFromContent(&core.ContentItem{ID: "cold", Popularity: 0.5})

	s := &Popularity{}
	got, err := s.Score(context.Background(), &core.RecommendContext{}, []*core.Item{hot, cold})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "hot" {
		t.Errorf("Score() = %v, want only items above the 0.6 popularity floor", itemIDs(got))
	}
	if got[0].Score != 0.9 {
		t.Errorf("Score = %v, want the popularity value", got[0].Score)
	}
}

func TestHealthFocusedEmergency(t *testing.T) {
	p := core.NewEmptyProfile("u1")
	p.Health.Urgency.EmergencyQueries = 2
	rctx := &core.RecommendContext{UserID: "u1", User: p}

	critical := core.NewItemFromContent(&core.ContentItem{
		ID: "a", Urgency: core.UrgencyCritical, Difficulty: core.DifficultyIntermediate,
	})
	calm := core.NewItemFromContent(&core.ContentItem{
		ID: "b", Urgency: core.UrgencyLow, Difficulty: core.DifficultyIntermediate,
	})

	s := &HealthFocused{}
	got, err := s.Score(context.Background(), rctx, []*core.Item{critical, calm})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("Score() = %v, want only the critical item", itemIDs(got))
	}
	if math.Abs(got[0].Score-0.8) > 1e-9 {
		t.Errorf("Score = %v, want 0.8 for the emergency match", got[0].Score)
	}
	if got[0].Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", got[0].Confidence)
	}
}
