package rerank

import (
	"context"
	"math"
	"testing"

	"github.com/periodhub/personakit/core"
)

func scoredItem(id, category string, score float64) *core.Item {
	item := core.NewItemFromContent(&core.ContentItem{ID: id, Category: category})
	item.Score = score
	return item
}

// stubChecker 把固定集合视为用户接触过的内容。
type stubChecker map[string]struct{}

func (s stubChecker) HasInteracted(_ string, contentID string) bool {
	_, ok := s[contentID]
	return ok
}

func TestDiversityPenaltyPerCategory(t *testing.T) {
	n := &DiversityNovelty{}
	rctx := &core.RecommendContext{
		UserID:  "u1",
		Options: &core.RecommendOptions{DiversityWeight: 1.0},
	}
	items := []*core.Item{
		scoredItem("a", "relief", 1.0),
		scoredItem("b", "relief", 0.9),
		scoredItem("c", "relief", 0.8),
	}

	got, err := n.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// 同分类第 k 次出现扣 k x 0.1：1.0 / 0.9-0.1 / 0.8-0.2
	wants := []float64{1.0, 0.8, 0.6}
	for i, want := range wants {
		if math.Abs(got[i].Score-want) > 1e-9 {
			t.Errorf("item %s score = %v, want %v", got[i].ID, got[i].Score, want)
		}
	}
}

func TestDiversityFloor(t *testing.T) {
	n := &DiversityNovelty{}
	rctx := &core.RecommendContext{
		UserID:  "u1",
		Options: &core.RecommendOptions{DiversityWeight: 1.0},
	}
	var items []*core.Item
	for i := 0; i < 6; i++ {
		items = append(items, scoredItem(string(rune('a'+i)), "same", 0.3))
	}

	got, err := n.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	for _, it := range got {
		if it.Score < 0.1 {
			t.Errorf("item %s score = %v, penalty must not push below 0.1", it.ID, it.Score)
		}
	}
}

func TestNoveltyBoostForUnseenContent(t *testing.T) {
	n := &DiversityNovelty{Interactions: stubChecker{"seen": {}}}
	rctx := &core.RecommendContext{
		UserID:  "u1",
		Options: &core.RecommendOptions{NoveltyWeight: 1.0},
	}
	items := []*core.Item{
		scoredItem("seen", "a", 0.5),
		scoredItem("fresh", "b", 0.5),
	}

	got, err := n.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	byID := map[string]float64{}
	for _, it := range got {
		byID[it.ID] = it.Score
	}
	if math.Abs(byID["fresh"]-0.6) > 1e-9 {
		t.Errorf("fresh score = %v, want 0.6 (novelty boost)", byID["fresh"])
	}
	if math.Abs(byID["seen"]-0.5) > 1e-9 {
		t.Errorf("seen score = %v, want unchanged 0.5", byID["seen"])
	}
}

func TestSortTopNTruncates(t *testing.T) {
	n := &SortTopN{N: 2}
	rctx := &core.RecommendContext{UserID: "u1", Options: &core.RecommendOptions{}}
	items := []*core.Item{
		scoredItem("low", "a", 0.2),
		scoredItem("high", "a", 0.9),
		scoredItem("mid", "a", 0.5),
	}

	got, err := n.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "high" || got[1].ID != "mid" {
		t.Errorf("got %v, want [high mid]", []string{got[0].ID, got[1].ID})
	}
}

func TestSortTopNOptionsOverrideNodeLimit(t *testing.T) {
	n := &SortTopN{N: 10}
	rctx := &core.RecommendContext{
		UserID:  "u1",
		Options: &core.RecommendOptions{MaxRecommendations: 1},
	}
	items := []*core.Item{
		scoredItem("a", "x", 0.9),
		scoredItem("b", "x", 0.8),
	}

	got, err := n.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("request options should win over node default, got %d items", len(got))
	}
}
