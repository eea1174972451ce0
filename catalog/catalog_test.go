package catalog

import (
	"math"
	"testing"

	"github.com/periodhub/personakit/core"
)

func newTestCatalog() *Catalog {
	c := NewCatalog()
	c.AddBatch([]*core.ContentItem{
		{ID: "a", Type: core.ContentArticle, Category: "relief", Tags: []string{"热敷", "按摩"},
			Difficulty: core.DifficultyBeginner, Urgency: core.UrgencyHigh, Popularity: 0.9, Quality: 0.8},
		{ID: "b", Type: core.ContentArticle, Category: "relief", Tags: []string{"热敷", "按摩"},
			Difficulty: core.DifficultyBeginner, Urgency: core.UrgencyCritical, Popularity: 0.7, Quality: 0.95},
		{ID: "c", Type: core.ContentPDF, Category: "lifestyle", Tags: []string{"饮食"},
			Difficulty: core.DifficultyIntermediate, Urgency: core.UrgencyLow, Popularity: 0.8, Quality: 0.6},
	})
	return c
}

func TestSimilarityWeights(t *testing.T) {
	c := newTestCatalog()

	// a 与 b：分类 0.4 + 标签完全重合 0.3 + 难度 0.2 + 类型 0.1 = 1.0
	if got := c.Similarity("a", "b"); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("Similarity(a,b) = %v, want 1.0", got)
	}
	// a 与 c：四个维度全不同 = 0
	if got := c.Similarity("a", "c"); got != 0 {
		t.Errorf("Similarity(a,c) = %v, want 0", got)
	}
	// 对称性
	if c.Similarity("a", "b") != c.Similarity("b", "a") {
		t.Error("similarity should be symmetric")
	}
}

func TestSimilarToFloorAndExclude(t *testing.T) {
	c := newTestCatalog()

	similar := c.SimilarTo("a", 10)
	if len(similar) != 1 || similar[0].ID != "b" {
		t.Fatalf("SimilarTo(a) = %v, want only b (c is below the 0.3 floor)", ids(similar))
	}

	if got := c.SimilarTo("a", 10, "b"); len(got) != 0 {
		t.Errorf("SimilarTo(a, exclude b) = %v, want empty", ids(got))
	}

	if got := c.SimilarTo("missing", 10); got != nil {
		t.Errorf("SimilarTo(missing) = %v, want nil", ids(got))
	}
}

func TestPopular(t *testing.T) {
	c := newTestCatalog()

	all := c.Popular("", 0)
	if len(all) != 3 || all[0].ID != "a" || all[1].ID != "c" || all[2].ID != "b" {
		t.Errorf("Popular order = %v, want [a c b]", ids(all))
	}

	relief := c.Popular("relief", 1)
	if len(relief) != 1 || relief[0].ID != "a" {
		t.Errorf("Popular(relief, 1) = %v, want [a]", ids(relief))
	}
}

func TestUrgent(t *testing.T) {
	c := newTestCatalog()

	// high 等级命中 a（high）与 b（critical 总是命中），按质量降序
	urgent := c.Urgent(core.UrgencyHigh)
	if len(urgent) != 2 || urgent[0].ID != "b" || urgent[1].ID != "a" {
		t.Errorf("Urgent(high) = %v, want [b a]", ids(urgent))
	}

	low := c.Urgent(core.UrgencyLow)
	if len(low) != 2 { // c（low）+ b（critical）
		t.Errorf("Urgent(low) = %v, want 2 items", ids(low))
	}
}

func TestAddOverwriteKeepsLen(t *testing.T) {
	c := newTestCatalog()
	c.Add(&core.ContentItem{ID: "a", Type: core.ContentTool, Category: "education"})
	if c.Len() != 3 {
		t.Errorf("Len() = %d after overwrite, want 3", c.Len())
	}
	if got := c.Get("a"); got == nil || got.Category != "education" {
		t.Errorf("Get(a) should return the overwritten item, got %+v", got)
	}
}

func ids(items []*core.ContentItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
