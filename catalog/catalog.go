package catalog

import (
	"sort"
	"sync"

	"github.com/periodhub/personakit/core"
)

// Catalog 是内容目录：管理候选内容，维护内容间相似度矩阵。
//
// 相似度在内容入库时预计算（对称写入），查询时只做排序截断，
// 推荐路径上不再有两两比较的开销。
type Catalog struct {
	mu         sync.RWMutex
	items      map[string]*core.ContentItem
	order      []string                      // 插入顺序，保证 All 输出稳定
	similarity map[string]map[string]float64 // content id -> content id -> [0,1]
}

func NewCatalog() *Catalog {
	return &Catalog{
		items:      make(map[string]*core.ContentItem),
		similarity: make(map[string]map[string]float64),
	}
}

// Add 添加（或覆盖）一条内容，并与已有内容两两计算相似度。
func (c *Catalog) Add(item *core.ContentItem) {
	if item == nil || item.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(item)
}

// AddBatch 批量添加内容。
func (c *Catalog) AddBatch(items []*core.ContentItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range items {
		if item == nil || item.ID == "" {
			continue
		}
		c.add(item)
	}
}

func (c *Catalog) add(item *core.ContentItem) {
	if _, exists := c.items[item.ID]; !exists {
		c.order = append(c.order, item.ID)
	}
	c.items[item.ID] = item

	row := make(map[string]float64)
	for id, other := range c.items {
		if id == item.ID {
			continue
		}
		sim := contentSimilarity(item, other)
		row[id] = sim
		if c.similarity[id] == nil {
			c.similarity[id] = make(map[string]float64)
		}
		c.similarity[id][item.ID] = sim
	}
	c.similarity[item.ID] = row
}

// contentSimilarity 计算两条内容的相似度：
// 分类一致 0.4 + 标签 Jaccard x0.3 + 难度一致 0.2 + 类型一致 0.1。
func contentSimilarity(a, b *core.ContentItem) float64 {
	var sim float64
	if a.Category != "" && a.Category == b.Category {
		sim += 0.4
	}
	sim += tagJaccard(a.Tags, b.Tags) * 0.3
	if a.Difficulty == b.Difficulty {
		sim += 0.2
	}
	if a.Type == b.Type {
		sim += 0.1
	}
	return sim
}

func tagJaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	inter := 0
	for _, t := range b {
		if _, ok := set[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Get 按 ID 获取内容；不存在返回 nil。
func (c *Catalog) Get(id string) *core.ContentItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items[id]
}

// All 返回全部内容（插入顺序）。
func (c *Catalog) All() []*core.ContentItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*core.ContentItem, 0, len(c.order))
	for _, id := range c.order {
		result = append(result, c.items[id])
	}
	return result
}

// Len 返回内容条数。
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// SimilarTo 返回与指定内容最相似的内容（相似度 >= 0.3，降序截断）。
// exclude 中的 ID 不会出现在结果里。
func (c *Catalog) SimilarTo(id string, limit int, exclude ...string) []*core.ContentItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	row, ok := c.similarity[id]
	if !ok {
		return nil
	}

	skip := make(map[string]struct{}, len(exclude)+1)
	skip[id] = struct{}{}
	for _, e := range exclude {
		skip[e] = struct{}{}
	}

	type scored struct {
		id  string
		sim float64
	}
	candidates := make([]scored, 0, len(row))
	for other, sim := range row {
		if sim < 0.3 {
			continue
		}
		if _, ok := skip[other]; ok {
			continue
		}
		candidates = append(candidates, scored{id: other, sim: sim})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].sim != candidates[j].sim {
			return candidates[i].sim > candidates[j].sim
		}
		return candidates[i].id < candidates[j].id
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	result := make([]*core.ContentItem, 0, len(candidates))
	for _, s := range candidates {
		result = append(result, c.items[s.id])
	}
	return result
}

// Similarity 返回两条内容的相似度；任一不存在返回 0。
func (c *Catalog) Similarity(a, b string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if row, ok := c.similarity[a]; ok {
		return row[b]
	}
	return 0
}

// Popular 返回按流行度降序的内容；category 非空时只看该分类。
func (c *Catalog) Popular(category string, limit int) []*core.ContentItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*core.ContentItem, 0, len(c.items))
	for _, id := range c.order {
		item := c.items[id]
		if category != "" && item.Category != category {
			continue
		}
		result = append(result, item)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Popularity > result[j].Popularity
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// Urgent 返回匹配紧急程度的内容：等于指定等级或 critical 级别的内容，
// 按质量降序，最多 5 条。用于急性需求场景的直达推荐。
func (c *Catalog) Urgent(level core.Urgency) []*core.ContentItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*core.ContentItem, 0)
	for _, id := range c.order {
		item := c.items[id]
		if item.Urgency == level || item.Urgency == core.UrgencyCritical {
			result = append(result, item)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Quality > result[j].Quality
	})
	if len(result) > 5 {
		result = result[:5]
	}
	return result
}
