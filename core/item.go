package core

import "github.com/periodhub/personakit/pkg/utils"

// Item 是推荐链路中的统一承载结构：分数、置信度、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策；Confidence 表示
// 产出该分数的策略对结果的把握（多策略合并时取最大值）。
type Item struct {
	ID         string
	Score      float64
	Confidence float64
	Meta       map[string]any
	Labels     map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:     id,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// NewItemFromContent 从内容条目构建 Item，内容本体挂在 Meta 上透传。
func NewItemFromContent(c *ContentItem) *Item {
	it := NewItem(c.ID)
	it.Meta["content"] = c
	return it
}

// Content 取 Item 承载的内容条目；没有则返回 nil。
func (it *Item) Content() *ContentItem {
	if it.Meta == nil {
		return nil
	}
	c, _ := it.Meta["content"].(*ContentItem)
	return c
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// LabelValue 取 Label 的值；不存在返回空串。
func (it *Item) LabelValue(key string) string {
	if it.Labels == nil {
		return ""
	}
	return it.Labels[key].Value
}
