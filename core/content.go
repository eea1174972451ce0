package core

import "time"

// ContentType 是可推荐内容的形态。
type ContentType string

const (
	ContentArticle ContentType = "article"
	ContentPDF     ContentType = "pdf" // 可下载指南
	ContentTool    ContentType = "tool"
)

// Difficulty 是内容的阅读难度。
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Urgency 是内容面向的紧急程度。
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// ContentItem 是内容目录中的一条可推荐条目。
// 读多写少：写入时一次性预计算与全量条目的相似度（见 catalog 包）。
type ContentItem struct {
	ID          string         `json:"id"`
	Type        ContentType    `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Tags        []string       `json:"tags"`
	Difficulty  Difficulty     `json:"difficulty"`
	Urgency     Urgency        `json:"urgency"`
	Popularity  float64        `json:"popularity"` // 0-1
	Quality     float64        `json:"quality"`    // 0-1
	LastUpdated time.Time      `json:"last_updated"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// HasTag 检查内容是否带有指定标签（区分大小写）。
func (c *ContentItem) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
