package core

// RecommendationItem 是单条推荐结果（请求级、非持久）。
type RecommendationItem struct {
	ContentID   string         `json:"content_id"`
	ContentType ContentType    `json:"content_type"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Score       float64        `json:"score"`
	Confidence  float64        `json:"confidence"`
	Reason      string         `json:"reason"`
	Category    string         `json:"category"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// RecommendationResult 是一次推荐调用的完整输出。
type RecommendationResult struct {
	Recommendations []RecommendationItem `json:"recommendations"`
	TotalScore      float64              `json:"total_score"`
	Strategy        string               `json:"strategy"`
	Explanations    []string             `json:"explanations,omitempty"`
	Diversity       float64              `json:"diversity"` // 0-1
}

// RecommendOptions 控制一次推荐调用的行为。
// 各权重为 0 表示关闭对应调整；零值结构体可用 DefaultRecommendOptions 填充。
type RecommendOptions struct {
	MaxRecommendations  int      `json:"max_recommendations"`
	DiversityWeight     float64  `json:"diversity_weight"`
	NoveltyWeight       float64  `json:"novelty_weight"`
	PopularityWeight    float64  `json:"popularity_weight"`
	PersonalWeight      float64  `json:"personal_weight"`
	IncludeExplanations bool     `json:"include_explanations"`
	ExcludeIDs          []string `json:"exclude_ids,omitempty"`
	ForceCategories     []string `json:"force_categories,omitempty"`
}

// DefaultRecommendOptions 返回默认推荐选项。
func DefaultRecommendOptions() *RecommendOptions {
	return &RecommendOptions{
		MaxRecommendations:  DefaultMaxRecommendations,
		DiversityWeight:     0.3,
		NoveltyWeight:       0.2,
		PopularityWeight:    0.2,
		PersonalWeight:      0.3,
		IncludeExplanations: true,
	}
}

// WeightSource 提供共享排序权重的只读快照。
// learning.System 实现此接口；Engine 在每次调用时读取最新权重，
// 形成"反馈 → 在线学习 → 下一次推荐"的闭环。
type WeightSource interface {
	Weights() map[string]float64
}
