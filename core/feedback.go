package core

import "time"

// FeedbackType 是反馈的极性。
type FeedbackType string

const (
	FeedbackPositive FeedbackType = "positive"
	FeedbackNegative FeedbackType = "negative"
	FeedbackNeutral  FeedbackType = "neutral"
)

// InteractionType 是内容交互类型，用于交互得分累积与隐式反馈推断。
type InteractionType string

const (
	InteractionView     InteractionType = "view"
	InteractionClick    InteractionType = "click"
	InteractionDownload InteractionType = "download"
	InteractionShare    InteractionType = "share"
	InteractionLike     InteractionType = "like"
	InteractionSkip     InteractionType = "skip"
)

// FeedbackContext 是反馈发生时的展示上下文。
type FeedbackContext struct {
	Position int     `json:"position"` // 推荐列表中的位置（0 起）
	Score    float64 `json:"score"`    // 该推荐的原始排序分数
	Session  string  `json:"session,omitempty"`
	Page     string  `json:"page,omitempty"`
	Explicit bool    `json:"explicit"` // 显式评分 / 隐式行为推断
}

// FeedbackEvent 是对一条推荐的反馈信号。
// 每用户保留最近 MaxFeedbackHistory 条，旧的被淘汰；同一条反馈
// 只被学习一次，不会重放。
type FeedbackEvent struct {
	UserID           string          `json:"user_id"`
	ContentID        string          `json:"content_id"`
	RecommendationID string          `json:"recommendation_id"`
	Type             FeedbackType    `json:"type"`
	Value            float64         `json:"value"` // [-1,1]
	Timestamp        time.Time       `json:"timestamp"`
	Context          FeedbackContext `json:"context"`
}

// LearningMetrics 是一组推荐质量指标。
type LearningMetrics struct {
	Precision        float64 `json:"precision"`
	Recall           float64 `json:"recall"`
	ClickThroughRate float64 `json:"click_through_rate"`
	ConversionRate   float64 `json:"conversion_rate"`
	UserSatisfaction float64 `json:"user_satisfaction"`
	DiversityScore   float64 `json:"diversity_score"`
	NoveltyScore     float64 `json:"novelty_score"`
}

// ModelPerformance 是一个模型变体在测试中的表现快照。
type ModelPerformance struct {
	ModelID     string          `json:"model_id"`
	Metrics     LearningMetrics `json:"metrics"`
	SampleSize  int             `json:"sample_size"`
	LastUpdated time.Time       `json:"last_updated"`
	Confidence  float64         `json:"confidence"`
}

// ABTestResult 是一次两臂对照实验的状态与结论。
type ABTestResult struct {
	TestID                  string           `json:"test_id"`
	VariantA                ModelPerformance `json:"variant_a"`
	VariantB                ModelPerformance `json:"variant_b"`
	WinnerModel             string           `json:"winner_model"`
	StatisticalSignificance float64          `json:"statistical_significance"`
	TestDuration            time.Duration    `json:"test_duration"`
}
