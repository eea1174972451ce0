package core

import (
	"sort"
	"time"
)

// SeverityLevel 是从搜索行为推断的症状严重程度。
type SeverityLevel string

const (
	SeverityMild     SeverityLevel = "mild"
	SeverityModerate SeverityLevel = "moderate"
	SeveritySevere   SeverityLevel = "severe"
	SeverityUnknown  SeverityLevel = "unknown"
)

// KnowledgeLevel 是用户的健康知识水平。
type KnowledgeLevel string

const (
	KnowledgeBeginner     KnowledgeLevel = "beginner"
	KnowledgeIntermediate KnowledgeLevel = "intermediate"
	KnowledgeAdvanced     KnowledgeLevel = "advanced"
)

// TreatmentType 是治疗方式偏好的类别。
type TreatmentType string

const (
	TreatmentMedical   TreatmentType = "medical"
	TreatmentNatural   TreatmentType = "natural"
	TreatmentLifestyle TreatmentType = "lifestyle"
)

// Demographics 是从事件上下文推断的人口属性。
type Demographics struct {
	EstimatedAge      string `json:"estimated_age,omitempty"` // teen / young_adult / adult / mature
	DevicePreference  string `json:"device_preference"`       // mobile / tablet / desktop
	PrimaryLanguage   string `json:"primary_language"`
	ActivityPeakHours []int  `json:"activity_peak_hours"`
}

// TreatmentPreference 是一种治疗方式及其偏好置信度。
type TreatmentPreference struct {
	Type       TreatmentType `json:"type"`
	Confidence float64       `json:"confidence"` // 0-1
}

// UrgencyProfile 统计各紧急程度的搜索次数。
type UrgencyProfile struct {
	EmergencyQueries     int `json:"emergency_queries"`
	ImmediateNeedQueries int `json:"immediate_need_queries"`
	PlanningQueries      int `json:"planning_queries"`
}

// HealthProfile 是从搜索行为推断的健康上下文。
type HealthProfile struct {
	SeverityLevel        SeverityLevel         `json:"severity_level"`
	SymptomPatterns      []string              `json:"symptom_patterns"`
	TreatmentPreferences []TreatmentPreference `json:"treatment_preferences"`
	KnowledgeLevel       KnowledgeLevel        `json:"knowledge_level"`
	Urgency              UrgencyProfile        `json:"urgency"`
}

// SearchPatterns 是搜索行为统计。
type SearchPatterns struct {
	AvgQueriesPerSession float64 `json:"avg_queries_per_session"`
	AvgQueryLength       float64 `json:"avg_query_length"`
	QueryRefinementRate  float64 `json:"query_refinement_rate"`
	SearchDepth          string  `json:"search_depth"` // shallow / moderate / deep
}

// EngagementMetrics 是内容参与度指标。
type EngagementMetrics struct {
	AvgTimePerContent     float64 `json:"avg_time_per_content"` // 秒
	AvgScrollDepth        float64 `json:"avg_scroll_depth"`     // 0-1
	ReturnVisitRate       float64 `json:"return_visit_rate"`
	ContentCompletionRate float64 `json:"content_completion_rate"`
}

// NavigationPatterns 是导航/点击行为统计。
type NavigationPatterns struct {
	PreferredContentTypes map[string]int `json:"preferred_content_types"`
	ClickThroughRate      float64        `json:"click_through_rate"`
	BounceRate            float64        `json:"bounce_rate"`
}

// BehaviorProfile 汇总三类行为统计。
type BehaviorProfile struct {
	SearchPatterns SearchPatterns     `json:"search_patterns"`
	Engagement     EngagementMetrics  `json:"engagement"`
	Navigation     NavigationPatterns `json:"navigation"`
}

// FormatPreference 是内容形态偏好及其得分。
type FormatPreference struct {
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

// Preferences 是内容消费偏好。
type Preferences struct {
	ContentFormat []FormatPreference `json:"content_format"`
	ContentLength string             `json:"content_length"` // short / medium / long / mixed
	Complexity    string             `json:"complexity"`     // simple / moderate / detailed
}

// InterestTopic 是一个兴趣主题及其相关性。
type InterestTopic struct {
	Topic           string    `json:"topic"`
	Relevance       float64   `json:"relevance"` // 0-1
	Frequency       int       `json:"frequency"`
	LastInteraction time.Time `json:"last_interaction"`
	Source          EventType `json:"source"`
}

// SessionSummary 是一次历史会话的摘要。
type SessionSummary struct {
	SessionID     string        `json:"session_id"`
	Duration      time.Duration `json:"duration"`
	ActivityCount int           `json:"activity_count"`
	MainTopics    []string      `json:"main_topics"`
}

// CurrentSession 是当前会话快照。
type CurrentSession struct {
	SessionID      string    `json:"session_id"`
	StartTime      time.Time `json:"start_time"`
	Queries        []string  `json:"queries"`
	VisitedContent []string  `json:"visited_content"`
}

// SessionContext 是当前会话 + 最近 5 个历史会话摘要。
type SessionContext struct {
	Current CurrentSession   `json:"current"`
	Recent  []SessionSummary `json:"recent"`
}

// UserProfile 是用户画像的核心抽象：由事件历史派生的可替换聚合。
//
// 一句话定义：用户画像 = 推荐链路的"全局上下文 + 特征源 + 决策信号"
//
// 设计要点：
//  维度          作用
//  人口属性      冷启动 / 基础过滤
//  健康上下文    health_focused / content_based 策略核心
//  行为统计      协同过滤相似度 / 实时调权
//  兴趣主题      content_based 策略核心
//  画像置信度    策略降级决策（低置信度时退化为热门推荐）
//
// 不变量：Confidence 与所有子分数被钳制在 [0,1]；InterestTopics 按
// Relevance 降序且不超过 MaxInterestTopics 条。增量合并前对既有主题
// 相关性施加指数衰减（默认 ×0.9），防止陈旧兴趣长期霸榜。
type UserProfile struct {
	UserID         string          `json:"user_id"`
	Demographics   Demographics    `json:"demographics"`
	Health         HealthProfile   `json:"health"`
	Behavior       BehaviorProfile `json:"behavior"`
	Preferences    Preferences     `json:"preferences"`
	InterestTopics []InterestTopic `json:"interest_topics"`
	Sessions       SessionContext  `json:"sessions"`
	Confidence     float64         `json:"confidence"` // 0-1
	LastUpdated    time.Time       `json:"last_updated"`
}

// NewEmptyProfile 创建一个零置信度的空画像（无事件用户）。
func NewEmptyProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID: userID,
		Demographics: Demographics{
			DevicePreference: "desktop",
			PrimaryLanguage:  "zh",
		},
		Health: HealthProfile{
			SeverityLevel:  SeverityUnknown,
			KnowledgeLevel: KnowledgeBeginner,
		},
		Preferences: Preferences{
			ContentLength: "medium",
			Complexity:    "moderate",
		},
		Behavior: BehaviorProfile{
			SearchPatterns: SearchPatterns{SearchDepth: "shallow"},
			Navigation:     NavigationPatterns{PreferredContentTypes: map[string]int{}},
		},
		LastUpdated: time.Now(),
	}
}

// Clamp01 将 v 钳制到 [0,1]。
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Normalize 强制执行画像不变量：钳制所有 [0,1] 分数、
// 兴趣主题按相关性降序并截断到 MaxInterestTopics。
func (p *UserProfile) Normalize() {
	p.Confidence = Clamp01(p.Confidence)
	for i := range p.Health.TreatmentPreferences {
		p.Health.TreatmentPreferences[i].Confidence = Clamp01(p.Health.TreatmentPreferences[i].Confidence)
	}
	for i := range p.InterestTopics {
		p.InterestTopics[i].Relevance = Clamp01(p.InterestTopics[i].Relevance)
	}
	sort.SliceStable(p.InterestTopics, func(i, j int) bool {
		return p.InterestTopics[i].Relevance > p.InterestTopics[j].Relevance
	})
	if len(p.InterestTopics) > MaxInterestTopics {
		p.InterestTopics = p.InterestTopics[:MaxInterestTopics]
	}
}

// TopicSet 返回兴趣主题名集合，用于 Jaccard 相似度。
func (p *UserProfile) TopicSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.InterestTopics))
	for _, t := range p.InterestTopics {
		set[t.Topic] = struct{}{}
	}
	return set
}

// TreatmentConfidence 取某治疗方式的偏好置信度；没有则返回 0。
func (p *UserProfile) TreatmentConfidence(t TreatmentType) float64 {
	for _, pref := range p.Health.TreatmentPreferences {
		if pref.Type == t {
			return pref.Confidence
		}
	}
	return 0
}
