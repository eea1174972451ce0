package profile

import "strings"

// ProfileInsights 是面向运营/调试的画像解读。
type ProfileInsights struct {
	UserType        string   `json:"user_type"`
	TopInterests    []string `json:"top_interests"`
	BehaviorSummary string   `json:"behavior_summary"`
	Recommendations []string `json:"recommendations"`
}

// Insights 生成画像的人类可读解读。画像缺失时返回 nil。
func (b *Builder) Insights(userID string) *ProfileInsights {
	p := b.Get(userID)
	if p == nil {
		return nil
	}

	insights := &ProfileInsights{}

	// 用户类型判定（优先级从高到低）
	switch {
	case p.Health.Urgency.EmergencyQueries > 0:
		insights.UserType = "急性疼痛用户"
	case p.Health.KnowledgeLevel == "advanced":
		insights.UserType = "专业知识用户"
	case p.Behavior.SearchPatterns.SearchDepth == "deep":
		insights.UserType = "深度研究用户"
	case p.TreatmentConfidence("natural") > 0.7:
		insights.UserType = "自然疗法偏好用户"
	default:
		insights.UserType = "一般健康关注用户"
	}

	for i, t := range p.InterestTopics {
		if i >= 5 {
			break
		}
		insights.TopInterests = append(insights.TopInterests, t.Topic)
	}

	var traits []string
	if p.Behavior.SearchPatterns.SearchDepth == "deep" {
		traits = append(traits, "搜索较为深入")
	}
	if p.Behavior.Engagement.AvgTimePerContent > 120 {
		traits = append(traits, "内容阅读时间较长")
	}
	if p.Health.KnowledgeLevel == "advanced" {
		traits = append(traits, "具有较强的医学知识")
	}
	if len(traits) > 0 {
		insights.BehaviorSummary = strings.Join(traits, "，")
	} else {
		insights.BehaviorSummary = "行为模式正在分析中"
	}

	switch insights.UserType {
	case "急性疼痛用户":
		insights.Recommendations = append(insights.Recommendations, "优先展示快速缓解方案", "提供紧急就医指引")
	case "专业知识用户":
		insights.Recommendations = append(insights.Recommendations, "推荐深度医学内容", "提供最新研究资料")
	case "深度研究用户":
		insights.Recommendations = append(insights.Recommendations, "推荐系统化的专题内容")
	case "自然疗法偏好用户":
		insights.Recommendations = append(insights.Recommendations, "优先展示自然疗法与生活方式内容")
	default:
		insights.Recommendations = append(insights.Recommendations, "推荐基础健康科普内容")
	}
	return insights
}
