package learning

import (
	"fmt"
	"math"
	"sort"

	"github.com/periodhub/personakit/core"
)

// UserInsights 是学习系统对单个用户的学习状态解读。
type UserInsights struct {
	LearningProgress    float64  `json:"learning_progress"`    // 0-1
	PreferenceStability float64  `json:"preference_stability"` // 0-1
	RecommendationTrend string   `json:"recommendation_trend"` // improving / stable / declining
	ModelAccuracy       float64  `json:"model_accuracy"`
	TotalFeedback       int      `json:"total_feedback"`
	PositiveRate        float64  `json:"positive_rate"`
	PreferredCategories []string `json:"preferred_categories,omitempty"`
	ImprovementAreas    []string `json:"improvement_areas,omitempty"`
}

// Insights 汇总用户的学习状态：进度、偏好稳定性、趋势与准确率。
func (l *System) Insights(userID string) UserInsights {
	feedback := l.Feedback(userID)

	insights := UserInsights{
		TotalFeedback:       len(feedback),
		LearningProgress:    math.Min(float64(len(feedback))/50, 1),
		PreferenceStability: stability(feedback),
		RecommendationTrend: trend(feedback),
		ModelAccuracy:       recentAccuracy(feedback),
	}
	if len(feedback) > 0 {
		positives := 0
		for _, fb := range feedback {
			if fb.Type == core.FeedbackPositive {
				positives++
			}
		}
		insights.PositiveRate = float64(positives) / float64(len(feedback))
	}
	insights.PreferredCategories = l.preferredCategories(feedback)

	if insights.PositiveRate < 0.6 && len(feedback) > 0 {
		insights.ImprovementAreas = append(insights.ImprovementAreas, "提升推荐相关性")
	}
	if insights.PreferenceStability < 0.5 {
		insights.ImprovementAreas = append(insights.ImprovementAreas, "稳定偏好识别")
	}
	if insights.RecommendationTrend == "declining" {
		insights.ImprovementAreas = append(insights.ImprovementAreas, "增加内容多样性")
	}
	return insights
}

// stability 比较前后两半反馈的取值分布（余弦相似度）。
// 反馈少于 10 条时返回 0.5（信息不足，不做判断）。
func stability(feedback []*core.FeedbackEvent) float64 {
	if len(feedback) < 10 {
		return 0.5
	}
	half := len(feedback) / 2
	early := valuePattern(feedback[:half])
	late := valuePattern(feedback[half:])

	var dot, normA, normB float64
	for k, a := range early {
		if b, ok := late[k]; ok {
			dot += a * b
		}
		normA += a * a
	}
	for _, b := range late {
		normB += b * b
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// valuePattern 把反馈值分桶统计（桶宽 0.1），形成分布向量。
func valuePattern(feedback []*core.FeedbackEvent) map[string]float64 {
	pattern := make(map[string]float64)
	for _, fb := range feedback {
		key := fmt.Sprintf("score_%d", int(math.Floor(fb.Value*10)))
		pattern[key]++
	}
	return pattern
}

// trend 把反馈按时间三等分，比较平均值走势。
func trend(feedback []*core.FeedbackEvent) string {
	if len(feedback) < 6 {
		return "stable"
	}
	third := len(feedback) / 3
	early := meanValue(feedback[:third])
	mid := meanValue(feedback[third : 2*third])
	late := meanValue(feedback[2*third:])

	overall := ((mid - early) + (late - mid)) / 2
	switch {
	case overall > 0.1:
		return "improving"
	case overall < -0.1:
		return "declining"
	default:
		return "stable"
	}
}

func meanValue(feedback []*core.FeedbackEvent) float64 {
	if len(feedback) == 0 {
		return 0
	}
	var sum float64
	for _, fb := range feedback {
		sum += fb.Value
	}
	return sum / float64(len(feedback))
}

// recentAccuracy 用最近 20 条反馈的正反馈率近似模型准确率。
func recentAccuracy(feedback []*core.FeedbackEvent) float64 {
	if len(feedback) == 0 {
		return 0
	}
	recent := feedback
	if len(recent) > 20 {
		recent = recent[len(recent)-20:]
	}
	positives := 0
	for _, fb := range recent {
		if fb.Type == core.FeedbackPositive {
			positives++
		}
	}
	return float64(positives) / float64(len(recent))
}

// preferredCategories 按分类聚合反馈均值，取均值 >0.3 的前 3 个分类。
// 需要挂接 CategoryResolver，否则返回空。
func (l *System) preferredCategories(feedback []*core.FeedbackEvent) []string {
	if l.categories == nil || len(feedback) == 0 {
		return nil
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, fb := range feedback {
		content := l.categories.Get(fb.ContentID)
		if content == nil || content.Category == "" {
			continue
		}
		sums[content.Category] += fb.Value
		counts[content.Category]++
	}

	type pref struct {
		category string
		avg      float64
	}
	var prefs []pref
	for cat, sum := range sums {
		avg := sum / float64(counts[cat])
		if avg > 0.3 {
			prefs = append(prefs, pref{category: cat, avg: avg})
		}
	}
	sort.SliceStable(prefs, func(i, j int) bool {
		if prefs[i].avg != prefs[j].avg {
			return prefs[i].avg > prefs[j].avg
		}
		return prefs[i].category < prefs[j].category
	})
	if len(prefs) > 3 {
		prefs = prefs[:3]
	}

	result := make([]string, 0, len(prefs))
	for _, p := range prefs {
		result = append(result, p.category)
	}
	return result
}
