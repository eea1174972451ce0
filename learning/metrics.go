package learning

import (
	"github.com/periodhub/personakit/core"
)

// Evaluate 对一次推荐结果计算质量指标。
// actual 是内容的真实相关性打分（离线标注或后验统计），>0.5 视为相关。
func (l *System) Evaluate(userID string, recs []core.RecommendationItem, actual map[string]float64) core.LearningMetrics {
	var metrics core.LearningMetrics
	if len(recs) == 0 {
		return metrics
	}

	recommended := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		recommended[r.ContentID] = struct{}{}
	}

	relevant := make(map[string]struct{})
	for id, v := range actual {
		if v > 0.5 {
			relevant[id] = struct{}{}
		}
	}

	hit := 0
	for id := range recommended {
		if _, ok := relevant[id]; ok {
			hit++
		}
	}
	metrics.Precision = float64(hit) / float64(len(recs))
	if len(relevant) > 0 {
		metrics.Recall = float64(hit) / float64(len(relevant))
	}

	// 反馈侧指标：只统计落在本次推荐上的反馈
	var (
		positives  int
		conversion int
		valueSum   float64
		valueCount int
	)
	fedBack := make(map[string]struct{})
	for _, fb := range l.Feedback(userID) {
		fedBack[fb.ContentID] = struct{}{}
		if _, ok := recommended[fb.ContentID]; !ok {
			continue
		}
		valueSum += fb.Value
		valueCount++
		if fb.Type == core.FeedbackPositive {
			positives++
		}
		if fb.Value > 0.8 {
			conversion++
		}
	}
	metrics.ClickThroughRate = float64(positives) / float64(len(recs))
	metrics.ConversionRate = float64(conversion) / float64(len(recs))
	if valueCount > 0 {
		metrics.UserSatisfaction = valueSum / float64(valueCount)
	}

	categories := make(map[string]struct{})
	fresh := 0
	for _, r := range recs {
		categories[r.Category] = struct{}{}
		if _, ok := fedBack[r.ContentID]; !ok {
			fresh++
		}
	}
	metrics.DiversityScore = float64(len(categories)) / float64(len(recs))
	metrics.NoveltyScore = float64(fresh) / float64(len(recs))
	return metrics
}

// compositeScore 把多维指标折算成单一分数，用于 A/B 对比。
func compositeScore(m core.LearningMetrics) float64 {
	return m.Precision*0.25 + m.Recall*0.25 + m.ClickThroughRate*0.2 +
		m.ConversionRate*0.15 + m.UserSatisfaction*0.15
}
