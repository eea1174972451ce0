package strategy

import (
	"context"
	"strings"

	"github.com/periodhub/personakit/core"
	"github.com/periodhub/personakit/pkg/utils"
)

// ContentBased 基于内容匹配的策略：兴趣主题、症状严重程度、治疗偏好。
//
// 打分构成：
//   - 主题命中标签：relevance x0.8；命中标题：relevance x0.6
//   - 严重程度与内容紧急度匹配：+0.4
//   - 治疗偏好与内容分类匹配：+置信度 x0.3
//
// 分数 <= 0.2 的候选被丢弃。
type ContentBased struct{}

// severityUrgency 严重程度到合适内容紧急度的映射。
var severityUrgency = map[core.SeverityLevel][]core.Urgency{
	core.SeverityMild:     {core.UrgencyLow, core.UrgencyMedium},
	core.SeverityModerate: {core.UrgencyMedium, core.UrgencyHigh},
	core.SeveritySevere:   {core.UrgencyHigh, core.UrgencyCritical},
}

// treatmentCategories 治疗偏好到内容分类的映射。
var treatmentCategories = map[core.TreatmentType][]string{
	core.TreatmentMedical:   {"medical_treatment", "medication"},
	core.TreatmentNatural:   {"natural_therapy", "lifestyle"},
	core.TreatmentLifestyle: {"lifestyle", "prevention", "education"},
}

func (s *ContentBased) Name() string { return "content_based" }

func (s *ContentBased) Score(
	_ context.Context,
	rctx *core.RecommendContext,
	candidates []*core.Item,
) ([]*core.Item, error) {
	p := rctx.Profile()

	out := make([]*core.Item, 0, len(candidates))
	for _, cand := range candidates {
		content := cand.Content()
		if content == nil {
			continue
		}

		var score float64
		var reasons []string

		for _, topic := range p.InterestTopics {
			if content.HasTag(topic.Topic) {
				score += topic.Relevance * 0.8
				reasons = append(reasons, topic.Topic)
			} else if strings.Contains(content.Title, topic.Topic) {
				score += topic.Relevance * 0.6
				reasons = append(reasons, topic.Topic)
			}
		}

		if urgencies, ok := severityUrgency[p.Health.SeverityLevel]; ok {
			for _, u := range urgencies {
				if content.Urgency == u {
					score += 1.0 * 0.4
					break
				}
			}
		}

		for _, pref := range p.Health.TreatmentPreferences {
			for _, cat := range treatmentCategories[pref.Type] {
				if content.Category == cat {
					score += pref.Confidence * 0.3
					break
				}
			}
		}

		if score <= 0.2 {
			continue
		}

		item := core.NewItemFromContent(content)
		item.Score = core.Clamp01(score)
		item.Confidence = 0.8
		if len(reasons) > 0 {
			item.PutLabel("reason", utils.Label{
				Value:  "匹配兴趣: " + strings.Join(reasons, ","),
				Source: s.Name(),
			})
		}
		out = append(out, item)
	}
	return out, nil
}
