package strategy

import (
	"context"

	"github.com/periodhub/personakit/core"
	"github.com/periodhub/personakit/pkg/utils"
)

// HealthFocused 健康上下文策略：紧急需求、症状匹配、难度适配。
//
// 打分构成：
//   - 有过急救搜索且内容为 critical 级：+0.8
//   - 内容标签命中症状模式：每项 +0.3
//   - 内容难度与知识水平一致：+0.2
//
// 分数 <=0.3 丢弃；该策略对健康信号的把握最高，置信度 0.9。
type HealthFocused struct{}

// knowledgeDifficulty 知识水平到合适内容难度的映射。
var knowledgeDifficulty = map[core.KnowledgeLevel]core.Difficulty{
	core.KnowledgeBeginner:     core.DifficultyBeginner,
	core.KnowledgeIntermediate: core.DifficultyIntermediate,
	core.KnowledgeAdvanced:     core.DifficultyAdvanced,
}

func (s *HealthFocused) Name() string { return "health_focused" }

func (s *HealthFocused) Score(
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

		if p.Health.Urgency.EmergencyQueries > 0 && content.Urgency == core.UrgencyCritical {
			score += 0.8
			reasons = append(reasons, "紧急需求")
		}

		for _, symptom := range p.Health.SymptomPatterns {
			if content.HasTag(symptom) {
				score += 0.3
				reasons = append(reasons, "症状相关: "+symptom)
			}
		}

		if content.Difficulty == knowledgeDifficulty[p.Health.KnowledgeLevel] {
			score += 0.2
			reasons = append(reasons, "难度适合")
		}

		if score <= 0.3 {
			continue
		}

		item := core.NewItemFromContent(content)
		item.Score = core.Clamp01(score)
		item.Confidence = 0.9
		for _, r := range reasons {
			item.PutLabel("reason", utils.Label{Value: r, Source: s.Name()})
		}
		out = append(out, item)
	}
	return out, nil
}
