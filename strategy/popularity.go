package strategy

import (
	"context"

	"github.com/periodhub/personakit/core"
	"github.com/periodhub/personakit/pkg/utils"
)

// Popularity 热门兜底策略：流行度 >0.6 的内容按流行度打分。
// 冷启动（画像零置信度）时也能产出结果。
type Popularity struct{}

func (s *Popularity) Name() string { return "popularity" }

func (s *Popularity) Score(
	_ context.Context,
	_ *core.RecommendContext,
	candidates []*core.Item,
) ([]*core.Item, error) {
	out := make([]*core.Item, 0, len(candidates))
	for _, cand := range candidates {
		content := cand.Content()
		if content == nil || content.Popularity <= 0.6 {
			continue
		}
		item := core.NewItemFromContent(content)
		item.Score = core.Clamp01(content.Popularity)
		item.Confidence = 0.6
		item.PutLabel("reason", utils.Label{Value: "热门内容", Source: s.Name()})
		out = append(out, item)
	}
	return out, nil
}
