package filter

import (
	"context"

	"github.com/periodhub/personakit/core"
)

// DifficultyFilter 对初学者用户过滤高阶内容，避免推荐超出理解能力的材料。
type DifficultyFilter struct{}

func (f *DifficultyFilter) Name() string {
	return "filter.difficulty"
}

func (f *DifficultyFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	content := item.Content()
	if content == nil {
		return false, nil
	}
	if rctx.Profile().Health.KnowledgeLevel == core.KnowledgeBeginner &&
		content.Difficulty == core.DifficultyAdvanced {
		return true, nil
	}
	return false, nil
}
