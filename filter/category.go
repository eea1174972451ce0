package filter

import (
	"context"

	"github.com/periodhub/personakit/core"
)

// CategoryFilter 在请求指定 ForceCategories 时，只保留这些分类的内容。
// 未指定时不做任何过滤。
type CategoryFilter struct{}

func (f *CategoryFilter) Name() string {
	return "filter.category"
}

func (f *CategoryFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	forced := rctx.Opts().ForceCategories
	if len(forced) == 0 {
		return false, nil
	}
	content := item.Content()
	if content == nil {
		return true, nil
	}
	for _, c := range forced {
		if content.Category == c {
			return false, nil
		}
	}
	return true, nil
}
