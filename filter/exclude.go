package filter

import (
	"context"

	"github.com/periodhub/personakit/core"
)

// ExcludeFilter 过滤请求选项中显式排除的内容（已展示/用户拉黑）。
type ExcludeFilter struct{}

func (f *ExcludeFilter) Name() string {
	return "filter.exclude"
}

func (f *ExcludeFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	for _, id := range rctx.Opts().ExcludeIDs {
		if item.ID == id {
			return true, nil
		}
	}
	return false, nil
}
