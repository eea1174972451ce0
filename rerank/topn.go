package rerank

import (
	"context"
	"sort"

	"github.com/periodhub/personakit/core"
	"github.com/periodhub/personakit/pipeline"
)

// SortTopN 是最终截断 Node：按分数降序排序并截取前 N 条。
// 请求选项里的 MaxRecommendations 优先于节点自身的 N。
type SortTopN struct {
	N int
}

func (n *SortTopN) Name() string        { return "rerank.topn" }
func (n *SortTopN) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *SortTopN) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})

	limit := n.N
	if opts := rctx.Opts(); opts.MaxRecommendations > 0 {
		limit = opts.MaxRecommendations
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
