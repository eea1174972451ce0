package rerank

import (
	"context"
	"sort"

	"github.com/periodhub/personakit/core"
	"github.com/periodhub/personakit/pipeline"
)

// InteractionChecker 判断用户是否接触过某内容（新颖性信号）。
type InteractionChecker interface {
	HasInteracted(userID, contentID string) bool
}

// DiversityNovelty 是重排 Node：抑制同分类扎堆，奖励未接触过的内容。
//
// 规则（按当前分数降序逐个处理）：
//   - 同分类第 k 次出现时扣减 k x 0.1 x DiversityWeight，分数下限 0.1
//   - 用户从未接触过的内容加 0.1 x NoveltyWeight
//
// 权重来自请求选项，为 0 时对应调整关闭。
type DiversityNovelty struct {
	Interactions InteractionChecker
}

func (n *DiversityNovelty) Name() string        { return "rerank.diversity_novelty" }
func (n *DiversityNovelty) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *DiversityNovelty) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	opts := rctx.Opts()

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})

	categoryCount := make(map[string]int)
	for _, it := range items {
		content := it.Content()
		if content == nil {
			continue
		}

		if opts.DiversityWeight > 0 {
			penalty := float64(categoryCount[content.Category]) * 0.1 * opts.DiversityWeight
			it.Score -= penalty
			if it.Score < 0.1 {
				it.Score = 0.1
			}
			categoryCount[content.Category]++
		}

		if opts.NoveltyWeight > 0 && n.Interactions != nil &&
			!n.Interactions.HasInteracted(rctx.UserID, it.ID) {
			it.Score += 0.1 * opts.NoveltyWeight
		}
	}
	return items, nil
}
