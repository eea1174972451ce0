package strategy

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/periodhub/personakit/core"
	"github.com/periodhub/personakit/pipeline"
	"github.com/periodhub/personakit/pkg/utils"
)

// Weighted 是一个策略及其融合权重。
type Weighted struct {
	Strategy Strategy
	Weight   float64
}

// Fanout 是策略 Node：并发执行多个召回策略，按权重融合分数。
//
// 融合规则（同一内容被多个策略命中时）：
//   - Score = sum(策略分 x 权重)
//   - Confidence = 各策略置信度的最大值
//   - Labels 按默认 Merge 规则累积（推荐理由可追踪到每个策略）
//
// 单个策略出错或超时只丢弃它自己的贡献，不中断其他策略。
type Fanout struct {
	Sources []Weighted
	Timeout time.Duration // 每个策略的超时时间（0 表示不限制）
}

// DefaultFanout 按默认权重装配四个基础策略。
func DefaultFanout(interactions *MemoryInteractions) *Fanout {
	return &Fanout{
		Sources: []Weighted{
			{Strategy: &ContentBased{}, Weight: core.WeightContentBased},
			{Strategy: &Collaborative{Interactions: interactions}, Weight: core.WeightCollaborative},
			{Strategy: &Popularity{}, Weight: core.WeightPopularity},
			{Strategy: &HealthFocused{}, Weight: core.WeightHealthFocused},
		},
	}
}

func (n *Fanout) Name() string        { return "strategy.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindStrategy }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 || len(items) == 0 {
		return nil, nil
	}

	type contribution struct {
		items  []*core.Item
		weight float64
		name   string
	}

	var (
		mu      sync.Mutex
		results []contribution
		eg, _   = errgroup.WithContext(ctx)
	)

	for _, src := range n.Sources {
		s := src

		eg.Go(func() error {
			scoreCtx := ctx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				scoreCtx, cancel = context.WithTimeout(ctx, n.Timeout)
				defer cancel()
			}

			scored, err := s.Strategy.Score(scoreCtx, rctx, items)
			if err != nil {
				// 策略失败时返回空结果，不中断其他策略
				return nil
			}

			mu.Lock()
			results = append(results, contribution{items: scored, weight: s.Weight, name: s.Strategy.Name()})
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// 按权重融合
	merged := make(map[string]*core.Item)
	for _, c := range results {
		for _, it := range c.items {
			if it == nil {
				continue
			}
			it.PutLabel("strategy", utils.Label{Value: c.name, Source: "strategy"})

			old, ok := merged[it.ID]
			if !ok {
				it.Score = it.Score * c.weight
				merged[it.ID] = it
				continue
			}
			old.Score += it.Score * c.weight
			if it.Confidence > old.Confidence {
				old.Confidence = it.Confidence
			}
			for k, v := range it.Labels {
				old.PutLabel(k, v)
			}
		}
	}

	out := make([]*core.Item, 0, len(merged))
	for _, it := range merged {
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
