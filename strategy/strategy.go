package strategy

import (
	"context"

	"github.com/periodhub/personakit/core"
)

// Strategy 是召回策略的抽象接口：对候选集打分，产出各自视角下的结果。
//
// 约定：
//   - 输入 candidates 只读，实现必须返回新的 Item（不修改输入）
//   - 只返回该策略认为值得推荐的子集（低于策略阈值的候选直接丢弃）
//   - Score 为策略内部分数 [0,1]，融合权重由 Fanout 统一施加
type Strategy interface {
	// Name 返回策略名称
	Name() string

	// Score 对候选集打分
	Score(ctx context.Context, rctx *core.RecommendContext, candidates []*core.Item) ([]*core.Item, error)
}
