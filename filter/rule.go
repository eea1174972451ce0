package filter

import (
	"context"

	"github.com/periodhub/personakit/core"
	"github.com/periodhub/personakit/pkg/dsl"
)

// RuleFilter 是基于 CEL 表达式的规则过滤器。
// Expr 为真时该物品被过滤掉。
//
// 示例：
//   - `item.score < 0.2` → 过滤低分
//   - `label.strategy == null` → 过滤没有策略来源的物品
type RuleFilter struct {
	Expr string
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.Expr == "" {
		return false, nil
	}
	matched, err := dsl.NewEval(item, rctx).Evaluate(f.Expr)
	if err != nil {
		return false, err
	}
	return matched, nil
}
