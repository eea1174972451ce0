package builders

import (
	"fmt"
	"time"

	"github.com/periodhub/personakit/config"
	"github.com/periodhub/personakit/filter"
	"github.com/periodhub/personakit/pipeline"
	"github.com/periodhub/personakit/pkg/conv"
	"github.com/periodhub/personakit/rerank"
	"github.com/periodhub/personakit/strategy"
)

func init() {
	config.Register("filter", BuildFilterNode)
	config.Register("strategy.fanout", BuildFanoutNode)
	config.Register("rerank.diversity_novelty", BuildDiversityNoveltyNode)
	config.Register("rerank.topn", BuildTopNNode)
}

func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "exclude":
			filters = append(filters, &filter.ExcludeFilter{})
		case "category":
			filters = append(filters, &filter.CategoryFilter{})
		case "difficulty":
			filters = append(filters, &filter.DifficultyFilter{})
		case "rule":
			expr := conv.ConfigGet(filterMap, "expr", "")
			filters = append(filters, &filter.RuleFilter{Expr: expr})
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}

	return &filter.FilterNode{Filters: filters}, nil
}

// BuildFanoutNode 只从配置构建无状态策略；collaborative 依赖交互矩阵，
// 需要程序化装配（见 engine.NewEngine / strategy.DefaultFanout）。
func BuildFanoutNode(cfg map[string]interface{}) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}

	sources := make([]strategy.Weighted, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]interface{})
		if !ok {
			continue
		}
		weight := conv.ConfigGetFloat64(sourceMap, "weight", 0)
		switch sourceType := conv.ConfigGet(sourceMap, "type", ""); sourceType {
		case "content_based":
			sources = append(sources, strategy.Weighted{Strategy: &strategy.ContentBased{}, Weight: weight})
		case "popularity":
			sources = append(sources, strategy.Weighted{Strategy: &strategy.Popularity{}, Weight: weight})
		case "health_focused":
			sources = append(sources, strategy.Weighted{Strategy: &strategy.HealthFocused{}, Weight: weight})
		case "collaborative":
			return nil, fmt.Errorf("collaborative strategy requires programmatic construction")
		default:
			return nil, fmt.Errorf("unknown strategy type: %s", sourceType)
		}
	}

	fanout := &strategy.Fanout{Sources: sources}
	if sec := conv.ConfigGetInt64(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	return fanout, nil
}

// BuildDiversityNoveltyNode 从配置构建多样性/新颖性重排。
// 新颖性依赖交互矩阵，配置驱动构建的节点只做多样性调整。
func BuildDiversityNoveltyNode(_ map[string]interface{}) (pipeline.Node, error) {
	return &rerank.DiversityNovelty{}, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := int(conv.ConfigGetInt64(cfg, "n", 0))
	return &rerank.SortTopN{N: n}, nil
}
