package engine

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/periodhub/personakit/catalog"
	"github.com/periodhub/personakit/core"
	"github.com/periodhub/personakit/filter"
	"github.com/periodhub/personakit/pipeline"
	"github.com/periodhub/personakit/rerank"
	"github.com/periodhub/personakit/strategy"
)

// Engine 是混合推荐引擎：把内容目录、交互矩阵与策略 Pipeline 装配在一起。
//
// 默认 Pipeline：
//   filter（排除/分类/难度）→ strategy.Fanout（四策略加权融合）
//   → rerank.DiversityNovelty → rerank.SortTopN
//
// 挂接 core.WeightSource 后，默认选项中的多样性/新颖性/热门权重
// 会跟随在线学习的最新权重，形成反馈闭环。
type Engine struct {
	catalog      *catalog.Catalog
	interactions *strategy.MemoryInteractions
	weights      core.WeightSource
	pipe         *pipeline.Pipeline
	logger       *zap.Logger
}

// EngineOption 配置 Engine。
type EngineOption func(*Engine)

// WithWeightSource 挂接在线学习的权重源。
func WithWeightSource(w core.WeightSource) EngineOption {
	return func(e *Engine) { e.weights = w }
}

// WithLogger 设置日志器。
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithPipeline 替换默认 Pipeline（自定义节点编排）。
func WithPipeline(p *pipeline.Pipeline) EngineOption {
	return func(e *Engine) { e.pipe = p }
}

func NewEngine(cat *catalog.Catalog, interactions *strategy.MemoryInteractions, opts ...EngineOption) *Engine {
	e := &Engine{
		catalog:      cat,
		interactions: interactions,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.pipe == nil {
		e.pipe = &pipeline.Pipeline{
			Nodes: []pipeline.Node{
				&filter.FilterNode{Filters: []filter.Filter{
					&filter.ExcludeFilter{},
					&filter.CategoryFilter{},
					&filter.DifficultyFilter{},
				}},
				strategy.DefaultFanout(interactions),
				&rerank.DiversityNovelty{Interactions: interactions},
				&rerank.SortTopN{N: core.DefaultMaxRecommendations},
			},
		}
	}
	return e
}

// Recommend 为用户生成混合推荐。
// 目录为空或所有策略都没有产出时返回空结果，不报错。
func (e *Engine) Recommend(ctx context.Context, p *core.UserProfile, opts *core.RecommendOptions) (*core.RecommendationResult, error) {
	if p == nil {
		p = core.NewEmptyProfile("")
	}
	if opts == nil {
		opts = e.defaultOptions()
	}

	rctx := &core.RecommendContext{
		UserID:  p.UserID,
		Scene:   "recommend",
		User:    p,
		Options: opts,
	}

	all := e.catalog.All()
	candidates := make([]*core.Item, 0, len(all))
	for _, c := range all {
		candidates = append(candidates, core.NewItemFromContent(c))
	}

	items, err := e.pipe.Run(ctx, rctx, candidates)
	if err != nil {
		return nil, err
	}

	result := e.buildResult(p, opts, items)
	e.logger.Debug("recommendation served",
		zap.String("user_id", p.UserID),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(result.Recommendations)),
		zap.Float64("diversity", result.Diversity))
	return result, nil
}

// defaultOptions 以默认选项为底，叠加在线学习权重。
func (e *Engine) defaultOptions() *core.RecommendOptions {
	opts := core.DefaultRecommendOptions()
	if e.weights == nil {
		return opts
	}
	w := e.weights.Weights()
	if v, ok := w["diversity"]; ok && v > 0 {
		opts.DiversityWeight = v
	}
	if v, ok := w["novelty"]; ok && v > 0 {
		opts.NoveltyWeight = v
	}
	if v, ok := w["popularity"]; ok && v > 0 {
		opts.PopularityWeight = v
	}
	return opts
}

func (e *Engine) buildResult(p *core.UserProfile, opts *core.RecommendOptions, items []*core.Item) *core.RecommendationResult {
	result := &core.RecommendationResult{
		Recommendations: make([]core.RecommendationItem, 0, len(items)),
		Strategy:        "hybrid_multi_strategy",
	}

	for _, it := range items {
		content := it.Content()
		if content == nil {
			continue
		}
		result.Recommendations = append(result.Recommendations, core.RecommendationItem{
			ContentID:   content.ID,
			ContentType: content.Type,
			Title:       content.Title,
			Description: content.Description,
			Score:       it.Score,
			Confidence:  it.Confidence,
			Reason:      reasonText(it),
			Category:    content.Category,
			Metadata:    content.Metadata,
		})
		result.TotalScore += it.Score
	}

	result.Diversity = diversityScore(result.Recommendations)
	if opts.IncludeExplanations {
		result.Explanations = e.explain(p, result.Recommendations)
	}
	return result
}

// reasonText 汇总各策略写入的理由 Label（去重，最多 3 条）。
func reasonText(it *core.Item) string {
	values := it.Labels["reason"].SplitValues()
	if len(values) == 0 {
		return "为您推荐"
	}
	seen := make(map[string]struct{}, len(values))
	var parts []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		parts = append(parts, v)
		if len(parts) >= 3 {
			break
		}
	}
	return strings.Join(parts, "，")
}

// diversityScore = (分类覆盖率 + 类型覆盖率) / 2。
// 空结果为 0；单条结果天然覆盖完整，为 1。
func diversityScore(recs []core.RecommendationItem) float64 {
	if len(recs) == 0 {
		return 0
	}
	categories := make(map[string]struct{})
	types := make(map[core.ContentType]struct{})
	for _, r := range recs {
		categories[r.Category] = struct{}{}
		types[r.ContentType] = struct{}{}
	}
	n := float64(len(recs))
	return (float64(len(categories))/n + float64(len(types))/n) / 2
}

// explain 生成结果级解释。
func (e *Engine) explain(p *core.UserProfile, recs []core.RecommendationItem) []string {
	if len(recs) == 0 {
		return nil
	}
	var explanations []string

	categoryFreq := make(map[string]int)
	reasonFreq := make(map[string]int)
	var categoryOrder, reasonOrder []string
	for _, r := range recs {
		if r.Category != "" {
			if categoryFreq[r.Category] == 0 {
				categoryOrder = append(categoryOrder, r.Category)
			}
			categoryFreq[r.Category]++
		}
		if r.Reason != "" {
			if reasonFreq[r.Reason] == 0 {
				reasonOrder = append(reasonOrder, r.Reason)
			}
			reasonFreq[r.Reason]++
		}
	}

	sort.SliceStable(categoryOrder, func(i, j int) bool {
		return categoryFreq[categoryOrder[i]] > categoryFreq[categoryOrder[j]]
	})
	if len(categoryOrder) > 0 {
		explanations = append(explanations, "主要推荐分类: "+categoryOrder[0])
	}

	switch {
	case p.Health.Urgency.EmergencyQueries > 0:
		explanations = append(explanations, "检测到紧急需求，优先展示快速缓解内容")
	case p.Health.KnowledgeLevel == core.KnowledgeAdvanced:
		explanations = append(explanations, "根据您的专业背景，推荐了深度内容")
	case p.Confidence < 0.2:
		explanations = append(explanations, "您的偏好数据较少，以热门内容为主")
	}

	sort.SliceStable(reasonOrder, func(i, j int) bool {
		return reasonFreq[reasonOrder[i]] > reasonFreq[reasonOrder[j]]
	})
	if len(reasonOrder) > 3 {
		reasonOrder = reasonOrder[:3]
	}
	if len(reasonOrder) > 0 {
		explanations = append(explanations, "推荐理由: "+strings.Join(reasonOrder, "；"))
	}
	return explanations
}

// SimilarContent 基于内容相似度的直达推荐（详情页"相关内容"）。
func (e *Engine) SimilarContent(contentID string, limit int, exclude ...string) []core.RecommendationItem {
	similar := e.catalog.SimilarTo(contentID, limit, exclude...)
	result := make([]core.RecommendationItem, 0, len(similar))
	for _, c := range similar {
		result = append(result, core.RecommendationItem{
			ContentID:   c.ID,
			ContentType: c.Type,
			Title:       c.Title,
			Description: c.Description,
			Score:       e.catalog.Similarity(contentID, c.ID),
			Confidence:  0.8,
			Reason:      "基于内容相似性",
			Category:    c.Category,
			Metadata:    c.Metadata,
		})
	}
	return result
}

// Popular 热门内容直达推荐（冷启动/兜底）。
func (e *Engine) Popular(category string, limit int) []core.RecommendationItem {
	items := e.catalog.Popular(category, limit)
	result := make([]core.RecommendationItem, 0, len(items))
	for _, c := range items {
		result = append(result, core.RecommendationItem{
			ContentID:   c.ID,
			ContentType: c.Type,
			Title:       c.Title,
			Description: c.Description,
			Score:       c.Popularity,
			Confidence:  0.7,
			Reason:      "热门内容",
			Category:    c.Category,
			Metadata:    c.Metadata,
		})
	}
	return result
}

// Urgent 紧急场景直达推荐：匹配紧急程度的高质量内容。
func (e *Engine) Urgent(level core.Urgency) []core.RecommendationItem {
	items := e.catalog.Urgent(level)
	result := make([]core.RecommendationItem, 0, len(items))
	for _, c := range items {
		result = append(result, core.RecommendationItem{
			ContentID:   c.ID,
			ContentType: c.Type,
			Title:       c.Title,
			Description: c.Description,
			Score:       1.0,
			Confidence:  0.95,
			Reason:      "紧急需求匹配",
			Category:    c.Category,
			Metadata:    c.Metadata,
		})
	}
	return result
}
