package strategy

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/periodhub/personakit/core"
	"github.com/periodhub/personakit/pkg/utils"
)

// Collaborative 基于用户协同过滤的策略：
// 找到交互向量余弦相似的用户，把他们喜欢的内容推给当前用户。
//
// 约束：
//   - 相似用户阈值 >0.2，最多取 5 个
//   - 候选内容需要至少 2 个相似用户给出 >0.5 的交互分
//   - 融合分 = sum(相似度 x 交互分)，<=0.3 丢弃
type Collaborative struct {
	Interactions *MemoryInteractions
}

func (s *Collaborative) Name() string { return "collaborative" }

func (s *Collaborative) Score(
	_ context.Context,
	rctx *core.RecommendContext,
	candidates []*core.Item,
) ([]*core.Item, error) {
	if s.Interactions == nil || rctx.UserID == "" {
		return nil, nil
	}

	neighbors := s.similarUsers(rctx.UserID, 5)
	if len(neighbors) == 0 {
		return nil, nil
	}

	mine := s.Interactions.UserItems(rctx.UserID)

	// contentID -> 融合分 / 支持人数
	scores := make(map[string]float64)
	supporters := make(map[string]int)
	for _, nb := range neighbors {
		for contentID, score := range s.Interactions.UserItems(nb.userID) {
			if _, seen := mine[contentID]; seen {
				continue
			}
			if score <= 0.5 {
				continue
			}
			scores[contentID] += nb.similarity * score
			supporters[contentID]++
		}
	}

	byID := make(map[string]*core.Item, len(candidates))
	for _, cand := range candidates {
		byID[cand.ID] = cand
	}

	out := make([]*core.Item, 0, len(scores))
	for contentID, score := range scores {
		if supporters[contentID] < 2 || score <= 0.3 {
			continue
		}
		cand, ok := byID[contentID]
		if ok {
			content := cand.Content()
			if content == nil {
				continue
			}
			item := core.NewItemFromContent(content)
			item.Score = core.Clamp01(score)
			item.Confidence = 0.7
			item.PutLabel("reason", utils.Label{
				Value:  fmt.Sprintf("%d 个相似用户喜欢", supporters[contentID]),
				Source: s.Name(),
			})
			out = append(out, item)
		}
	}
	return out, nil
}

type neighbor struct {
	userID     string
	similarity float64
}

// similarUsers 按交互向量余弦相似度找近邻。
func (s *Collaborative) similarUsers(userID string, limit int) []neighbor {
	mine := s.Interactions.UserItems(userID)
	if len(mine) == 0 {
		return nil
	}

	var result []neighbor
	for _, other := range s.Interactions.AllUsers() {
		if other == userID {
			continue
		}
		sim := cosine(mine, s.Interactions.UserItems(other))
		if sim > 0.2 {
			result = append(result, neighbor{userID: other, similarity: sim})
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].similarity != result[j].similarity {
			return result[i].similarity > result[j].similarity
		}
		return result[i].userID < result[j].userID
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

// cosine 计算两个稀疏交互向量的余弦相似度。
// 点积只在交集上累加，模长覆盖各自全部交互；无交集时为 0。
func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot float64
	for id, va := range a {
		if vb, ok := b[id]; ok {
			dot += va * vb
		}
	}
	if dot == 0 {
		return 0
	}
	var normA, normB float64
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
