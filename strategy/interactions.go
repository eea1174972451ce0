package strategy

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/periodhub/personakit/core"
)

// MemoryInteractions 维护用户-内容交互得分矩阵，供协同过滤与新颖性计算使用。
//
// 得分规则（单次交互）：
//   view .1 / click .3 / download .8 / share 1.0 / like .9 / skip 0
//   view 停留 >300s 追加 0.5，>60s 追加 0.2
//
// 同一 (用户, 内容) 的得分随交互累积，封顶 1.0。
type MemoryInteractions struct {
	store  core.Store
	logger *zap.Logger

	mu   sync.RWMutex
	data map[string]map[string]float64 // userID -> contentID -> [0,1]
}

// InteractionsOption 配置 MemoryInteractions。
type InteractionsOption func(*MemoryInteractions)

// WithInteractionsStore 挂接持久化存储（可选）。
func WithInteractionsStore(s core.Store) InteractionsOption {
	return func(m *MemoryInteractions) { m.store = s }
}

// WithInteractionsLogger 设置日志器。
func WithInteractionsLogger(l *zap.Logger) InteractionsOption {
	return func(m *MemoryInteractions) { m.logger = l }
}

func NewMemoryInteractions(opts ...InteractionsOption) *MemoryInteractions {
	m := &MemoryInteractions{
		logger: zap.NewNop(),
		data:   make(map[string]map[string]float64),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func interactionsKey(userID string) string { return "interactions:" + userID }

// interactionsRankKey 是按得分排序的交互有序集合 key。
func interactionsRankKey(userID string) string { return "interactions:rank:" + userID }

// interactionScore 单次交互的得分。
func interactionScore(typ core.InteractionType, duration float64) float64 {
	var score float64
	switch typ {
	case core.InteractionView:
		score = 0.1
		if duration > 300 {
			score += 0.5
		} else if duration > 60 {
			score += 0.2
		}
	case core.InteractionClick:
		score = 0.3
	case core.InteractionDownload:
		score = 0.8
	case core.InteractionShare:
		score = 1.0
	case core.InteractionLike:
		score = 0.9
	}
	if score > 1 {
		score = 1
	}
	return score
}

// RecordInteraction 记录一次交互并累积得分。
func (m *MemoryInteractions) RecordInteraction(ctx context.Context, userID, contentID string, typ core.InteractionType, duration float64) {
	if userID == "" || contentID == "" {
		return
	}
	score := interactionScore(typ, duration)

	m.mu.Lock()
	if m.data[userID] == nil {
		m.data[userID] = make(map[string]float64)
	}
	total := core.Clamp01(m.data[userID][contentID] + score)
	m.data[userID][contentID] = total
	snapshot := make(map[string]float64, len(m.data[userID]))
	for k, v := range m.data[userID] {
		snapshot[k] = v
	}
	m.mu.Unlock()

	m.persist(ctx, userID, contentID, total, snapshot)
}

// persist 写入存储。后端支持 KeyValueStore 时按字段增量写
// （Hash 存得分、有序集合维护排名），否则整块 JSON 覆盖。
func (m *MemoryInteractions) persist(ctx context.Context, userID, contentID string, score float64, scores map[string]float64) {
	if m.store == nil {
		return
	}

	if kv, ok := m.store.(core.KeyValueStore); ok {
		raw := strconv.FormatFloat(score, 'f', -1, 64)
		err := kv.HSet(ctx, interactionsKey(userID), contentID, []byte(raw))
		if err == nil {
			err = kv.ZAdd(ctx, interactionsRankKey(userID), score, contentID)
		}
		if err != nil {
			m.logger.Warn("persist interaction failed",
				zap.String("user_id", userID),
				zap.String("content_id", contentID),
				zap.String("store", m.store.Name()),
				zap.Error(err))
		}
		return
	}

	data, err := json.Marshal(scores)
	if err != nil {
		m.logger.Warn("marshal interactions failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if err := m.store.Set(ctx, interactionsKey(userID), data); err != nil {
		m.logger.Warn("persist interactions failed",
			zap.String("user_id", userID),
			zap.String("store", m.store.Name()),
			zap.Error(err))
	}
}

// Load 从存储恢复用户交互历史。
func (m *MemoryInteractions) Load(ctx context.Context, userID string) error {
	if m.store == nil {
		return nil
	}

	var scores map[string]float64
	if kv, ok := m.store.(core.KeyValueStore); ok {
		fields, err := kv.HGetAll(ctx, interactionsKey(userID))
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		scores = make(map[string]float64, len(fields))
		for contentID, raw := range fields {
			v, err := strconv.ParseFloat(string(raw), 64)
			if err != nil {
				m.logger.Warn("skip malformed interaction score",
					zap.String("user_id", userID),
					zap.String("content_id", contentID),
					zap.Error(err))
				continue
			}
			scores[contentID] = v
		}
	} else {
		data, err := m.store.Get(ctx, interactionsKey(userID))
		if err != nil {
			if core.IsStoreNotFound(err) {
				return nil
			}
			return err
		}
		if err := json.Unmarshal(data, &scores); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.data[userID] = scores
	m.mu.Unlock()
	return nil
}

// TopInteracted 返回用户得分最高的 limit 个内容 ID（降序）。
// 后端支持有序集合时走 ZRange，否则在内存里排序。
func (m *MemoryInteractions) TopInteracted(ctx context.Context, userID string, limit int) []string {
	if limit <= 0 {
		return nil
	}

	if kv, ok := m.store.(core.KeyValueStore); ok {
		members, err := kv.ZRange(ctx, interactionsRankKey(userID), 0, int64(limit)-1)
		if err == nil {
			return members
		}
		m.logger.Warn("zrange interactions failed",
			zap.String("user_id", userID),
			zap.String("store", m.store.Name()),
			zap.Error(err))
	}

	m.mu.RLock()
	items := m.data[userID]
	type pair struct {
		id    string
		score float64
	}
	pairs := make([]pair, 0, len(items))
	for id, s := range items {
		pairs = append(pairs, pair{id: id, score: s})
	}
	m.mu.RUnlock()

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].score != pairs[j].score {
			return pairs[i].score > pairs[j].score
		}
		return pairs[i].id < pairs[j].id
	})
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	result := make([]string, len(pairs))
	for i, p := range pairs {
		result[i] = p.id
	}
	return result
}

// UserItems 返回用户的交互得分副本。
func (m *MemoryInteractions) UserItems(userID string) map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := m.data[userID]
	result := make(map[string]float64, len(items))
	for k, v := range items {
		result[k] = v
	}
	return result
}

// AllUsers 返回有交互记录的用户 ID（字典序，保证遍历稳定）。
func (m *MemoryInteractions) AllUsers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]string, 0, len(m.data))
	for uid := range m.data {
		users = append(users, uid)
	}
	sort.Strings(users)
	return users
}

// HasInteracted 检查用户是否与内容有过交互。
func (m *MemoryInteractions) HasInteracted(userID, contentID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items, ok := m.data[userID]
	if !ok {
		return false
	}
	_, ok = items[contentID]
	return ok
}
