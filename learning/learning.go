package learning

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/periodhub/personakit/core"
	"github.com/periodhub/personakit/model"
)

// CategoryResolver 解析内容 ID 所属的分类（由 catalog.Catalog 实现）。
type CategoryResolver interface {
	Get(contentID string) *core.ContentItem
}

// System 是在线学习系统：吸收推荐反馈，增量更新线性模型权重。
//
// 学习闭环：
//   反馈（显式/隐式）→ 特征提取 → SGD 更新 + L2 收缩 → Weights()
//   → Engine 下一次推荐读取最新权重
//
// 每用户反馈历史有界（maxHistory），同一条反馈只被学习一次。
type System struct {
	lr         float64
	lambda     float64
	maxHistory int
	mdl        *model.Linear
	store      core.Store
	logger     *zap.Logger
	categories CategoryResolver

	mu       sync.RWMutex
	feedback map[string][]*core.FeedbackEvent // userID -> 按时间先后
}

// SystemOption 配置 System。
type SystemOption func(*System)

// WithSystemStore 挂接持久化存储（可选）。
func WithSystemStore(s core.Store) SystemOption {
	return func(l *System) { l.store = s }
}

// WithSystemLogger 设置日志器。
func WithSystemLogger(lg *zap.Logger) SystemOption {
	return func(l *System) { l.logger = lg }
}

// WithCategoryResolver 挂接内容分类解析（偏好分类洞察需要）。
func WithCategoryResolver(r CategoryResolver) SystemOption {
	return func(l *System) { l.categories = r }
}

// WithLearningRate 覆盖默认学习率。
func WithLearningRate(lr float64) SystemOption {
	return func(l *System) {
		if lr > 0 {
			l.lr = lr
		}
	}
}

// WithModel 替换初始模型（A/B 测试的变体模型）。
func WithModel(m *model.Linear) SystemOption {
	return func(l *System) { l.mdl = m }
}

// defaultWeights 是排序权重的初始值。
func defaultWeights() map[string]float64 {
	return map[string]float64{
		"content_similarity": 0.3,
		"user_preference":    0.25,
		"popularity":         0.15,
		"recency":            0.1,
		"diversity":          0.1,
		"novelty":            0.1,
	}
}

func NewSystem(opts ...SystemOption) *System {
	l := &System{
		lr:         core.DefaultLearningRate,
		lambda:     core.RegularizationLambda,
		maxHistory: core.DefaultMaxFeedbackHistory,
		logger:     zap.NewNop(),
		feedback:   make(map[string][]*core.FeedbackEvent),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.mdl == nil {
		l.mdl = model.NewLinear(defaultWeights(), 0)
	}
	return l
}

func feedbackKey(userID string) string { return "learning:feedback:" + userID }

// RecordFeedback 记录一条显式反馈并触发一次模型更新。
func (l *System) RecordFeedback(ctx context.Context, fb *core.FeedbackEvent) error {
	if fb == nil || fb.UserID == "" || fb.ContentID == "" {
		return core.NewDomainError(core.ModuleLearning, core.ErrorCodeInvalidInput, "learning: feedback requires user and content id")
	}
	if fb.Timestamp.IsZero() {
		fb.Timestamp = time.Now()
	}

	l.mu.Lock()
	list := append(l.feedback[fb.UserID], fb)
	if len(list) > l.maxHistory {
		list = list[len(list)-l.maxHistory:]
	}
	l.feedback[fb.UserID] = list
	snapshot := make([]*core.FeedbackEvent, len(list))
	copy(snapshot, list)
	l.mu.Unlock()

	l.update(fb)
	l.persist(ctx, fb.UserID, snapshot)
	return nil
}

// RecordImplicitFeedback 把行为交互折算成反馈信号。
//
// 折算规则：
//   click .6 / download 1.0 / skip -0.3
//   view 停留 >60s 记 .8，否则 .2（中性）
//   列表第 6 位之后的正反馈 x1.2（位置折扣的反向修正）
func (l *System) RecordImplicitFeedback(ctx context.Context, userID, contentID string, interaction core.InteractionType, duration float64, position int) error {
	var value float64
	typ := core.FeedbackNeutral

	switch interaction {
	case core.InteractionClick:
		value, typ = 0.6, core.FeedbackPositive
	case core.InteractionView:
		if duration > 60 {
			value, typ = 0.8, core.FeedbackPositive
		} else {
			value = 0.2
		}
	case core.InteractionDownload:
		value, typ = 1.0, core.FeedbackPositive
	case core.InteractionSkip:
		value, typ = -0.3, core.FeedbackNegative
	default:
		return nil
	}

	if position > 5 && value > 0 {
		value *= 1.2
		if value > 1 {
			value = 1
		}
	}

	return l.RecordFeedback(ctx, &core.FeedbackEvent{
		UserID:    userID,
		ContentID: contentID,
		Type:      typ,
		Value:     value,
		Context: core.FeedbackContext{
			Position: position,
			Score:    0.5,
			Explicit: false,
		},
	})
}

func (l *System) persist(ctx context.Context, userID string, events []*core.FeedbackEvent) {
	if l.store == nil {
		return
	}
	data, err := json.Marshal(events)
	if err != nil {
		l.logger.Warn("marshal feedback failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if err := l.store.Set(ctx, feedbackKey(userID), data); err != nil {
		l.logger.Warn("persist feedback failed",
			zap.String("user_id", userID),
			zap.String("store", l.store.Name()),
			zap.Error(err))
	}
}

// Load 从存储恢复用户反馈历史（不重放模型更新）。
func (l *System) Load(ctx context.Context, userID string) error {
	if l.store == nil {
		return nil
	}
	data, err := l.store.Get(ctx, feedbackKey(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil
		}
		return err
	}
	var events []*core.FeedbackEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return err
	}

	l.mu.Lock()
	l.feedback[userID] = events
	l.mu.Unlock()
	return nil
}

// Feedback 返回用户反馈历史副本（时间先后序）。
func (l *System) Feedback(userID string) []*core.FeedbackEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	list := l.feedback[userID]
	result := make([]*core.FeedbackEvent, len(list))
	copy(result, list)
	return result
}

// Weights 返回当前模型权重快照，实现 core.WeightSource。
func (l *System) Weights() map[string]float64 {
	return l.mdl.Snapshot()
}

// Model 返回底层线性模型。
func (l *System) Model() *model.Linear {
	return l.mdl
}
