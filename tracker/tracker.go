package tracker

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/periodhub/personakit/core"
)

// BehaviorTracker 采集并索引用户行为事件。
//
// 内存态是权威数据：每用户保留最近 maxEvents 条，超出淘汰最旧。
// 可选挂接 core.Store 做持久化快照，写失败只记 WARN 不影响采集。
type BehaviorTracker struct {
	maxEvents int
	store     core.Store
	logger    *zap.Logger

	mu          sync.RWMutex
	events      map[string][]*core.Event // userID -> 按时间升序
	byID        map[string]*core.Event
	sessions    map[string][]string // sessionID -> event IDs（升序）
	sessionLast map[string]time.Time
}

// Option 配置 BehaviorTracker。
type Option func(*BehaviorTracker)

// WithStore 挂接持久化存储（可选）。
func WithStore(s core.Store) Option {
	return func(t *BehaviorTracker) { t.store = s }
}

// WithLogger 设置日志器。
func WithLogger(l *zap.Logger) Option {
	return func(t *BehaviorTracker) { t.logger = l }
}

// WithMaxEvents 设置每用户事件保留上限。
func WithMaxEvents(n int) Option {
	return func(t *BehaviorTracker) {
		if n > 0 {
			t.maxEvents = n
		}
	}
}

func NewBehaviorTracker(opts ...Option) *BehaviorTracker {
	t := &BehaviorTracker{
		maxEvents:   core.DefaultMaxEventsPerUser,
		logger:      zap.NewNop(),
		events:      make(map[string][]*core.Event),
		byID:        make(map[string]*core.Event),
		sessions:    make(map[string][]string),
		sessionLast: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func eventsKey(userID string) string { return "behavior:events:" + userID }

// Record 记录一条行为事件，返回事件 ID。ID/时间戳为空时自动补齐。
func (t *BehaviorTracker) Record(ctx context.Context, ev *core.Event) (string, error) {
	if ev == nil || ev.UserID == "" {
		return "", core.NewDomainError(core.ModuleTracker, core.ErrorCodeInvalidInput, "tracker: event requires user id")
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	t.mu.Lock()
	list := append(t.events[ev.UserID], ev)
	t.byID[ev.ID] = ev

	// 超出上限：淘汰最旧，同步清理索引
	for len(list) > t.maxEvents {
		oldest := list[0]
		list = list[1:]
		delete(t.byID, oldest.ID)
		t.dropFromSession(oldest)
	}
	t.events[ev.UserID] = list

	if ev.SessionID != "" {
		t.sessions[ev.SessionID] = append(t.sessions[ev.SessionID], ev.ID)
		if ev.Timestamp.After(t.sessionLast[ev.SessionID]) {
			t.sessionLast[ev.SessionID] = ev.Timestamp
		}
	}
	snapshot := make([]*core.Event, len(list))
	copy(snapshot, list)
	t.mu.Unlock()

	t.persist(ctx, ev.UserID, snapshot)
	return ev.ID, nil
}

// dropFromSession 从会话索引中移除事件（调用方持有写锁）。
func (t *BehaviorTracker) dropFromSession(ev *core.Event) {
	if ev.SessionID == "" {
		return
	}
	ids := t.sessions[ev.SessionID]
	for i, id := range ids {
		if id == ev.ID {
			t.sessions[ev.SessionID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(t.sessions[ev.SessionID]) == 0 {
		delete(t.sessions, ev.SessionID)
		delete(t.sessionLast, ev.SessionID)
	}
}

// persist 尽力而为地写快照；失败降级为 WARN 日志。
func (t *BehaviorTracker) persist(ctx context.Context, userID string, events []*core.Event) {
	if t.store == nil {
		return
	}
	data, err := json.Marshal(events)
	if err != nil {
		t.logger.Warn("marshal events failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if err := t.store.Set(ctx, eventsKey(userID), data); err != nil {
		t.logger.Warn("persist events failed",
			zap.String("user_id", userID),
			zap.String("store", t.store.Name()),
			zap.Error(err))
	}
}

// Load 从存储恢复用户事件历史（冷启动/重启场景）。
func (t *BehaviorTracker) Load(ctx context.Context, userID string) error {
	if t.store == nil {
		return nil
	}
	data, err := t.store.Get(ctx, eventsKey(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil
		}
		return err
	}
	var events []*core.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, old := range t.events[userID] {
		delete(t.byID, old.ID)
	}
	t.events[userID] = events
	for _, ev := range events {
		t.byID[ev.ID] = ev
	}
	return nil
}

// RecordSearch 记录一次搜索。
func (t *BehaviorTracker) RecordSearch(ctx context.Context, userID, sessionID, query string, ectx core.EventContext) error {
	ectx.SearchQuery = query
	_, err := t.Record(ctx, &core.Event{
		UserID:    userID,
		SessionID: sessionID,
		Type:      core.EventSearch,
		Data:      map[string]any{"query": query},
		Context:   ectx,
	})
	return err
}

// RecordClick 记录一次点击。
func (t *BehaviorTracker) RecordClick(ctx context.Context, userID, sessionID, contentID, contentType, title string, position int, ectx core.EventContext) error {
	_, err := t.Record(ctx, &core.Event{
		UserID:    userID,
		SessionID: sessionID,
		Type:      core.EventClick,
		Data: map[string]any{
			"content_id":   contentID,
			"content_type": contentType,
			"title":        title,
			"position":     position,
		},
		Context: ectx,
	})
	return err
}

// RecordView 记录一次内容浏览（停留时长秒、滚动深度 0-1）。
func (t *BehaviorTracker) RecordView(ctx context.Context, userID, sessionID, contentID string, duration, scrollDepth float64, ectx core.EventContext) error {
	_, err := t.Record(ctx, &core.Event{
		UserID:    userID,
		SessionID: sessionID,
		Type:      core.EventView,
		Data: map[string]any{
			"content_id":   contentID,
			"duration":     duration,
			"scroll_depth": scrollDepth,
		},
		Context: ectx,
	})
	return err
}

// Query 查询用户事件，按时间倒序（最新在前）。
// typ 为空表示全部类型；limit <= 0 表示不限条数。
func (t *BehaviorTracker) Query(userID string, typ core.EventType, limit int) []*core.Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	list := t.events[userID]
	result := make([]*core.Event, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		ev := list[i]
		if typ != "" && ev.Type != typ {
			continue
		}
		result = append(result, ev)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result
}

// All 返回用户全部事件（时间升序）。
func (t *BehaviorTracker) All(userID string) []*core.Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	list := t.events[userID]
	result := make([]*core.Event, len(list))
	copy(result, list)
	return result
}

// SessionEvents 返回某会话的事件（时间升序）。
func (t *BehaviorTracker) SessionEvents(sessionID string) []*core.Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := t.sessions[sessionID]
	result := make([]*core.Event, 0, len(ids))
	for _, id := range ids {
		if ev, ok := t.byID[id]; ok {
			result = append(result, ev)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result
}

// ExpireSessions 归档静默超时的会话索引，返回清理的会话数。
// 事件本身保留，只有会话到事件的索引被移除。
func (t *BehaviorTracker) ExpireSessions(now time.Time, timeout time.Duration) int {
	if timeout <= 0 {
		timeout = core.DefaultSessionTimeout
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	expired := 0
	for sid, last := range t.sessionLast {
		if now.Sub(last) > timeout {
			delete(t.sessions, sid)
			delete(t.sessionLast, sid)
			expired++
		}
	}
	return expired
}

// RecentSearches 返回用户最近的搜索词（最新在前，去重）。
func (t *BehaviorTracker) RecentSearches(userID string, limit int) []string {
	events := t.Query(userID, core.EventSearch, 0)
	seen := make(map[string]struct{})
	result := make([]string, 0, limit)
	for _, ev := range events {
		q := ev.Query()
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		result = append(result, q)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result
}

// PreferredContentTypes 统计用户点击过的内容类型分布。
func (t *BehaviorTracker) PreferredContentTypes(userID string) map[string]int {
	events := t.Query(userID, core.EventClick, 0)
	result := make(map[string]int)
	for _, ev := range events {
		if ct := ev.ContentType(); ct != "" {
			result[ct]++
		}
	}
	return result
}

// SearchStats 是用户搜索行为的统计摘要。
type SearchStats struct {
	AvgQueriesPerSession float64
	AvgQueryLength       float64
	CommonTerms          []string
	PeakHours            []int
}

// AnalyzeSearchPatterns 分析用户搜索行为模式。
func (t *BehaviorTracker) AnalyzeSearchPatterns(userID string) SearchStats {
	searches := t.Query(userID, core.EventSearch, 0)
	if len(searches) == 0 {
		return SearchStats{}
	}

	var stats SearchStats
	sessionCounts := make(map[string]int)
	termFreq := make(map[string]int)
	hourFreq := make(map[int]int)
	totalLen := 0

	for _, ev := range searches {
		q := ev.Query()
		totalLen += len([]rune(q))
		if ev.SessionID != "" {
			sessionCounts[ev.SessionID]++
		}
		for _, term := range strings.Fields(strings.ToLower(q)) {
			if len([]rune(term)) > 1 {
				termFreq[term]++
			}
		}
		hourFreq[ev.Timestamp.Hour()]++
	}

	stats.AvgQueryLength = float64(totalLen) / float64(len(searches))
	if len(sessionCounts) > 0 {
		stats.AvgQueriesPerSession = float64(len(searches)) / float64(len(sessionCounts))
	} else {
		stats.AvgQueriesPerSession = float64(len(searches))
	}
	stats.CommonTerms = topKeys(termFreq, 10)
	stats.PeakHours = topHours(hourFreq, 3)
	return stats
}

func topKeys(freq map[string]int, n int) []string {
	keys := make([]string, 0, len(freq))
	for k := range freq {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if freq[keys[i]] != freq[keys[j]] {
			return freq[keys[i]] > freq[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func topHours(freq map[int]int, n int) []int {
	hours := make([]int, 0, len(freq))
	for h := range freq {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if freq[hours[i]] != freq[hours[j]] {
			return freq[hours[i]] > freq[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > n {
		hours = hours[:n]
	}
	sort.Ints(hours)
	return hours
}

// Stats 是采集层的全局计数。
type Stats struct {
	TotalEvents   int
	TotalUsers    int
	TotalSessions int
	EventsByType  map[core.EventType]int
}

// Statistics 返回采集层全局统计。
func (t *BehaviorTracker) Statistics() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Stats{
		TotalUsers:    len(t.events),
		TotalSessions: len(t.sessions),
		EventsByType:  make(map[core.EventType]int),
	}
	for _, list := range t.events {
		s.TotalEvents += len(list)
		for _, ev := range list {
			s.EventsByType[ev.Type]++
		}
	}
	return s
}
