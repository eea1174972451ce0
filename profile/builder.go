package profile

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/periodhub/personakit/core"
)

// EventSource 提供用户的事件历史（由 tracker.BehaviorTracker 实现）。
type EventSource interface {
	All(userID string) []*core.Event
}

// Builder 从行为事件派生用户画像。
//
// 两条更新路径：
//   - Build：全量重建，画像完全由当前事件窗口决定
//   - Update：增量合并，对既有兴趣先做指数衰减再叠加新信号
type Builder struct {
	events EventSource
	topics *TopicExtractor
	logger *zap.Logger

	mu       sync.RWMutex
	profiles map[string]*core.UserProfile
}

// BuilderOption 配置 Builder。
type BuilderOption func(*Builder)

// WithBuilderLogger 设置日志器。
func WithBuilderLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// WithTopicExtractor 替换主题提取器（自定义词表）。
func WithTopicExtractor(x *TopicExtractor) BuilderOption {
	return func(b *Builder) { b.topics = x }
}

func NewBuilder(events EventSource, opts ...BuilderOption) *Builder {
	b := &Builder{
		events:   events,
		topics:   NewTopicExtractor(),
		logger:   zap.NewNop(),
		profiles: make(map[string]*core.UserProfile),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// 搜索词意图识别：正则预编译（中英文混合词表）
var (
	emergencyRe = regexp.MustCompile(`急救|紧急|危险|emergency|urgent`)
	severeRe    = regexp.MustCompile(`严重|剧烈|无法|severe|intense`)
	planningRe  = regexp.MustCompile(`计划|预防|长期|planning|prevention`)
	medicalRe   = regexp.MustCompile(`药物|medication|ibuprofen|布洛芬`)
	naturalRe   = regexp.MustCompile(`自然|天然|热敷|按摩|瑜伽|natural`)
	advancedRe  = regexp.MustCompile(`dysmenorrhea|prostaglandin|endometriosis`)

	symptomPatterns = []struct {
		re      *regexp.Regexp
		pattern string
	}{
		{regexp.MustCompile(`头痛|恶心|呕吐|发烧`), "伴随症状"},
		{regexp.MustCompile(`腰痛|背痛|腹痛`), "疼痛扩散"},
	}
)

// Build 全量重建用户画像并缓存。无事件用户得到零置信度空画像。
func (b *Builder) Build(userID string) *core.UserProfile {
	events := b.events.All(userID)
	p := b.derive(userID, events)

	b.mu.Lock()
	b.profiles[userID] = p
	b.mu.Unlock()

	b.logger.Debug("profile built",
		zap.String("user_id", userID),
		zap.Int("events", len(events)),
		zap.Float64("confidence", p.Confidence))
	return p
}

// Get 返回缓存的画像；没有则返回 nil。
func (b *Builder) Get(userID string) *core.UserProfile {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.profiles[userID]
}

// GetOrBuild 返回缓存画像，缺失时触发全量重建。
func (b *Builder) GetOrBuild(userID string) *core.UserProfile {
	if p := b.Get(userID); p != nil {
		return p
	}
	return b.Build(userID)
}

// derive 从事件窗口推导画像（无副作用）。
func (b *Builder) derive(userID string, events []*core.Event) *core.UserProfile {
	p := core.NewEmptyProfile(userID)
	if len(events) == 0 {
		return p
	}

	p.Demographics = b.deriveDemographics(events)
	p.Health = b.deriveHealth(events)
	p.Behavior = b.deriveBehavior(events)
	p.Preferences = b.derivePreferences(events, p.Health.KnowledgeLevel)
	p.InterestTopics = b.topics.ExtractTopics(events)
	p.Sessions = b.deriveSessions(events)
	p.Confidence = deriveConfidence(events)
	p.LastUpdated = time.Now()
	p.Normalize()
	return p
}

func (b *Builder) deriveDemographics(events []*core.Event) core.Demographics {
	d := core.Demographics{DevicePreference: "desktop", PrimaryLanguage: "zh"}

	deviceFreq := make(map[string]int)
	hourFreq := make(map[int]int)
	for _, ev := range events {
		if ev.Context.DeviceType != "" {
			deviceFreq[ev.Context.DeviceType]++
		}
		if ev.Context.Language != "" {
			d.PrimaryLanguage = ev.Context.Language
		}
		hourFreq[ev.Timestamp.Hour()]++
	}

	best, bestN := "", 0
	for dev, n := range deviceFreq {
		if n > bestN {
			best, bestN = dev, n
		}
	}
	if best != "" {
		d.DevicePreference = best
	}

	hours := make([]int, 0, len(hourFreq))
	for h := range hourFreq {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if hourFreq[hours[i]] != hourFreq[hours[j]] {
			return hourFreq[hours[i]] > hourFreq[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > 5 {
		hours = hours[:5]
	}
	sort.Ints(hours)
	d.ActivityPeakHours = hours
	return d
}

// deriveHealth 从搜索词推断健康上下文：严重程度打分、症状模式、
// 治疗偏好、知识水平与紧急程度分布。
func (b *Builder) deriveHealth(events []*core.Event) core.HealthProfile {
	h := core.HealthProfile{
		SeverityLevel:  core.SeverityUnknown,
		KnowledgeLevel: core.KnowledgeBeginner,
	}

	var queries []string
	for _, ev := range events {
		if ev.Type == core.EventSearch {
			if q := strings.ToLower(ev.Query()); q != "" {
				queries = append(queries, q)
			}
		}
	}
	if len(queries) == 0 {
		return h
	}

	severityScore := 0
	advancedHits := 0
	symptomSet := make(map[string]struct{})
	treatmentConf := make(map[core.TreatmentType]float64)

	for _, q := range queries {
		if emergencyRe.MatchString(q) {
			severityScore += 3
			h.Urgency.EmergencyQueries++
		}
		if severeRe.MatchString(q) {
			severityScore += 2
			h.Urgency.ImmediateNeedQueries++
		}
		if planningRe.MatchString(q) {
			h.Urgency.PlanningQueries++
		}
		for _, sp := range symptomPatterns {
			if sp.re.MatchString(q) {
				symptomSet[sp.pattern] = struct{}{}
			}
		}
		if medicalRe.MatchString(q) {
			bumpTreatment(treatmentConf, core.TreatmentMedical)
		}
		if naturalRe.MatchString(q) {
			bumpTreatment(treatmentConf, core.TreatmentNatural)
		}
		if advancedRe.MatchString(q) {
			advancedHits++
		}
	}

	switch {
	case severityScore >= 5:
		h.SeverityLevel = core.SeveritySevere
	case severityScore >= 2:
		h.SeverityLevel = core.SeverityModerate
	default:
		h.SeverityLevel = core.SeverityMild
	}

	for pattern := range symptomSet {
		h.SymptomPatterns = append(h.SymptomPatterns, pattern)
	}
	sort.Strings(h.SymptomPatterns)

	for _, t := range []core.TreatmentType{core.TreatmentMedical, core.TreatmentNatural, core.TreatmentLifestyle} {
		if conf, ok := treatmentConf[t]; ok {
			h.TreatmentPreferences = append(h.TreatmentPreferences, core.TreatmentPreference{
				Type:       t,
				Confidence: core.Clamp01(conf),
			})
		}
	}

	switch {
	case advancedHits >= 2:
		h.KnowledgeLevel = core.KnowledgeAdvanced
	case len(queries) >= 5:
		h.KnowledgeLevel = core.KnowledgeIntermediate
	}
	return h
}

// bumpTreatment 首次命中 0.6，之后每次 +0.1。
func bumpTreatment(conf map[core.TreatmentType]float64, t core.TreatmentType) {
	if _, ok := conf[t]; !ok {
		conf[t] = 0.6
		return
	}
	conf[t] += 0.1
}

func (b *Builder) deriveBehavior(events []*core.Event) core.BehaviorProfile {
	var bp core.BehaviorProfile
	bp.Navigation.PreferredContentTypes = make(map[string]int)

	var (
		searches, refinements, clicks int
		queryLen                      int
		viewCount                     int
		totalDuration, totalScroll    float64
		completed                     int
	)
	sessionCounts := make(map[string]int)
	daySet := make(map[string]struct{})

	for _, ev := range events {
		if ev.SessionID != "" {
			sessionCounts[ev.SessionID]++
		}
		daySet[ev.Timestamp.Format("2006-01-02")] = struct{}{}

		switch ev.Type {
		case core.EventSearch:
			searches++
			queryLen += len([]rune(ev.Query()))
		case core.EventQueryRefinement:
			refinements++
		case core.EventClick:
			clicks++
			if ct := ev.ContentType(); ct != "" {
				bp.Navigation.PreferredContentTypes[ct]++
			}
		case core.EventView:
			viewCount++
			totalDuration += ev.Duration()
			totalScroll += ev.ScrollDepth()
			if ev.ScrollDepth() > 0.8 {
				completed++
			}
		}
	}

	if searches > 0 {
		bp.SearchPatterns.AvgQueryLength = float64(queryLen) / float64(searches)
		bp.SearchPatterns.QueryRefinementRate = float64(refinements) / float64(searches)
		bp.Navigation.ClickThroughRate = core.Clamp01(float64(clicks) / float64(searches))
	}
	if len(sessionCounts) > 0 {
		bp.SearchPatterns.AvgQueriesPerSession = float64(searches) / float64(len(sessionCounts))
		single := 0
		for _, n := range sessionCounts {
			if n == 1 {
				single++
			}
		}
		bp.Navigation.BounceRate = float64(single) / float64(len(sessionCounts))
	} else if searches > 0 {
		bp.SearchPatterns.AvgQueriesPerSession = float64(searches)
	}

	switch {
	case bp.SearchPatterns.AvgQueriesPerSession > 5:
		bp.SearchPatterns.SearchDepth = "deep"
	case bp.SearchPatterns.AvgQueriesPerSession > 2:
		bp.SearchPatterns.SearchDepth = "moderate"
	default:
		bp.SearchPatterns.SearchDepth = "shallow"
	}

	if viewCount > 0 {
		bp.Engagement.AvgTimePerContent = totalDuration / float64(viewCount)
		bp.Engagement.AvgScrollDepth = totalScroll / float64(viewCount)
		bp.Engagement.ContentCompletionRate = float64(completed) / float64(viewCount)
	}
	if len(daySet) > 1 {
		bp.Engagement.ReturnVisitRate = core.Clamp01(float64(len(daySet)-1) / float64(len(daySet)))
	}
	return bp
}

func (b *Builder) derivePreferences(events []*core.Event, knowledge core.KnowledgeLevel) core.Preferences {
	p := core.Preferences{ContentLength: "medium", Complexity: "moderate"}

	typeFreq := make(map[string]int)
	totalClicks := 0
	var totalDuration float64
	viewCount := 0
	for _, ev := range events {
		switch ev.Type {
		case core.EventClick:
			if ct := ev.ContentType(); ct != "" {
				typeFreq[ct]++
				totalClicks++
			}
		case core.EventView:
			totalDuration += ev.Duration()
			viewCount++
		}
	}

	if totalClicks > 0 {
		types := make([]string, 0, len(typeFreq))
		for t := range typeFreq {
			types = append(types, t)
		}
		sort.Slice(types, func(i, j int) bool {
			if typeFreq[types[i]] != typeFreq[types[j]] {
				return typeFreq[types[i]] > typeFreq[types[j]]
			}
			return types[i] < types[j]
		})
		for _, t := range types {
			p.ContentFormat = append(p.ContentFormat, core.FormatPreference{
				Type:  t,
				Score: float64(typeFreq[t]) / float64(totalClicks),
			})
		}
	}

	if viewCount > 0 {
		avg := totalDuration / float64(viewCount)
		switch {
		case avg > 180:
			p.ContentLength = "long"
		case avg > 60:
			p.ContentLength = "medium"
		default:
			p.ContentLength = "short"
		}
	}

	switch knowledge {
	case core.KnowledgeAdvanced:
		p.Complexity = "detailed"
	case core.KnowledgeIntermediate:
		p.Complexity = "moderate"
	default:
		p.Complexity = "simple"
	}
	return p
}

func (b *Builder) deriveSessions(events []*core.Event) core.SessionContext {
	var sc core.SessionContext

	type sessionAgg struct {
		id      string
		start   time.Time
		end     time.Time
		count   int
		queries []string
		visited []string
	}
	byID := make(map[string]*sessionAgg)
	var order []string
	for _, ev := range events {
		if ev.SessionID == "" {
			continue
		}
		agg, ok := byID[ev.SessionID]
		if !ok {
			agg = &sessionAgg{id: ev.SessionID, start: ev.Timestamp, end: ev.Timestamp}
			byID[ev.SessionID] = agg
			order = append(order, ev.SessionID)
		}
		agg.count++
		if ev.Timestamp.Before(agg.start) {
			agg.start = ev.Timestamp
		}
		if ev.Timestamp.After(agg.end) {
			agg.end = ev.Timestamp
		}
		if q := ev.Query(); q != "" {
			agg.queries = append(agg.queries, q)
		}
		if cid := ev.ContentID(); cid != "" {
			agg.visited = append(agg.visited, cid)
		}
	}
	if len(order) == 0 {
		return sc
	}

	// 最后一个会话视为当前会话，其余归档为历史摘要
	last := byID[order[len(order)-1]]
	sc.Current = core.CurrentSession{
		SessionID:      last.id,
		StartTime:      last.start,
		Queries:        last.queries,
		VisitedContent: last.visited,
	}

	history := order[:len(order)-1]
	start := 0
	if len(history) > 5 {
		start = len(history) - 5
	}
	for _, sid := range history[start:] {
		agg := byID[sid]
		topics := b.topics.ExtractFromText(strings.Join(agg.queries, " "))
		sc.Recent = append(sc.Recent, core.SessionSummary{
			SessionID:     agg.id,
			Duration:      agg.end.Sub(agg.start),
			ActivityCount: agg.count,
			MainTopics:    topics,
		})
	}
	return sc
}

// deriveConfidence 画像置信度：
// 事件量 min(n/50, 0.5) + 类型覆盖 x0.3 + 时间跨度 min(天数/30, 0.2)。
func deriveConfidence(events []*core.Event) float64 {
	if len(events) == 0 {
		return 0
	}
	typeSet := make(map[core.EventType]struct{})
	first, last := events[0].Timestamp, events[0].Timestamp
	for _, ev := range events {
		typeSet[ev.Type] = struct{}{}
		if ev.Timestamp.Before(first) {
			first = ev.Timestamp
		}
		if ev.Timestamp.After(last) {
			last = ev.Timestamp
		}
	}

	volume := math.Min(float64(len(events))/50, 0.5)
	coverage := float64(len(typeSet)) / 10 * 0.3
	span := math.Min(last.Sub(first).Hours()/24/30, 1) * 0.2
	return core.Clamp01(volume + coverage + span)
}

// Update 增量更新：对既有画像先衰减再叠加新事件推导出的信号。
// newEvents 为空时只做衰减（用于定期老化）。
func (b *Builder) Update(userID string, newEvents []*core.Event) *core.UserProfile {
	b.mu.Lock()
	old, ok := b.profiles[userID]
	b.mu.Unlock()
	if !ok {
		old = core.NewEmptyProfile(userID)
	}

	fresh := b.derive(userID, newEvents)
	merged := mergeProfiles(old, fresh, len(newEvents) > 0)

	b.mu.Lock()
	b.profiles[userID] = merged
	b.mu.Unlock()
	return merged
}

// mergeProfiles 把新信号折叠进旧画像。hasNew 为 false 时仅衰减兴趣。
func mergeProfiles(old, fresh *core.UserProfile, hasNew bool) *core.UserProfile {
	merged := &core.UserProfile{
		UserID:      old.UserID,
		LastUpdated: time.Now(),
	}

	merged.InterestTopics = mergeTopics(old.InterestTopics, fresh.InterestTopics)

	if !hasNew {
		merged.Demographics = old.Demographics
		merged.Health = old.Health
		merged.Behavior = old.Behavior
		merged.Preferences = old.Preferences
		merged.Sessions = old.Sessions
		merged.Confidence = old.Confidence
		merged.Normalize()
		return merged
	}

	merged.Demographics = mergeDemographics(old.Demographics, fresh.Demographics)
	merged.Health = mergeHealth(old.Health, fresh.Health)
	merged.Behavior = mergeBehavior(old.Behavior, fresh.Behavior)
	merged.Preferences = mergePreferences(old.Preferences, fresh.Preferences)
	merged.Sessions = fresh.Sessions
	merged.Confidence = core.Clamp01(old.Confidence + fresh.Confidence*0.3)
	merged.Normalize()
	return merged
}

// mergeTopics：旧主题相关性 x0.9 衰减；重叠主题取
// min(旧x0.9 + 新x0.5, 1)，频次相加，交互时间取最新。
func mergeTopics(old, fresh []core.InterestTopic) []core.InterestTopic {
	acc := make(map[string]core.InterestTopic, len(old)+len(fresh))
	for _, t := range old {
		t.Relevance *= core.TopicDecayFactor
		acc[t.Topic] = t
	}
	for _, nt := range fresh {
		if ot, ok := acc[nt.Topic]; ok {
			ot.Relevance = math.Min(ot.Relevance+nt.Relevance*0.5, 1)
			ot.Frequency += nt.Frequency
			if nt.LastInteraction.After(ot.LastInteraction) {
				ot.LastInteraction = nt.LastInteraction
				ot.Source = nt.Source
			}
			acc[nt.Topic] = ot
			continue
		}
		acc[nt.Topic] = nt
	}

	result := make([]core.InterestTopic, 0, len(acc))
	for _, t := range acc {
		result = append(result, t)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Relevance != result[j].Relevance {
			return result[i].Relevance > result[j].Relevance
		}
		return result[i].Topic < result[j].Topic
	})
	if len(result) > core.MaxInterestTopics {
		result = result[:core.MaxInterestTopics]
	}
	return result
}

func mergeDemographics(old, fresh core.Demographics) core.Demographics {
	d := fresh
	if d.DevicePreference == "" {
		d.DevicePreference = old.DevicePreference
	}
	if d.PrimaryLanguage == "" {
		d.PrimaryLanguage = old.PrimaryLanguage
	}

	// 活跃时段取并集，保留最多 5 个
	seen := make(map[int]struct{})
	var hours []int
	for _, h := range append(append([]int{}, fresh.ActivityPeakHours...), old.ActivityPeakHours...) {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		hours = append(hours, h)
		if len(hours) >= 5 {
			break
		}
	}
	sort.Ints(hours)
	d.ActivityPeakHours = hours
	return d
}

func mergeHealth(old, fresh core.HealthProfile) core.HealthProfile {
	h := fresh
	if h.SeverityLevel == core.SeverityUnknown {
		h.SeverityLevel = old.SeverityLevel
	}
	if h.KnowledgeLevel == core.KnowledgeBeginner {
		h.KnowledgeLevel = old.KnowledgeLevel
	}

	seen := make(map[string]struct{})
	var symptoms []string
	for _, s := range append(append([]string{}, old.SymptomPatterns...), fresh.SymptomPatterns...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		symptoms = append(symptoms, s)
	}
	sort.Strings(symptoms)
	h.SymptomPatterns = symptoms

	// 治疗偏好：旧置信度 + 新x0.3，钳制 [0,1]
	conf := make(map[core.TreatmentType]float64)
	var order []core.TreatmentType
	for _, p := range old.TreatmentPreferences {
		conf[p.Type] = p.Confidence
		order = append(order, p.Type)
	}
	for _, p := range fresh.TreatmentPreferences {
		if _, ok := conf[p.Type]; !ok {
			order = append(order, p.Type)
			conf[p.Type] = p.Confidence
			continue
		}
		conf[p.Type] = core.Clamp01(conf[p.Type] + p.Confidence*0.3)
	}
	h.TreatmentPreferences = nil
	for _, t := range order {
		h.TreatmentPreferences = append(h.TreatmentPreferences, core.TreatmentPreference{
			Type:       t,
			Confidence: conf[t],
		})
	}

	h.Urgency = core.UrgencyProfile{
		EmergencyQueries:     old.Urgency.EmergencyQueries + fresh.Urgency.EmergencyQueries,
		ImmediateNeedQueries: old.Urgency.ImmediateNeedQueries + fresh.Urgency.ImmediateNeedQueries,
		PlanningQueries:      old.Urgency.PlanningQueries + fresh.Urgency.PlanningQueries,
	}
	return h
}

func mergeBehavior(old, fresh core.BehaviorProfile) core.BehaviorProfile {
	avg := func(a, b float64) float64 { return (a + b) / 2 }

	merged := fresh
	merged.SearchPatterns.AvgQueriesPerSession = avg(old.SearchPatterns.AvgQueriesPerSession, fresh.SearchPatterns.AvgQueriesPerSession)
	merged.SearchPatterns.AvgQueryLength = avg(old.SearchPatterns.AvgQueryLength, fresh.SearchPatterns.AvgQueryLength)
	merged.SearchPatterns.QueryRefinementRate = avg(old.SearchPatterns.QueryRefinementRate, fresh.SearchPatterns.QueryRefinementRate)
	merged.Engagement.AvgTimePerContent = avg(old.Engagement.AvgTimePerContent, fresh.Engagement.AvgTimePerContent)
	merged.Engagement.AvgScrollDepth = avg(old.Engagement.AvgScrollDepth, fresh.Engagement.AvgScrollDepth)
	merged.Engagement.ReturnVisitRate = avg(old.Engagement.ReturnVisitRate, fresh.Engagement.ReturnVisitRate)
	merged.Engagement.ContentCompletionRate = avg(old.Engagement.ContentCompletionRate, fresh.Engagement.ContentCompletionRate)
	return merged
}

func mergePreferences(old, fresh core.Preferences) core.Preferences {
	p := fresh
	if len(p.ContentFormat) == 0 {
		p.ContentFormat = old.ContentFormat
	}
	if p.ContentLength == "" {
		p.ContentLength = old.ContentLength
	}
	if p.Complexity == "" {
		p.Complexity = old.Complexity
	}
	return p
}

// SimilarUser 是一个相似用户及其相似度，附带该用户的画像，
// 调用方无需再按 ID 二次查询。
type SimilarUser struct {
	UserID     string
	Similarity float64
	Profile    *core.UserProfile
}

// SimilarUsers 在已缓存画像中查找相似用户：
// 严重程度一致 0.4 + 兴趣 Jaccard x0.35 + 搜索强度接近 x0.25，
// 阈值 0.3，降序截断。
func (b *Builder) SimilarUsers(userID string, limit int) []SimilarUser {
	b.mu.RLock()
	defer b.mu.RUnlock()

	me, ok := b.profiles[userID]
	if !ok {
		return nil
	}
	mySet := me.TopicSet()

	var result []SimilarUser
	for uid, other := range b.profiles {
		if uid == userID {
			continue
		}
		var sim float64
		if other.Health.SeverityLevel == me.Health.SeverityLevel {
			sim += 0.4
		}
		sim += topicJaccard(mySet, other.TopicSet()) * 0.35
		diff := math.Abs(me.Behavior.SearchPatterns.AvgQueriesPerSession - other.Behavior.SearchPatterns.AvgQueriesPerSession)
		sim += math.Max(1-diff/10, 0) * 0.25

		if sim >= 0.3 {
			result = append(result, SimilarUser{UserID: uid, Similarity: sim, Profile: other})
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Similarity != result[j].Similarity {
			return result[i].Similarity > result[j].Similarity
		}
		return result[i].UserID < result[j].UserID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func topicJaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
