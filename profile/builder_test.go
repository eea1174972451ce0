package profile

import (
	"math"
	"testing"
	"time"

	"github.com/periodhub/personakit/core"
)

// fakeEvents 是测试用的内存事件源。
type fakeEvents map[string][]*core.Event

func (f fakeEvents) All(userID string) []*core.Event { return f[userID] }

func searchEvent(userID, sessionID, query string, ts time.Time) *core.Event {
	return &core.Event{
		UserID:    userID,
		SessionID: sessionID,
		Type:      core.EventSearch,
		Timestamp: ts,
		Data:      map[string]any{"query": query},
	}
}

func TestBuildWithNoEvents(t *testing.T) {
	b := NewBuilder(fakeEvents{})
	p := b.Build("u1")

	if p.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0 for user without events", p.Confidence)
	}
	if p.Health.SeverityLevel != core.SeverityUnknown {
		t.Errorf("SeverityLevel = %v, want unknown", p.Health.SeverityLevel)
	}
	if p.Health.KnowledgeLevel != core.KnowledgeBeginner {
		t.Errorf("KnowledgeLevel = %v, want beginner", p.Health.KnowledgeLevel)
	}
	if len(p.InterestTopics) != 0 {
		t.Errorf("InterestTopics = %v, want empty", p.InterestTopics)
	}
}

func TestEmergencySearchesRaiseSeverity(t *testing.T) {
	base := time.Now()
	events := fakeEvents{"u1": {
		searchEvent("u1", "s1", "痛经急救方法", base),
		searchEvent("u1", "s1", "剧烈疼痛无法工作", base.Add(time.Minute)),
	}}
	b := NewBuilder(events)
	p := b.Build("u1")

	if p.Health.SeverityLevel != core.SeveritySevere {
		t.Errorf("SeverityLevel = %v, want severe (emergency 3 + intense 2)", p.Health.SeverityLevel)
	}
	if p.Health.Urgency.EmergencyQueries != 1 {
		t.Errorf("EmergencyQueries = %d, want 1", p.Health.Urgency.EmergencyQueries)
	}
	if p.Health.Urgency.ImmediateNeedQueries != 1 {
		t.Errorf("ImmediateNeedQueries = %d, want 1", p.Health.Urgency.ImmediateNeedQueries)
	}
}

func TestTreatmentPreferenceAccumulates(t *testing.T) {
	base := time.Now()
	events := fakeEvents{"u1": {
		searchEvent("u1", "s1", "热敷有用吗", base),
		searchEvent("u1", "s1", "按摩缓解", base.Add(time.Minute)),
		searchEvent("u1", "s1", "瑜伽动作", base.Add(2*time.Minute)),
	}}
	b := NewBuilder(events)
	p := b.Build("u1")

	// 首次 0.6，之后每次 +0.1
	got := p.TreatmentConfidence(core.TreatmentNatural)
	if math.Abs(got-0.8) > 1e-9 {
		t.Errorf("natural treatment confidence = %v, want 0.8", got)
	}
}

func TestKnowledgeLevelFromAdvancedTerms(t *testing.T) {
	base := time.Now()
	tests := []struct {
		name    string
		queries []string
		want    core.KnowledgeLevel
	}{
		{
			name:    "advanced terminology",
			queries: []string{"dysmenorrhea pathophysiology", "prostaglandin inhibitors"},
			want:    core.KnowledgeAdvanced,
		},
		{
			name:    "many plain searches",
			queries: []string{"疼痛", "缓解", "饮食", "睡眠", "运动"},
			want:    core.KnowledgeIntermediate,
		},
		{
			name:    "few plain searches",
			queries: []string{"疼痛"},
			want:    core.KnowledgeBeginner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var evs []*core.Event
			for i, q := range tt.queries {
				evs = append(evs, searchEvent("u1", "s1", q, base.Add(time.Duration(i)*time.Minute)))
			}
			b := NewBuilder(fakeEvents{"u1": evs})
			if got := b.Build("u1").Health.KnowledgeLevel; got != tt.want {
				t.Errorf("KnowledgeLevel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopicsSortedAndCapped(t *testing.T) {
	base := time.Now()
	var evs []*core.Event
	// 高频主题 + 低频主题
	for i := 0; i < 3; i++ {
		evs = append(evs, searchEvent("u1", "s1", "痛经缓解", base.Add(time.Duration(i)*time.Minute)))
	}
	evs = append(evs, searchEvent("u1", "s1", "瑜伽", base.Add(time.Hour)))

	b := NewBuilder(fakeEvents{"u1": evs})
	p := b.Build("u1")

	if len(p.InterestTopics) == 0 {
		t.Fatal("expected interest topics")
	}
	if len(p.InterestTopics) > core.MaxInterestTopics {
		t.Errorf("topics = %d, must not exceed %d", len(p.InterestTopics), core.MaxInterestTopics)
	}
	for i := 1; i < len(p.InterestTopics); i++ {
		if p.InterestTopics[i].Relevance > p.InterestTopics[i-1].Relevance {
			t.Error("topics must be sorted by relevance descending")
		}
	}
	for _, topic := range p.InterestTopics {
		if topic.Relevance < 0 || topic.Relevance > 1 {
			t.Errorf("topic %q relevance %v out of [0,1]", topic.Topic, topic.Relevance)
		}
	}
}

func TestUpdateEmptyBatchDecaysTopics(t *testing.T) {
	base := time.Now()
	b := NewBuilder(fakeEvents{"u1": {
		searchEvent("u1", "s1", "痛经缓解", base),
	}})
	before := b.Build("u1")
	if len(before.InterestTopics) == 0 {
		t.Fatal("expected interest topics after build")
	}
	wantRelevance := before.InterestTopics[0].Relevance * core.TopicDecayFactor
	wantConfidence := before.Confidence

	after := b.Update("u1", nil)
	if math.Abs(after.InterestTopics[0].Relevance-wantRelevance) > 1e-9 {
		t.Errorf("relevance after empty update = %v, want %v (x%v decay)",
			after.InterestTopics[0].Relevance, wantRelevance, core.TopicDecayFactor)
	}
	if after.Confidence != wantConfidence {
		t.Errorf("confidence should be unchanged by empty update, got %v want %v", after.Confidence, wantConfidence)
	}
}

func TestUpdateFoldsNewSignals(t *testing.T) {
	base := time.Now()
	b := NewBuilder(fakeEvents{"u1": {
		searchEvent("u1", "s1", "痛经缓解", base),
	}})
	before := b.Build("u1")
	oldRelevance := before.InterestTopics[0].Relevance

	after := b.Update("u1", []*core.Event{
		searchEvent("u1", "s2", "痛经怎么办", base.Add(time.Hour)),
	})

	var found *core.InterestTopic
	for i := range after.InterestTopics {
		if after.InterestTopics[i].Topic == "痛经" {
			found = &after.InterestTopics[i]
		}
	}
	if found == nil {
		t.Fatal("merged profile should keep the 痛经 topic")
	}
	// 衰减后叠加：min(old*0.9 + new*0.5, 1)
	if found.Relevance <= oldRelevance*core.TopicDecayFactor {
		t.Errorf("overlapping topic should gain relevance from new events, got %v", found.Relevance)
	}
	if after.Confidence < before.Confidence {
		t.Errorf("confidence should not drop when new events arrive, got %v < %v", after.Confidence, before.Confidence)
	}
}

func TestSimilarUsers(t *testing.T) {
	base := time.Now()
	events := fakeEvents{
		"u1": {searchEvent("u1", "s1", "痛经缓解", base), searchEvent("u1", "s1", "热敷", base)},
		"u2": {searchEvent("u2", "s2", "痛经缓解", base), searchEvent("u2", "s2", "热敷", base)},
		"u3": {searchEvent("u3", "s3", "dysmenorrhea", base), searchEvent("u3", "s3", "prostaglandin", base)},
	}
	b := NewBuilder(events)
	b.Build("u1")
	b.Build("u2")
	b.Build("u3")

	similar := b.SimilarUsers("u1", 10)
	if len(similar) == 0 {
		t.Fatal("expected at least one similar user")
	}
	if similar[0].UserID != "u2" {
		t.Errorf("most similar user = %s, want u2", similar[0].UserID)
	}
	for _, s := range similar {
		if s.Profile == nil {
			t.Fatalf("user %s should carry its profile", s.UserID)
		}
		if s.Profile.UserID != s.UserID {
			t.Errorf("profile user id = %s, want %s", s.Profile.UserID, s.UserID)
		}
	}
	for i := 1; i < len(similar); i++ {
		if similar[i].Similarity > similar[i-1].Similarity {
			t.Error("similar users must be sorted descending")
		}
	}
	for _, s := range similar {
		if s.Similarity < 0.3 {
			t.Errorf("user %s below 0.3 threshold: %v", s.UserID, s.Similarity)
		}
	}
}

func TestInsightsUserTypes(t *testing.T) {
	base := time.Now()
	tests := []struct {
		name    string
		queries []string
		want    string
	}{
		{"emergency user", []string{"痛经急救"}, "急性疼痛用户"},
		{"professional user", []string{"dysmenorrhea", "prostaglandin"}, "专业知识用户"},
		{"general user", []string{"疼痛"}, "一般健康关注用户"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var evs []*core.Event
			for i, q := range tt.queries {
				evs = append(evs, searchEvent("u1", "s1", q, base.Add(time.Duration(i)*time.Minute)))
			}
			b := NewBuilder(fakeEvents{"u1": evs})
			b.Build("u1")
			insights := b.Insights("u1")
			if insights == nil {
				t.Fatal("Insights() = nil for built profile")
			}
			if insights.UserType != tt.want {
				t.Errorf("UserType = %s, want %s", insights.UserType, tt.want)
			}
		})
	}

	if got := NewBuilder(fakeEvents{}).Insights("nobody"); got != nil {
		t.Errorf("Insights for unknown user = %+v, want nil", got)
	}
}
