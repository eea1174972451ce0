package profile

import (
	"sort"
	"strings"

	"github.com/periodhub/personakit/core"
)

// TopicExtractor 从搜索词与点击标题中提取兴趣主题。
//
// 采用领域词表匹配而非通用分词：健康垂类的主题集合是封闭的，
// 词表命中比统计分词更稳定，也不需要额外的 NLP 依赖。
type TopicExtractor struct {
	lexicon []string
}

// defaultLexicon 是经期健康领域的主题词表。
var defaultLexicon = []string{
	"痛经", "经痛", "月经", "生理期", "疼痛", "缓解", "治疗", "药物",
	"自然疗法", "热敷", "按摩", "运动", "瑜伽", "饮食", "营养", "睡眠",
	"压力", "情绪", "工作", "学习", "急救", "紧急", "医生", "医院",
}

func NewTopicExtractor(lexicon ...string) *TopicExtractor {
	if len(lexicon) == 0 {
		lexicon = defaultLexicon
	}
	return &TopicExtractor{lexicon: lexicon}
}

// ExtractFromText 返回文本命中的主题词。
func (x *TopicExtractor) ExtractFromText(text string) []string {
	if text == "" {
		return nil
	}
	var topics []string
	for _, topic := range x.lexicon {
		if strings.Contains(text, topic) {
			topics = append(topics, topic)
		}
	}
	return topics
}

// ExtractTopics 聚合事件流中的兴趣主题。
// 相关性 = min(命中次数 / 事件总数 x 2, 1)，按相关性降序。
func (x *TopicExtractor) ExtractTopics(events []*core.Event) []core.InterestTopic {
	if len(events) == 0 {
		return nil
	}

	acc := make(map[string]*core.InterestTopic)
	for _, ev := range events {
		text := ev.Query()
		if text == "" {
			text = ev.Title()
		}
		for _, topic := range x.ExtractFromText(text) {
			t, ok := acc[topic]
			if !ok {
				t = &core.InterestTopic{Topic: topic}
				acc[topic] = t
			}
			t.Frequency++
			if ev.Timestamp.After(t.LastInteraction) {
				t.LastInteraction = ev.Timestamp
				t.Source = ev.Type
			}
		}
	}

	result := make([]core.InterestTopic, 0, len(acc))
	for _, t := range acc {
		t.Relevance = core.Clamp01(float64(t.Frequency) / float64(len(events)) * 2)
		result = append(result, *t)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Relevance != result[j].Relevance {
			return result[i].Relevance > result[j].Relevance
		}
		return result[i].Topic < result[j].Topic
	})
	return result
}
