package core

import (
	"time"

	"github.com/periodhub/personakit/pkg/conv"
)

// EventType 是行为事件类型。
type EventType string

const (
	EventSearch          EventType = "search"
	EventClick           EventType = "click"
	EventView            EventType = "view"
	EventShare           EventType = "share"
	EventBookmark        EventType = "bookmark"
	EventRating          EventType = "rating"
	EventTimeSpent       EventType = "time_spent"
	EventScrollDepth     EventType = "scroll_depth"
	EventQueryRefinement EventType = "query_refinement"
)

// EventContext 是事件发生时的页面/设备上下文。
type EventContext struct {
	Page       string `json:"page"`
	DeviceType string `json:"device_type"` // mobile / tablet / desktop
	Language   string `json:"language"`
	Referrer   string `json:"referrer,omitempty"`
	// SearchQuery 记录事件发生前的检索词（搜索事件本身也会写入）
	SearchQuery string `json:"search_query,omitempty"`
}

// Event 是一次用户交互的不可变记录。
//
// 一经写入不再修改；下游（profile / engine / learning）只读引用。
// Data 是类型相关的载荷：
//   - search: query / results_count / response_time
//   - click:  content_id / content_type / position / title
//   - view:   content_id / content_type / duration / scroll_depth
type Event struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	SessionID string         `json:"session_id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
	Context   EventContext   `json:"context"`
}

// Query 取搜索事件的检索词；非搜索事件返回空串。
func (e *Event) Query() string {
	if e.Data == nil {
		return ""
	}
	s, _ := conv.ToString(e.Data["query"])
	return s
}

// ContentID 取事件关联的内容 ID（click/view/share 等）。
func (e *Event) ContentID() string {
	if e.Data == nil {
		return ""
	}
	s, _ := conv.ToString(e.Data["content_id"])
	return s
}

// ContentType 取事件关联的内容类型。
func (e *Event) ContentType() string {
	if e.Data == nil {
		return ""
	}
	s, _ := conv.ToString(e.Data["content_type"])
	return s
}

// Title 取点击事件的内容标题，用于主题提取。
func (e *Event) Title() string {
	if e.Data == nil {
		return ""
	}
	s, _ := conv.ToString(e.Data["title"])
	return s
}

// Duration 取浏览事件的停留时长（秒）。
func (e *Event) Duration() float64 {
	if e.Data == nil {
		return 0
	}
	f, _ := conv.ToFloat64(e.Data["duration"])
	return f
}

// ScrollDepth 取浏览事件的滚动深度（0-1）。
func (e *Event) ScrollDepth() float64 {
	if e.Data == nil {
		return 0
	}
	f, _ := conv.ToFloat64(e.Data["scroll_depth"])
	return f
}

// Position 取点击事件在列表中的位置。
func (e *Event) Position() int {
	if e.Data == nil {
		return 0
	}
	n, _ := conv.ToInt(e.Data["position"])
	return n
}
