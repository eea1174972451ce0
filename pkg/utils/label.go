package utils

import "strings"

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// 每个策略/过滤/重排节点都可以往 Item 上写 Label，最终由 Engine
// 汇总成用户可读的推荐理由（reason）与结果级 explanations。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // strategy / filter / rerank / rule ...
}

// MergeLabel 合并同名 Label，遵循"保留历史、可追踪"的默认策略。
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}

// SplitValues 拆出累积后的各段 Value，用于理由统计/展示。
func (l Label) SplitValues() []string {
	if l.Value == "" {
		return nil
	}
	return strings.Split(l.Value, "|")
}
