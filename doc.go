// Package personakit 是一个个性化推荐工具包（Personalization Kit）。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Filter → Strategy → ReRank → PostProcess）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - 反馈闭环: learning.System 吸收反馈在线更新权重，Engine 每次推荐读取最新值
// - Node 可扩展: 自定义 Node 即可插拔扩展
package personakit

import "github.com/periodhub/personakit/pipeline"

// 轻量 facade：便于用户直接 import "personakit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindStrategy    = pipeline.KindStrategy
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
