package core

import "time"

// 领域默认参数。
// 调优入口集中在这里，避免魔法数字散落在各包。
const (
	// MaxInterestTopics 画像保留的兴趣主题上限
	MaxInterestTopics = 20

	// DefaultMaxRecommendations 单次推荐默认返回条数
	DefaultMaxRecommendations = 10

	// DefaultMaxEventsPerUser 每用户行为事件保留上限（超出淘汰最旧）
	DefaultMaxEventsPerUser = 1000

	// DefaultSessionTimeout 会话静默超时：超过则归档为历史会话
	DefaultSessionTimeout = 30 * time.Minute

	// DefaultMaxFeedbackHistory 每用户反馈历史保留上限
	DefaultMaxFeedbackHistory = 1000

	// DefaultLearningRate 在线学习步长（SGD）
	DefaultLearningRate = 0.01

	// RegularizationLambda L2 正则系数：每次更新后权重整体收缩
	RegularizationLambda = 0.001

	// TopicDecayFactor 增量画像合并时旧兴趣的衰减系数
	TopicDecayFactor = 0.9
)

// 混合推荐各召回策略的默认融合权重（总和为 1）。
const (
	WeightContentBased  = 0.4
	WeightCollaborative = 0.3
	WeightPopularity    = 0.2
	WeightHealthFocused = 0.1
)
