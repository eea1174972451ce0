package core

import "github.com/periodhub/personakit/pkg/utils"

// RecommendContext 承载用户/场景/请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string
	Scene  string

	// User 是本次请求使用的用户画像（可为 nil，表示匿名/冷启动）
	User *UserProfile

	// Options 是本次请求的推荐选项
	Options *RecommendOptions

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	// 例如：新用户、紧急需求用户、重度用户等
	Labels map[string]utils.Label

	// Params 请求级上下文参数（page、device_type、query 等）
	Params map[string]any
}

// Profile 返回画像；nil 时退化为零置信度空画像，调用方无需判空。
func (rctx *RecommendContext) Profile() *UserProfile {
	if rctx.User != nil {
		return rctx.User
	}
	return NewEmptyProfile(rctx.UserID)
}

// Opts 返回选项；nil 时返回默认选项。
func (rctx *RecommendContext) Opts() *RecommendOptions {
	if rctx.Options != nil {
		return rctx.Options
	}
	return DefaultRecommendOptions()
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
