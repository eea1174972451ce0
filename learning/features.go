package learning

import (
	"go.uber.org/zap"

	"github.com/periodhub/personakit/core"
)

// extractFeatures 从反馈事件提取训练特征（全部归一化到 [0,1]）。
func extractFeatures(fb *core.FeedbackEvent) map[string]float64 {
	features := map[string]float64{
		"position":             1.0 / float64(fb.Context.Position+1),
		"recommendation_score": fb.Context.Score,
		"hour_of_day":          float64(fb.Timestamp.Hour()) / 24,
	}
	if fb.Context.Explicit {
		features["explicit_feedback"] = 1
	} else {
		features["explicit_feedback"] = 0
	}
	return features
}

// update 用单条反馈做一步 SGD，随后对全部权重做 L2 收缩。
// 反馈值 [-1,1] 映射到模型目标 [0,1]。
func (l *System) update(fb *core.FeedbackEvent) {
	features := extractFeatures(fb)
	actual := (fb.Value + 1) / 2
	predicted := l.mdl.Predict(features)
	err := actual - predicted

	for k, x := range features {
		l.mdl.SetWeight(k, l.mdl.Weight(k)+l.lr*err*x)
	}
	l.mdl.Scale(1 - l.lambda)

	l.logger.Debug("model updated",
		zap.String("user_id", fb.UserID),
		zap.Float64("actual", actual),
		zap.Float64("predicted", predicted),
		zap.Float64("error", err))
}
