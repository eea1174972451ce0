package learning

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/periodhub/personakit/core"
)

// ABTestConfig 是一次两臂对照实验的配置。
type ABTestConfig struct {
	TestID   string
	UserIDs  []string
	ModelA   string // 变体 A 标识
	ModelB   string // 变体 B 标识
	Duration time.Duration

	// EvalInterval 评估周期，默认 24h
	EvalInterval time.Duration

	// Evaluate 自定义评估函数（按变体聚合指标）。
	// 缺省时用该变体用户的反馈历史做后验估计。
	Evaluate func(modelID string, users []string) core.LearningMetrics
}

// RunTest 运行一次 A/B 测试：用户按奇偶均分到两个变体，周期性评估，
// 显著性超过 0.95 时提前判定胜者。ctx 取消时返回当前进度。
//
// 显著性用双尾 z 检验估计，比例型指标的方差保守取 0.25。
func (l *System) RunTest(ctx context.Context, cfg ABTestConfig) (*core.ABTestResult, error) {
	if len(cfg.UserIDs) < 2 {
		return nil, core.NewDomainError(core.ModuleLearning, core.ErrorCodeInvalidInput, "learning: ab test requires at least 2 users")
	}
	interval := cfg.EvalInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	evaluate := cfg.Evaluate
	if evaluate == nil {
		evaluate = func(_ string, users []string) core.LearningMetrics {
			return l.armMetrics(users)
		}
	}

	// 奇偶分流：确定性分配，同一用户在整个实验期固定在一个变体
	var usersA, usersB []string
	for i, uid := range cfg.UserIDs {
		if i%2 == 0 {
			usersA = append(usersA, uid)
		} else {
			usersB = append(usersB, uid)
		}
	}

	start := time.Now()
	result := &core.ABTestResult{
		TestID:   cfg.TestID,
		VariantA: core.ModelPerformance{ModelID: cfg.ModelA},
		VariantB: core.ModelPerformance{ModelID: cfg.ModelB},
	}

	assess := func() {
		now := time.Now()
		result.VariantA.Metrics = evaluate(cfg.ModelA, usersA)
		result.VariantA.SampleSize = len(usersA)
		result.VariantA.LastUpdated = now
		result.VariantA.Confidence = core.Clamp01(float64(len(usersA)) / 100)

		result.VariantB.Metrics = evaluate(cfg.ModelB, usersB)
		result.VariantB.SampleSize = len(usersB)
		result.VariantB.LastUpdated = now
		result.VariantB.Confidence = core.Clamp01(float64(len(usersB)) / 100)

		scoreA := compositeScore(result.VariantA.Metrics)
		scoreB := compositeScore(result.VariantB.Metrics)
		result.StatisticalSignificance = significance(scoreA, scoreB, len(usersA), len(usersB))

		result.WinnerModel = ""
		if result.StatisticalSignificance > 0.95 {
			if scoreA > scoreB {
				result.WinnerModel = cfg.ModelA
			} else {
				result.WinnerModel = cfg.ModelB
			}
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.NewTimer(cfg.Duration)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			assess()
			result.TestDuration = time.Since(start)
			return result, ctx.Err()
		case <-deadline.C:
			assess()
			result.TestDuration = time.Since(start)
			l.logger.Info("ab test finished",
				zap.String("test_id", cfg.TestID),
				zap.String("winner", result.WinnerModel),
				zap.Float64("significance", result.StatisticalSignificance))
			return result, nil
		case <-ticker.C:
			assess()
			if result.WinnerModel != "" {
				result.TestDuration = time.Since(start)
				l.logger.Info("ab test early stop",
					zap.String("test_id", cfg.TestID),
					zap.String("winner", result.WinnerModel),
					zap.Float64("significance", result.StatisticalSignificance))
				return result, nil
			}
		}
	}
}

// armMetrics 用一组用户的反馈历史做后验指标估计。
func (l *System) armMetrics(users []string) core.LearningMetrics {
	var metrics core.LearningMetrics
	var (
		total      int
		positives  int
		conversion int
		valueSum   float64
	)
	for _, uid := range users {
		for _, fb := range l.Feedback(uid) {
			total++
			valueSum += fb.Value
			if fb.Type == core.FeedbackPositive {
				positives++
			}
			if fb.Value > 0.8 {
				conversion++
			}
		}
	}
	if total == 0 {
		return metrics
	}
	positiveRate := float64(positives) / float64(total)
	metrics.Precision = positiveRate
	metrics.Recall = positiveRate
	metrics.ClickThroughRate = positiveRate
	metrics.ConversionRate = float64(conversion) / float64(total)
	metrics.UserSatisfaction = valueSum / float64(total)
	return metrics
}

// significance 双尾 z 检验：返回 1 - p 值。
// 比例型指标方差保守上界 p(1-p) <= 0.25。
func significance(scoreA, scoreB float64, nA, nB int) float64 {
	if nA == 0 || nB == 0 {
		return 0
	}
	const pooledVariance = 0.25
	se := math.Sqrt(pooledVariance * (1/float64(nA) + 1/float64(nB)))
	if se == 0 {
		return 0
	}
	z := math.Abs(scoreA-scoreB) / se
	p := 2 * (1 - normalCDF(z))
	return core.Clamp01(1 - p)
}

// normalCDF 标准正态分布函数的初等近似（Zelen & Severo）。
func normalCDF(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	return 0.5 * (1 + sign*math.Sqrt(1-math.Exp(-2*x*x/math.Pi)))
}
