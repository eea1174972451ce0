package model

import (
	"os"
	"sync"

	"github.com/goccy/go-json"
)

// Linear 是线性打分模型：推荐反馈预估最基础的形态。
//
// 预测原理：score = Bias + sum(Weight_i * Feature_i)，结果钳制在 [0,1]。
// 权重支持在线更新（SGD），learning 包在每条反馈后调用 SetWeight。
type Linear struct {
	mu      sync.RWMutex
	bias    float64
	weights map[string]float64
}

func NewLinear(weights map[string]float64, bias float64) *Linear {
	w := make(map[string]float64, len(weights))
	for k, v := range weights {
		w[k] = v
	}
	return &Linear{bias: bias, weights: w}
}

// LoadLinear 从 JSON 文件加载模型（{"bias": .., "weights": {..}}）。
func LoadLinear(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Bias    float64            `json:"bias"`
		Weights map[string]float64 `json:"weights"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return NewLinear(raw.Weights, raw.Bias), nil
}

func (m *Linear) Name() string { return "linear" }

// Predict 线性加权求和，结果钳制在 [0,1]。
func (m *Linear) Predict(features map[string]float64) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	score := m.bias
	for k, v := range features {
		if w, ok := m.weights[k]; ok {
			score += w * v
		}
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Weight 返回单个特征权重。
func (m *Linear) Weight(feature string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.weights[feature]
}

// SetWeight 设置单个特征权重。
func (m *Linear) SetWeight(feature string, w float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weights[feature] = w
}

// Scale 将全部权重乘以系数（L2 正则收缩）。
func (m *Linear) Scale(factor float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.weights {
		m.weights[k] *= factor
	}
}

// Snapshot 返回当前权重的副本。
func (m *Linear) Snapshot() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]float64, len(m.weights))
	for k, v := range m.weights {
		out[k] = v
	}
	return out
}
