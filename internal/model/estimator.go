// Package model 定义纯 Go 估计器与模型工件的反序列化。
// 工件是训练侧导出的 JSON 文件,加载后整个生命周期只读。
package model

import "fmt"

// Estimator 暴露单行预测。实现必须校验维度,长度不符返回错误而不是静默算错。
type Estimator interface {
	Predict(x []float64) (float64, error)
	NumFeatures() int
}

// ProbaEstimator 额外暴露各类别概率（分类器）。
type ProbaEstimator interface {
	Estimator
	PredictProba(x []float64) ([]float64, error)
}

func checkDim(got, want int) error {
	if want > 0 && got != want {
		return fmt.Errorf("特征维度不符: got %d, want %d", got, want)
	}
	return nil
}
