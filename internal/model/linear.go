package model

import "errors"

// LinearRegressor 对应 sklearn LinearRegression/Ridge 导出的截距+系数。
type LinearRegressor struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

func (l *LinearRegressor) NumFeatures() int { return len(l.Coefficients) }

func (l *LinearRegressor) Predict(x []float64) (float64, error) {
	if len(l.Coefficients) == 0 {
		return 0, errors.New("线性模型没有系数")
	}
	if err := checkDim(len(x), len(l.Coefficients)); err != nil {
		return 0, err
	}
	y := l.Intercept
	for i, c := range l.Coefficients {
		y += c * x[i]
	}
	return y, nil
}
