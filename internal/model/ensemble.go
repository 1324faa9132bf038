package model

import "errors"

// ForestRegressor 随机森林回归,输出各树均值。
type ForestRegressor struct {
	Features int          `json:"n_features"`
	Trees    [][]treeNode `json:"trees"`
}

func (f *ForestRegressor) NumFeatures() int { return f.Features }

func (f *ForestRegressor) Predict(x []float64) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, errors.New("森林为空")
	}
	if err := checkDim(len(x), f.Features); err != nil {
		return 0, err
	}
	sum := 0.0
	for _, nodes := range f.Trees {
		leaf, err := walkTree(nodes, x)
		if err != nil {
			return 0, err
		}
		sum += leaf.Value
	}
	return sum / float64(len(f.Trees)), nil
}

// ForestClassifier 随机森林分类,平均各树类别分布后取 argmax。
type ForestClassifier struct {
	Features int          `json:"n_features"`
	Classes  int          `json:"n_classes"`
	Trees    [][]treeNode `json:"trees"`
}

func (f *ForestClassifier) NumFeatures() int { return f.Features }

func (f *ForestClassifier) Predict(x []float64) (float64, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return float64(argmax(proba)), nil
}

func (f *ForestClassifier) PredictProba(x []float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, errors.New("森林为空")
	}
	if err := checkDim(len(x), f.Features); err != nil {
		return nil, err
	}
	var acc []float64
	for _, nodes := range f.Trees {
		leaf, err := walkTree(nodes, x)
		if err != nil {
			return nil, err
		}
		dist, err := normalizeDistribution(leaf.Distribution, f.Classes)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = make([]float64, len(dist))
		} else if len(acc) != len(dist) {
			return nil, errors.New("森林各树类别数不一致")
		}
		for i, v := range dist {
			acc[i] += v
		}
	}
	for i := range acc {
		acc[i] /= float64(len(f.Trees))
	}
	return acc, nil
}

// GradientBoostingRegressor 梯度提升回归: init + lr * Σ tree(x)。
type GradientBoostingRegressor struct {
	Features     int          `json:"n_features"`
	Init         float64      `json:"init"`
	LearningRate float64      `json:"learning_rate"`
	Trees        [][]treeNode `json:"trees"`
}

func (g *GradientBoostingRegressor) NumFeatures() int { return g.Features }

func (g *GradientBoostingRegressor) Predict(x []float64) (float64, error) {
	if err := checkDim(len(x), g.Features); err != nil {
		return 0, err
	}
	lr := g.LearningRate
	if lr == 0 {
		lr = 0.1
	}
	y := g.Init
	for _, nodes := range g.Trees {
		leaf, err := walkTree(nodes, x)
		if err != nil {
			return 0, err
		}
		y += lr * leaf.Value
	}
	return y, nil
}
