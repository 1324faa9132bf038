package model

import (
	"errors"
	"fmt"
)

// treeNode 是扁平数组里的一个节点。叶子节点用 Value（回归）或
// Distribution（分类,按类别下标）承载输出。
type treeNode struct {
	Feature      int       `json:"feature"`
	Threshold    float64   `json:"threshold"`
	Left         int       `json:"left"`
	Right        int       `json:"right"`
	Leaf         bool      `json:"leaf"`
	Value        float64   `json:"value,omitempty"`
	Distribution []float64 `json:"distribution,omitempty"`
}

// walkTree 从根走到叶子,x 已经过维度校验。
func walkTree(nodes []treeNode, x []float64) (*treeNode, error) {
	if len(nodes) == 0 {
		return nil, errors.New("空树")
	}
	idx := 0
	for steps := 0; steps <= len(nodes); steps++ {
		node := &nodes[idx]
		if node.Leaf {
			return node, nil
		}
		if node.Feature < 0 || node.Feature >= len(x) {
			return nil, fmt.Errorf("节点特征下标越界: %d", node.Feature)
		}
		if x[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
		if idx < 0 || idx >= len(nodes) {
			return nil, fmt.Errorf("树结构损坏: 子节点下标 %d", idx)
		}
	}
	return nil, errors.New("树深度异常（疑似环）")
}

// TreeRegressor 回归树。
type TreeRegressor struct {
	Features int        `json:"n_features"`
	Nodes    []treeNode `json:"nodes"`
}

func (t *TreeRegressor) NumFeatures() int { return t.Features }

func (t *TreeRegressor) Predict(x []float64) (float64, error) {
	if err := checkDim(len(x), t.Features); err != nil {
		return 0, err
	}
	leaf, err := walkTree(t.Nodes, x)
	if err != nil {
		return 0, err
	}
	return leaf.Value, nil
}

// TreeClassifier 分类树,叶子携带类别分布。Predict 返回 argmax 的类别下标。
type TreeClassifier struct {
	Features int        `json:"n_features"`
	Classes  int        `json:"n_classes"`
	Nodes    []treeNode `json:"nodes"`
}

func (t *TreeClassifier) NumFeatures() int { return t.Features }

func (t *TreeClassifier) Predict(x []float64) (float64, error) {
	proba, err := t.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return float64(argmax(proba)), nil
}

func (t *TreeClassifier) PredictProba(x []float64) ([]float64, error) {
	if err := checkDim(len(x), t.Features); err != nil {
		return nil, err
	}
	leaf, err := walkTree(t.Nodes, x)
	if err != nil {
		return nil, err
	}
	return normalizeDistribution(leaf.Distribution, t.Classes)
}

func argmax(vals []float64) int {
	best := 0
	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}
	return best
}

func normalizeDistribution(dist []float64, classes int) ([]float64, error) {
	if len(dist) == 0 {
		return nil, errors.New("叶子缺少类别分布")
	}
	if classes > 0 && len(dist) != classes {
		return nil, fmt.Errorf("类别分布长度不符: got %d, want %d", len(dist), classes)
	}
	total := 0.0
	for _, v := range dist {
		if v < 0 {
			return nil, errors.New("类别分布出现负值")
		}
		total += v
	}
	out := make([]float64, len(dist))
	if total == 0 {
		return out, nil
	}
	for i, v := range dist {
		out[i] = v / total
	}
	return out, nil
}
