package model

import "strings"

// fallbackClass 训练侧把低频类别归并到的桶名。
const fallbackClass = "OTHER"

// LabelEncoder 对应训练侧拟合的类别编码器：Classes 的顺序就是编码。
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// Transform 返回类别下标。匹配不区分大小写。
func (e *LabelEncoder) Transform(value string) (int, bool) {
	if e == nil {
		return 0, false
	}
	value = strings.TrimSpace(value)
	for i, c := range e.Classes {
		if strings.EqualFold(c, value) {
			return i, true
		}
	}
	return 0, false
}

// TransformOrFallback 未见过的类别回退到 OTHER 桶；没有 OTHER 时回退到 0。
// 返回的 bool 表示是否发生了回退。
func (e *LabelEncoder) TransformOrFallback(value string) (int, bool) {
	if idx, ok := e.Transform(value); ok {
		return idx, false
	}
	if idx, ok := e.Transform(fallbackClass); ok {
		return idx, true
	}
	return 0, true
}

// Inverse 把编码还原成类别名。
func (e *LabelEncoder) Inverse(idx int) (string, bool) {
	if e == nil || idx < 0 || idx >= len(e.Classes) {
		return "", false
	}
	return e.Classes[idx], true
}

// Len 返回类别数。
func (e *LabelEncoder) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Classes)
}
