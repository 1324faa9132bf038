package inference

import (
	"context"
	"sort"
	"strconv"

	"jarvis/internal/features"
	"jarvis/internal/logger"
	"jarvis/internal/model"
	"jarvis/internal/recommend"
	"jarvis/internal/store"
)

// Result 一次推理的完整回执。回归器只填 Prediction;分类器额外带
// 解码后的 Class 和按类别展开的 Proba;推荐器只填 Recommendations。
type Result struct {
	Model           string                     `json:"model"`
	Input           []float64                  `json:"input,omitempty"`
	Prediction      float64                    `json:"prediction"`
	Class           string                     `json:"class,omitempty"`
	Proba           map[string]float64         `json:"proba,omitempty"`
	Recommendations []recommend.Recommendation `json:"recommendations,omitempty"`
}

// Router 统一的推理入口:别名解析、参数到特征的翻译、估计器分发
// 都收在这一层,HTTP 和文本指令两条链路共用。
type Router struct {
	reg    *store.Registry
	mapper *features.Mapper
	topK   int
}

func NewRouter(reg *store.Registry, mapper *features.Mapper, topK int) *Router {
	if topK <= 0 {
		topK = 5
	}
	return &Router{reg: reg, mapper: mapper, topK: topK}
}

// Predict 对指定模型执行一次推理。features 非空时按调用方给出的顺序
// 原样送入估计器;否则由映射规则从命名参数构造向量;没有映射规则的模型
// 按参数键排序后的值做位置兜底。features 和 params 都缺时返回 ErrNoInput。
func (r *Router) Predict(ctx context.Context, name string, featureVec []float64, params map[string]any) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !r.reg.Ready() {
		return nil, &NotReadyError{Dir: r.reg.Dir()}
	}
	b, ok := r.reg.Get(name)
	if !ok {
		return nil, &NotFoundError{Model: name, Available: r.reg.Names()}
	}
	canonical := r.reg.Resolve(name)

	// 两个输入都缺时直接拒绝,不允许落到映射规则凭默认值编造结果
	if len(featureVec) == 0 && params == nil {
		return nil, ErrNoInput
	}

	if b.IsRecommender() {
		return r.recommendTop(canonical, b, params)
	}
	if b.Estimator == nil {
		return nil, &InferenceError{Model: canonical, Err: errNoEstimator}
	}

	vec, err := r.buildVector(canonical, b, featureVec, params)
	if err != nil {
		return nil, err
	}

	pred, err := b.Estimator.Predict(vec)
	if err != nil {
		return nil, &InferenceError{Model: canonical, Input: vec, Err: err}
	}

	res := &Result{Model: canonical, Input: vec, Prediction: pred}
	if p, hasProba := b.Proba(); hasProba {
		probs, perr := p.PredictProba(vec)
		if perr != nil {
			logger.Warnf("模型 %s 概率计算失败: %v", canonical, perr)
		} else {
			res.Proba = r.labelProba(b, probs)
			if cls, decoded := b.DecodeClass(int(pred)); decoded {
				res.Class = cls
			}
		}
	}
	return res, nil
}

var errNoEstimator = &emptyEstimatorError{}

type emptyEstimatorError struct{}

func (*emptyEstimatorError) Error() string { return "工件未携带估计器" }

func (r *Router) buildVector(name string, b *model.Bundle, featureVec []float64, params map[string]any) ([]float64, error) {
	if len(featureVec) > 0 {
		return featureVec, nil
	}
	if r.mapper != nil && r.mapper.Has(name) {
		return r.mapper.Build(name, params, b)
	}
	return positionalVector(name, params)
}

// positionalVector 没有映射规则的模型:参数按键名排序后取值,
// 顺序确定且可复现。
func positionalVector(name string, params map[string]any) ([]float64, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	vec := make([]float64, 0, len(keys))
	for _, k := range keys {
		f, err := features.ToFloat(params[k])
		if err != nil {
			return nil, &features.ConversionError{Model: name, Field: k, Err: err}
		}
		vec = append(vec, f)
	}
	return vec, nil
}

// labelProba 把概率数组按目标解码器展开成 标签->概率;
// 没有解码器时用类别下标当键。
func (r *Router) labelProba(b *model.Bundle, probs []float64) map[string]float64 {
	out := make(map[string]float64, len(probs))
	for i, p := range probs {
		label, ok := b.DecodeClass(i)
		if !ok {
			label = strconv.Itoa(i)
		}
		out[label] = p
	}
	return out
}

func (r *Router) recommendTop(name string, b *model.Bundle, params map[string]any) (*Result, error) {
	k := r.topK
	if v, ok := params["top_k"]; ok {
		f, err := features.ToFloat(v)
		if err != nil {
			return nil, &features.ConversionError{Model: name, Field: "top_k", Err: err}
		}
		if f > 0 {
			k = int(f)
		}
	}
	var f recommend.Filter
	if v, ok := params["year"]; ok && v != nil {
		y, err := features.ToFloat(v)
		if err != nil {
			return nil, &features.ConversionError{Model: name, Field: "year", Err: err}
		}
		year := int(y)
		f.Year = &year
	}
	if v, ok := params["genre"]; ok {
		if s, isStr := v.(string); isStr {
			f.Genre = s
		}
	}
	return &Result{Model: name, Recommendations: b.Catalog.TopK(k, f)}, nil
}
