package features

import (
	"errors"
	"fmt"
	"strings"

	"jarvis/internal/model"
)

// ErrNoMapping 表示该模型没有注册参数映射规则,调用方需要走显式特征向量。
var ErrNoMapping = errors.New("no feature mapping for model")

// ConversionError 某个参数无法转成特征值,会带上模型名和出错字段。
type ConversionError struct {
	Model string
	Field string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("模型 %s 的参数 %s 无法转换: %v", e.Model, e.Field, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Rule 把调用方的命名参数翻译成一条特征向量。
// bundle 可能为 nil(模型未加载时仍可用于语音解析的 dry-run)。
type Rule func(params map[string]any, b *model.Bundle) ([]float64, error)

// Mapper 持有按模型名注册的映射规则和估算常数。
type Mapper struct {
	h     Heuristics
	rules map[string]Rule
}

// NewMapper 注册全部内置规则。
func NewMapper(h Heuristics) *Mapper {
	m := &Mapper{h: h, rules: map[string]Rule{}}
	m.rules["car_price"] = m.carRule
	m.rules["bmi_model"] = m.bmiRule
	m.rules["bitcoin_model"] = m.marketRule("bitcoin_model", "horizon_days")
	m.rules["sp500_model"] = m.marketRule("sp500_model", "horizon_days")
	m.rules["avocado_price"] = m.avocadoRule
	m.rules["london_crime"] = m.londonRule
	m.rules["chicago_crime"] = m.chicagoRule
	m.rules["cirrhosis_model"] = m.cirrhosisRule
	m.rules["airline_delay"] = m.airlineRule
	return m
}

// Has 判断模型是否有注册规则。
func (m *Mapper) Has(name string) bool {
	_, ok := m.rules[name]
	return ok
}

// Build 执行映射,没有规则时返回 ErrNoMapping。
func (m *Mapper) Build(name string, params map[string]any, b *model.Bundle) ([]float64, error) {
	rule, ok := m.rules[name]
	if !ok {
		return nil, ErrNoMapping
	}
	return rule(normalizeKeys(params), b)
}

// normalizeKeys 参数键统一小写,调用方传 N_Days 和 n_days 都认。
func normalizeKeys(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

// paramFloat 取数值参数,缺失返回 (def, nil),类型不对返回 ConversionError。
func paramFloat(modelName string, params map[string]any, key string, def float64) (float64, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return def, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, &ConversionError{Model: modelName, Field: key, Err: err}
	}
	return f, nil
}

// paramString 取字符串参数,非字符串值格式化后返回。
func paramString(params map[string]any, key, def string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		if strings.TrimSpace(s) == "" {
			return def
		}
		return strings.TrimSpace(s)
	}
	return fmt.Sprintf("%v", v)
}

// hasAny 判断参数里是否出现任意一个键。
func hasAny(params map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := params[k]; ok {
			return true
		}
	}
	return false
}

// encode 用 bundle 里的标签编码器转码,没有编码器或没命中按 0。
func encode(b *model.Bundle, encoderName, value string) float64 {
	if b == nil {
		return 0
	}
	enc, ok := b.Encoder(encoderName)
	if !ok {
		return 0
	}
	code, _ := enc.TransformOrFallback(value)
	return float64(code)
}
