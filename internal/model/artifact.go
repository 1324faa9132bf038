package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"jarvis/internal/recommend"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// 工件 JSON 两种形态:
//   - 打包: {"estimator": {"type": ...}, "feature_cols": [...], "encoders": {...},
//     "label_encoder": {...}, "last_date": "2021-03-01", "base_features": {...}}
//   - 裸估计器: {"type": "linear_regression", ...}（推荐器目录也走这条:
//     {"type": "movie_catalog", "movies": [...]}）
// 先过 JSON Schema,再解码;损坏的文件由调用方记日志并跳过。

var artifactSchema = mustCompileSchema(`{
  "type": "object",
  "anyOf": [
    {"required": ["estimator"]},
    {"required": ["type"]}
  ],
  "properties": {
    "estimator": {
      "type": "object",
      "required": ["type"],
      "properties": {"type": {"type": "string", "minLength": 1}}
    },
    "type": {"type": "string", "minLength": 1},
    "feature_cols": {"type": "array", "items": {"type": "string"}},
    "encoders": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["classes"],
        "properties": {"classes": {"type": "array", "items": {"type": "string"}}}
      }
    },
    "label_encoder": {
      "type": "object",
      "required": ["classes"],
      "properties": {"classes": {"type": "array", "items": {"type": "string"}}}
    },
    "last_date": {"type": "string"},
    "base_features": {"type": "object", "additionalProperties": {"type": "number"}}
  }
}`)

type artifactFile struct {
	Estimator    json.RawMessage          `json:"estimator"`
	FeatureCols  []string                 `json:"feature_cols"`
	Encoders     map[string]*LabelEncoder `json:"encoders"`
	LabelEncoder *LabelEncoder            `json:"label_encoder"`
	LastDate     string                   `json:"last_date"`
	BaseFeatures map[string]float64       `json:"base_features"`
}

type estimatorEnvelope struct {
	Type string `json:"type"`
}

func mustCompileSchema(raw string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("artifact.schema.json", strings.NewReader(raw)); err != nil {
		panic(err)
	}
	schema, err := compiler.Compile("artifact.schema.json")
	if err != nil {
		panic(err)
	}
	return schema
}

// DecodeArtifact 校验并解码一个工件文件,返回归一化的 Bundle。
func DecodeArtifact(name string, data []byte) (*Bundle, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("工件不是合法 JSON: %w", err)
	}
	if err := artifactSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("工件 schema 校验失败: %w", err)
	}

	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	raw := file.Estimator
	if raw == nil {
		// 裸形态:整个文件就是估计器。
		raw = json.RawMessage(data)
	}

	bundle := &Bundle{
		Name:         name,
		FeatureCols:  file.FeatureCols,
		Encoders:     file.Encoders,
		Target:       file.LabelEncoder,
		BaseFeatures: file.BaseFeatures,
	}
	if strings.TrimSpace(file.LastDate) != "" {
		ts, err := time.Parse("2006-01-02", strings.TrimSpace(file.LastDate))
		if err != nil {
			return nil, fmt.Errorf("last_date 解析失败: %w", err)
		}
		bundle.LastDate = ts
	}

	var env estimatorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	kind := strings.ToLower(strings.TrimSpace(env.Type))
	if kind == "movie_catalog" {
		var payload struct {
			Movies []recommend.Movie `json:"movies"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("目录解码失败: %w", err)
		}
		bundle.Catalog = recommend.NewCatalog(payload.Movies)
		return bundle, nil
	}

	est, err := decodeEstimator(kind, raw)
	if err != nil {
		return nil, err
	}
	bundle.Estimator = est
	return bundle, nil
}

func decodeEstimator(kind string, raw json.RawMessage) (Estimator, error) {
	var est Estimator
	switch kind {
	case "linear_regression", "ridge":
		est = &LinearRegressor{}
	case "decision_tree_regressor":
		est = &TreeRegressor{}
	case "decision_tree_classifier":
		est = &TreeClassifier{}
	case "random_forest_regressor":
		est = &ForestRegressor{}
	case "random_forest_classifier":
		est = &ForestClassifier{}
	case "gradient_boosting_regressor":
		est = &GradientBoostingRegressor{}
	default:
		return nil, fmt.Errorf("未知估计器类型: %q", kind)
	}
	if err := json.Unmarshal(raw, est); err != nil {
		return nil, fmt.Errorf("估计器解码失败 (%s): %w", kind, err)
	}
	return est, nil
}

// Kind 返回估计器的类型名,用于工件元数据展示。
func Kind(e Estimator) string {
	switch e.(type) {
	case *LinearRegressor:
		return "linear_regression"
	case *TreeRegressor:
		return "decision_tree_regressor"
	case *TreeClassifier:
		return "decision_tree_classifier"
	case *ForestRegressor:
		return "random_forest_regressor"
	case *ForestClassifier:
		return "random_forest_classifier"
	case *GradientBoostingRegressor:
		return "gradient_boosting_regressor"
	default:
		return "unknown"
	}
}
