package model

import (
	"time"

	"jarvis/internal/recommend"
)

// Bundle 是所有已加载工件的统一形态:裸估计器归一成只带 Name+Estimator 的
// Bundle,打包工件额外携带列序/编码器/参考日期,推荐器只带 Catalog。
// 加载完成后只读,可被并发请求共享。
type Bundle struct {
	Name      string
	Estimator Estimator
	// FeatureCols 训练时的列序。空表示工件未声明（简化工件）。
	FeatureCols []string
	// Encoders 字段名 -> 拟合好的类别编码器。
	Encoders map[string]*LabelEncoder
	// Target 目标类别解码器（分类器）。
	Target *LabelEncoder
	// LastDate 训练数据最后观测日,time 零值表示未声明。
	LastDate time.Time
	// BaseFeatures 最后一行观测特征,时序模型填充滞后列用。
	BaseFeatures map[string]float64
	// Catalog 推荐器目录,非 nil 表示该工件是推荐器而非估计器。
	Catalog *recommend.Catalog
}

// IsRecommender 工件是否是推荐器。
func (b *Bundle) IsRecommender() bool {
	return b != nil && b.Catalog != nil
}

// Proba 返回概率接口（若底层估计器支持）。
func (b *Bundle) Proba() (ProbaEstimator, bool) {
	if b == nil || b.Estimator == nil {
		return nil, false
	}
	p, ok := b.Estimator.(ProbaEstimator)
	return p, ok
}

// Encoder 按字段名取编码器。
func (b *Bundle) Encoder(field string) (*LabelEncoder, bool) {
	if b == nil || b.Encoders == nil {
		return nil, false
	}
	enc, ok := b.Encoders[field]
	return enc, ok && enc != nil
}

// BaseFeature 取最后观测行中某列的值。
func (b *Bundle) BaseFeature(col string) (float64, bool) {
	if b == nil || b.BaseFeatures == nil {
		return 0, false
	}
	v, ok := b.BaseFeatures[col]
	return v, ok
}

// DecodeClass 用目标解码器把类别下标还原成标签;没有解码器时返回 ok=false。
func (b *Bundle) DecodeClass(idx int) (string, bool) {
	if b == nil || b.Target == nil {
		return "", false
	}
	return b.Target.Inverse(idx)
}
