package features

import (
	"jarvis/internal/model"
)

// carRule 二手车报价:[年份, 指导价, 公里数, 燃料, 卖家类型, 变速箱, 过户次数]。
// 调用方通常只给 year 和 km,其余列用折旧启发式补齐。
func (m *Mapper) carRule(params map[string]any, b *model.Bundle) ([]float64, error) {
	const name = "car_price"
	year, err := paramFloat(name, params, "year", float64(m.h.Car.ReferenceYear))
	if err != nil {
		return nil, err
	}
	km, err := paramFloat(name, params, "km", 0)
	if err != nil {
		return nil, err
	}
	fuel, err := paramFloat(name, params, "fuel_type", 0)
	if err != nil {
		return nil, err
	}
	seller, err := paramFloat(name, params, "seller_type", 0)
	if err != nil {
		return nil, err
	}
	trans, err := paramFloat(name, params, "transmission", 0)
	if err != nil {
		return nil, err
	}
	owner, err := paramFloat(name, params, "owner", m.h.Car.OwnerEstimate(year))
	if err != nil {
		return nil, err
	}
	return []float64{year, m.h.Car.PresentPrice(year), km, fuel, seller, trans, owner}, nil
}

// bmiRule 体脂:[身高 m, 体重 kg, 年龄]。
func (m *Mapper) bmiRule(params map[string]any, b *model.Bundle) ([]float64, error) {
	const name = "bmi_model"
	height, err := paramFloat(name, params, "height", m.h.BMI.Height)
	if err != nil {
		return nil, err
	}
	weight, err := paramFloat(name, params, "weight", m.h.BMI.Weight)
	if err != nil {
		return nil, err
	}
	age, err := paramFloat(name, params, "age", m.h.BMI.Age)
	if err != nil {
		return nil, err
	}
	return []float64{height, weight, age}, nil
}

// marketRule 价格序列模型(比特币/标普)。天数跨度写进 horizonCol,
// 其余列从制品里保存的最新一行基准特征回填;制品没带列描述时退化成
// 单元素向量 [天数]。
func (m *Mapper) marketRule(name, horizonCol string) Rule {
	return func(params map[string]any, b *model.Bundle) ([]float64, error) {
		days, err := HorizonDays(params)
		if err != nil {
			return nil, &ConversionError{Model: name, Field: "days", Err: err}
		}
		if b == nil || len(b.FeatureCols) == 0 {
			return []float64{days}, nil
		}
		vec := make([]float64, len(b.FeatureCols))
		for i, col := range b.FeatureCols {
			if col == horizonCol {
				vec[i] = days
				continue
			}
			v, _ := b.BaseFeature(col)
			vec[i] = v
		}
		return vec, nil
	}
}

// avocadoRule 牛油果价格:销量列回填基准值,品类/产区走标签编码,
// 年份按基准日期加上月数跨度推算。
func (m *Mapper) avocadoRule(params map[string]any, b *model.Bundle) ([]float64, error) {
	const name = "avocado_price"
	months, err := HorizonMonths(params)
	if err != nil {
		return nil, &ConversionError{Model: name, Field: "months", Err: err}
	}
	if b == nil || len(b.FeatureCols) == 0 {
		return []float64{months}, nil
	}
	kind := paramString(params, "type", m.h.Avocado.Type)
	region := paramString(params, "region", m.h.Avocado.Region)
	vec := make([]float64, len(b.FeatureCols))
	for i, col := range b.FeatureCols {
		switch col {
		case "type_le":
			vec[i] = encode(b, "type", kind)
		case "region_le":
			vec[i] = encode(b, "region", region)
		case "year":
			vec[i] = m.projectedYear(b, months)
		default:
			v, _ := b.BaseFeature(col)
			vec[i] = v
		}
	}
	return vec, nil
}

// projectedYear 基准日期加月数取年份,制品没带日期时用基准特征兜底。
func (m *Mapper) projectedYear(b *model.Bundle, months float64) float64 {
	if !b.LastDate.IsZero() {
		return float64(b.LastDate.AddDate(0, int(months), 0).Year())
	}
	if y, ok := b.BaseFeature("year"); ok {
		return y
	}
	return 0
}

// londonRule 伦敦犯罪量:[月份, 星期, 行政区编码]。
func (m *Mapper) londonRule(params map[string]any, b *model.Bundle) ([]float64, error) {
	const name = "london_crime"
	month, err := m.monthOrDefault(name, params)
	if err != nil {
		return nil, err
	}
	dow, err := m.dayOfWeekOrDefault(name, params, "day", "day_of_week")
	if err != nil {
		return nil, err
	}
	borough := encode(b, "borough", paramString(params, "borough", ""))
	return []float64{month, dow, borough}, nil
}

// chicagoRule 芝加哥犯罪量:[星期, 月份, 社区编号]。
func (m *Mapper) chicagoRule(params map[string]any, b *model.Bundle) ([]float64, error) {
	const name = "chicago_crime"
	dow, err := m.dayOfWeekOrDefault(name, params, "day", "day_of_week")
	if err != nil {
		return nil, err
	}
	month, err := m.monthOrDefault(name, params)
	if err != nil {
		return nil, err
	}
	area, err := paramFloat(name, params, "community_area", m.h.CrimeTime.CommunityArea)
	if err != nil {
		return nil, err
	}
	return []float64{dow, month, area}, nil
}

func (m *Mapper) monthOrDefault(name string, params map[string]any) (float64, error) {
	v, ok := params["month"]
	if !ok || v == nil {
		return m.h.CrimeTime.Month, nil
	}
	n, err := MonthNumber(v)
	if err != nil {
		return 0, &ConversionError{Model: name, Field: "month", Err: err}
	}
	return float64(n), nil
}

func (m *Mapper) dayOfWeekOrDefault(name string, params map[string]any, keys ...string) (float64, error) {
	for _, key := range keys {
		v, ok := params[key]
		if !ok || v == nil {
			continue
		}
		n, err := DayOfWeek(v)
		if err != nil {
			return 0, &ConversionError{Model: name, Field: key, Err: err}
		}
		return float64(n), nil
	}
	return m.h.Airline.DayOfWeek, nil
}

// cirrhosisColumns 临床特征的列序,与训练脚本一致:
// 11 项化验指标、4 项体征布尔量,最后是性别和用药的编码。
var cirrhosisColumns = []string{
	"n_days", "age", "bilirubin", "cholesterol", "albumin",
	"copper", "alk_phos", "sgot", "tryglicerides", "platelets",
	"prothrombin", "ascites", "hepatomegaly", "spiders", "edema",
}

// cirrhosisRule 肝硬化分期:缺省值取训练集中位数量级,
// 体征字段接受 Y/N 或 0/1。
func (m *Mapper) cirrhosisRule(params map[string]any, b *model.Bundle) ([]float64, error) {
	const name = "cirrhosis_model"
	vec := make([]float64, 0, len(cirrhosisColumns)+2)
	for _, col := range cirrhosisColumns {
		v, ok := params[col]
		if !ok || v == nil {
			vec = append(vec, m.h.ClinicalDefault(col))
			continue
		}
		f, err := clinicalValue(v)
		if err != nil {
			return nil, &ConversionError{Model: name, Field: col, Err: err}
		}
		vec = append(vec, f)
	}
	vec = append(vec, encode(b, "sex", paramString(params, "sex", "M")))
	vec = append(vec, encode(b, "drug", paramString(params, "drug", "Placebo")))
	return vec, nil
}

// clinicalValue 布尔式体征 Y/N/S(sí) 映射成 1/0,其余按数值解析。
func clinicalValue(v any) (float64, error) {
	if s, ok := v.(string); ok {
		switch foldKey(s) {
		case "y", "yes", "s", "si":
			return 1, nil
		case "n", "no":
			return 0, nil
		}
	}
	return toFloat(v)
}

// airlineRule 航班延误:[月, 日, 星期, 计划起飞, 计划到达, 计划时长,
// 距离, 出发地编码, 目的地编码, 承运人编码]。
// 机场与承运人用 Top-50 编码器,不在表里的统一落到 OTHER 桶。
func (m *Mapper) airlineRule(params map[string]any, b *model.Bundle) ([]float64, error) {
	const name = "airline_delay"
	month, err := m.airlineMonth(name, params)
	if err != nil {
		return nil, err
	}
	day, err := paramFloat(name, params, "day", m.h.Airline.DayOfMonth)
	if err != nil {
		return nil, err
	}
	dow, err := m.dayOfWeekOrDefault(name, params, "day_of_week")
	if err != nil {
		return nil, err
	}
	dep, err := paramFloat(name, params, "dep_time", m.h.Airline.DepTime)
	if err != nil {
		return nil, err
	}
	arr, err := paramFloat(name, params, "arr_time", m.h.Airline.ArrTime)
	if err != nil {
		return nil, err
	}
	elapsed, err := paramFloat(name, params, "elapsed", m.h.Airline.ElapsedTime)
	if err != nil {
		return nil, err
	}
	dist, err := paramFloat(name, params, "distance", m.h.Airline.Distance)
	if err != nil {
		return nil, err
	}
	origin := paramString(params, "origin", paramString(params, "location", ""))
	dest := paramString(params, "dest", "")
	carrier := paramString(params, "carrier", m.h.Airline.Carrier)
	vec := []float64{
		month, day, dow, dep, arr, elapsed, dist,
		encode(b, "origin", origin),
		encode(b, "dest", dest),
		encode(b, "carrier", carrier),
	}
	return vec, nil
}

func (m *Mapper) airlineMonth(name string, params map[string]any) (float64, error) {
	v, ok := params["month"]
	if !ok || v == nil {
		return m.h.Airline.Month, nil
	}
	n, err := MonthNumber(v)
	if err != nil {
		return 0, &ConversionError{Model: name, Field: "month", Err: err}
	}
	return float64(n), nil
}
