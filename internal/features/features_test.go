package features

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jarvis/internal/model"
)

func TestDayOfWeek(t *testing.T) {
	cases := []struct {
		in   any
		want int
	}{
		{"Monday", 0},
		{"lunes", 0},
		{"MIÉRCOLES", 2},
		{"miercoles", 2},
		{"sábado", 5},
		{"fri", 4},
		{"dom", 6},
		{3, 3},
		{"5", 5},
	}
	for _, c := range cases {
		got, err := DayOfWeek(c.in)
		assert.NoError(t, err)
		assert.Equal(t, c.want, got, "输入 %v", c.in)
	}

	_, err := DayOfWeek("someday")
	assert.Error(t, err)
	_, err = DayOfWeek(nil)
	assert.Error(t, err)
}

func TestMonthNumber(t *testing.T) {
	got, err := MonthNumber("Diciembre")
	assert.NoError(t, err)
	assert.Equal(t, 12, got)

	got, err = MonthNumber("enero")
	assert.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = MonthNumber(7)
	assert.NoError(t, err)
	assert.Equal(t, 7, got)

	_, err = MonthNumber("neveruary")
	assert.Error(t, err)
}

func TestHorizonDays(t *testing.T) {
	days, err := HorizonDays(map[string]any{"years": 1})
	assert.NoError(t, err)
	assert.Equal(t, 365.0, days)

	days, err = HorizonDays(map[string]any{"days": 365})
	assert.NoError(t, err)
	assert.Equal(t, 365.0, days)

	days, err = HorizonDays(map[string]any{})
	assert.NoError(t, err)
	assert.Equal(t, 1.0, days)

	days, err = HorizonDays(map[string]any{"years": "2"})
	assert.NoError(t, err)
	assert.Equal(t, 730.0, days)
}

func TestHorizonMonths(t *testing.T) {
	months, err := HorizonMonths(map[string]any{"years": 1})
	assert.NoError(t, err)
	assert.Equal(t, 12.0, months)

	months, err = HorizonMonths(map[string]any{"days": 60})
	assert.NoError(t, err)
	assert.Equal(t, 2.0, months)

	months, err = HorizonMonths(map[string]any{"months": 6})
	assert.NoError(t, err)
	assert.Equal(t, 6.0, months)

	months, err = HorizonMonths(nil)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, months)
}

func TestCarRule(t *testing.T) {
	m := NewMapper(DefaultHeuristics())

	vec, err := m.Build("car_price", map[string]any{"year": 2015, "km": 45000}, nil)
	assert.NoError(t, err)
	assert.Len(t, vec, 7)
	assert.Equal(t, 2015.0, vec[0])
	assert.Greater(t, vec[1], 0.0, "指导价必须为正")
	assert.Equal(t, 45000.0, vec[2])
	assert.Equal(t, 0.0, vec[6])

	// 老车按一次过户估算
	vec, err = m.Build("car_price", map[string]any{"year": 2008, "km": 120000}, nil)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, vec[6])

	// 年份越老估算指导价越低
	newer, _ := m.Build("car_price", map[string]any{"year": 2019}, nil)
	older, _ := m.Build("car_price", map[string]any{"year": 2010}, nil)
	assert.Greater(t, newer[1], older[1])
}

func TestBMIRule(t *testing.T) {
	m := NewMapper(DefaultHeuristics())

	vec, err := m.Build("bmi_model", map[string]any{"height": 1.75, "weight": 70, "age": 30}, nil)
	assert.NoError(t, err)
	assert.Equal(t, []float64{1.75, 70, 30}, vec)

	// 缺省值兜底
	vec, err = m.Build("bmi_model", map[string]any{}, nil)
	assert.NoError(t, err)
	assert.Equal(t, []float64{1.70, 70, 30}, vec)
}

func TestMarketRule(t *testing.T) {
	m := NewMapper(DefaultHeuristics())

	// 简化工件:单元素向量
	vec, err := m.Build("bitcoin_model", map[string]any{"years": 1}, nil)
	assert.NoError(t, err)
	assert.Equal(t, []float64{365}, vec)

	// 完整工件:基准行回填 + 跨度列
	b := &model.Bundle{
		Name:        "bitcoin_model",
		FeatureCols: []string{"close_lag_1", "close_lag_7", "horizon_days"},
		BaseFeatures: map[string]float64{
			"close_lag_1": 64000,
			"close_lag_7": 61000,
		},
	}
	vec, err = m.Build("bitcoin_model", map[string]any{"days": 30}, b)
	assert.NoError(t, err)
	assert.Equal(t, []float64{64000, 61000, 30}, vec)
}

func TestAvocadoRule(t *testing.T) {
	m := NewMapper(DefaultHeuristics())
	b := &model.Bundle{
		Name:        "avocado_price",
		FeatureCols: []string{"Total Volume", "type_le", "region_le", "year"},
		Encoders: map[string]*model.LabelEncoder{
			"type":   {Classes: []string{"conventional", "organic"}},
			"region": {Classes: []string{"Albany", "TotalUS"}},
		},
		BaseFeatures: map[string]float64{"Total Volume": 850000},
		LastDate:     time.Date(2018, 3, 25, 0, 0, 0, 0, time.UTC),
	}

	vec, err := m.Build("avocado_price", map[string]any{"months": 12, "type": "organic"}, b)
	assert.NoError(t, err)
	assert.Equal(t, 850000.0, vec[0])
	assert.Equal(t, 1.0, vec[1])
	assert.Equal(t, 1.0, vec[2], "缺省产区 TotalUS")
	assert.Equal(t, 2019.0, vec[3], "基准日期 +12 个月")
}

func TestLondonChicagoRules(t *testing.T) {
	m := NewMapper(DefaultHeuristics())
	b := &model.Bundle{
		Name: "london_crime",
		Encoders: map[string]*model.LabelEncoder{
			"borough": {Classes: []string{"Camden", "Hackney", "Westminster"}},
		},
	}

	vec, err := m.Build("london_crime", map[string]any{"day": "viernes", "month": 3, "borough": "Westminster"}, b)
	assert.NoError(t, err)
	assert.Equal(t, []float64{3, 4, 2}, vec)

	vec, err = m.Build("chicago_crime", map[string]any{"day": "Monday", "month": "julio", "community_area": 32}, nil)
	assert.NoError(t, err)
	assert.Equal(t, []float64{0, 7, 32}, vec)

	_, err = m.Build("chicago_crime", map[string]any{"day": "nunca"}, nil)
	var convErr *ConversionError
	assert.ErrorAs(t, err, &convErr)
	assert.Equal(t, "chicago_crime", convErr.Model)
	assert.Equal(t, "day", convErr.Field)
}

func TestCirrhosisRule(t *testing.T) {
	m := NewMapper(DefaultHeuristics())
	b := &model.Bundle{
		Name: "cirrhosis_model",
		Encoders: map[string]*model.LabelEncoder{
			"sex":  {Classes: []string{"F", "M"}},
			"drug": {Classes: []string{"D-penicillamine", "Placebo"}},
		},
	}

	vec, err := m.Build("cirrhosis_model", map[string]any{
		"N_Days":    2000,
		"age":       21000,
		"bilirubin": 2.3,
		"ascites":   "Y",
		"edema":     "N",
		"sex":       "F",
		"drug":      "Placebo",
	}, b)
	assert.NoError(t, err)
	assert.Len(t, vec, 17)
	assert.Equal(t, 2000.0, vec[0], "大小写不同的键也要命中")
	assert.Equal(t, 21000.0, vec[1])
	assert.Equal(t, 2.3, vec[2])
	assert.Equal(t, 1.0, vec[11], "ascites Y -> 1")
	assert.Equal(t, 0.0, vec[14], "edema N -> 0")
	assert.Equal(t, 0.0, vec[15], "sex F 编码")
	assert.Equal(t, 1.0, vec[16], "drug Placebo 编码")

	// 未给的化验项用缺省值
	assert.Equal(t, DefaultHeuristics().ClinicalDefault("platelets"), vec[9])
}

func TestAirlineRule(t *testing.T) {
	m := NewMapper(DefaultHeuristics())
	b := &model.Bundle{
		Name: "airline_delay",
		Encoders: map[string]*model.LabelEncoder{
			"origin":  {Classes: []string{"ATL", "ORD", "OTHER"}},
			"dest":    {Classes: []string{"ATL", "ORD", "OTHER"}},
			"carrier": {Classes: []string{"WN", "AA", "OTHER"}},
		},
	}

	vec, err := m.Build("airline_delay", map[string]any{"month": 6, "day": 15, "distance": 500, "origin": "ORD"}, b)
	assert.NoError(t, err)
	assert.Len(t, vec, 10)
	assert.Equal(t, 6.0, vec[0])
	assert.Equal(t, 15.0, vec[1])
	assert.Equal(t, 500.0, vec[6])
	assert.Equal(t, 1.0, vec[7])

	// 未见过的机场落 OTHER 桶
	vec, err = m.Build("airline_delay", map[string]any{"origin": "XYZ"}, b)
	assert.NoError(t, err)
	assert.Equal(t, 2.0, vec[7])

	// 西文月名
	vec, err = m.Build("airline_delay", map[string]any{"month": "agosto"}, b)
	assert.NoError(t, err)
	assert.Equal(t, 8.0, vec[0])
}

func TestBuildNoMapping(t *testing.T) {
	m := NewMapper(DefaultHeuristics())
	_, err := m.Build("movie_recommender", map[string]any{}, nil)
	assert.True(t, errors.Is(err, ErrNoMapping))
}

func TestConversionError(t *testing.T) {
	m := NewMapper(DefaultHeuristics())
	_, err := m.Build("car_price", map[string]any{"year": "viejo"}, nil)
	var convErr *ConversionError
	assert.ErrorAs(t, err, &convErr)
	assert.Equal(t, "car_price", convErr.Model)
	assert.Equal(t, "year", convErr.Field)
}

func TestLoadHeuristicsMissingFile(t *testing.T) {
	h, err := LoadHeuristics("testdata/does-not-exist.yaml")
	assert.NoError(t, err)
	assert.Equal(t, DefaultHeuristics().Car.BasePrice, h.Car.BasePrice)
}
