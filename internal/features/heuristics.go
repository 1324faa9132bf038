package features

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Heuristics 收拢所有缺省值与估算常数,可由独立的 yaml 文件覆盖,
// 不想跟主配置混在一起:这些数字来自训练数据的统计口径,改动频率不同。
type Heuristics struct {
	Car       CarHeuristics       `yaml:"car"`
	BMI       BMIHeuristics       `yaml:"bmi"`
	Airline   AirlineHeuristics   `yaml:"airline"`
	Clinical  ClinicalHeuristics  `yaml:"clinical"`
	Avocado   AvocadoHeuristics   `yaml:"avocado"`
	CrimeTime CrimeTimeHeuristics `yaml:"crime_time"`
}

// CarHeuristics 二手车报价的推导常数:按年份折旧估算新车现价,
// 按车龄估算过户次数。
type CarHeuristics struct {
	BasePrice        float64 `yaml:"base_price"`
	DepreciationRate float64 `yaml:"depreciation_rate"`
	ReferenceYear    int     `yaml:"reference_year"`
	MinPrice         float64 `yaml:"min_price"`
	OwnerAgeYears    int     `yaml:"owner_age_years"`
}

// PresentPrice 按年份折旧估算出厂指导价。
func (c CarHeuristics) PresentPrice(year float64) float64 {
	age := float64(c.ReferenceYear) - year
	if age < 0 {
		age = 0
	}
	price := c.BasePrice * math.Pow(1-c.DepreciationRate, age)
	if price < c.MinPrice {
		return c.MinPrice
	}
	return price
}

// OwnerEstimate 车龄超过阈值按一次过户算。
func (c CarHeuristics) OwnerEstimate(year float64) float64 {
	if float64(c.ReferenceYear)-year > float64(c.OwnerAgeYears) {
		return 1
	}
	return 0
}

type BMIHeuristics struct {
	Height float64 `yaml:"height"`
	Weight float64 `yaml:"weight"`
	Age    float64 `yaml:"age"`
}

// AirlineHeuristics 航班延误缺省行程:工作日中午前后的中等距离航段。
type AirlineHeuristics struct {
	Month       float64 `yaml:"month"`
	DayOfMonth  float64 `yaml:"day_of_month"`
	DayOfWeek   float64 `yaml:"day_of_week"`
	DepTime     float64 `yaml:"dep_time"`
	ArrTime     float64 `yaml:"arr_time"`
	ElapsedTime float64 `yaml:"elapsed_time"`
	Distance    float64 `yaml:"distance"`
	Carrier     string  `yaml:"carrier"`
}

// ClinicalHeuristics 肝硬化各项指标的缺省值,取训练集中位数量级。
type ClinicalHeuristics struct {
	Defaults map[string]float64 `yaml:"defaults"`
}

type AvocadoHeuristics struct {
	Type   string `yaml:"type"`
	Region string `yaml:"region"`
}

type CrimeTimeHeuristics struct {
	Month         float64 `yaml:"month"`
	CommunityArea float64 `yaml:"community_area"`
}

// DefaultHeuristics 内置缺省值,yaml 文件只需覆盖想改的字段。
func DefaultHeuristics() Heuristics {
	return Heuristics{
		Car: CarHeuristics{
			BasePrice:        11.5,
			DepreciationRate: 0.08,
			ReferenceYear:    2020,
			MinPrice:         0.5,
			OwnerAgeYears:    8,
		},
		BMI: BMIHeuristics{Height: 1.70, Weight: 70, Age: 30},
		Airline: AirlineHeuristics{
			Month:       6,
			DayOfMonth:  15,
			DayOfWeek:   4,
			DepTime:     900,
			ArrTime:     1100,
			ElapsedTime: 120,
			Distance:    500,
			Carrier:     "WN",
		},
		Clinical: ClinicalHeuristics{Defaults: map[string]float64{
			"n_days":        1500,
			"age":           18000,
			"bilirubin":     1.4,
			"cholesterol":   310,
			"albumin":       3.5,
			"copper":        73,
			"alk_phos":      1259,
			"sgot":          114,
			"tryglicerides": 108,
			"platelets":     257,
			"prothrombin":   10.6,
		}},
		Avocado:   AvocadoHeuristics{Type: "conventional", Region: "TotalUS"},
		CrimeTime: CrimeTimeHeuristics{Month: 6, CommunityArea: 0},
	}
}

// LoadHeuristics 从 yaml 文件加载覆盖项,path 为空或文件不存在时返回内置值。
func LoadHeuristics(path string) (Heuristics, error) {
	h := DefaultHeuristics()
	if path == "" {
		return h, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return h, fmt.Errorf("读取估算参数文件失败: %w", err)
	}
	if err := yaml.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("解析估算参数文件失败: %w", err)
	}
	if h.Clinical.Defaults == nil {
		h.Clinical.Defaults = DefaultHeuristics().Clinical.Defaults
	}
	return h, nil
}

// ClinicalDefault 按字段名取缺省值,未配置的字段按 0。
func (h Heuristics) ClinicalDefault(field string) float64 {
	return h.Clinical.Defaults[field]
}
