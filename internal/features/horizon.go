package features

// 预测跨度换算。调用方可能给 days、months 或 years 中任意一个,
// 规则与训练侧保持一致:years×365 得天数,years×12 / days÷30 得月数,
// 什么都不给按 1 处理。

const (
	daysPerYear   = 365
	monthsPerYear = 12
	daysPerMonth  = 30
)

// HorizonDays 解析参数里的预测天数。
func HorizonDays(params map[string]any) (float64, error) {
	if v, ok := params["days"]; ok {
		return toFloat(v)
	}
	if v, ok := params["years"]; ok {
		years, err := toFloat(v)
		if err != nil {
			return 0, err
		}
		return years * daysPerYear, nil
	}
	if v, ok := params["horizon"]; ok {
		return toFloat(v)
	}
	return 1, nil
}

// HorizonMonths 解析参数里的预测月数。
func HorizonMonths(params map[string]any) (float64, error) {
	if v, ok := params["months"]; ok {
		return toFloat(v)
	}
	if v, ok := params["years"]; ok {
		years, err := toFloat(v)
		if err != nil {
			return 0, err
		}
		return years * monthsPerYear, nil
	}
	if v, ok := params["days"]; ok {
		days, err := toFloat(v)
		if err != nil {
			return 0, err
		}
		return days / daysPerMonth, nil
	}
	return 1, nil
}
