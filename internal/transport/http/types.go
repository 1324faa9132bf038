package http

// 各推理端点的请求体。可选字段一律用指针,区分"没传"和"传了零值"。

// PredictRequest 通用推理入口:features 与 params 二选一,
// features 优先且按训练列序原样送入估计器。
type PredictRequest struct {
	Model    string         `json:"model"`
	Features []float64      `json:"features"`
	Params   map[string]any `json:"params"`
}

// CarRequest 二手车估价。
type CarRequest struct {
	Year         *int     `json:"year"`
	Km           *float64 `json:"km"`
	FuelType     *float64 `json:"fuel_type"`
	SellerType   *float64 `json:"seller_type"`
	Transmission *float64 `json:"transmission"`
	Owner        *float64 `json:"owner"`
}

// HorizonRequest 时序价格类模型(比特币/标普/牛油果)。
type HorizonRequest struct {
	Years  *float64 `json:"years"`
	Months *float64 `json:"months"`
	Days   *float64 `json:"days"`
	Type   string   `json:"type"`
	Region string   `json:"region"`
}

// BMIRequest 体脂预测。
type BMIRequest struct {
	Height *float64 `json:"height"`
	Weight *float64 `json:"weight"`
	Age    *float64 `json:"age"`
}

// CrimeRequest 城市犯罪量。Day 可以是英/西文星期名或 0..6。
type CrimeRequest struct {
	Day           any      `json:"day"`
	Month         any      `json:"month"`
	Borough       string   `json:"borough"`
	CommunityArea *float64 `json:"community_area"`
}

// FlightRequest 航班延误。Month/Day 支持西文月名和星期名。
type FlightRequest struct {
	Month     any      `json:"month"`
	Day       *float64 `json:"day"`
	DayOfWeek any      `json:"day_of_week"`
	DepTime   *float64 `json:"dep_time"`
	ArrTime   *float64 `json:"arr_time"`
	Elapsed   *float64 `json:"elapsed"`
	Distance  *float64 `json:"distance"`
	Origin    string   `json:"origin"`
	Dest      string   `json:"dest"`
	Carrier   string   `json:"carrier"`
}

// MovieRequest 电影推荐。
type MovieRequest struct {
	TopK  *int   `json:"top_k"`
	Year  *int   `json:"year"`
	Genre string `json:"genre"`
}

// ProcessRequest 文本指令。text 是正式字段,command 兼容旧前端。
type ProcessRequest struct {
	Text    string `json:"text"`
	Command string `json:"command"`
}

func (p ProcessRequest) text() string {
	if p.Text != "" {
		return p.Text
	}
	return p.Command
}

// errorBody 统一错误响应。
type errorBody struct {
	Error string `json:"error"`
}
