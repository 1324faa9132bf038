package interpreter

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"jarvis/internal/features"
	"jarvis/internal/inference"
	"jarvis/internal/logger"
)

// 文本指令到模型调用的关键词路由。语音转写和聊天输入共用这条链路,
// 指令格式宽松:识别关键词,再从上下文里抠数字和日期。

// NotUnderstood 未识别指令时返回的固定提示。
const NotUnderstood = "No se reconoció el comando. Debes usar palabras claves como 'bitcoin', 'automovil', 'londres', etc."

const needHeightWeight = "Proveer altura y peso (ej. 'altura 1.78 peso 78')"

// Command 解析出的模型调用。
type Command struct {
	Model  string         `json:"model"`
	Params map[string]any `json:"params"`
}

// Outcome 一次指令执行的回执。未识别时只有 Message。
type Outcome struct {
	Command *Command          `json:"command,omitempty"`
	Result  *inference.Result `json:"result,omitempty"`
	Message string            `json:"message,omitempty"`
}

// Understood 指令是否被识别。
func (o *Outcome) Understood() bool { return o.Command != nil }

type Interpreter struct {
	router *inference.Router
}

func New(router *inference.Router) *Interpreter {
	return &Interpreter{router: router}
}

var (
	firstIntRe = regexp.MustCompile(`\d+`)
	numberRe   = regexp.MustCompile(`\d+(?:\.\d+)?`)
	carYearRe  = regexp.MustCompile(`(?:ano|year)\s*(\d{4})`)
	carKmRe    = regexp.MustCompile(`(?:kilometraje|km)\s*(\d+)`)
	dayNameRe  = regexp.MustCompile(`lunes|martes|miercoles|jueves|viernes|sabado|domingo`)
	monthRe    = regexp.MustCompile(`enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre|\d{1,2}`)
	originRe   = regexp.MustCompile(`desde\s+([a-z ]+)`)
	carWordRe  = regexp.MustCompile(`automovil|coche|\bcar\b`)
)

// Parse 只做文本到 Command 的翻译,不执行推理。
// 返回的 hint 在指令可识别但参数不足时给出补充提示。
func (i *Interpreter) Parse(text string) (cmd *Command, hint string) {
	// 去重音再小写,"MIÉRCOLES" 和 "miercoles" 同样处理
	t := features.Fold(text)

	// 第一个整数默认当作跨度(年)
	num := 1
	if m := firstIntRe.FindString(t); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			num = n
		}
	}

	switch {
	case strings.Contains(t, "bitcoin"):
		return &Command{Model: "bitcoin_model", Params: map[string]any{"years": num}}, ""
	case strings.Contains(t, "sp500") || strings.Contains(t, "sp 500") || strings.Contains(t, "sp50"):
		return &Command{Model: "sp500_model", Params: map[string]any{"years": num}}, ""
	case strings.Contains(t, "aguacate") || strings.Contains(t, "avocado"):
		return &Command{Model: "avocado_price", Params: map[string]any{"years": num}}, ""
	case carWordRe.MatchString(t):
		return parseCar(t), ""
	case strings.Contains(t, "masa corporal") || strings.Contains(t, "bmi"):
		return parseBMI(t)
	case strings.Contains(t, "londres") || strings.Contains(t, "london"):
		return &Command{Model: "london_crime", Params: dayParams(t)}, ""
	case strings.Contains(t, "chicago"):
		return &Command{Model: "chicago_crime", Params: dayParams(t)}, ""
	case strings.Contains(t, "cirrosis"):
		return &Command{Model: "cirrhosis_model", Params: map[string]any{}}, ""
	case strings.Contains(t, "avion") || strings.Contains(t, "vuelo"):
		return parseFlight(t), ""
	case strings.Contains(t, "pelicula") || strings.Contains(t, "recomienda"):
		return &Command{Model: "movie_recommender", Params: map[string]any{"top_k": 5}}, ""
	}
	return nil, NotUnderstood
}

// Run 解析并执行指令。未识别或参数不足时 Outcome 只带 Message,
// 不算错误;推理本身的失败原样上抛。
func (i *Interpreter) Run(ctx context.Context, text string) (*Outcome, error) {
	cmd, hint := i.Parse(text)
	if cmd == nil {
		logger.Debugf("指令未识别: %q", text)
		return &Outcome{Message: hint}, nil
	}
	res, err := i.router.Predict(ctx, cmd.Model, nil, cmd.Params)
	if err != nil {
		return nil, err
	}
	return &Outcome{Command: cmd, Result: res}, nil
}

func parseCar(t string) *Command {
	params := map[string]any{}
	if m := carYearRe.FindStringSubmatch(t); m != nil {
		params["year"], _ = strconv.Atoi(m[1])
	}
	if m := carKmRe.FindStringSubmatch(t); m != nil {
		params["km"], _ = strconv.Atoi(m[1])
	}
	if len(params) == 0 {
		params = map[string]any{"year": 2015, "km": 50000}
	}
	return &Command{Model: "car_price", Params: params}
}

// parseBMI 依次取文本里的数字:身高、体重、(可选)年龄。
func parseBMI(t string) (*Command, string) {
	nums := numberRe.FindAllString(t, -1)
	if len(nums) < 2 {
		return nil, needHeightWeight
	}
	h, _ := strconv.ParseFloat(nums[0], 64)
	w, _ := strconv.ParseFloat(nums[1], 64)
	age := 30.0
	if len(nums) >= 3 {
		age, _ = strconv.ParseFloat(nums[2], 64)
	}
	return &Command{Model: "bmi_model", Params: map[string]any{"height": h, "weight": w, "age": age}}, ""
}

func dayParams(t string) map[string]any {
	params := map[string]any{}
	if day := dayNameRe.FindString(t); day != "" {
		params["day_of_week"] = day
	}
	return params
}

func parseFlight(t string) *Command {
	params := map[string]any{}
	if m := monthRe.FindString(t); m != "" {
		params["month"] = m
	}
	if m := originRe.FindStringSubmatch(t); m != nil {
		params["location"] = strings.TrimSpace(m[1])
	}
	return &Command{Model: "airline_delay", Params: params}
}
