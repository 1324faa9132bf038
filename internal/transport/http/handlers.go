package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"jarvis/internal/gateway/database"
	"jarvis/internal/inference"
	"jarvis/internal/model"
)

func (r *Router) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"services": gin.H{
			"model_runner": r.Registry.Ready(),
			"stt":          r.Speech.Configured(),
			"face":         r.Vision.Configured(),
		},
		"models_loaded": len(r.Registry.LoadedNames()),
	})
}

func (r *Router) handleModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"models": r.Registry.Names(),
		"loaded": r.Registry.LoadedNames(),
	})
}

func (r *Router) handleModelDetail(c *gin.Context) {
	name := c.Param("name")
	b, ok := r.Registry.Get(name)
	if !ok {
		writeError(c, &inference.NotFoundError{Model: name, Available: r.Registry.Names()})
		return
	}
	body := gin.H{
		"name":          b.Name,
		"requested_as":  name,
		"is_recommender": b.IsRecommender(),
	}
	if b.Estimator != nil {
		body["kind"] = model.Kind(b.Estimator)
		body["n_features"] = b.Estimator.NumFeatures()
	}
	if b.IsRecommender() {
		body["kind"] = "movie_catalog"
		body["catalog_size"] = b.Catalog.Len()
	}
	if len(b.FeatureCols) > 0 {
		body["feature_cols"] = b.FeatureCols
	}
	if len(b.Encoders) > 0 {
		names := make([]string, 0, len(b.Encoders))
		for n := range b.Encoders {
			names = append(names, n)
		}
		body["encoders"] = names
	}
	if b.Target != nil {
		body["classes"] = b.Target.Classes
	}
	if !b.LastDate.IsZero() {
		body["last_date"] = b.LastDate.Format("2006-01-02")
	}
	c.JSON(http.StatusOK, body)
}

func (r *Router) handleModelInfo(c *gin.Context) {
	name := r.Registry.Resolve(c.Param("name"))
	if r.Meta == nil {
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "工件元数据存储未启用"})
		return
	}
	meta, ok, err := r.Meta.Get(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		writeError(c, &inference.NotFoundError{Model: name, Available: r.Registry.Names()})
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (r *Router) handleHistory(c *gin.Context) {
	if r.Logs == nil {
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "推理历史存储未启用"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	q := database.PredictionQuery{
		Model:  c.Query("model"),
		Source: c.Query("source"),
		Limit:  limit,
		Offset: offset,
	}
	recs, err := r.Logs.List(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	total, err := r.Logs.Count(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "records": recs})
}

// handleAirlineMetadata 机场/承运人查询,未收录的代码返回 null。
func (r *Router) handleAirlineMetadata(c *gin.Context) {
	body := gin.H{}
	if code := c.Query("origin"); code != "" {
		body["origin"] = lookupAirport(code)
	}
	if code := c.Query("dest"); code != "" {
		body["dest"] = lookupAirport(code)
	}
	if code := c.Query("carrier"); code != "" {
		body["carrier"] = lookupCarrier(code)
	}
	if len(body) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"airports": airportTable,
			"carriers": carrierTable,
		})
		return
	}
	c.JSON(http.StatusOK, body)
}

func (r *Router) handleProcess(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.text() == "" {
		c.JSON(http.StatusBadRequest, errorBody{Error: "缺少 text 字段"})
		return
	}
	r.runCommand(c, "text", req.text())
}

// handleTranscribe 语音指令:音频转写后走文本指令同一条链路。
func (r *Router) handleTranscribe(c *gin.Context) {
	audio, contentType, err := readAudio(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	tr, err := r.Speech.Transcribe(c.Request.Context(), audio, contentType)
	if err != nil {
		writeError(c, err)
		return
	}
	if tr.Text == "" {
		c.JSON(http.StatusOK, gin.H{"transcription": tr, "message": "没有识别到语音内容"})
		return
	}
	r.runCommandWith(c, "voice", tr.Text, gin.H{"transcription": tr})
}

func (r *Router) runCommand(c *gin.Context, source, text string) {
	r.runCommandWith(c, source, text, nil)
}

func (r *Router) runCommandWith(c *gin.Context, source, text string, extra gin.H) {
	start := time.Now()
	traceID := uuid.NewString()

	out, err := r.Interpreter.Run(c.Request.Context(), text)
	if err != nil {
		if out == nil || out.Command == nil {
			r.logPrediction(traceID, source, "", nil, nil, err, time.Since(start))
		} else {
			r.logPrediction(traceID, source, out.Command.Model, out.Command.Params, nil, err, time.Since(start))
		}
		writeError(c, err)
		return
	}

	body := gin.H{"trace_id": traceID, "command": text}
	for k, v := range extra {
		body[k] = v
	}
	if !out.Understood() {
		body["message"] = out.Message
		body["response"] = out.Message
		c.JSON(http.StatusOK, body)
		return
	}
	r.logPrediction(traceID, source, out.Command.Model, out.Command.Params, out.Result, nil, time.Since(start))
	body["model"] = out.Command.Model
	body["params"] = out.Command.Params
	body["result"] = out.Result
	body["response"] = out.Result
	c.JSON(http.StatusOK, body)
}

// readAudio 支持裸音频体和 multipart 两种上传形态。
func readAudio(c *gin.Context) ([]byte, string, error) {
	if file, err := c.FormFile("audio"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, 10<<20))
		if err != nil {
			return nil, "", err
		}
		return data, file.Header.Get("Content-Type"), nil
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, 10<<20))
	if err != nil {
		return nil, "", err
	}
	return data, c.ContentType(), nil
}

func (r *Router) handleFaceSentiment(c *gin.Context) {
	image, err := readImage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	res, err := r.Vision.DetectSentiment(c.Request.Context(), image)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func readImage(c *gin.Context) ([]byte, error) {
	if file, err := c.FormFile("image"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, 10<<20))
	}
	return io.ReadAll(io.LimitReader(c.Request.Body, 10<<20))
}

func (r *Router) handlePredict(c *gin.Context) {
	var req PredictRequest
	if err := bindOptional(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "请求体不是合法 JSON"})
		return
	}
	if req.Model == "" {
		c.JSON(http.StatusBadRequest, errorBody{Error: "缺少 model 字段"})
		return
	}
	r.runPredict(c, "api", req.Model, req.Features, req.Params, nil)
}

// handlePredictNamed 按路径里的模型名推理,features 与 params 二选一。
func (r *Router) handlePredictNamed(c *gin.Context) {
	var req PredictRequest
	if err := bindOptional(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "请求体不是合法 JSON"})
		return
	}
	r.runPredict(c, "api", c.Param("name"), req.Features, req.Params, nil)
}

func (r *Router) handlePredictCar(c *gin.Context) {
	var req CarRequest
	if err := bindOptional(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "请求体不是合法 JSON"})
		return
	}
	params := map[string]any{}
	setInt(params, "year", req.Year)
	setFloat(params, "km", req.Km)
	setFloat(params, "fuel_type", req.FuelType)
	setFloat(params, "seller_type", req.SellerType)
	setFloat(params, "transmission", req.Transmission)
	setFloat(params, "owner", req.Owner)
	r.runPredict(c, "api", "car_price", nil, params, r.carPriceExtras)
}

func (r *Router) handlePredictBitcoin(c *gin.Context) {
	r.handleHorizon(c, "bitcoin_model", false)
}

func (r *Router) handlePredictSP500(c *gin.Context) {
	r.handleHorizon(c, "sp500_model", false)
}

func (r *Router) handlePredictAvocado(c *gin.Context) {
	r.handleHorizon(c, "avocado_price", true)
}

func (r *Router) handleHorizon(c *gin.Context, modelName string, months bool) {
	var req HorizonRequest
	if err := bindOptional(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "请求体不是合法 JSON"})
		return
	}
	params := map[string]any{}
	setFloat(params, "years", req.Years)
	setFloat(params, "months", req.Months)
	setFloat(params, "days", req.Days)
	setString(params, "type", req.Type)
	setString(params, "region", req.Region)
	r.runPredict(c, "api", modelName, nil, params, r.targetDateExtras(params, months))
}

func (r *Router) handlePredictBMI(c *gin.Context) {
	var req BMIRequest
	if err := bindOptional(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "请求体不是合法 JSON"})
		return
	}
	params := map[string]any{}
	setFloat(params, "height", req.Height)
	setFloat(params, "weight", req.Weight)
	setFloat(params, "age", req.Age)
	r.runPredict(c, "api", "bmi_model", nil, params, nil)
}

func (r *Router) handlePredictLondon(c *gin.Context) {
	r.handleCrime(c, "london_crime")
}

func (r *Router) handlePredictChicago(c *gin.Context) {
	r.handleCrime(c, "chicago_crime")
}

func (r *Router) handleCrime(c *gin.Context, modelName string) {
	var req CrimeRequest
	if err := bindOptional(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "请求体不是合法 JSON"})
		return
	}
	params := map[string]any{}
	if req.Day != nil {
		params["day"] = req.Day
	}
	if req.Month != nil {
		params["month"] = req.Month
	}
	setString(params, "borough", req.Borough)
	setFloat(params, "community_area", req.CommunityArea)
	r.runPredict(c, "api", modelName, nil, params, nil)
}

// handlePredictCirrhosis 临床字段多且命名沿用训练集,请求体原样透传。
func (r *Router) handlePredictCirrhosis(c *gin.Context) {
	params := map[string]any{}
	if err := bindOptional(c, &params); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "请求体不是合法 JSON"})
		return
	}
	r.runPredict(c, "api", "cirrhosis_model", nil, params, nil)
}

func (r *Router) handlePredictAirline(c *gin.Context) {
	var req FlightRequest
	if err := bindOptional(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "请求体不是合法 JSON"})
		return
	}
	params := map[string]any{}
	if req.Month != nil {
		params["month"] = req.Month
	}
	if req.DayOfWeek != nil {
		params["day_of_week"] = req.DayOfWeek
	}
	setFloat(params, "day", req.Day)
	setFloat(params, "dep_time", req.DepTime)
	setFloat(params, "arr_time", req.ArrTime)
	setFloat(params, "elapsed", req.Elapsed)
	setFloat(params, "distance", req.Distance)
	setString(params, "origin", req.Origin)
	setString(params, "dest", req.Dest)
	setString(params, "carrier", req.Carrier)
	r.runPredict(c, "api", "airline_delay", nil, params, nil)
}

func (r *Router) handlePredictMovie(c *gin.Context) {
	var req MovieRequest
	if err := bindOptional(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "请求体不是合法 JSON"})
		return
	}
	params := map[string]any{}
	setInt(params, "top_k", req.TopK)
	setInt(params, "year", req.Year)
	setString(params, "genre", req.Genre)
	r.runPredict(c, "api", "movie_recommender", nil, params, nil)
}

// bindOptional 可选请求体:空 body 按全缺省处理,畸形 JSON 才报错。
func bindOptional(c *gin.Context, out any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func setFloat(params map[string]any, key string, v *float64) {
	if v != nil {
		params[key] = *v
	}
}

func setInt(params map[string]any, key string, v *int) {
	if v != nil {
		params[key] = *v
	}
}

func setString(params map[string]any, key, v string) {
	if v != "" {
		params[key] = v
	}
}
