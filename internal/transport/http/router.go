package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"jarvis/internal/features"
	"jarvis/internal/gateway/database"
	"jarvis/internal/inference"
	"jarvis/internal/interpreter"
	"jarvis/internal/logger"
	"jarvis/internal/speech"
	"jarvis/internal/store"
	"jarvis/internal/store/gormstore"
	"jarvis/internal/vision"
)

// Pricing 展示层的价格换算:二手车模型输出的是训练货币单位,
// 乘以汇率换算成本地货币。
type Pricing struct {
	CarRate     float64
	CarCurrency string
}

// Router 暴露全部推理与多模态接口。
type Router struct {
	Registry    *store.Registry
	Inference   *inference.Router
	Interpreter *interpreter.Interpreter
	Speech      *speech.Client
	Vision      *vision.Client
	Meta        *gormstore.ArtifactMetaStore
	Logs        *database.PredictionLogStore
	Pricing     Pricing
}

// Register 挂载 /api 下的全部路由。
func (r *Router) Register(root *gin.RouterGroup) {
	if root == nil {
		return
	}
	root.GET("/health", r.handleHealth)
	root.POST("/process", r.handleProcess)
	root.POST("/transcribe", r.handleTranscribe)

	v1 := root.Group("/v1")
	v1.GET("/models", r.handleModels)
	v1.GET("/models/:name", r.handleModelDetail)
	v1.POST("/models/:name", r.handlePredictNamed)
	v1.GET("/models/:name/info", r.handleModelInfo)
	v1.GET("/history", r.handleHistory)
	v1.GET("/airline/metadata", r.handleAirlineMetadata)
	v1.POST("/face/sentiment", r.handleFaceSentiment)

	predict := v1.Group("/predict")
	predict.POST("", r.handlePredict)
	predict.POST("/car", r.handlePredictCar)
	predict.POST("/bitcoin", r.handlePredictBitcoin)
	predict.POST("/sp500", r.handlePredictSP500)
	predict.POST("/avocado", r.handlePredictAvocado)
	predict.POST("/bmi", r.handlePredictBMI)
	predict.POST("/london", r.handlePredictLondon)
	predict.POST("/chicago", r.handlePredictChicago)
	predict.POST("/cirrhosis", r.handlePredictCirrhosis)
	predict.POST("/airline", r.handlePredictAirline)
	predict.POST("/movie", r.handlePredictMovie)
}

// writeError 统一错误码:未知模型 404,参数换不成特征 400,
// 外部服务没配 503,估计器内部失败 500。
func writeError(c *gin.Context, err error) {
	var nf *inference.NotFoundError
	var nr *inference.NotReadyError
	var conv *features.ConversionError
	var inf *inference.InferenceError
	switch {
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error(), "available": nf.Available})
	case errors.As(err, &nr):
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: nr.Error()})
	case errors.As(err, &conv):
		c.JSON(http.StatusBadRequest, errorBody{Error: conv.Error()})
	case errors.Is(err, inference.ErrNoInput):
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, speech.ErrNotConfigured), errors.Is(err, vision.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: err.Error()})
	case errors.As(err, &inf):
		c.JSON(http.StatusInternalServerError, errorBody{Error: inf.Error()})
	default:
		c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

// runPredict 推理 + 落历史 + 组响应的共用路径。extras 由各端点补充
// 展示字段(换算价格、目标日期等)。
func (r *Router) runPredict(c *gin.Context, source, model string, featureVec []float64, params map[string]any,
	extras func(*inference.Result) gin.H) {
	start := time.Now()
	traceID := uuid.NewString()

	res, err := r.Inference.Predict(c.Request.Context(), model, featureVec, params)
	r.logPrediction(traceID, source, model, params, res, err, time.Since(start))
	if err != nil {
		writeError(c, err)
		return
	}

	body := gin.H{
		"trace_id":    traceID,
		"model":       res.Model,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if res.Recommendations != nil {
		body["recommendations"] = res.Recommendations
	} else {
		body["input"] = res.Input
		body["prediction"] = res.Prediction
		if res.Class != "" {
			body["class"] = res.Class
		}
		if res.Proba != nil {
			body["proba"] = res.Proba
		}
	}
	if extras != nil {
		for k, v := range extras(res) {
			body[k] = v
		}
	}
	c.JSON(http.StatusOK, body)
}

// logPrediction 历史落库失败只记日志,不影响响应。
func (r *Router) logPrediction(traceID, source, model string, params map[string]any,
	res *inference.Result, predErr error, dur time.Duration) {
	if r.Logs == nil {
		return
	}
	rec := database.PredictionRecord{
		TraceID:    traceID,
		Model:      model,
		Source:     source,
		Params:     params,
		DurationMS: dur.Milliseconds(),
	}
	if res != nil {
		rec.Model = res.Model
		rec.Input = res.Input
		rec.Prediction = res.Prediction
		rec.Class = res.Class
		rec.Proba = res.Proba
	}
	if predErr != nil {
		rec.Error = predErr.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := r.Logs.Insert(ctx, rec); err != nil {
		logger.Warnf("推理历史写入失败: %v", err)
	}
}

// carPriceExtras 把模型输出的价格换算成本地货币,金额用定点数算,
// 保留两位。
func (r *Router) carPriceExtras(res *inference.Result) gin.H {
	if r.Pricing.CarRate <= 0 {
		return nil
	}
	amount := decimal.NewFromFloat(res.Prediction).
		Mul(decimal.NewFromFloat(r.Pricing.CarRate)).
		Round(2)
	return gin.H{
		"local_price":    amount,
		"local_currency": r.Pricing.CarCurrency,
	}
}

// targetDateExtras 时序模型补充预测对应的目标日期。
func (r *Router) targetDateExtras(params map[string]any, months bool) func(*inference.Result) gin.H {
	return func(res *inference.Result) gin.H {
		b, ok := r.Registry.Get(res.Model)
		if !ok || b.LastDate.IsZero() {
			return nil
		}
		var target time.Time
		if months {
			n, err := features.HorizonMonths(params)
			if err != nil {
				return nil
			}
			target = b.LastDate.AddDate(0, int(n), 0)
		} else {
			n, err := features.HorizonDays(params)
			if err != nil {
				return nil
			}
			target = b.LastDate.AddDate(0, 0, int(n))
		}
		return gin.H{"target_date": target.Format("2006-01-02")}
	}
}
