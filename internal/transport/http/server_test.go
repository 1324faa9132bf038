package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"jarvis/internal/features"
	"jarvis/internal/gateway/database"
	"jarvis/internal/inference"
	"jarvis/internal/interpreter"
	"jarvis/internal/model"
	"jarvis/internal/speech"
	"jarvis/internal/store"
	"jarvis/internal/store/gormstore"
	"jarvis/internal/vision"
)

var testArtifacts = map[string]string{
	"bmi_model.json": `{"type": "linear_regression", "intercept": 0, "coefficients": [1, 0, 0]}`,
	"car_price.json": `{"type": "linear_regression", "intercept": 1.2, "coefficients": [0, 0.1, 0, 0, 0, 0, 0]}`,
	"bitcoin_model.json": `{
		"estimator": {"type": "linear_regression", "intercept": 60000, "coefficients": [0, 10]},
		"feature_cols": ["close_lag_1", "horizon_days"],
		"base_features": {"close_lag_1": 64000},
		"last_date": "2021-03-01"
	}`,
	"movie_recommender.json": `{
		"type": "movie_catalog",
		"movies": [
			{"movie_id": 1, "title": "Blockbuster", "year": 1999, "genres": ["Action"], "rating_count": 5000, "rating_mean": 4.2},
			{"movie_id": 2, "title": "Quiet Drama", "year": 2005, "genres": ["Drama"], "rating_count": 40, "rating_mean": 4.9}
		]
	}`,
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	for name, body := range testArtifacts {
		assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	meta, err := gormstore.NewArtifactMetaStore(filepath.Join(t.TempDir(), "meta.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { meta.Close() })
	logs, err := database.NewPredictionLogStore(filepath.Join(t.TempDir(), "history.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { logs.Close() })

	reg := store.NewRegistry(dir, map[string]string{"btc_model": "bitcoin_model"})
	reg.SetLoadHook(func(name, path string, b *model.Bundle) {
		_ = meta.Record(context.Background(), name, path, b)
	})
	reg.LoadAll()

	router := inference.NewRouter(reg, features.NewMapper(features.DefaultHeuristics()), 5)
	api := &Router{
		Registry:    reg,
		Inference:   router,
		Interpreter: interpreter.New(router),
		Speech:      speech.NewClient(speech.Config{}),
		Vision:      vision.NewClient(vision.Config{}),
		Meta:        meta,
		Logs:        logs,
		Pricing:     Pricing{CarRate: 241.5, CarCurrency: "MXN"},
	}
	srv, err := NewServer(ServerConfig{Addr: ":0", Router: api})
	assert.NoError(t, err)
	return srv.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	out := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)

	w, body := doJSON(t, h, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(len(testArtifacts)), body["models_loaded"])
	services := body["services"].(map[string]any)
	assert.Equal(t, true, services["model_runner"])
	assert.Equal(t, false, services["stt"])
	assert.Equal(t, false, services["face"])

	w, body = doJSON(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["message"])
}

func TestListModels(t *testing.T) {
	h := newTestHandler(t)

	w, body := doJSON(t, h, http.MethodGet, "/api/v1/models", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	models := body["models"].([]any)
	assert.Contains(t, models, "bmi_model")
	assert.Contains(t, models, "btc_model", "别名也可见")
}

func TestPredictBMI(t *testing.T) {
	h := newTestHandler(t)

	w, body := doJSON(t, h, http.MethodPost, "/api/v1/predict/bmi",
		map[string]any{"height": 1.75, "weight": 70, "age": 30})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bmi_model", body["model"])
	assert.InDelta(t, 1.75, body["prediction"].(float64), 1e-9)
	assert.NotEmpty(t, body["trace_id"])
}

func TestPredictGenericFeatures(t *testing.T) {
	h := newTestHandler(t)

	w, body := doJSON(t, h, http.MethodPost, "/api/v1/predict",
		map[string]any{"model": "bmi_model", "features": []float64{1.80, 80, 40}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 1.80, body["prediction"].(float64), 1e-9)
}

func TestPredictByPath(t *testing.T) {
	h := newTestHandler(t)

	w, body := doJSON(t, h, http.MethodPost, "/api/v1/models/bmi_model",
		map[string]any{"params": map[string]any{"height": 1.75, "weight": 70, "age": 30}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bmi_model", body["model"])
	assert.InDelta(t, 1.75, body["prediction"].(float64), 1e-9)

	// 别名与规范名结果一致
	w, body = doJSON(t, h, http.MethodPost, "/api/v1/models/btc_model",
		map[string]any{"params": map[string]any{"days": 7}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bitcoin_model", body["model"])
	assert.InDelta(t, 60070, body["prediction"].(float64), 1e-6)

	// 空请求体:features 和 params 都缺,400 而不是编造默认输入
	w, body = doJSON(t, h, http.MethodPost, "/api/v1/models/bmi_model", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, body["error"])
}

func TestPredictCarLocalPrice(t *testing.T) {
	h := newTestHandler(t)

	w, body := doJSON(t, h, http.MethodPost, "/api/v1/predict/car",
		map[string]any{"year": 2015, "km": 40000})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MXN", body["local_currency"])
	assert.NotEmpty(t, body["local_price"])
}

func TestPredictBitcoinTargetDate(t *testing.T) {
	h := newTestHandler(t)

	w, body := doJSON(t, h, http.MethodPost, "/api/v1/predict/bitcoin",
		map[string]any{"days": 30})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2021-03-31", body["target_date"])
	assert.InDelta(t, 60000+10*30, body["prediction"].(float64), 1e-6)
}

func TestPredictMovie(t *testing.T) {
	h := newTestHandler(t)

	w, body := doJSON(t, h, http.MethodPost, "/api/v1/predict/movie",
		map[string]any{"top_k": 1})
	assert.Equal(t, http.StatusOK, w.Code)
	recs := body["recommendations"].([]any)
	assert.Len(t, recs, 1)
}

func TestPredictUnknownModel(t *testing.T) {
	h := newTestHandler(t)

	w, body := doJSON(t, h, http.MethodPost, "/api/v1/predict",
		map[string]any{"model": "no_such", "params": map[string]any{}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, body["available"], "bmi_model")
}

func TestPredictBadParams(t *testing.T) {
	h := newTestHandler(t)

	w, _ := doJSON(t, h, http.MethodPost, "/api/v1/predict",
		map[string]any{"model": "bitcoin_model", "params": map[string]any{"days": "mañana"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessCommand(t *testing.T) {
	h := newTestHandler(t)

	w, body := doJSON(t, h, http.MethodPost, "/api/process",
		map[string]any{"text": "masa corporal altura 1.75 peso 70"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bmi_model", body["model"])
	assert.NotNil(t, body["response"])

	// 旧字段名 command 也接受
	w, body = doJSON(t, h, http.MethodPost, "/api/process",
		map[string]any{"command": "hola que tal"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, interpreter.NotUnderstood, body["message"])

	w, _ = doJSON(t, h, http.MethodPost, "/api/process", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranscribeNotConfigured(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", bytes.NewReader([]byte("RIFF....")))
	req.Header.Set("Content-Type", "audio/wav")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestFaceSentimentNotConfigured(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/face/sentiment", bytes.NewReader([]byte{0xFF, 0xD8}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHistory(t *testing.T) {
	h := newTestHandler(t)

	doJSON(t, h, http.MethodPost, "/api/v1/predict/bmi", map[string]any{"height": 1.75})
	doJSON(t, h, http.MethodPost, "/api/v1/predict/bitcoin", map[string]any{"days": 7})

	w, body := doJSON(t, h, http.MethodGet, "/api/v1/history?model=bmi_model", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["total"])
	recs := body["records"].([]any)
	rec := recs[0].(map[string]any)
	assert.Equal(t, "bmi_model", rec["model"])
	assert.Equal(t, "api", rec["source"])
}

func TestModelDetailAndInfo(t *testing.T) {
	h := newTestHandler(t)

	w, body := doJSON(t, h, http.MethodGet, "/api/v1/models/btc_model", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bitcoin_model", body["name"])
	assert.Equal(t, "linear_regression", body["kind"])
	assert.Equal(t, "2021-03-01", body["last_date"])

	w, body = doJSON(t, h, http.MethodGet, "/api/v1/models/bitcoin_model/info", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "linear_regression", body["kind"])
	assert.NotEmpty(t, body["sha256"])

	w, _ = doJSON(t, h, http.MethodGet, "/api/v1/models/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAirlineMetadata(t *testing.T) {
	h := newTestHandler(t)

	w, body := doJSON(t, h, http.MethodGet, "/api/v1/airline/metadata?origin=ATL&carrier=WN&dest=XXX", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	origin := body["origin"].(map[string]any)
	assert.Equal(t, "Atlanta", origin["city"])
	carrier := body["carrier"].(map[string]any)
	assert.Equal(t, "Southwest Airlines", carrier["name"])
	assert.Nil(t, body["dest"], "未收录的机场返回 null")
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/models", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
