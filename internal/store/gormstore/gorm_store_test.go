package gormstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jarvis/internal/model"
)

func newTestMetaStore(t *testing.T) *ArtifactMetaStore {
	t.Helper()
	store, err := NewArtifactMetaStore(filepath.Join(t.TempDir(), "meta.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func writeArtifact(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRecordAndGet(t *testing.T) {
	store := newTestMetaStore(t)
	ctx := context.Background()
	dir := t.TempDir()
	path := writeArtifact(t, dir, "airline_delay.json", `{"type":"decision_tree_classifier"}`)

	b := &model.Bundle{
		Name:        "airline_delay",
		Estimator:   &model.TreeClassifier{},
		FeatureCols: []string{"Month", "Distance"},
		Encoders: map[string]*model.LabelEncoder{
			"origin":  {Classes: []string{"ATL"}},
			"carrier": {Classes: []string{"WN"}},
		},
		Target:   &model.LabelEncoder{Classes: []string{"on_time", "delayed"}},
		LastDate: time.Date(2008, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	assert.NoError(t, store.Record(ctx, "airline_delay", path, b))

	meta, ok, err := store.Get(ctx, "airline_delay")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "decision_tree_classifier", meta.Kind)
	assert.Equal(t, []string{"Month", "Distance"}, meta.FeatureCols)
	assert.Equal(t, []string{"carrier", "origin"}, meta.Encoders, "编码器名排序输出")
	assert.Equal(t, []string{"on_time", "delayed"}, meta.Classes)
	assert.Equal(t, "2008-12-31", meta.LastDate)
	assert.Len(t, meta.SHA256, 64)
	assert.Greater(t, meta.SizeBytes, int64(0))
}

func TestRecordUpsert(t *testing.T) {
	store := newTestMetaStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	path := writeArtifact(t, dir, "bmi_model.json", `{"type":"linear_regression","coefficients":[1]}`)
	b := &model.Bundle{Name: "bmi_model", Estimator: &model.LinearRegressor{}}
	assert.NoError(t, store.Record(ctx, "bmi_model", path, b))
	first, _, _ := store.Get(ctx, "bmi_model")

	// 文件变化后重载,指纹跟着变,记录不翻倍
	path = writeArtifact(t, dir, "bmi_model.json", `{"type":"linear_regression","coefficients":[1,2,3]}`)
	assert.NoError(t, store.Record(ctx, "bmi_model", path, b))

	all, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 1)
	assert.NotEqual(t, first.SHA256, all[0].SHA256)
}

func TestGetMissing(t *testing.T) {
	store := newTestMetaStore(t)

	_, ok, err := store.Get(context.Background(), "nope")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	store := newTestMetaStore(t)
	ctx := context.Background()
	path := writeArtifact(t, t.TempDir(), "m.json", `{"type":"movie_catalog","movies":[]}`)

	assert.NoError(t, store.Record(ctx, "movie_recommender", path, &model.Bundle{
		Name:    "movie_recommender",
		Catalog: nil,
	}))
	assert.NoError(t, store.Delete(ctx, "movie_recommender"))

	_, ok, err := store.Get(ctx, "movie_recommender")
	assert.NoError(t, err)
	assert.False(t, ok)
}
