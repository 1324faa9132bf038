package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "app:\n  env: prod\n")

	cfg, err := Load(path)
	assert.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, ":8000", cfg.App.HTTPAddr)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "text", cfg.App.LogFormat)
	assert.Equal(t, []string{"*"}, cfg.App.AllowedOrigins)
	assert.Equal(t, "models", cfg.Models.Dir)
	assert.Equal(t, 5, cfg.Recommend.DefaultTopK)
	assert.Equal(t, "azure", cfg.Speech.Provider)
	assert.Equal(t, "es-ES", cfg.Speech.Language)
	assert.Equal(t, 30, cfg.Speech.TimeoutSeconds)
	assert.Equal(t, "MXN", cfg.Pricing.Car.Currency)
	assert.InDelta(t, 241.5, cfg.Pricing.Car.Rate, 1e-9)
}

func TestLoadOverrides(t *testing.T) {
	body := `
app:
  http_addr: ":9000"
  log_level: debug
models:
  dir: artifacts
  watch: true
recommend:
  default_top_k: 10
`
	cfg, err := Load(writeConfig(t, t.TempDir(), "config.yaml", body))
	assert.NoError(t, err)

	assert.Equal(t, ":9000", cfg.App.HTTPAddr)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "artifacts", cfg.Models.Dir)
	assert.True(t, cfg.Models.Watch)
	assert.Equal(t, 10, cfg.Recommend.DefaultTopK)
}

func TestAliasMerge(t *testing.T) {
	body := `
models:
  aliases:
    BTC_MODEL: bitcoin_v2
    legacy: sp500_model
    movies: ""
`
	cfg, err := Load(writeConfig(t, t.TempDir(), "config.yaml", body))
	assert.NoError(t, err)

	// 用户值覆盖内置别名,键小写化
	assert.Equal(t, "bitcoin_v2", cfg.Models.Aliases["btc_model"])
	assert.Equal(t, "sp500_model", cfg.Models.Aliases["legacy"])
	// 空值删除内置别名
	_, ok := cfg.Models.Aliases["movies"]
	assert.False(t, ok)
	// 未触碰的内置别名保留
	assert.Equal(t, "car_price", cfg.Models.Aliases["car_model"])
}

func TestChainedAliasRejected(t *testing.T) {
	body := `
models:
  aliases:
    a: b
    b: bitcoin_model
`
	_, err := Load(writeConfig(t, t.TempDir(), "config.yaml", body))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "链式别名")
}

func TestValidation(t *testing.T) {
	_, err := Load(writeConfig(t, t.TempDir(), "bad_level.yaml", "app:\n  log_level: verbose\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, t.TempDir(), "bad_provider.yaml", "speech:\n  provider: google\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, t.TempDir(), "bad_format.yaml", "app:\n  log_format: xml\n"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AZURE_SPEECH_KEY", "env-speech-key")
	t.Setenv("AZURE_SERVICE_REGION", "westus")
	t.Setenv("AZURE_FACE_KEY", "env-face-key")
	t.Setenv("AZURE_FACE_ENDPOINT", "https://face.example.com")

	body := `
speech:
  key: file-key
  region: eastus
`
	cfg, err := Load(writeConfig(t, t.TempDir(), "config.yaml", body))
	assert.NoError(t, err)

	assert.Equal(t, "env-speech-key", cfg.Speech.Key)
	assert.Equal(t, "westus", cfg.Speech.Region)
	assert.Equal(t, "env-face-key", cfg.Face.Key)
	assert.Equal(t, "https://face.example.com", cfg.Face.Endpoint)
}

func TestIncludes(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", "app:\n  log_level: debug\nmodels:\n  dir: base_models\n")
	main := writeConfig(t, dir, "config.yaml", "include:\n  - base.yaml\nmodels:\n  dir: main_models\n")

	cfg, err := Load(main)
	assert.NoError(t, err)
	// 主文件覆盖被包含文件
	assert.Equal(t, "main_models", cfg.Models.Dir)
	assert.Equal(t, "debug", cfg.App.LogLevel)
}

func TestIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "include:\n  - b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include:\n  - a.yaml\n")

	_, err := Load(filepath.Join(dir, "a.yaml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}
