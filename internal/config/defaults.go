package config

import "strings"

// 默认值常量
const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppLogFormat    = "text"
	defaultAppHTTPAddr     = ":8000"
	defaultModelsDir       = "models"
	defaultRecommendTopK   = 5
	defaultSpeechProvider  = "azure"
	defaultSpeechLanguage  = "es-ES"
	defaultSpeechTimeout   = 30
	defaultFaceTimeout     = 30
	defaultHistoryPath     = "data/predictions.db"
	defaultRegistryPath    = "data/artifacts.db"
	defaultCarPricingRate  = 241.5 // 1 lakh INR -> MXN，演示用固定汇率
	defaultCarPricingCurr  = "MXN"
	defaultAllowedOriginCh = "*"
)

// defaultAliases 覆盖原服务历史接口用过的旧模型名。单跳映射。
func defaultAliases() map[string]string {
	return map[string]string{
		"car_model":     "car_price",
		"stock_model":   "sp500_model",
		"btc_model":     "bitcoin_model",
		"avocado_model": "avocado_price",
		"movies":        "movie_recommender",
	}
}

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Models.applyDefaults(keys)
	c.Recommend.applyDefaults(keys)
	c.Speech.applyDefaults(keys)
	c.Face.applyDefaults(keys)
	c.History.applyDefaults(keys)
	c.Registry.applyDefaults(keys)
	c.Pricing.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_format", &a.LogFormat, defaultAppLogFormat),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		fieldDefault{
			key:   "app.allowed_origins",
			need:  func() bool { return len(a.AllowedOrigins) == 0 },
			apply: func() { a.AllowedOrigins = []string{defaultAllowedOriginCh} },
		},
	)
}

func (m *ModelsConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("models.dir", &m.Dir, defaultModelsDir),
	)
	// 用户别名覆盖内置别名；未出现的键保留内置值。
	merged := defaultAliases()
	for k, v := range m.Aliases {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k == "" {
			continue
		}
		if v == "" {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	m.Aliases = merged
}

func (r *RecommendConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "recommend.default_top_k",
			need:  func() bool { return r.DefaultTopK <= 0 },
			apply: func() { r.DefaultTopK = defaultRecommendTopK },
		},
	)
}

func (s *SpeechConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("speech.provider", &s.Provider, defaultSpeechProvider),
		stringFieldDefault("speech.language", &s.Language, defaultSpeechLanguage),
		fieldDefault{
			key:   "speech.timeout_seconds",
			need:  func() bool { return s.TimeoutSeconds <= 0 },
			apply: func() { s.TimeoutSeconds = defaultSpeechTimeout },
		},
	)
}

func (f *FaceConfig) applyDefaults(keys keySet) {
	if f == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "face.timeout_seconds",
			need:  func() bool { return f.TimeoutSeconds <= 0 },
			apply: func() { f.TimeoutSeconds = defaultFaceTimeout },
		},
	)
}

func (h *HistoryConfig) applyDefaults(keys keySet) {
	if h == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("history.path", &h.Path, defaultHistoryPath),
	)
}

func (r *RegistryConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("registry.path", &r.Path, defaultRegistryPath),
	)
}

func (p *PricingConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "pricing.car.rate",
			need:  func() bool { return p.Car.Rate <= 0 },
			apply: func() { p.Car.Rate = defaultCarPricingRate },
		},
		stringFieldDefault("pricing.car.currency", &p.Car.Currency, defaultCarPricingCurr),
	)
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}
