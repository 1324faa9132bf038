package config

// Config 是 Jarvis 后端的主配置载体。
type Config struct {
	App       AppConfig       `toml:"app"`
	Models    ModelsConfig    `toml:"models"`
	Recommend RecommendConfig `toml:"recommend"`
	Speech    SpeechConfig    `toml:"speech"`
	Face      FaceConfig      `toml:"face"`
	History   HistoryConfig   `toml:"history"`
	Registry  RegistryConfig  `toml:"registry"`
	Pricing   PricingConfig   `toml:"pricing"`
}

type PricingConfig struct {
	Car CarPricing `toml:"car"`
}

type AppConfig struct {
	Env            string   `toml:"env"`
	LogLevel       string   `toml:"log_level"`
	LogFormat      string   `toml:"log_format"`
	HTTPAddr       string   `toml:"http_addr"`
	LogPath        string   `toml:"log_path"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// ModelsConfig 描述模型工件目录与别名表。
type ModelsConfig struct {
	Dir string `toml:"dir"`
	// Aliases 旧名/友好名 -> 已加载模型名，单跳解析，不做传递。
	Aliases map[string]string `toml:"aliases"`
	// Watch 开启后监听工件目录，新增/覆盖的工件热加载。
	Watch bool `toml:"watch"`
	// HeuristicsPath 指向特征映射使用的占位常量文件（yaml）。为空时使用内置默认。
	HeuristicsPath string `toml:"heuristics_path"`
}

type RecommendConfig struct {
	DefaultTopK int `toml:"default_top_k"`
}

// SpeechConfig 对应 Azure Speech REST 接入。Key/Region 可由环境变量覆盖。
type SpeechConfig struct {
	Provider string `toml:"provider"`
	Key      string `toml:"key"`
	Region   string `toml:"region"`
	Language string `toml:"language"`
	// Endpoint 可覆盖默认的 region 端点（测试与私有网关用）。
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// FaceConfig 对应 Azure Face REST 接入。
type FaceConfig struct {
	Endpoint       string `toml:"endpoint"`
	Key            string `toml:"key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// HistoryConfig 控制逐请求推理日志（SQLite）。
type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// RegistryConfig 控制工件元数据存储（gorm + SQLite）。
type RegistryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// CarPricing 描述车价结果的货币换算（预测输出为 lakh 印度卢比）。
type CarPricing struct {
	Rate     float64 `toml:"rate"`
	Currency string  `toml:"currency"`
}
