package app

import (
	"context"
	"fmt"
	"time"

	jcfg "jarvis/internal/config"
	"jarvis/internal/features"
	"jarvis/internal/gateway/database"
	"jarvis/internal/inference"
	"jarvis/internal/interpreter"
	"jarvis/internal/logger"
	"jarvis/internal/model"
	"jarvis/internal/speech"
	"jarvis/internal/store"
	"jarvis/internal/store/gormstore"
	jarvishttp "jarvis/internal/transport/http"
	"jarvis/internal/vision"
)

// AppBuilder 按配置逐层装配依赖。各构造函数做成字段,
// 测试可以替换其中任意一环。
type AppBuilder struct {
	cfg *jcfg.Config

	heuristicsFn func(string) (features.Heuristics, error)
	logsFn       func(jcfg.HistoryConfig) (*database.PredictionLogStore, error)
	metaFn       func(jcfg.RegistryConfig) (*gormstore.ArtifactMetaStore, error)
	speechFn     func(jcfg.SpeechConfig) *speech.Client
	visionFn     func(jcfg.FaceConfig) *vision.Client
	serverFn     func(jcfg.AppConfig, *jarvishttp.Router) (*jarvishttp.Server, error)
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *jcfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:          cfg,
		heuristicsFn: features.LoadHeuristics,
		logsFn:       buildPredictionLogStore,
		metaFn:       buildArtifactMetaStore,
		speechFn:     buildSpeechClient,
		visionFn:     buildVisionClient,
		serverFn:     buildHTTPServer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	heuristics, err := b.heuristicsFn(cfg.Models.HeuristicsPath)
	if err != nil {
		return nil, fmt.Errorf("加载估算参数失败: %w", err)
	}
	mapper := features.NewMapper(heuristics)

	var logs *database.PredictionLogStore
	if cfg.History.Enabled {
		logs, err = b.logsFn(cfg.History)
		if err != nil {
			return nil, fmt.Errorf("初始化推理历史存储失败: %w", err)
		}
		logger.Infof("✓ 推理历史存储: %s", cfg.History.Path)
	}

	var meta *gormstore.ArtifactMetaStore
	if cfg.Registry.Enabled {
		meta, err = b.metaFn(cfg.Registry)
		if err != nil {
			return nil, fmt.Errorf("初始化工件元数据存储失败: %w", err)
		}
		logger.Infof("✓ 工件元数据存储: %s", cfg.Registry.Path)
	}

	registry := store.NewRegistry(cfg.Models.Dir, cfg.Models.Aliases)
	if meta != nil {
		registry.SetLoadHook(func(name, path string, bundle *model.Bundle) {
			if err := meta.Record(ctx, name, path, bundle); err != nil {
				logger.Warnf("工件元数据记录失败 (%s): %v", name, err)
			}
		})
		registry.SetDropHook(func(name string) {
			if err := meta.Delete(context.Background(), name); err != nil {
				logger.Warnf("工件元数据清理失败 (%s): %v", name, err)
			}
		})
	}
	registry.LoadAll()

	router := inference.NewRouter(registry, mapper, cfg.Recommend.DefaultTopK)
	speechClient := b.speechFn(cfg.Speech)
	visionClient := b.visionFn(cfg.Face)

	apiRouter := &jarvishttp.Router{
		Registry:    registry,
		Inference:   router,
		Interpreter: interpreter.New(router),
		Speech:      speechClient,
		Vision:      visionClient,
		Meta:        meta,
		Logs:        logs,
		Pricing: jarvishttp.Pricing{
			CarRate:     cfg.Pricing.Car.Rate,
			CarCurrency: cfg.Pricing.Car.Currency,
		},
	}
	server, err := b.serverFn(cfg.App, apiRouter)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		server:   server,
		registry: registry,
		logs:     logs,
		meta:     meta,
		Summary: &StartupSummary{
			Addr:             server.Addr(),
			ModelsDir:        cfg.Models.Dir,
			LoadedModels:     registry.LoadedNames(),
			Aliases:          cfg.Models.Aliases,
			Watch:            cfg.Models.Watch,
			SpeechConfigured: speechClient.Configured(),
			FaceConfigured:   visionClient.Configured(),
			HistoryEnabled:   cfg.History.Enabled,
			RegistryEnabled:  cfg.Registry.Enabled,
		},
	}, nil
}

func buildPredictionLogStore(cfg jcfg.HistoryConfig) (*database.PredictionLogStore, error) {
	return database.NewPredictionLogStore(cfg.Path)
}

func buildArtifactMetaStore(cfg jcfg.RegistryConfig) (*gormstore.ArtifactMetaStore, error) {
	return gormstore.NewArtifactMetaStore(cfg.Path)
}

func buildSpeechClient(cfg jcfg.SpeechConfig) *speech.Client {
	return speech.NewClient(speech.Config{
		Key:      cfg.Key,
		Region:   cfg.Region,
		Language: cfg.Language,
		Endpoint: cfg.Endpoint,
		Timeout:  time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
}

func buildVisionClient(cfg jcfg.FaceConfig) *vision.Client {
	return vision.NewClient(vision.Config{
		Endpoint: cfg.Endpoint,
		Key:      cfg.Key,
		Timeout:  time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
}

func buildHTTPServer(appCfg jcfg.AppConfig, router *jarvishttp.Router) (*jarvishttp.Server, error) {
	return jarvishttp.NewServer(jarvishttp.ServerConfig{
		Addr:           appCfg.HTTPAddr,
		Router:         router,
		AllowedOrigins: appCfg.AllowedOrigins,
	})
}
