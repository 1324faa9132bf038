package app

import (
	"context"
	"fmt"

	jcfg "jarvis/internal/config"
	"jarvis/internal/gateway/database"
	"jarvis/internal/logger"
	"jarvis/internal/store"
	"jarvis/internal/store/gormstore"
	jarvishttp "jarvis/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

// App 负责应用级编排:加载配置→初始化依赖→启动 HTTP 与目录监听。
type App struct {
	cfg      *jcfg.Config
	server   *jarvishttp.Server
	registry *store.Registry
	logs     *database.PredictionLogStore
	meta     *gormstore.ArtifactMetaStore
	Summary  *StartupSummary
}

// NewApp 根据配置构建应用对象(不启动)。
func NewApp(cfg *jcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run 启动 HTTP 服务与可选的工件目录监听,直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.closeStores()

	if a.Summary != nil {
		a.Summary.Print()
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	if a.cfg.Models.Watch {
		group.Go(func() error {
			return a.registry.Watch(ctx)
		})
	}

	return group.Wait()
}

// Registry 暴露底层模型仓库(测试与回放用)。
func (a *App) Registry() *store.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *App) closeStores() {
	if a.logs != nil {
		if err := a.logs.Close(); err != nil {
			logger.Warnf("关闭推理历史存储失败: %v", err)
		}
	}
	if a.meta != nil {
		if err := a.meta.Close(); err != nil {
			logger.Warnf("关闭工件元数据存储失败: %v", err)
		}
	}
}
