package store

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"jarvis/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce 训练侧导出工件往往触发连续多个写事件,合并后只重载一次。
const watchDebounce = 500 * time.Millisecond

// Watch 监听工件目录:新建/覆盖的 .json 热加载,删除的卸载。
// 阻塞直到 ctx 取消;目录本身无法监听时返回错误。
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(r.dir); err != nil {
		return err
	}
	logger.Infof("[store] 正在监听模型目录: %s", r.dir)

	var mu sync.Mutex
	pending := make(map[string]fsnotify.Op)
	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}

	flush := func() {
		mu.Lock()
		batch := pending
		pending = make(map[string]fsnotify.Op)
		mu.Unlock()
		for path, op := range batch {
			name := strings.TrimSuffix(filepath.Base(path), artifactExt)
			if op&fsnotify.Remove != 0 || op&fsnotify.Rename != 0 {
				r.drop(name)
				continue
			}
			if err := r.loadFile(path); err != nil {
				logger.Errorf("[store] 热加载 %s 失败: %v", name, err)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(evt.Name, artifactExt) {
				continue
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			mu.Lock()
			pending[evt.Name] |= evt.Op
			mu.Unlock()
			timer.Reset(watchDebounce)
		case <-timer.C:
			flush()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("[store] watcher 错误: %v", err)
		}
	}
}
