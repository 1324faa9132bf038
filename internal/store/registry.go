// Package store 实现模型仓库:启动时扫描工件目录,把每个 JSON 工件
// 反序列化进内存,按文件名（去扩展名）索引。加载后的 Bundle 只读,
// 可被所有并发请求共享。
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"jarvis/internal/logger"
	"jarvis/internal/model"
)

const artifactExt = ".json"

// Registry 模型名 -> Bundle 的内存仓库,外加单跳别名表。
type Registry struct {
	dir     string
	aliases map[string]string

	mu     sync.RWMutex
	models map[string]*model.Bundle

	// onLoad 每成功加载一个工件回调一次（工件元数据存储挂在这里）。
	onLoad func(name, path string, b *model.Bundle)
	// onDrop 工件被移除时回调。
	onDrop func(name string)
}

// NewRegistry 构造仓库,不加载。aliases 的键统一小写。
func NewRegistry(dir string, aliases map[string]string) *Registry {
	normalized := make(map[string]string, len(aliases))
	for from, to := range aliases {
		from = strings.ToLower(strings.TrimSpace(from))
		to = strings.TrimSpace(to)
		if from == "" || to == "" {
			continue
		}
		normalized[from] = to
	}
	return &Registry{
		dir:     dir,
		aliases: normalized,
		models:  make(map[string]*model.Bundle),
	}
}

// SetLoadHook 注册加载回调。必须在 LoadAll 之前调用。
func (r *Registry) SetLoadHook(fn func(name, path string, b *model.Bundle)) {
	r.onLoad = fn
}

// SetDropHook 注册卸载回调。
func (r *Registry) SetDropHook(fn func(name string)) {
	r.onDrop = fn
}

// LoadAll 扫描目录并加载所有工件。单个工件损坏只记日志并跳过,
// 不影响其它模型;目录缺失不致命,仓库保持空且 not ready。
func (r *Registry) LoadAll() {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		logger.Warnf("[store] 模型目录不可读: %s (%v)", r.dir, err)
		return
	}
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), artifactExt) {
			continue
		}
		if err := r.loadFile(filepath.Join(r.dir, entry.Name())); err != nil {
			logger.Errorf("[store] 加载 %s 失败: %v", entry.Name(), err)
			continue
		}
		loaded++
	}
	logger.Infof("[store] 已加载 %d 个模型 (dir=%s)", loaded, r.dir)
}

// loadFile 加载/覆盖单个工件,名字取文件 stem。
func (r *Registry) loadFile(path string) error {
	name := strings.TrimSuffix(filepath.Base(path), artifactExt)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	bundle, err := model.DecodeArtifact(name, data)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	r.mu.Lock()
	r.models[name] = bundle
	r.mu.Unlock()
	logger.Infof("[store] 模型已加载: %s", name)
	if r.onLoad != nil {
		r.onLoad(name, path, bundle)
	}
	return nil
}

// drop 移除一个模型（工件被删除时由 watcher 调用）。
func (r *Registry) drop(name string) {
	r.mu.Lock()
	_, ok := r.models[name]
	delete(r.models, name)
	r.mu.Unlock()
	if ok {
		logger.Infof("[store] 模型已卸载: %s", name)
		if r.onDrop != nil {
			r.onDrop(name)
		}
	}
}

// Resolve 单跳别名解析,返回规范名。非别名原样返回（小写化）。
func (r *Registry) Resolve(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if target, ok := r.aliases[key]; ok {
		return target
	}
	return key
}

// Get 返回已加载的 Bundle。name 先过别名解析。
func (r *Registry) Get(name string) (*model.Bundle, bool) {
	canonical := r.Resolve(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.models[canonical]
	return b, ok
}

// Names 返回所有已加载模型名,外加目标已加载的别名,排序稳定。
func (r *Registry) Names() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.models)+len(r.aliases))
	for name := range r.models {
		out = append(out, name)
	}
	for alias, target := range r.aliases {
		if _, ok := r.models[target]; ok {
			out = append(out, alias)
		}
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// LoadedNames 只返回已加载的规范名（不含别名）。
func (r *Registry) LoadedNames() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.models))
	for name := range r.models {
		out = append(out, name)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Ready 至少加载了一个模型。
func (r *Registry) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models) > 0
}

// Dir 返回工件目录。
func (r *Registry) Dir() string { return r.dir }
