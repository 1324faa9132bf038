package inference

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoInput 调用时 features 和 params 都没给。
var ErrNoInput = errors.New("必须提供 features 或 params 其中之一")

// NotFoundError 请求的模型不存在(别名解析之后仍未命中)。
type NotFoundError struct {
	Model     string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("未找到模型 %s,当前可用: %s", e.Model, strings.Join(e.Available, ", "))
}

// NotReadyError 模型目录还没有任何可用工件。
type NotReadyError struct {
	Dir string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("模型仓库尚未就绪: %s 下没有可用工件", e.Dir)
}

// InferenceError 特征向量进入估计器后失败(常见是维度不符)。
type InferenceError struct {
	Model string
	Input []float64
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("模型 %s 推理失败(输入 %d 维): %v", e.Model, len(e.Input), e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
