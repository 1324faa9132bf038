package app

import (
	"fmt"
	"sort"
	"strings"
)

// StartupSummary 启动时打印一次的配置概要,方便核对部署形态。
type StartupSummary struct {
	Addr             string
	ModelsDir        string
	LoadedModels     []string
	Aliases          map[string]string
	Watch            bool
	SpeechConfigured bool
	FaceConfigured   bool
	HistoryEnabled   bool
	RegistryEnabled  bool
}

func (s *StartupSummary) Print() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("%*s\n", 40+len("启动配置摘要 (STARTUP SUMMARY)")/2, "启动配置摘要 (STARTUP SUMMARY)")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Println("[服务 (SERVICE)]")
	fmt.Printf("  监听地址: %s\n", s.Addr)
	fmt.Printf("  目录监听: %s\n", onOff(s.Watch))
	fmt.Println()

	fmt.Println("[模型仓库 (MODEL REGISTRY)]")
	fmt.Printf("  工件目录: %s\n", s.ModelsDir)
	fmt.Printf("  已加载模型: %s\n", formatList(s.LoadedModels))
	if len(s.Aliases) > 0 {
		keys := make([]string, 0, len(s.Aliases))
		for k := range s.Aliases {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Println("  别名:")
		for _, k := range keys {
			fmt.Printf("    %s -> %s\n", k, s.Aliases[k])
		}
	}
	fmt.Println()

	fmt.Println("[外部服务 (EXTERNAL SERVICES)]")
	fmt.Printf("  语音识别: %s\n", configuredLabel(s.SpeechConfigured))
	fmt.Printf("  表情检测: %s\n", configuredLabel(s.FaceConfigured))
	fmt.Println()

	fmt.Println("[持久化 (PERSISTENCE)]")
	fmt.Printf("  推理历史: %s\n", onOff(s.HistoryEnabled))
	fmt.Printf("  工件元数据: %s\n", onOff(s.RegistryEnabled))
	fmt.Println(strings.Repeat("=", 80))
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func onOff(v bool) string {
	if v {
		return "开启"
	}
	return "关闭"
}

func configuredLabel(v bool) string {
	if v {
		return "已配置"
	}
	return "未配置"
}
