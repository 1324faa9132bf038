package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Models.validate(); err != nil {
		return err
	}
	if err := c.Speech.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level 不支持: %s", a.LogLevel)
	}
	switch strings.ToLower(strings.TrimSpace(a.LogFormat)) {
	case "", "text", "json":
	default:
		return fmt.Errorf("app.log_format 仅支持 text/json, got %s", a.LogFormat)
	}
	if strings.TrimSpace(a.HTTPAddr) == "" {
		return fmt.Errorf("app.http_addr 不能为空")
	}
	return nil
}

func (m *ModelsConfig) validate() error {
	if strings.TrimSpace(m.Dir) == "" {
		return fmt.Errorf("models.dir 不能为空")
	}
	// 别名只做单跳解析；别名再指向别名属于配置错误,在这里直接拒绝。
	for from, to := range m.Aliases {
		if _, ok := m.Aliases[strings.ToLower(to)]; ok {
			return fmt.Errorf("models.aliases 不支持链式别名: %s -> %s", from, to)
		}
	}
	return nil
}

func (s *SpeechConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "", "azure":
	default:
		return fmt.Errorf("speech.provider 仅支持 azure, got %s", s.Provider)
	}
	return nil
}
