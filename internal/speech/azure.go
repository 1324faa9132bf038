package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"jarvis/internal/logger"
)

// Azure 语音服务的短音频识别接口。凭据从环境变量注入,没配凭据时
// 服务照常启动,转写接口返回未配置错误。

// ErrNotConfigured 未配置语音服务凭据。
var ErrNotConfigured = errors.New("语音服务未配置")

const defaultLanguage = "es-ES"

type Config struct {
	Key      string
	Region   string
	Language string
	// Endpoint 覆盖默认的区域地址,测试时指向本地伪服务。
	Endpoint string
	Timeout  time.Duration
}

// Transcription 一次识别的结果。Status 透传服务端的识别状态,
// 没识别出内容时 Text 为空。
type Transcription struct {
	Text     string `json:"text"`
	Status   string `json:"status"`
	Language string `json:"language"`
}

type Client struct {
	key      string
	language string
	endpoint string
	httpc    *http.Client
}

func NewClient(cfg Config) *Client {
	lang := cfg.Language
	if lang == "" {
		lang = defaultLanguage
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" && cfg.Region != "" {
		endpoint = fmt.Sprintf("https://%s.stt.speech.microsoft.com", cfg.Region)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		key:      cfg.Key,
		language: lang,
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: timeout},
	}
}

// Configured 是否具备调用条件。
func (c *Client) Configured() bool {
	return c != nil && c.key != "" && c.endpoint != ""
}

// Transcribe 识别一段短音频。contentType 形如 audio/wav,空值按 wav 处理。
func (c *Client) Transcribe(ctx context.Context, audio []byte, contentType string) (*Transcription, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if len(audio) == 0 {
		return nil, errors.New("音频内容为空")
	}
	if contentType == "" {
		contentType = "audio/wav"
	}

	url := fmt.Sprintf("%s/speech/recognition/conversation/cognitiveservices/v1?language=%s&format=simple",
		c.endpoint, c.language)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(audio))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("语音服务请求失败: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("语音服务返回 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	status := gjson.GetBytes(body, "RecognitionStatus").String()
	text := gjson.GetBytes(body, "DisplayText").String()
	if status != "Success" {
		logger.Warnf("语音识别未成功: status=%s", status)
	}
	return &Transcription{Text: text, Status: status, Language: c.language}, nil
}
