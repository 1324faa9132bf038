package vision

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
)

// Azure 人脸服务的表情检测封装。对上层只暴露聚合后的情绪回执。

// ErrNotConfigured 未配置人脸服务凭据。
var ErrNotConfigured = errors.New("人脸服务未配置")

// NoFace 图片里没检测到人脸时的主导情绪占位值。
const NoFace = "no_face"

type Config struct {
	// Endpoint 形如 https://<resource>.cognitiveservices.azure.com
	Endpoint string
	Key      string
	Timeout  time.Duration
}

// Box 人脸框,像素坐标。
type Box struct {
	Top    int `json:"top"`
	Left   int `json:"left"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FaceDetail 单张人脸的检测明细。
type FaceDetail struct {
	Box        Box                `json:"box"`
	TopEmotion string             `json:"top_emotion"`
	Scores     map[string]float64 `json:"scores"`
}

// Sentiment 整张图片的情绪回执:各脸得分取均值后再取主导情绪。
type Sentiment struct {
	DominantEmotion string       `json:"dominant_emotion"`
	FaceCount       int          `json:"face_count"`
	Details         []FaceDetail `json:"details"`
}

type Client struct {
	endpoint string
	key      string
	httpc    *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		key:      cfg.Key,
		httpc:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.key != "" && c.endpoint != ""
}

// DetectSentiment 检测图片里所有人脸的表情并聚合。
func (c *Client) DetectSentiment(ctx context.Context, image []byte) (*Sentiment, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if len(image) == 0 {
		return nil, errors.New("图片内容为空")
	}

	url := c.endpoint + "/face/v1.0/detect?returnFaceAttributes=emotion&detectionModel=detection_01"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(image))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("人脸服务请求失败: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("人脸服务返回 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return aggregate(body), nil
}

// aggregate 解析检测数组并聚合:逐脸取最高分情绪,整图按各情绪均值
// 取主导情绪;没有人脸时主导情绪记 no_face。
func aggregate(body []byte) *Sentiment {
	faces := gjson.ParseBytes(body).Array()
	out := &Sentiment{DominantEmotion: NoFace, Details: []FaceDetail{}}
	if len(faces) == 0 {
		return out
	}

	sums := map[string]float64{}
	for _, face := range faces {
		rect := face.Get("faceRectangle")
		scores := map[string]float64{}
		face.Get("faceAttributes.emotion").ForEach(func(k, v gjson.Result) bool {
			scores[k.String()] = v.Float()
			return true
		})
		for k, v := range scores {
			sums[k] += v
		}
		out.Details = append(out.Details, FaceDetail{
			Box: Box{
				Top:    int(rect.Get("top").Int()),
				Left:   int(rect.Get("left").Int()),
				Width:  int(rect.Get("width").Int()),
				Height: int(rect.Get("height").Int()),
			},
			TopEmotion: topEmotion(scores),
			Scores:     scores,
		})
	}
	out.FaceCount = len(faces)
	means := make(map[string]float64, len(sums))
	for k, v := range sums {
		means[k] = v / float64(len(faces))
	}
	out.DominantEmotion = topEmotion(means)
	return out
}

// topEmotion 取分值最高的情绪;同分时按名字序,保证结果稳定。
func topEmotion(scores map[string]float64) string {
	best := ""
	bestScore := -1.0
	for k, v := range scores {
		if v > bestScore || (v == bestScore && k < best) {
			best, bestScore = k, v
		}
	}
	if best == "" {
		return NoFace
	}
	return best
}
