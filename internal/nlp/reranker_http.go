package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"fair-ats-go/internal/config"
)

// 分数缩放模式。ms-marco系列交叉编码器输出原始logit需要sigmoid压缩,
// stsb系列模型直接输出[0,1]不需要再处理。
const (
	ScoreScaleSigmoid = "sigmoid"
	ScoreScaleNone    = "none"
)

// HTTPReranker 通过HTTP调用交叉编码器(成对相关性)服务
type HTTPReranker struct {
	serverURL  string
	model      string
	scoreScale string
	httpClient *http.Client
}

// rerankRequest 成对打分请求体
type rerankRequest struct {
	Model string      `json:"model,omitempty"`
	Pairs [][2]string `json:"pairs"`
}

// rerankResponse 成对打分响应体, scores与pairs按下标对应
type rerankResponse struct {
	Scores []float64 `json:"scores"`
	Error  string    `json:"error,omitempty"`
}

// NewHTTPReranker 创建交叉编码器服务客户端
func NewHTTPReranker(cfg config.RerankerConfig) (*HTTPReranker, error) {
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("交叉编码器服务地址不能为空")
	}

	scoreScale := cfg.ScoreScale
	switch scoreScale {
	case "":
		scoreScale = ScoreScaleSigmoid
	case ScoreScaleSigmoid, ScoreScaleNone:
	default:
		return nil, fmt.Errorf("未知的score_scale: %q (支持 sigmoid / none)", cfg.ScoreScale)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPReranker{
		serverURL:  strings.TrimRight(cfg.ServerURL, "/"),
		model:      cfg.Model,
		scoreScale: scoreScale,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Relevance 实现Reranker接口, 对单个文本对打分, 返回值已缩放到[0,1]
func (r *HTTPReranker) Relevance(ctx context.Context, textA, textB string) (float64, error) {
	scores, err := r.Scores(ctx, [][2]string{{textA, textB}})
	if err != nil {
		return 0, err
	}
	if len(scores) != 1 {
		return 0, fmt.Errorf("交叉编码器返回了 %d 个分数, 期望1个", len(scores))
	}
	return scores[0], nil
}

// Scores 批量对文本对打分, 返回值与输入按下标对应且已缩放到[0,1]
func (r *HTTPReranker) Scores(ctx context.Context, pairs [][2]string) ([]float64, error) {
	if len(pairs) == 0 {
		return []float64{}, nil
	}

	jsonData, err := json.Marshal(rerankRequest{Model: r.model, Pairs: pairs})
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.serverURL+"/rerank", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("交叉编码器调用失败, 状态码: %d, 响应: %s", resp.StatusCode, string(body))
	}

	var parsed rerankResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("解析响应JSON失败: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("交叉编码器返回错误: %s", parsed.Error)
	}
	if len(parsed.Scores) != len(pairs) {
		return nil, fmt.Errorf("分数数量与输入不一致: 期望 %d, 实际 %d", len(pairs), len(parsed.Scores))
	}

	out := make([]float64, len(parsed.Scores))
	for i, s := range parsed.Scores {
		out[i] = r.rescale(s)
	}
	return out, nil
}

// rescale 按配置把模型原始输出压缩到[0,1]
func (r *HTTPReranker) rescale(score float64) float64 {
	if r.scoreScale == ScoreScaleSigmoid {
		return 1.0 / (1.0 + math.Exp(-score))
	}
	return score
}
