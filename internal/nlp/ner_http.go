package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"fair-ats-go/internal/config"
	"fair-ats-go/internal/logger"
	"fair-ats-go/internal/types"
)

// HTTPRecognizer 通过HTTP调用spaCy NER边车服务
type HTTPRecognizer struct {
	serverURL  string
	model      string
	httpClient *http.Client
}

// nerRequest NER服务请求体
type nerRequest struct {
	Model string `json:"model,omitempty"`
	Text  string `json:"text"`
}

// nerResponse NER服务响应体
type nerResponse struct {
	Entities  []types.EntitySpan   `json:"entities"`
	Sentences []types.SentenceSpan `json:"sentences"`
	Error     string               `json:"error,omitempty"`
}

// NewHTTPRecognizer 创建NER服务客户端
func NewHTTPRecognizer(cfg config.NERConfig) (*HTTPRecognizer, error) {
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("NER服务地址不能为空")
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPRecognizer{
		serverURL:  strings.TrimRight(cfg.ServerURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Probe 检查NER服务是否可用
func (r *HTTPRecognizer) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.serverURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("创建健康检查请求失败: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("NER服务不可达: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("NER服务健康检查失败, 状态码: %d", resp.StatusCode)
	}
	return nil
}

// Recognize 实现EntityRecognizer接口
func (r *HTTPRecognizer) Recognize(ctx context.Context, text string) ([]types.EntitySpan, error) {
	resp, err := r.call(ctx, "/ner", text)
	if err != nil {
		return nil, err
	}
	return resp.Entities, nil
}

// Sentences 实现EntityRecognizer接口
func (r *HTTPRecognizer) Sentences(ctx context.Context, text string) ([]types.SentenceSpan, error) {
	resp, err := r.call(ctx, "/sentences", text)
	if err != nil {
		return nil, err
	}
	return resp.Sentences, nil
}

// call 发送请求并解析响应。偏移量约定为UTF-8字节偏移。
func (r *HTTPRecognizer) call(ctx context.Context, path, text string) (*nerResponse, error) {
	if text == "" {
		return &nerResponse{}, nil
	}

	jsonData, err := json.Marshal(nerRequest{Model: r.model, Text: text})
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.serverURL+path, bytes.NewBuffer(jsonData))
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
		return nil, fmt.Errorf("NER服务调用失败, 状态码: %d, 响应: %s", resp.StatusCode, string(body))
	}

	var parsed nerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("解析响应JSON失败: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("NER服务返回错误: %s", parsed.Error)
	}
	return &parsed, nil
}

// BlankRecognizer 空白识别器: 不返回任何实体, 分句退化为标点切分。
// 当NER模型/服务在启动时不可用时作为降级方案, 下游抽取得到空实体列表而不是崩溃。
type BlankRecognizer struct{}

// NewBlankRecognizer 创建空白识别器
func NewBlankRecognizer() *BlankRecognizer {
	return &BlankRecognizer{}
}

// Recognize 永远返回空实体列表
func (b *BlankRecognizer) Recognize(ctx context.Context, text string) ([]types.EntitySpan, error) {
	return []types.EntitySpan{}, nil
}

// Sentences 朴素分句: 以 . ! ? 及换行作为句子边界
func (b *BlankRecognizer) Sentences(ctx context.Context, text string) ([]types.SentenceSpan, error) {
	var sentences []types.SentenceSpan
	start := 0
	flush := func(end int) {
		raw := text[start:end]
		if strings.TrimSpace(raw) != "" {
			sentences = append(sentences, types.SentenceSpan{Start: start, End: end, Text: raw})
		}
		start = end
	}

	for i, ch := range text {
		switch ch {
		case '\n':
			flush(i)
			start = i + 1
		case '.', '!', '?':
			// 句号后接空白或文本结尾才视为句子边界, 避免切碎 "Node.js" 一类的词
			next := i + len(string(ch))
			if next >= len(text) || unicode.IsSpace(rune(text[next])) {
				flush(next)
			}
		}
	}
	if start < len(text) {
		flush(len(text))
	}
	if sentences == nil {
		sentences = []types.SentenceSpan{}
	}
	return sentences, nil
}

// NewRecognizer 按缺失模型降级策略构造识别器: 服务探测失败时
// 记录警告并退回空白识别器, 而不是让进程启动失败。
func NewRecognizer(ctx context.Context, cfg config.NERConfig) EntityRecognizer {
	recognizer, err := NewHTTPRecognizer(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("NER服务配置无效, 降级为空白识别器")
		return NewBlankRecognizer()
	}
	if err := recognizer.Probe(ctx); err != nil {
		logger.Warn().Err(err).Str("server_url", cfg.ServerURL).
			Msg("NER服务探测失败, 降级为空白识别器, 实体抽取将返回空结果")
		return NewBlankRecognizer()
	}
	return recognizer
}
