package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"fair-ats-go/internal/config"

	"github.com/cloudwego/eino/components/embedding"
)

// HTTPEmbedder 通过OpenAI兼容接口调用嵌入服务, 实现 embedding.Embedder 接口。
// 本地all-MiniLM类服务和云端兼容接口均可使用。
type HTTPEmbedder struct {
	apiKey     string
	model      string // 默认模型
	dimensions int    // 默认维度
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger
}

// NewHTTPEmbedder 创建嵌入服务客户端 (OpenAI兼容endpoint)
func NewHTTPEmbedder(embeddingCfg config.EmbeddingConfig) (*HTTPEmbedder, error) {
	baseURL := embeddingCfg.BaseURL
	if baseURL == "" {
		return nil, fmt.Errorf("嵌入服务地址不能为空")
	}

	model := embeddingCfg.Model
	if model == "" {
		model = "all-MiniLM-L6-v2" // Fallback default
	}

	return &HTTPEmbedder{
		apiKey:     embeddingCfg.APIKey,
		model:      model,
		dimensions: embeddingCfg.Dimensions,
		httpClient: &http.Client{},
		baseURL:    baseURL,
		logger:     log.New(os.Stderr, "[HTTPEmbedder] ", log.LstdFlags|log.Lshortfile),
	}, nil
}

// GetDimensions 返回嵌入器配置的维度 (helper, 不属于eino.Embedder接口)
func (e *HTTPEmbedder) GetDimensions() int {
	return e.dimensions
}

// openAIEmbeddingRequest 嵌入请求结构 (OpenAI兼容)
type openAIEmbeddingRequest struct {
	Input          interface{} `json:"input"` // string 或 []string
	Model          string      `json:"model"`
	Dimensions     int         `json:"dimensions,omitempty"`
	EncodingFormat string      `json:"encoding_format,omitempty"`
}

// openAIEmbeddingResponse 嵌入响应结构 (OpenAI兼容)
type openAIEmbeddingResponse struct {
	Object string              `json:"object"`
	Data   []openAIDataEntry   `json:"data"`
	Model  string              `json:"model"`
	Usage  openAIUsage         `json:"usage"`
	ID     string              `json:"id,omitempty"`
	Error  *openAIServiceError `json:"error,omitempty"`
}

type openAIDataEntry struct {
	Object    string    `json:"object"`
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

type openAIUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// openAIServiceError 200 OK响应体内携带的API级错误
type openAIServiceError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param"`
	Code    string `json:"code"`
}

// EmbedStrings 将一批文本转换为向量, 实现 cloudwego/eino embedding.Embedder 接口。
// 返回的向量与输入文本按下标一一对应。
func (e *HTTPEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	options := &embedding.Options{}
	embedding.GetCommonOptions(options, opts...)

	effectiveModel := e.model
	if options.Model != nil && *options.Model != "" {
		effectiveModel = *options.Model
	}

	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	var inputBody interface{}
	if len(texts) == 1 {
		inputBody = texts[0]
	} else {
		inputBody = texts
	}

	reqBody := openAIEmbeddingRequest{
		Input: inputBody,
		Model: effectiveModel,
	}
	if e.dimensions > 0 {
		reqBody.Dimensions = e.dimensions
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiError openAIServiceError
		detailedError := fmt.Errorf("API调用失败, 状态码: %d, 响应: %s", resp.StatusCode, string(body))
		// 尝试从body中解析更详细的错误信息
		if json.Unmarshal(body, &apiError) == nil && apiError.Message != "" {
			detailedError = fmt.Errorf("API调用失败, 状态码: %d, 类型: %s, 错误: %s, Code: %s",
				resp.StatusCode, apiError.Type, apiError.Message, apiError.Code)
		}
		e.logger.Printf("API call failed: %v", detailedError)
		return nil, detailedError
	}

	var parsedResp openAIEmbeddingResponse
	if err := json.Unmarshal(body, &parsedResp); err != nil {
		return nil, fmt.Errorf("解析响应JSON失败: %w. Body: %s", err, string(body))
	}

	// 检查响应中是否包含API级别的错误 (例如, 输入文本过多)
	if parsedResp.Error != nil && parsedResp.Error.Message != "" {
		return nil, fmt.Errorf("API返回错误: 类型=%s, 消息='%s', Code=%s",
			parsedResp.Error.Type, parsedResp.Error.Message, parsedResp.Error.Code)
	}

	if len(parsedResp.Data) != len(texts) {
		return nil, fmt.Errorf("嵌入数量与输入不一致: 期望 %d, 实际 %d", len(texts), len(parsedResp.Data))
	}

	// 按Index字段归位, 部分服务不保证data按输入顺序返回
	outputEmbeddings := make([][]float64, len(texts))
	for i, dataEntry := range parsedResp.Data {
		idx := dataEntry.Index
		if idx < 0 || idx >= len(texts) {
			idx = i
		}
		outputEmbeddings[idx] = dataEntry.Embedding
	}

	e.logger.Printf("Successfully embedded %d texts. First embedding dim (if any): %d. Prompt tokens: %d, Total tokens: %d",
		len(texts), firstEmbeddingDim(outputEmbeddings), parsedResp.Usage.PromptTokens, parsedResp.Usage.TotalTokens)

	return outputEmbeddings, nil
}

// firstEmbeddingDim 安全获取第一个向量的维度, 仅用于日志
func firstEmbeddingDim(embeddings [][]float64) int {
	if len(embeddings) > 0 && len(embeddings[0]) > 0 {
		return len(embeddings[0])
	}
	return 0
}
