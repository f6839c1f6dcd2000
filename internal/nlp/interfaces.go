package nlp

import (
	"context"

	"fair-ats-go/internal/types"

	"github.com/cloudwego/eino/components/embedding"
)

//
// 实体识别相关接口
//

// EntityRecognizer 实体识别服务接口。
// 调用失败同步返回错误, 不在内部重试; 需要超时/取消语义的调用方自行包装ctx。
type EntityRecognizer interface {
	// Recognize 返回文本中识别出的带标签实体区间
	Recognize(ctx context.Context, text string) ([]types.EntitySpan, error)

	// Sentences 对文本分句
	Sentences(ctx context.Context, text string) ([]types.SentenceSpan, error)
}

//
// 向量嵌入相关接口
//

// TextEmbedder 文本向量化接口 (符合 cloudwego/eino 规范)
type TextEmbedder interface {
	// EmbedStrings 将一批文本转换为向量表示, 按输入顺序一一对应
	EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error)

	// GetDimensions 返回嵌入向量的维度
	GetDimensions() int
}

//
// 成对相关性相关接口
//

// Reranker 交叉编码器成对相关性接口, 返回值已缩放到[0,1]
type Reranker interface {
	// Relevance 直接对(textA, textB)计算相关性分数
	Relevance(ctx context.Context, textA, textB string) (float64, error)
}
