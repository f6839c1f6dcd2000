package handler_test

import (
	"context"
	"encoding/json"
	"testing"

	"fair-ats-go/internal/anonymizer"
	"fair-ats-go/internal/api/handler"
	"fair-ats-go/internal/comparison"
	"fair-ats-go/internal/config"
	"fair-ats-go/internal/extractor"
	"fair-ats-go/internal/nlp"
	"fair-ats-go/internal/scorer"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder 所有文本返回同一个向量, 余弦相似度恒为1
type fakeEmbedder struct{}

func (f *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = []float64{1, 0}
	}
	return vectors, nil
}

func (f *fakeEmbedder) GetDimensions() int { return 2 }

// fakeReranker 恒定成对相关性
type fakeReranker struct{ score float64 }

func (f *fakeReranker) Relevance(ctx context.Context, textA, textB string) (float64, error) {
	return f.score, nil
}

// newMatchHandler 用空识别器和假嵌入服务组装一个不依赖外部服务的处理器
func newMatchHandler(t *testing.T) *handler.MatchHandler {
	t.Helper()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	recognizer := nlp.NewBlankRecognizer()
	anon := anonymizer.NewAnonymizer(recognizer)
	ext := extractor.NewExtractor(recognizer)
	s := scorer.NewScorer(&fakeEmbedder{}, ext)
	r := scorer.NewRanker(&fakeEmbedder{}, &fakeReranker{score: 0.8}, ext, cfg.Scoring.ShortlistSize)
	c := comparison.NewComparer(anon, s)

	return handler.NewMatchHandler(cfg, nil, anon, s, r, c)
}

// newJSONContext 构造一个带JSON请求体的请求上下文
func newJSONContext(t *testing.T, body any) *app.RequestContext {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	ctx := app.NewContext(0)
	ctx.Request.Header.SetMethod("POST")
	ctx.Request.Header.SetContentTypeBytes([]byte("application/json"))
	ctx.Request.Header.SetContentLength(len(data))
	ctx.Request.SetBody(data)
	return ctx
}

func TestHandleAnonymizeRedactsPII(t *testing.T) {
	h := newMatchHandler(t)

	ctx := newJSONContext(t, map[string]string{
		"text": "Contact John at john.doe@example.com or 555-123-4567.",
	})
	h.HandleAnonymize(context.Background(), ctx)

	assert.Equal(t, consts.StatusOK, ctx.Response.StatusCode())

	var resp struct {
		AnonymizedText string `json:"anonymized_text"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Contains(t, resp.AnonymizedText, "[EMAIL REDACTED]")
	assert.Contains(t, resp.AnonymizedText, "[PHONE REDACTED]")
	assert.NotContains(t, resp.AnonymizedText, "john.doe@example.com")
	assert.NotContains(t, resp.AnonymizedText, "555-123-4567")
}

func TestHandleScoreRequiresBothTexts(t *testing.T) {
	h := newMatchHandler(t)

	ctx := newJSONContext(t, map[string]string{"job_text": "Engineer"})
	h.HandleScore(context.Background(), ctx)

	assert.Equal(t, consts.StatusBadRequest, ctx.Response.StatusCode())
}

func TestHandleScoreIdenticalTexts(t *testing.T) {
	h := newMatchHandler(t)

	// 同一段文本: 语义/技能/上下文全部满分, 压到上限0.95
	text := "Senior Rust developer"
	ctx := newJSONContext(t, map[string]string{"job_text": text, "resume_text": text})
	h.HandleScore(context.Background(), ctx)

	assert.Equal(t, consts.StatusOK, ctx.Response.StatusCode())

	var resp struct {
		FinalScore float64 `json:"final_score"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.InDelta(t, 0.95, resp.FinalScore, 1e-9)
}

func TestHandleRankRequiresJobText(t *testing.T) {
	h := newMatchHandler(t)

	ctx := newJSONContext(t, map[string]any{"resume_texts": []string{"a"}})
	h.HandleRank(context.Background(), ctx)

	assert.Equal(t, consts.StatusBadRequest, ctx.Response.StatusCode())
}

func TestHandleRankReturnsShortlist(t *testing.T) {
	h := newMatchHandler(t)

	ctx := newJSONContext(t, map[string]any{
		"job_text":     "Backend engineer with Go",
		"resume_texts": []string{"Go developer", "Data analyst", "Platform engineer"},
	})
	h.HandleRank(context.Background(), ctx)

	assert.Equal(t, consts.StatusOK, ctx.Response.StatusCode())

	var resp struct {
		Total  int `json:"total"`
		Ranked []struct {
			Index int     `json:"index"`
			Score float64 `json:"score"`
		} `json:"ranked"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Len(t, resp.Ranked, 3)
	for _, rc := range resp.Ranked {
		assert.GreaterOrEqual(t, rc.Index, 0)
		assert.Less(t, rc.Index, 3)
	}
}

func TestHandleCompareEmptyBatch(t *testing.T) {
	h := newMatchHandler(t)

	ctx := newJSONContext(t, map[string]any{
		"job_text":     "Backend engineer",
		"resume_texts": []string{},
	})
	h.HandleCompare(context.Background(), ctx)

	assert.Equal(t, consts.StatusOK, ctx.Response.StatusCode())

	var resp struct {
		TotalResumes int `json:"total_resumes"`
		Improvement  int `json:"improvement"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, 0, resp.TotalResumes)
	assert.Equal(t, 0, resp.Improvement)
}
