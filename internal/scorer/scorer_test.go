package scorer

import (
	"context"
	"testing"

	"fair-ats-go/internal/extractor"
	"fair-ats-go/internal/nlp"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder 按预置映射返回向量, 未知文本返回零向量
type fakeEmbedder struct {
	vectors map[string][]float64
	calls   int
}

func (f *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	f.calls++
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if v, ok := f.vectors[text]; ok {
			out[i] = v
		} else {
			out[i] = []float64{0, 0}
		}
	}
	return out, nil
}

func (f *fakeEmbedder) GetDimensions() int { return 2 }

func newTestScorer(vectors map[string][]float64) (*Scorer, *fakeEmbedder) {
	emb := &fakeEmbedder{vectors: vectors}
	ext := extractor.NewExtractor(nlp.NewBlankRecognizer())
	return NewScorer(emb, ext), emb
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 0}, []float64{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)

	// 维度不一致或零向量
	assert.Equal(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{1}))
	assert.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{1, 0}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
}

func TestSimilarityEmptyTextSkipsEmbedding(t *testing.T) {
	s, emb := newTestScorer(nil)

	sim, err := s.Similarity(context.Background(), "", "resume")
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)

	sim, err = s.Similarity(context.Background(), "job", "   ")
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)

	assert.Equal(t, 0, emb.calls)
}

func TestScoreFullSkillOverlapTopTier(t *testing.T) {
	jobText := "Python, AWS, Docker"
	resumeText := "Python, AWS, Docker"
	s, _ := newTestScorer(map[string][]float64{
		jobText: {1, 0},
		// 两侧词表技能一致, 上下文相似度也会对同一拼接串求嵌入
		"python, r, aws, docker": {0, 1},
	})

	result, err := s.Score(context.Background(), jobText, resumeText)
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.Components.SkillMatch)
	// 顶层分层: 0.70 + 0.30*raw, raw=1.0 → 截断到0.95
	assert.Equal(t, 0.95, result.FinalScore)
	assert.GreaterOrEqual(t, result.FinalScore, 0.70)
}

func TestScoreNoOverlapBottomTier(t *testing.T) {
	s, _ := newTestScorer(nil) // 全部零向量, 所有相似度为0

	result, err := s.Score(context.Background(), "django flask", "carpentry woodwork")
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Components.SkillMatch)
	// raw=0 → 底层分层 raw*1.2=0 → 下限截断
	assert.Equal(t, 0.15, result.FinalScore)
}

func TestScoreNeutralSkillMatchWhenJobHasNoSkills(t *testing.T) {
	s, _ := newTestScorer(nil)

	// 岗位文本不含任何词表技能 → skillMatch取中性值0.5
	result, err := s.Score(context.Background(), "zz vv", "zz vv")
	require.NoError(t, err)

	assert.Equal(t, 0.5, result.Components.SkillMatch)
	// raw = 0.5*0.5 = 0.25, 中层分层: 0.50 + 0.40*0.25 = 0.60
	assert.Equal(t, 0.60, result.FinalScore)
}

func TestScoreBoundsInvariant(t *testing.T) {
	s, _ := newTestScorer(map[string][]float64{
		"some job":    {1, 0},
		"some resume": {-1, 0},
	})

	result, err := s.Score(context.Background(), "some job", "some resume")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.FinalScore, 0.15)
	assert.LessOrEqual(t, result.FinalScore, 0.95)
}

func TestRescaleByTier(t *testing.T) {
	// 同一raw分数下, 各层边界处分数随skillMatch非递减
	raw := 0.5
	assert.InDelta(t, 0.85, rescaleByTier(raw, 0.70), 1e-9)
	assert.InDelta(t, 0.70, rescaleByTier(raw, 0.50), 1e-9)
	assert.InDelta(t, 0.575, rescaleByTier(raw, 0.30), 1e-9)
	assert.InDelta(t, 0.60, rescaleByTier(raw, 0.29), 1e-9)

	// 层内对raw单调非递减
	assert.Greater(t, rescaleByTier(0.9, 0.8), rescaleByTier(0.1, 0.8))
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 0.123, Round3(0.1234))
	assert.Equal(t, 0.124, Round3(0.1235))
	assert.Equal(t, 1.0, Round3(0.9999))
}
