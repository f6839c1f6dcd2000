package comparison

import (
	"context"
	"testing"

	"fair-ats-go/internal/anonymizer"
	"fair-ats-go/internal/extractor"
	"fair-ats-go/internal/nlp"
	"fair-ats-go/internal/scorer"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zeroEmbedder 永远返回零向量, 语义相似度恒为0
type zeroEmbedder struct{}

func (zeroEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range out {
		out[i] = []float64{0, 0}
	}
	return out, nil
}

func (zeroEmbedder) GetDimensions() int { return 2 }

func newTestComparer() *Comparer {
	recognizer := nlp.NewBlankRecognizer()
	ext := extractor.NewExtractor(recognizer)
	s := scorer.NewScorer(zeroEmbedder{}, ext)
	return NewComparer(anonymizer.NewAnonymizer(recognizer), s)
}

func TestExtractKeywords(t *testing.T) {
	m := NewKeywordMatcher()

	keywords := m.ExtractKeywords("The senior engineer should have Python and AWS experience")

	// 停用词和长度<=2的词被剔除
	assert.Contains(t, keywords, "senior")
	assert.Contains(t, keywords, "engineer")
	assert.Contains(t, keywords, "python")
	assert.Contains(t, keywords, "aws")
	assert.NotContains(t, keywords, "the")
	assert.NotContains(t, keywords, "and")
	assert.NotContains(t, keywords, "should")
	assert.NotContains(t, keywords, "have")
}

func TestKeywordScoreBounds(t *testing.T) {
	m := NewKeywordMatcher()

	// 简历关键词是岗位关键词的超集 → 1.0
	assert.Equal(t, 1.0, m.Score("python aws", "python aws docker kubernetes"))

	// 完全不相交 → 0.0
	assert.Equal(t, 0.0, m.Score("python aws", "carpentry woodwork"))

	// 岗位关键词为空 → 0.0
	assert.Equal(t, 0.0, m.Score("", "python"))
	assert.Equal(t, 0.0, m.Score("the and of", "python"))

	// 部分重合
	assert.InDelta(t, 0.5, m.Score("python aws", "python carpentry"), 1e-9)
}

func TestCompareStats(t *testing.T) {
	c := newTestComparer()

	// 岗位无词表技能 → 公平侧skillMatch=0.5 →
	// 分层改写后恒为0.6 >= 0.4, 全部通过公平流水线。
	// 传统侧: 只有与岗位关键词重合的简历通过。
	jobText := "zulu quebec whiskey"
	resumes := []string{
		"zulu quebec whiskey",  // 传统侧1.0通过
		"completely different", // 传统侧0.0拒绝
		"nothing matching",     // 传统侧0.0拒绝
	}

	stats, err := c.Compare(context.Background(), resumes, jobText, 0.4)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalResumes)
	assert.Equal(t, 1, stats.TraditionalAccepted)
	assert.Equal(t, 2, stats.TraditionalRejected)
	assert.Equal(t, 3, stats.FairAccepted)
	assert.Equal(t, 0, stats.FairRejected)
	assert.InDelta(t, 66.666, stats.TraditionalRejectionRate, 0.01)
	assert.Equal(t, 0.0, stats.FairRejectionRate)
	assert.Equal(t, 2, stats.Improvement)
}

func TestCompareEmptyBatch(t *testing.T) {
	c := newTestComparer()

	stats, err := c.Compare(context.Background(), nil, "any job", 0.4)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalResumes)
	assert.Equal(t, 0.0, stats.TraditionalRejectionRate)
	assert.Equal(t, 0, stats.Improvement)
}

func TestCompareImprovementCanBeNegative(t *testing.T) {
	c := newTestComparer()

	// 阈值0.7: 公平侧0.6全部被拒, 传统侧完全重合通过
	stats, err := c.Compare(context.Background(), []string{"zulu quebec whiskey"}, "zulu quebec whiskey", 0.7)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TraditionalAccepted)
	assert.Equal(t, 0, stats.FairAccepted)
	assert.Equal(t, -1, stats.Improvement)
}
