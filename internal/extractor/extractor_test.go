package extractor

import (
	"context"
	"testing"

	"fair-ats-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRecognizer 返回预置实体和句子的识别器桩
type stubRecognizer struct {
	entities  []types.EntitySpan
	sentences []types.SentenceSpan
}

func (s *stubRecognizer) Recognize(ctx context.Context, text string) ([]types.EntitySpan, error) {
	return s.entities, nil
}

func (s *stubRecognizer) Sentences(ctx context.Context, text string) ([]types.SentenceSpan, error) {
	return s.sentences, nil
}

func sentencesOf(texts ...string) []types.SentenceSpan {
	spans := make([]types.SentenceSpan, len(texts))
	for i, t := range texts {
		spans[i] = types.SentenceSpan{Text: t}
	}
	return spans
}

func TestExtractSkillsSubstringOrdered(t *testing.T) {
	e := NewExtractor(&stubRecognizer{})

	// 子串匹配不分词: "apis" 命中 "api", "docker" 命中单字母 "r"
	result, err := e.ExtractEntities(context.Background(), "Built apis with Go and Docker")
	require.NoError(t, err)

	assert.Equal(t, []string{"go", "r", "docker", "api"}, result.Skills)
}

func TestExtractSkillsDeduped(t *testing.T) {
	e := NewExtractor(&stubRecognizer{})

	result, err := e.ExtractEntities(context.Background(), "python python python")
	require.NoError(t, err)
	assert.Equal(t, []string{"python"}, result.Skills)
}

func TestExtractEducation(t *testing.T) {
	e := NewExtractor(&stubRecognizer{
		entities: []types.EntitySpan{
			{Label: "ORG", Text: "State University"},
			{Label: "ORG", Text: "Acme Corp"}, // 无教育关键词, 不收录
		},
		sentences: sentencesOf(
			"Graduated with a bachelor degree in CS in 2018.",
			"degree", // 过短
			"Visit my degree page at https://example.com for details.", // URL句排除
		),
	})

	result, err := e.ExtractEntities(context.Background(), "some resume text")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"State University",
		"Graduated with a bachelor degree in CS in 2018.",
	}, result.Education)
}

func TestExtractExperience(t *testing.T) {
	e := NewExtractor(&stubRecognizer{
		sentences: sentencesOf(
			"• Developed a distributed event ingestion pipeline.",
			"Experience", // 裸章节标题排除
			"Led teams.", // 过短
			"Reduced costs, see github.com/me for code.",        // URL句排除
			"Improved deployment reliability across 12 regions", // 无前导符号
		),
	})

	result, err := e.ExtractEntities(context.Background(), "some resume text")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Developed a distributed event ingestion pipeline.",
		"Improved deployment reliability across 12 regions",
	}, result.Experience)
}

func TestExtractEntitiesEmptyText(t *testing.T) {
	e := NewExtractor(&stubRecognizer{})

	result, err := e.ExtractEntities(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, result.Skills)
	assert.Empty(t, result.Experience)
	assert.Empty(t, result.Education)
	assert.NotNil(t, result.Skills)
}
