package comparison

import (
	"context"
	"regexp"

	"fair-ats-go/internal/anonymizer"
	"fair-ats-go/internal/scorer"
	"fair-ats-go/internal/types"
)

// stopWords 关键词基线的停用词闭集
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "from": {}, "as": {},
	"is": {}, "was": {}, "are": {}, "been": {}, "be": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"will": {}, "would": {}, "should": {},
	"can": {}, "could": {}, "may": {}, "might": {}, "must": {},
	"this": {}, "that": {}, "these": {}, "those": {},
}

var wordRegex = regexp.MustCompile(`\b[a-zA-Z]+\b`)

// KeywordMatcher 朴素关键词匹配基线: 模拟传统ATS只看词面重合的做法
type KeywordMatcher struct{}

// NewKeywordMatcher 创建关键词匹配器
func NewKeywordMatcher() *KeywordMatcher {
	return &KeywordMatcher{}
}

// ExtractKeywords 提取关键词集合: 小写字母词, 长度大于2, 剔除停用词
func (m *KeywordMatcher) ExtractKeywords(text string) map[string]struct{} {
	keywords := make(map[string]struct{})
	for _, loc := range wordRegex.FindAllStringIndex(text, -1) {
		word := toLowerASCII(text[loc[0]:loc[1]])
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		keywords[word] = struct{}{}
	}
	return keywords
}

// Score 关键词重合率: |岗位关键词 ∩ 简历关键词| / |岗位关键词|,
// 岗位关键词为空时记0.0
func (m *KeywordMatcher) Score(jobDescription, resumeText string) float64 {
	jdKeywords := m.ExtractKeywords(jobDescription)
	if len(jdKeywords) == 0 {
		return 0.0
	}

	resumeKeywords := m.ExtractKeywords(resumeText)
	matching := 0
	for kw := range jdKeywords {
		if _, ok := resumeKeywords[kw]; ok {
			matching++
		}
	}
	return float64(matching) / float64(len(jdKeywords))
}

// toLowerASCII 词已限定为纯字母, 手动小写避免每词一次的分配开销
func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Comparer 对比工具: 同一批简历分别跑传统关键词流水线和
// 公平流水线(脱敏+语义评分), 输出聚合统计。
type Comparer struct {
	keywordMatcher *KeywordMatcher
	anonymizer     *anonymizer.Anonymizer
	scorer         *scorer.Scorer
}

// NewComparer 创建对比工具
func NewComparer(anon *anonymizer.Anonymizer, s *scorer.Scorer) *Comparer {
	return &Comparer{
		keywordMatcher: NewKeywordMatcher(),
		anonymizer:     anon,
		scorer:         s,
	}
}

// Compare 对一批简历执行双流水线对比:
// 传统侧不脱敏, 用关键词重合率; 公平侧先脱敏简历文本再用评分引擎。
// 两侧都以 score >= rejectionThreshold 作为录用判定。
func (c *Comparer) Compare(ctx context.Context, resumes []string, jobText string, rejectionThreshold float64) (*types.ComparisonStats, error) {
	stats := &types.ComparisonStats{TotalResumes: len(resumes)}
	if len(resumes) == 0 {
		return stats, nil
	}

	for _, resume := range resumes {
		if c.keywordMatcher.Score(jobText, resume) >= rejectionThreshold {
			stats.TraditionalAccepted++
		}

		redacted, err := c.anonymizer.AnonymizeText(ctx, resume)
		if err != nil {
			return nil, err
		}
		result, err := c.scorer.Score(ctx, jobText, redacted)
		if err != nil {
			return nil, err
		}
		if result.FinalScore >= rejectionThreshold {
			stats.FairAccepted++
		}
	}

	stats.TraditionalRejected = stats.TotalResumes - stats.TraditionalAccepted
	stats.FairRejected = stats.TotalResumes - stats.FairAccepted
	stats.TraditionalRejectionRate = float64(stats.TraditionalRejected) / float64(stats.TotalResumes) * 100
	stats.FairRejectionRate = float64(stats.FairRejected) / float64(stats.TotalResumes) * 100
	stats.Improvement = stats.TraditionalRejected - stats.FairRejected

	return stats, nil
}
