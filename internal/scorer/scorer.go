package scorer

import (
	"context"
	"fmt"
	"math"
	"strings"

	"fair-ats-go/internal/extractor"
	"fair-ats-go/internal/nlp"
	"fair-ats-go/internal/types"
)

// 分数融合权重与分层改写参数。这些常量是标定值, 调整会破坏行为一致性。
const (
	semanticWeight = 0.30
	skillWeight    = 0.50
	contextWeight  = 0.20

	// jobSkills为空时的技能覆盖率中性默认值
	neutralSkillMatch = 0.5

	// 最终分数的上下限
	scoreFloor   = 0.15
	scoreCeiling = 0.95
)

// Scorer 评分引擎: 融合技能覆盖率/嵌入相似度/技能上下文相似度,
// 经分层非线性改写后输出有界匹配分。
type Scorer struct {
	embedder  nlp.TextEmbedder
	extractor *extractor.Extractor
}

// NewScorer 创建评分引擎, 服务句柄由调用方注入且初始化后只读共享
func NewScorer(embedder nlp.TextEmbedder, ext *extractor.Extractor) *Scorer {
	return &Scorer{embedder: embedder, extractor: ext}
}

// Similarity 计算两段文本的嵌入余弦相似度, 取值[-1,1]。
// 任一侧为空时直接返回0.0, 不调用嵌入服务。
func (s *Scorer) Similarity(ctx context.Context, textA, textB string) (float64, error) {
	if strings.TrimSpace(textA) == "" || strings.TrimSpace(textB) == "" {
		return 0.0, nil
	}

	vectors, err := s.embedder.EmbedStrings(ctx, []string{textA, textB})
	if err != nil {
		return 0, fmt.Errorf("文本嵌入失败: %w", err)
	}
	if len(vectors) != 2 {
		return 0, fmt.Errorf("嵌入服务返回了 %d 个向量, 期望2个", len(vectors))
	}
	return CosineSimilarity(vectors[0], vectors[1]), nil
}

// Score 对一个(岗位, 简历)文本对评分:
// 1. semantic: 全文嵌入余弦相似度
// 2. skillMatch: |岗位技能 ∩ 简历技能| / |岗位技能|, 岗位无技能时取中性值0.5
// 3. context: 双方技能都非空时取技能列表间的相似度, 否则退回semantic
// 4. raw = 0.30*semantic + 0.50*skillMatch + 0.20*context
// 5. 按skillMatch分层改写raw, 最后截断到[0.15, 0.95]并保留3位小数
func (s *Scorer) Score(ctx context.Context, jobText, resumeText string) (*types.MatchResult, error) {
	semantic, err := s.Similarity(ctx, jobText, resumeText)
	if err != nil {
		return nil, err
	}

	jobEntities, err := s.extractor.ExtractEntities(ctx, jobText)
	if err != nil {
		return nil, err
	}
	resumeEntities, err := s.extractor.ExtractEntities(ctx, resumeText)
	if err != nil {
		return nil, err
	}

	skillMatch := neutralSkillMatch
	if len(jobEntities.Skills) > 0 {
		matched := 0
		resumeSet := make(map[string]struct{}, len(resumeEntities.Skills))
		for _, skill := range resumeEntities.Skills {
			resumeSet[skill] = struct{}{}
		}
		for _, skill := range jobEntities.Skills {
			if _, ok := resumeSet[skill]; ok {
				matched++
			}
		}
		skillMatch = float64(matched) / float64(len(jobEntities.Skills))
	}

	contextSim := semantic
	if len(jobEntities.Skills) > 0 && len(resumeEntities.Skills) > 0 {
		contextSim, err = s.Similarity(ctx,
			strings.Join(jobEntities.Skills, ", "),
			strings.Join(resumeEntities.Skills, ", "))
		if err != nil {
			return nil, err
		}
	}

	rawScore := semanticWeight*semantic + skillWeight*skillMatch + contextWeight*contextSim
	finalScore := Round3(clamp(rescaleByTier(rawScore, skillMatch), scoreFloor, scoreCeiling))

	return &types.MatchResult{
		FinalScore: finalScore,
		Components: types.ScoreComponents{
			Semantic:   semantic,
			SkillMatch: skillMatch,
			Context:    contextSim,
		},
	}, nil
}

// rescaleByTier 分层非线性改写: 技能覆盖率是最可信的信号,
// 由它决定raw分数能兑现多少。
func rescaleByTier(rawScore, skillMatch float64) float64 {
	switch {
	case skillMatch >= 0.70:
		return 0.70 + 0.30*rawScore
	case skillMatch >= 0.50:
		return 0.50 + 0.40*rawScore
	case skillMatch >= 0.30:
		return 0.35 + 0.45*rawScore
	default:
		return rawScore * 1.2
	}
}

// CosineSimilarity 计算两个向量的余弦相似度,
// 维度不一致或任一向量为零向量时返回0.0
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Round3 保留3位小数
func Round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
