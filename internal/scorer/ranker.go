package scorer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"fair-ats-go/internal/extractor"
	"fair-ats-go/internal/nlp"
	"fair-ats-go/internal/types"
)

// 精排阶段的融合权重
const (
	relevanceWeight      = 0.6
	entitySimWeight      = 0.4
	entitySkillsWeight   = 0.4
	entityExperienceW    = 0.5
	entityEducationW     = 0.1
	defaultShortlistSize = 10
)

// Ranker 两阶段排序器: 先用批量嵌入粗筛出候选短名单,
// 再用交叉编码器+实体加权相似度对短名单精排。
type Ranker struct {
	embedder      nlp.TextEmbedder
	reranker      nlp.Reranker
	extractor     *extractor.Extractor
	scorer        *Scorer
	shortlistSize int
}

// NewRanker 创建两阶段排序器。shortlistSize<=0时取默认值10。
func NewRanker(embedder nlp.TextEmbedder, reranker nlp.Reranker, ext *extractor.Extractor, shortlistSize int) *Ranker {
	if shortlistSize <= 0 {
		shortlistSize = defaultShortlistSize
	}
	return &Ranker{
		embedder:      embedder,
		reranker:      reranker,
		extractor:     ext,
		scorer:        NewScorer(embedder, ext),
		shortlistSize: shortlistSize,
	}
}

// Rank 对一批简历按与岗位的匹配度排序, 返回恰好min(shortlistSize, N)个结果。
// 阶段1: 岗位和全部简历一次批量嵌入, 按余弦相似度降序取短名单。
// 阶段2: 短名单内逐个计算 0.6*成对相关性 + 0.4*实体加权相似度, 按综合分降序,
// 同分按原始下标升序保证确定性。
func (r *Ranker) Rank(ctx context.Context, jobText string, resumeTexts []string) ([]types.RankedCandidate, error) {
	if len(resumeTexts) == 0 {
		return []types.RankedCandidate{}, nil
	}

	// 阶段1: 粗筛
	inputs := append([]string{jobText}, resumeTexts...)
	vectors, err := r.embedder.EmbedStrings(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("批量嵌入失败: %w", err)
	}
	if len(vectors) != len(inputs) {
		return nil, fmt.Errorf("嵌入服务返回了 %d 个向量, 期望 %d 个", len(vectors), len(inputs))
	}

	jobVector := vectors[0]
	type stage1Entry struct {
		index    int
		semantic float64
	}
	stage1 := make([]stage1Entry, len(resumeTexts))
	for i := range resumeTexts {
		stage1[i] = stage1Entry{index: i, semantic: CosineSimilarity(jobVector, vectors[i+1])}
	}
	sort.SliceStable(stage1, func(i, j int) bool {
		if stage1[i].semantic != stage1[j].semantic {
			return stage1[i].semantic > stage1[j].semantic
		}
		return stage1[i].index < stage1[j].index
	})

	keep := r.shortlistSize
	if len(stage1) < keep {
		keep = len(stage1)
	}
	shortlist := stage1[:keep]

	// 阶段2: 精排。岗位侧实体只抽取一次
	jobEntities, err := r.extractor.ExtractEntities(ctx, jobText)
	if err != nil {
		return nil, err
	}

	ranked := make([]types.RankedCandidate, 0, keep)
	for _, entry := range shortlist {
		resumeText := resumeTexts[entry.index]

		relevance, err := r.reranker.Relevance(ctx, jobText, resumeText)
		if err != nil {
			return nil, fmt.Errorf("成对相关性计算失败: %w", err)
		}

		resumeEntities, err := r.extractor.ExtractEntities(ctx, resumeText)
		if err != nil {
			return nil, err
		}
		entitySim, err := r.entityWeightedSimilarity(ctx, jobEntities, resumeEntities)
		if err != nil {
			return nil, err
		}

		// 实体余弦相似度可为负, 综合分截断到[0,1]保持响应口径一致
		combined := clamp(relevanceWeight*relevance+entitySimWeight*entitySim, 0, 1)
		ranked = append(ranked, types.RankedCandidate{
			Index: entry.index,
			Score: Round3(combined),
			Result: &types.MatchResult{
				FinalScore: Round3(combined),
				Components: types.ScoreComponents{
					Semantic:     entry.semantic,
					CrossEncoder: relevance,
					Entity:       entitySim,
				},
			},
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Index < ranked[j].Index
	})

	return ranked, nil
}

// entityWeightedSimilarity 实体加权相似度:
// 0.4*技能相似 + 0.5*经历相似 + 0.1*教育相似。
// 某一类目任一侧为空时该类目相似度记0.0。
func (r *Ranker) entityWeightedSimilarity(ctx context.Context, job, resume *types.ExtractedEntities) (float64, error) {
	skillsSim, err := r.categorySimilarity(ctx, job.Skills, resume.Skills)
	if err != nil {
		return 0, err
	}
	experienceSim, err := r.categorySimilarity(ctx, job.Experience, resume.Experience)
	if err != nil {
		return 0, err
	}
	educationSim, err := r.categorySimilarity(ctx, job.Education, resume.Education)
	if err != nil {
		return 0, err
	}

	return entitySkillsWeight*skillsSim + entityExperienceW*experienceSim + entityEducationW*educationSim, nil
}

// categorySimilarity 单类目相似度: 双方条目各自拼接后比较嵌入相似度
func (r *Ranker) categorySimilarity(ctx context.Context, jobItems, resumeItems []string) (float64, error) {
	if len(jobItems) == 0 || len(resumeItems) == 0 {
		return 0.0, nil
	}
	return r.scorer.Similarity(ctx, strings.Join(jobItems, ", "), strings.Join(resumeItems, ", "))
}
