package types

// TextOrigin 标记一段原始文本的来源
type TextOrigin string

const (
	// OriginJobDescription 岗位描述文本
	OriginJobDescription TextOrigin = "JOB_DESCRIPTION"
	// OriginResume 简历文本
	OriginResume TextOrigin = "RESUME"
)

// RawText 带来源标记的原始文本
type RawText struct {
	Content string     `json:"content"`
	Origin  TextOrigin `json:"origin"`
}

// RedactionSpan 待替换的文本区间, 满足 Start < End <= len(text)
type RedactionSpan struct {
	Start       int    // 起始字节偏移
	End         int    // 结束字节偏移(不含)
	Replacement string // 替换标签, 例如 [NAME REDACTED]
}

// EntitySpan NER服务返回的实体区间
type EntitySpan struct {
	Label     string `json:"label"`
	StartChar int    `json:"start_char"`
	EndChar   int    `json:"end_char"`
	Text      string `json:"text"`
}

// SentenceSpan 分句结果
type SentenceSpan struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// ExperienceEntry 一段工作经历
type ExperienceEntry struct {
	Title            string   `json:"title,omitempty"`
	Company          string   `json:"company,omitempty"`
	Dates            string   `json:"dates,omitempty"`
	Responsibilities []string `json:"responsibilities"`
}

// EducationEntry 一段教育经历
type EducationEntry struct {
	Degree      string `json:"degree,omitempty"`
	Institution string `json:"institution,omitempty"`
	Dates       string `json:"dates,omitempty"`
}

// ParsedResume 单份简历解析出的结构化数据。
// 切片字段永远初始化为空集合而不是nil, 下游遍历无需判空。
type ParsedResume struct {
	Name        string            `json:"name,omitempty"`
	Email       string            `json:"email,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	Location    string            `json:"location,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	Skills      []string          `json:"skills"`
	Experience  []ExperienceEntry `json:"experience"`
	Education   []EducationEntry  `json:"education"`
	Anonymized  bool              `json:"anonymized"`
	CandidateID string            `json:"candidate_id,omitempty"`
}

// NewParsedResume 构造一份空简历, 所有集合字段已初始化
func NewParsedResume() *ParsedResume {
	return &ParsedResume{
		Skills:     []string{},
		Experience: []ExperienceEntry{},
		Education:  []EducationEntry{},
	}
}

// ExtractedEntities 从任意文本中抽取出的技能/经历/教育条目。
// 按需重新计算, 不跨调用缓存。
type ExtractedEntities struct {
	Skills     []string `json:"skills"`
	Experience []string `json:"experience"`
	Education  []string `json:"education"`
}

// NewExtractedEntities 构造空的抽取结果
func NewExtractedEntities() *ExtractedEntities {
	return &ExtractedEntities{
		Skills:     []string{},
		Experience: []string{},
		Education:  []string{},
	}
}

// ScoreComponents 匹配分数的分项明细
type ScoreComponents struct {
	Semantic     float64 `json:"semantic"`                // 全文嵌入余弦相似度
	SkillMatch   float64 `json:"skill_match"`             // 技能覆盖率
	Context      float64 `json:"context"`                 // 技能列表间的语义相似度
	CrossEncoder float64 `json:"cross_encoder,omitempty"` // 交叉编码器成对相关性(精排阶段)
	Entity       float64 `json:"entity,omitempty"`        // 实体加权相似度(精排阶段)
}

// MatchResult 一次(岗位, 简历)评分的最终输出, 创建后不再修改
type MatchResult struct {
	FinalScore float64         `json:"final_score"` // 区间[0.15, 0.95], 保留3位小数
	Components ScoreComponents `json:"components"`
}

// RankedCandidate 排序结果中的一个候选人
type RankedCandidate struct {
	Index  int          `json:"index"` // 在输入简历列表中的下标
	Score  float64      `json:"score"` // 精排综合分
	Result *MatchResult `json:"result"`
}

// ComparisonStats 传统关键词流水线与公平流水线的批量对比统计
type ComparisonStats struct {
	TotalResumes             int     `json:"total_resumes"`
	TraditionalAccepted      int     `json:"traditional_accepted"`
	TraditionalRejected      int     `json:"traditional_rejected"`
	FairAccepted             int     `json:"fair_accepted"`
	FairRejected             int     `json:"fair_rejected"`
	TraditionalRejectionRate float64 `json:"traditional_rejection_rate"` // 百分比
	FairRejectionRate        float64 `json:"fair_rejection_rate"`        // 百分比
	Improvement              int     `json:"improvement"`                // 传统拒绝数 - 公平拒绝数, 可为负
}
