package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"fair-ats-go/internal/constants"
	"fair-ats-go/internal/nlp"
	"fair-ats-go/internal/types"
)

// techSkills 技术词表, 岗位描述和简历共用。
// 有序切片保证子串匹配的输出顺序确定。
var techSkills = []string{
	"python", "java", "javascript", "typescript", "go", "golang", "rust", "c++",
	"c#", "ruby", "php", "swift", "kotlin", "scala", "r", "matlab",
	"react", "vue", "angular", "svelte", "html", "css", "tailwind", "bootstrap",
	"next.js", "nextjs", "nuxt", "gatsby", "webpack", "vite",
	"node.js", "nodejs", "express", "django", "flask", "fastapi", "spring",
	"spring boot", "rails", "laravel", ".net", "asp.net",
	"sql", "postgresql", "postgres", "mysql", "mongodb", "redis", "elasticsearch",
	"dynamodb", "cassandra", "sqlite", "oracle", "neo4j",
	"aws", "azure", "gcp", "google cloud", "docker", "kubernetes", "k8s",
	"terraform", "ansible", "jenkins", "github actions", "gitlab", "ci/cd",
	"linux", "unix", "bash", "shell",
	"machine learning", "deep learning", "tensorflow", "pytorch", "keras",
	"scikit-learn", "sklearn", "pandas", "numpy", "nlp", "computer vision",
	"neural network", "transformer", "bert", "gpt", "llm",
	"data engineering", "etl", "spark", "airflow", "kafka", "hadoop",
	"data pipeline", "databricks", "snowflake", "bigquery", "dbt",
	"git", "agile", "scrum", "microservices", "rest", "api", "graphql",
	"grpc", "rabbitmq", "celery", "nginx", "apache",
}

// educationKeywords 教育相关关键词, 小写包含匹配
var educationKeywords = []string{
	"university", "college", "school", "institute", "academy",
	"bachelor", "master", "phd", "degree", "bs", "ms", "ba", "ma",
}

// experienceKeywords 成就动词, 命中任一即认为句子描述工作经历
var experienceKeywords = []string{
	"engineered", "developed", "built", "created", "implemented",
	"designed", "managed", "led", "architected", "reduced",
	"increased", "improved", "optimized", "deployed", "automated",
	"integrated", "processed", "achieved", "delivered", "launched",
}

// sectionHeaderLines 裸章节标题行, 不计入经历句子
var sectionHeaderLines = map[string]struct{}{
	"Education": {}, "Experience": {}, "Projects": {},
	"Skills": {}, "Summary": {}, "Contact": {},
}

var (
	urlLikeRegex   = regexp.MustCompile(`https?://|www\.|\.com|\.org|\.io|linkedin|github|gmail`)
	emailLikeRegex = regexp.MustCompile(`@|\[EMAIL REDACTED\]`)
)

// 教育句子长度限制(字节, 开区间)
const (
	educationSentenceMinLen = 20
	educationSentenceMaxLen = 200
)

// experienceSentenceMinLen 经历句子最短长度
const experienceSentenceMinLen = 30

// Extractor 从任意文本抽取技能/经历/教育条目,
// 岗位描述和简历两侧对称使用。
type Extractor struct {
	recognizer nlp.EntityRecognizer
}

// NewExtractor 创建抽取器, 实体识别器由调用方注入
func NewExtractor(recognizer nlp.EntityRecognizer) *Extractor {
	return &Extractor{recognizer: recognizer}
}

// ExtractEntities 抽取入口。结果每次按当前文本重算, 不跨调用缓存。
// 技能用全文子串匹配(不分词), 教育/经历基于分句结果按启发式规则筛选。
func (e *Extractor) ExtractEntities(ctx context.Context, text string) (*types.ExtractedEntities, error) {
	entities := types.NewExtractedEntities()
	if text == "" {
		return entities, nil
	}

	textLower := strings.ToLower(text)

	// 技能: 按词表顺序子串匹配, 保持首见顺序去重
	seenSkills := make(map[string]struct{})
	for _, skill := range techSkills {
		if !strings.Contains(textLower, skill) {
			continue
		}
		if _, ok := seenSkills[skill]; ok {
			continue
		}
		seenSkills[skill] = struct{}{}
		entities.Skills = append(entities.Skills, skill)
	}

	nerEntities, err := e.recognizer.Recognize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("实体识别失败: %w", err)
	}
	sentences, err := e.recognizer.Sentences(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("文本分句失败: %w", err)
	}

	seenEducation := make(map[string]struct{})
	addEducation := func(item string) {
		if _, ok := seenEducation[item]; ok {
			return
		}
		seenEducation[item] = struct{}{}
		entities.Education = append(entities.Education, item)
	}

	// 教育(a): 文本含教育关键词的机构实体
	for _, ent := range nerEntities {
		if ent.Label != constants.LabelOrg {
			continue
		}
		if containsAny(strings.ToLower(ent.Text), educationKeywords) {
			addEducation(ent.Text)
		}
	}

	// 教育(b): 含教育关键词的句子, 长度在(20, 200)之间且不含URL/邮箱
	for _, sent := range sentences {
		if !containsAny(strings.ToLower(sent.Text), educationKeywords) {
			continue
		}
		if urlLikeRegex.MatchString(sent.Text) || emailLikeRegex.MatchString(sent.Text) {
			continue
		}
		if len(sent.Text) > educationSentenceMinLen && len(sent.Text) < educationSentenceMaxLen {
			addEducation(strings.TrimSpace(sent.Text))
		}
	}

	// 经历: 含成就动词且足够长的句子, 排除裸章节标题和URL/邮箱句
	seenExperience := make(map[string]struct{})
	for _, sent := range sentences {
		sentText := strings.TrimSpace(sent.Text)
		if urlLikeRegex.MatchString(sentText) || emailLikeRegex.MatchString(sentText) {
			continue
		}
		if _, isHeader := sectionHeaderLines[sentText]; isHeader {
			continue
		}
		if !containsAny(strings.ToLower(sentText), experienceKeywords) {
			continue
		}
		if len(sentText) <= experienceSentenceMinLen {
			continue
		}

		cleaned := strings.TrimSpace(strings.TrimLeft(sentText, "•-"))
		if _, ok := seenExperience[cleaned]; ok {
			continue
		}
		seenExperience[cleaned] = struct{}{}
		entities.Experience = append(entities.Experience, cleaned)
	}

	return entities, nil
}

// containsAny 判断s是否包含任一关键词
func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
