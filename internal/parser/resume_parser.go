package parser

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"fair-ats-go/internal/constants"
	"fair-ats-go/internal/nlp"
	"fair-ats-go/internal/types"
)

// 简历章节类型
const (
	SectionSummary    = "summary"
	SectionExperience = "experience"
	SectionEducation  = "education"
	SectionSkills     = "skills"
)

// sectionHeaders 章节类型到标题同义词的闭集映射
var sectionHeaders = map[string][]string{
	SectionExperience: {"experience", "work experience", "employment", "professional experience"},
	SectionEducation:  {"education", "academic background", "qualification"},
	SectionSkills:     {"skills", "technical skills", "competencies", "expertise"},
	SectionSummary:    {"summary", "profile", "professional summary", "about"},
}

// skillsVocabulary 技能闭集词表: 语言/框架/云与运维/数据库/ML术语
var skillsVocabulary = []string{
	"python", "java", "javascript", "typescript", "c++", "c#", "ruby", "go", "rust",
	"react", "angular", "vue", "django", "flask", "fastapi", "spring", "node.js", "express",
	"aws", "azure", "gcp", "docker", "kubernetes", "jenkins", "terraform",
	"postgresql", "mysql", "mongodb", "redis", "cassandra", "elasticsearch",
	"git", "github", "gitlab", "jira", "agile", "scrum",
	"machine learning", "deep learning", "nlp", "tensorflow", "pytorch", "scikit-learn",
	"pandas", "numpy", "spacy", "spark", "hadoop", "kafka",
}

var (
	bulletGlyphRegex  = regexp.MustCompile(`[●•◆▪▸➤⦿✓✔\x{25cf}\x{25cb}\x{25aa}\x{25ab}\x{2022}\x{2023}\x{2043}\x{204c}\x{204d}\x{2219}\x{25e6}]`)
	specialCharRegex  = regexp.MustCompile(`[^\w\s.,;:!?()\-@/#$%&+="'<>\n]`)
	whitespaceRegex   = regexp.MustCompile(`\s+`)
	emailExtractRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)
	yearRegex         = regexp.MustCompile(`\d{4}`)
	// dateLineRegex 月份名+4位年份, 出现该模式的行视为一段新经历的开始
	dateLineRegex = regexp.MustCompile(`(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec|January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4}`)
)

// phoneExtractRegexes 按顺序尝试的电话号码模式
var phoneExtractRegexes = []*regexp.Regexp{
	regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
	regexp.MustCompile(`\+?\d{1,3}[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
}

// degreeKeywords 学历关键词, 小写包含匹配
var degreeKeywords = []string{"bachelor", "master", "phd", "b.s.", "m.s.", "b.a.", "m.a."}

// headLimit 联系信息/地址只在文本头部这个长度内做NER
const headLimit = 500

// summaryLimit 摘要截断长度
const summaryLimit = 500

// ResumeParser 把原始简历文本解析为结构化数据
type ResumeParser struct {
	recognizer nlp.EntityRecognizer
}

// NewResumeParser 创建简历解析器, 实体识别器由调用方注入
func NewResumeParser(recognizer nlp.EntityRecognizer) *ResumeParser {
	return &ResumeParser{recognizer: recognizer}
}

// CleanText 文本清洗: 去掉项目符号和特殊字符, 折叠空白。
// 注意所有空白(包括换行)都会折叠为单个空格, 清洗后的文本是单行的。
func CleanText(text string) string {
	text = bulletGlyphRegex.ReplaceAllString(text, "")
	text = specialCharRegex.ReplaceAllString(text, "")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ExtractEmail 正则提取第一个邮箱地址, 未找到返回空串
func ExtractEmail(text string) string {
	return emailExtractRegex.FindString(text)
}

// ExtractPhone 正则提取第一个电话号码, 未找到返回空串
func ExtractPhone(text string) string {
	for _, re := range phoneExtractRegexes {
		if match := re.FindString(text); match != "" {
			return match
		}
	}
	return ""
}

// extractName 提取姓名: 第一行是2-4个纯字母单词(允许中间名缩写的尾点)时直接采用,
// 否则退回头部NER找到的第一个人名实体
func extractName(rawText string, headEntities []types.EntitySpan) string {
	lines := strings.Split(rawText, "\n")
	if len(lines) > 0 {
		firstLine := strings.TrimSpace(lines[0])
		words := strings.Fields(firstLine)
		if len(words) >= 2 && len(words) <= 4 && allAlphabetic(words) {
			return firstLine
		}
	}

	for _, ent := range headEntities {
		if ent.Label == constants.LabelPerson {
			return ent.Text
		}
	}
	return ""
}

// allAlphabetic 判断每个单词去掉句点后是否全为字母
func allAlphabetic(words []string) bool {
	for _, w := range words {
		w = strings.ReplaceAll(w, ".", "")
		if w == "" {
			return false
		}
		for _, r := range w {
			if !unicode.IsLetter(r) {
				return false
			}
		}
	}
	return true
}

// FindSection 章节边界搜索: 找到目标章节任一同义词的首个整词匹配(大小写不敏感),
// 章节正文从匹配结束处延伸到其后最近出现的其他章节同义词起点, 都没有则到文本末尾。
// 匹配用(?i)模式直接跑在原始文本上: 对ToLower副本取偏移再切原文,
// 遇到大小写转换改变字节长度的字符(如 Ⱥ→ⱥ)会错位甚至越界。
func FindSection(text, sectionType string) string {
	headers, ok := sectionHeaders[sectionType]
	if !ok {
		return ""
	}

	for _, header := range headers {
		pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(header) + `\b`)
		match := pattern.FindStringIndex(text)
		if match == nil {
			continue
		}
		startIdx := match[1]

		// 在剩余后缀里找任意其他章节同义词的最早出现位置作为边界
		nextSectionIdx := len(text)
		suffix := text[startIdx:]
		for otherType, otherHeaders := range sectionHeaders {
			if otherType == sectionType {
				continue
			}
			for _, nextHeader := range otherHeaders {
				nextPattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(nextHeader) + `\b`)
				if nextMatch := nextPattern.FindStringIndex(suffix); nextMatch != nil {
					if potential := startIdx + nextMatch[0]; potential < nextSectionIdx {
						nextSectionIdx = potential
					}
				}
			}
		}

		return strings.TrimSpace(text[startIdx:nextSectionIdx])
	}
	return ""
}

// ExtractSkills 从文本中提取闭集词表技能: 整词匹配, Title化后排序去重
func ExtractSkills(text string) []string {
	textLower := strings.ToLower(text)
	found := make(map[string]struct{})

	for _, skill := range skillsVocabulary {
		pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(skill) + `\b`)
		if pattern.MatchString(textLower) {
			found[titleCase(skill)] = struct{}{}
		}
	}

	skills := make([]string, 0, len(found))
	for skill := range found {
		skills = append(skills, skill)
	}
	sort.Strings(skills)
	return skills
}

// titleCase 把每个字母序列的首字母大写其余小写,
// 非字母字符视为单词边界: "node.js" → "Node.Js", "machine learning" → "Machine Learning"
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevIsLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevIsLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevIsLetter = true
		} else {
			b.WriteRune(r)
			prevIsLetter = false
		}
	}
	return b.String()
}

// ParseExperienceSection 按行状态机解析工作经历:
// 月份+年份的行开启新条目并记为dates; dates出现前首行是title次行是company;
// dates出现后的行都追加到responsibilities。
func ParseExperienceSection(experienceText string) []types.ExperienceEntry {
	entries := []types.ExperienceEntry{}
	if experienceText == "" {
		return entries
	}

	var current types.ExperienceEntry
	started := false
	flush := func() {
		if current.Responsibilities == nil {
			current.Responsibilities = []string{}
		}
		entries = append(entries, current)
	}

	for _, line := range strings.Split(experienceText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case dateLineRegex.MatchString(line):
			// 日期行开启新条目并冲刷上一条, 哪怕上一条只有title/company
			if started {
				flush()
			}
			current = types.ExperienceEntry{Dates: line, Responsibilities: []string{}}
			started = true
		case current.Dates != "":
			current.Responsibilities = append(current.Responsibilities, line)
		case current.Title == "":
			current.Title = line
			started = true
		case current.Company == "":
			current.Company = line
		}
	}

	if started {
		flush()
	}
	return entries
}

// ParseEducationSection 按行状态机解析教育经历:
// 含学历关键词的行开启新条目并记为degree; 下一行记为institution;
// degree和institution都有之后, 含4位数字的行记为dates。
func ParseEducationSection(educationText string) []types.EducationEntry {
	entries := []types.EducationEntry{}
	if educationText == "" {
		return entries
	}

	var current types.EducationEntry
	started := false

	for _, line := range strings.Split(educationText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lineLower := strings.ToLower(line)

		switch {
		case containsAny(lineLower, degreeKeywords):
			if started {
				entries = append(entries, current)
			}
			current = types.EducationEntry{Degree: line}
			started = true
		case current.Degree != "" && current.Institution == "":
			current.Institution = line
		case current.Institution != "" && yearRegex.MatchString(line):
			current.Dates = line
		}
	}

	if started {
		entries = append(entries, current)
	}
	return entries
}

// truncateRuneSafe 按字节上限截断, 落在多字节字符中间时回退到字符起始,
// 保证结果仍是合法UTF-8
func truncateRuneSafe(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
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

// Parse 解析入口: 联系信息 + 章节切分 + 经历/教育状态机 + 技能词表匹配。
// 章节切分在原始文本上进行(保留换行), 邮箱/电话/技能在清洗后的文本上匹配。
func (p *ResumeParser) Parse(ctx context.Context, rawText string) (*types.ParsedResume, error) {
	cleanedText := CleanText(rawText)
	resume := types.NewParsedResume()

	head := truncateRuneSafe(rawText, headLimit)
	headEntities, err := p.recognizer.Recognize(ctx, head)
	if err != nil {
		return nil, fmt.Errorf("头部实体识别失败: %w", err)
	}

	resume.Name = extractName(rawText, headEntities)
	resume.Email = ExtractEmail(cleanedText)
	resume.Phone = ExtractPhone(cleanedText)

	// 地址取头部第一个GPE实体
	for _, ent := range headEntities {
		if ent.Label == constants.LabelLocation {
			resume.Location = ent.Text
			break
		}
	}

	if summaryText := FindSection(rawText, SectionSummary); summaryText != "" {
		resume.Summary = truncateRuneSafe(summaryText, summaryLimit)
	}

	resume.Skills = ExtractSkills(cleanedText)
	resume.Experience = ParseExperienceSection(FindSection(rawText, SectionExperience))
	resume.Education = ParseEducationSection(FindSection(rawText, SectionEducation))

	return resume, nil
}
