package parser

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"fair-ats-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRecognizer 返回预置实体的识别器桩
type stubRecognizer struct {
	entities []types.EntitySpan
}

func (s *stubRecognizer) Recognize(ctx context.Context, text string) ([]types.EntitySpan, error) {
	return s.entities, nil
}

func (s *stubRecognizer) Sentences(ctx context.Context, text string) ([]types.SentenceSpan, error) {
	return []types.SentenceSpan{}, nil
}

func TestCleanText(t *testing.T) {
	input := "● Built services\n\n\n•   Shipped   features"
	result := CleanText(input)

	assert.NotContains(t, result, "●")
	assert.NotContains(t, result, "•")
	// 所有空白折叠为单个空格
	assert.Equal(t, "Built services Shipped features", result)
}

func TestExtractEmail(t *testing.T) {
	assert.Equal(t, "dev@example.com", ExtractEmail("Contact dev@example.com today"))
	assert.Equal(t, "", ExtractEmail("no email here"))
}

func TestExtractPhone(t *testing.T) {
	assert.Equal(t, "(555) 123-4567", ExtractPhone("Call (555) 123-4567 now"))
	assert.Equal(t, "555.123.4567", ExtractPhone("555.123.4567"))
	assert.Equal(t, "", ExtractPhone("no phone"))
}

func TestFindSectionBoundaries(t *testing.T) {
	text := "Summary\nSeasoned backend developer.\nExperience\nSenior Engineer\nAcme Corp\nEducation\nB.S. Computer Science"

	// Experience正文是Experience和Education标题之间的内容, 不含两端标题
	section := FindSection(text, SectionExperience)
	assert.Equal(t, "Senior Engineer\nAcme Corp", section)

	summary := FindSection(text, SectionSummary)
	assert.Equal(t, "Seasoned backend developer.", summary)

	education := FindSection(text, SectionEducation)
	assert.Equal(t, "B.S. Computer Science", education)
}

func TestFindSectionMissing(t *testing.T) {
	assert.Equal(t, "", FindSection("just some text without headers", SectionExperience))
}

func TestFindSectionCaseInsensitive(t *testing.T) {
	text := "WORK EXPERIENCE\nEngineer at Acme\nEDUCATION\nState University"
	section := FindSection(text, SectionExperience)
	assert.Equal(t, "Engineer at Acme", section)
}

func TestFindSectionUnicodePrefix(t *testing.T) {
	// 大小写转换会改变某些字符的字节长度(Ⱥ 2字节 → ⱥ 3字节),
	// 章节切分必须直接在原始文本上匹配, 不能拿小写副本的偏移切原文
	text := strings.Repeat("Ⱥ", 10) + " experience\nEngineer at Acme\neducation\nState University"

	var section string
	assert.NotPanics(t, func() {
		section = FindSection(text, SectionExperience)
	})
	assert.Equal(t, "Engineer at Acme", section)

	education := FindSection(text, SectionEducation)
	assert.Equal(t, "State University", education)
}

func TestExtractSkills(t *testing.T) {
	text := "Experienced with python, Docker and AWS. Also used machine learning daily."
	skills := ExtractSkills(strings.ToLower(text))

	assert.Equal(t, []string{"Aws", "Docker", "Machine Learning", "Python"}, skills)
}

func TestExtractSkillsNoPartialMatches(t *testing.T) {
	// "javascript" 不应同时命中 "java"
	skills := ExtractSkills("javascript developer")
	assert.Equal(t, []string{"Javascript"}, skills)
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Node.Js", titleCase("node.js"))
	assert.Equal(t, "Machine Learning", titleCase("machine learning"))
	assert.Equal(t, "Scikit-Learn", titleCase("scikit-learn"))
	assert.Equal(t, "C++", titleCase("c++"))
}

func TestParseExperienceSection(t *testing.T) {
	text := "Senior Engineer\nAcme Corp\nJanuary 2020 - Present\nLed the platform team\nReduced latency by 40%\nEngineer\nBeta Inc\nMarch 2017 - December 2019\nBuilt internal tools"

	entries := ParseExperienceSection(text)
	require.Len(t, entries, 3)

	// 日期行冲刷上一条目, 所以title/company单独成条
	assert.Equal(t, "Senior Engineer", entries[0].Title)
	assert.Equal(t, "Acme Corp", entries[0].Company)
	assert.Equal(t, "", entries[0].Dates)
	assert.Empty(t, entries[0].Responsibilities)

	assert.Equal(t, "January 2020 - Present", entries[1].Dates)
	assert.Equal(t, []string{"Led the platform team", "Reduced latency by 40%", "Engineer", "Beta Inc"}, entries[1].Responsibilities)

	assert.Equal(t, "March 2017 - December 2019", entries[2].Dates)
	assert.Equal(t, []string{"Built internal tools"}, entries[2].Responsibilities)
}

func TestParseExperienceSectionEmpty(t *testing.T) {
	entries := ParseExperienceSection("")
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestParseEducationSection(t *testing.T) {
	text := "B.S. Computer Science\nState University\n2014 - 2018\nMaster of Science\nTech Institute"

	entries := ParseEducationSection(text)
	require.Len(t, entries, 2)

	assert.Equal(t, "B.S. Computer Science", entries[0].Degree)
	assert.Equal(t, "State University", entries[0].Institution)
	assert.Equal(t, "2014 - 2018", entries[0].Dates)

	assert.Equal(t, "Master of Science", entries[1].Degree)
	assert.Equal(t, "Tech Institute", entries[1].Institution)
	assert.Equal(t, "", entries[1].Dates)
}

func TestParseEndToEnd(t *testing.T) {
	rawText := "Jane Roe\njane@example.com | 555-123-4567\nSummary\nBackend developer focused on python and docker.\nExperience\nSenior Engineer\nAcme Corp\nJanuary 2020 - Present\nBuilt APIs with python\nEducation\nB.S. Computer Science\nState University"

	p := NewResumeParser(&stubRecognizer{entities: []types.EntitySpan{
		{Label: "GPE", StartChar: 0, EndChar: 7, Text: "Seattle"},
	}})

	resume, err := p.Parse(context.Background(), rawText)
	require.NoError(t, err)

	assert.Equal(t, "Jane Roe", resume.Name)
	assert.Equal(t, "jane@example.com", resume.Email)
	assert.Equal(t, "555-123-4567", resume.Phone)
	assert.Equal(t, "Seattle", resume.Location)
	assert.Contains(t, resume.Summary, "Backend developer")
	assert.Contains(t, resume.Skills, "Python")
	assert.Contains(t, resume.Skills, "Docker")
	require.Len(t, resume.Experience, 2)
	assert.Equal(t, "Senior Engineer", resume.Experience[0].Title)
	assert.Equal(t, "January 2020 - Present", resume.Experience[1].Dates)
	require.Len(t, resume.Education, 1)
	assert.Equal(t, "B.S. Computer Science", resume.Education[0].Degree)
	assert.False(t, resume.Anonymized)
}

// recordingRecognizer 记录最近一次Recognize收到的文本
type recordingRecognizer struct {
	stubRecognizer
	lastText string
}

func (r *recordingRecognizer) Recognize(ctx context.Context, text string) ([]types.EntitySpan, error) {
	r.lastText = text
	return r.stubRecognizer.Recognize(ctx, text)
}

func TestParseHeadTruncationRuneSafe(t *testing.T) {
	// 头部截断落在多字节字符中间时回退到字符边界,
	// 发给NER服务的头部文本必须是合法UTF-8
	rawText := "x" + strings.Repeat("Ⱥ", 300)
	rec := &recordingRecognizer{}
	p := NewResumeParser(rec)

	_, err := p.Parse(context.Background(), rawText)
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(rec.lastText))
	assert.LessOrEqual(t, len(rec.lastText), 500)
	assert.NotEmpty(t, rec.lastText)
}

func TestTruncateRuneSafe(t *testing.T) {
	assert.Equal(t, "abc", truncateRuneSafe("abc", 10))
	assert.Equal(t, "ab", truncateRuneSafe("abcd", 2))
	// 上限落在Ⱥ的第二个字节上 → 回退到字符起始
	assert.Equal(t, "aȺ", truncateRuneSafe("aȺȺ", 4))
}

func TestParseNameFallbackToEntity(t *testing.T) {
	// 第一行不是合法姓名(带数字), 退回NER人名实体
	rawText := "Resume 2024\nSummary\nEngineer profile."

	p := NewResumeParser(&stubRecognizer{entities: []types.EntitySpan{
		{Label: "PERSON", StartChar: 0, EndChar: 8, Text: "John Doe"},
	}})

	resume, err := p.Parse(context.Background(), rawText)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", resume.Name)
}
