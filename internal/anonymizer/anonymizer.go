package anonymizer

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"fair-ats-go/internal/constants"
	"fair-ats-go/internal/nlp"
	"fair-ats-go/internal/types"
)

var (
	// emailRegex 匹配常见邮箱格式
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	// phoneRegex 匹配电话号码: 可选国家码, 分隔符支持 - . 空格 及括号
	phoneRegex = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	// zipRegex 5位邮编, 可带+4扩展
	zipRegex = regexp.MustCompile(`\d{5}(-\d{4})?`)
	// streetRegex <门牌号> <路名> <街道类型> 模式
	streetRegex = regexp.MustCompile(`(?i)\d+\s+\w+\s+(street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr)\b`)
)

// genderedTerms 性别指示词闭集。比较前统一去掉尾部标点并转小写,
// 所以 "Mr." 和 "mr" 都会命中。
var genderedTerms = map[string]struct{}{
	"he": {}, "him": {}, "his": {}, "himself": {},
	"she": {}, "her": {}, "hers": {}, "herself": {},
	"mr": {}, "mrs": {}, "ms": {}, "miss": {},
	"male": {}, "female": {}, "man": {}, "woman": {},
	"gentleman": {}, "lady": {},
}

// Anonymizer PII脱敏器: 移除姓名/邮箱/电话/性别指示词, 泛化地址,
// 并为候选人签发稳定的匿名标识。
type Anonymizer struct {
	recognizer nlp.EntityRecognizer
}

// NewAnonymizer 创建脱敏器, 实体识别器由调用方注入
func NewAnonymizer(recognizer nlp.EntityRecognizer) *Anonymizer {
	return &Anonymizer{recognizer: recognizer}
}

// AnonymizeText 对任意文本做PII脱敏:
// 1. NER识别的人名区间 → [NAME REDACTED]
// 2. 正则匹配的邮箱 → [EMAIL REDACTED]
// 3. 正则匹配的电话 → [PHONE REDACTED]
// 4. 按起点从右往左替换, 保证未处理区间的偏移量不失效
// 5. 性别指示词逐token替换为 [REDACTED]
// 区间重叠时结构化正则匹配优先于NER人名(邮箱里嵌着人名只按邮箱处理)。
func (a *Anonymizer) AnonymizeText(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", nil
	}

	var spans []types.RedactionSpan

	// 结构化正则区间先收集, 优先级最高
	for _, loc := range emailRegex.FindAllStringIndex(text, -1) {
		spans = appendIfNoOverlap(spans, types.RedactionSpan{
			Start: loc[0], End: loc[1], Replacement: constants.EmailRedactedLabel,
		})
	}
	for _, loc := range phoneRegex.FindAllStringIndex(text, -1) {
		spans = appendIfNoOverlap(spans, types.RedactionSpan{
			Start: loc[0], End: loc[1], Replacement: constants.PhoneRedactedLabel,
		})
	}

	entities, err := a.recognizer.Recognize(ctx, text)
	if err != nil {
		return "", fmt.Errorf("实体识别失败: %w", err)
	}
	for _, ent := range entities {
		if ent.Label != constants.LabelPerson {
			continue
		}
		if ent.StartChar < 0 || ent.EndChar > len(text) || ent.StartChar >= ent.EndChar {
			continue
		}
		spans = appendIfNoOverlap(spans, types.RedactionSpan{
			Start: ent.StartChar, End: ent.EndChar, Replacement: constants.NameRedactedLabel,
		})
	}

	// 按起点降序, 从右往左替换
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start > spans[j].Start })
	for _, span := range spans {
		text = text[:span.Start] + span.Replacement + text[span.End:]
	}

	return redactGenderedTerms(text), nil
}

// appendIfNoOverlap 仅在与已收集区间不重叠时追加, 先收集者优先
func appendIfNoOverlap(spans []types.RedactionSpan, candidate types.RedactionSpan) []types.RedactionSpan {
	for _, existing := range spans {
		if candidate.Start < existing.End && existing.Start < candidate.End {
			return spans
		}
	}
	return append(spans, candidate)
}

// redactGenderedTerms 把性别指示词整token替换为 [REDACTED]。
// 按空白切分后用单空格重新拼接, 原有的连续空白会被折叠。
func redactGenderedTerms(text string) string {
	tokens := strings.Fields(text)
	for i, token := range tokens {
		stripped := strings.ToLower(strings.TrimRight(token, ".,!?;:"))
		if _, ok := genderedTerms[stripped]; ok {
			tokens[i] = constants.TokenRedactedLabel
		}
	}
	return strings.Join(tokens, " ")
}

// AnonymizeLocation 地址泛化: 去掉邮编和门牌级街道信息, 保留城市/州一级。
// 剩余内容可能为空串。
func (a *Anonymizer) AnonymizeLocation(location string) string {
	if location == "" {
		return ""
	}
	location = zipRegex.ReplaceAllString(location, "")
	location = streetRegex.ReplaceAllString(location, "")
	location = strings.Join(strings.Fields(location), " ")
	return strings.Trim(location, " ,")
}

// GenerateCandidateID 生成候选人匿名标识。
// name或email任一非空时用sha256(name+email)前12位十六进制(大写), 保证同一输入恒得同一ID;
// 两者都缺失时退化为12位随机十六进制。
func GenerateCandidateID(name, email string) string {
	if name != "" || email != "" {
		sum := sha256.Sum256([]byte(name + email))
		digest := hex.EncodeToString(sum[:])
		return constants.CandidateIDPrefix + strings.ToUpper(digest[:constants.CandidateIDHexLen])
	}

	buf := make([]byte, constants.CandidateIDHexLen/2)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand在正常系统上不会失败, 兜底用全零避免返回空ID
		return constants.CandidateIDPrefix + strings.Repeat("0", constants.CandidateIDHexLen)
	}
	return constants.CandidateIDPrefix + strings.ToUpper(hex.EncodeToString(buf))
}

// Anonymize 对整份简历脱敏, 返回修改后的副本, 原简历不受影响:
// 先基于原始姓名/邮箱签发CandidateID, 再清空联系方式, 泛化地址,
// 并对摘要和每条工作职责做文本级脱敏。
func (a *Anonymizer) Anonymize(ctx context.Context, resume types.ParsedResume) (types.ParsedResume, error) {
	out := resume

	out.CandidateID = GenerateCandidateID(resume.Name, resume.Email)
	out.Name = ""
	out.Email = ""
	out.Phone = ""
	out.Location = a.AnonymizeLocation(resume.Location)

	summary, err := a.AnonymizeText(ctx, resume.Summary)
	if err != nil {
		return types.ParsedResume{}, err
	}
	out.Summary = summary

	// 集合字段深拷贝, 避免与原简历共享底层数组
	out.Skills = append([]string{}, resume.Skills...)
	out.Education = append([]types.EducationEntry{}, resume.Education...)
	out.Experience = make([]types.ExperienceEntry, len(resume.Experience))
	for i, exp := range resume.Experience {
		entry := exp
		entry.Responsibilities = make([]string, len(exp.Responsibilities))
		for j, resp := range exp.Responsibilities {
			redacted, err := a.AnonymizeText(ctx, resp)
			if err != nil {
				return types.ParsedResume{}, err
			}
			entry.Responsibilities[j] = redacted
		}
		out.Experience[i] = entry
	}

	out.Anonymized = true
	return out, nil
}
