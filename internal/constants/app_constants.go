package constants

import "time"

const (
	// 脱敏替换标签
	NameRedactedLabel  = "[NAME REDACTED]"
	EmailRedactedLabel = "[EMAIL REDACTED]"
	PhoneRedactedLabel = "[PHONE REDACTED]"
	TokenRedactedLabel = "[REDACTED]" // 性别指示词整词替换标签

	// 匿名候选人ID前缀, 例如 CANDIDATE-9F86D081884C
	CandidateIDPrefix = "CANDIDATE-"
	CandidateIDHexLen = 12

	// Redis缓存键
	JDCachePrefix      = "jd_text:"     // 岗位描述文本缓存
	JDCacheDuration    = 24 * time.Hour // 岗位描述缓存有效期
	MatchScorePrefix   = "match_score:" // (岗位文本, 简历文本)对的匹配分数缓存
	MatchScoreDuration = 6 * time.Hour  // 匹配分数缓存有效期
)

// NER标签, 与spaCy en_core_web_sm的实体标签保持一致
const (
	LabelPerson   = "PERSON"
	LabelLocation = "GPE"
	LabelOrg      = "ORG"
	LabelDate     = "DATE"
)
