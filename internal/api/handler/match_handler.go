package handler

import (
	"context"
	"errors"
	"log"
	"os"

	"fair-ats-go/internal/anonymizer"
	"fair-ats-go/internal/comparison"
	"fair-ats-go/internal/config"
	"fair-ats-go/internal/scorer"
	"fair-ats-go/internal/storage"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// MatchHandler 匹配流水线的HTTP入口: 文本脱敏/评分/排序/双流水线对比
type MatchHandler struct {
	cfg        *config.Config
	storage    *storage.Storage
	anonymizer *anonymizer.Anonymizer
	scorer     *scorer.Scorer
	ranker     *scorer.Ranker
	comparer   *comparison.Comparer
	logger     *log.Logger
}

// NewMatchHandler 创建匹配处理器
func NewMatchHandler(
	cfg *config.Config,
	store *storage.Storage,
	anon *anonymizer.Anonymizer,
	s *scorer.Scorer,
	r *scorer.Ranker,
	c *comparison.Comparer,
) *MatchHandler {
	return &MatchHandler{
		cfg:        cfg,
		storage:    store,
		anonymizer: anon,
		scorer:     s,
		ranker:     r,
		comparer:   c,
		logger:     log.New(os.Stdout, "[MatchHandler] ", log.LstdFlags|log.Lshortfile),
	}
}

// AnonymizeRequest 文本脱敏请求
type AnonymizeRequest struct {
	Text string `json:"text"`
}

// HandleAnonymize 处理文本脱敏请求。
// POST /api/v1/anonymize
func (h *MatchHandler) HandleAnonymize(ctx context.Context, c *app.RequestContext) {
	var req AnonymizeRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败: " + err.Error()})
		return
	}

	result, err := h.anonymizer.AnonymizeText(ctx, req.Text)
	if err != nil {
		h.logger.Printf("文本脱敏失败: %v", err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	c.JSON(consts.StatusOK, utils.H{"anonymized_text": result})
}

// ScoreRequest 单对评分请求
type ScoreRequest struct {
	JobText    string `json:"job_text"`
	ResumeText string `json:"resume_text"`
}

// HandleScore 处理(岗位, 简历)单对评分请求, 命中Redis缓存时直接返回缓存分。
// POST /api/v1/match/score
func (h *MatchHandler) HandleScore(ctx context.Context, c *app.RequestContext) {
	var req ScoreRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败: " + err.Error()})
		return
	}
	if req.JobText == "" || req.ResumeText == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "job_text 和 resume_text 不能为空"})
		return
	}

	if h.storage != nil && h.storage.Redis != nil {
		if cached, err := h.storage.Redis.GetMatchScore(ctx, req.JobText, req.ResumeText); err == nil {
			c.JSON(consts.StatusOK, utils.H{"final_score": cached, "cached": true})
			return
		} else if !errors.Is(err, storage.ErrNotFound) {
			h.logger.Printf("读取评分缓存失败: %v", err)
		}
	}

	result, err := h.scorer.Score(ctx, req.JobText, req.ResumeText)
	if err != nil {
		h.logger.Printf("评分失败: %v", err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	if h.storage != nil && h.storage.Redis != nil {
		if err := h.storage.Redis.CacheMatchScore(ctx, req.JobText, req.ResumeText, result.FinalScore); err != nil {
			h.logger.Printf("写入评分缓存失败: %v", err)
		}
	}

	c.JSON(consts.StatusOK, result)
}

// RankRequest 批量排序请求
type RankRequest struct {
	JobText     string   `json:"job_text"`
	ResumeTexts []string `json:"resume_texts"`
}

// HandleRank 处理一批简历对一个岗位的两阶段排序请求。
// POST /api/v1/match/rank
func (h *MatchHandler) HandleRank(ctx context.Context, c *app.RequestContext) {
	var req RankRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败: " + err.Error()})
		return
	}
	if req.JobText == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "job_text 不能为空"})
		return
	}

	ranked, err := h.ranker.Rank(ctx, req.JobText, req.ResumeTexts)
	if err != nil {
		h.logger.Printf("排序失败: %v", err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	c.JSON(consts.StatusOK, utils.H{"total": len(req.ResumeTexts), "ranked": ranked})
}

// CompareRequest 双流水线对比请求
type CompareRequest struct {
	JobText            string   `json:"job_text"`
	ResumeTexts        []string `json:"resume_texts"`
	RejectionThreshold *float64 `json:"rejection_threshold,omitempty"`
}

// HandleCompare 处理传统关键词流水线与公平流水线的批量对比请求。
// 未显式给出阈值时使用配置中的默认拒绝阈值。
// POST /api/v1/match/compare
func (h *MatchHandler) HandleCompare(ctx context.Context, c *app.RequestContext) {
	var req CompareRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败: " + err.Error()})
		return
	}
	if req.JobText == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "job_text 不能为空"})
		return
	}

	threshold := h.cfg.Scoring.RejectionThreshold
	if req.RejectionThreshold != nil {
		threshold = *req.RejectionThreshold
	}

	stats, err := h.comparer.Compare(ctx, req.ResumeTexts, req.JobText, threshold)
	if err != nil {
		h.logger.Printf("对比失败: %v", err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	c.JSON(consts.StatusOK, stats)
}
