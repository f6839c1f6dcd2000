package handler

import (
	"context"
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"fair-ats-go/internal/anonymizer"
	"fair-ats-go/internal/config"
	"fair-ats-go/internal/scorer"
	"fair-ats-go/internal/storage"
	"fair-ats-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
)

// JobHandler 岗位CRUD/搜索/投递的HTTP入口
type JobHandler struct {
	cfg        *config.Config
	storage    *storage.Storage
	anonymizer *anonymizer.Anonymizer
	scorer     *scorer.Scorer
	logger     *log.Logger
}

// NewJobHandler 创建岗位处理器
func NewJobHandler(cfg *config.Config, store *storage.Storage, anon *anonymizer.Anonymizer, s *scorer.Scorer) *JobHandler {
	return &JobHandler{
		cfg:        cfg,
		storage:    store,
		anonymizer: anon,
		scorer:     s,
		logger:     log.New(os.Stdout, "[JobHandler] ", log.LstdFlags|log.Lshortfile),
	}
}

// JobRequest 岗位创建/更新请求
type JobRequest struct {
	UserID       string `json:"user_id"`
	Title        string `json:"title"`
	Company      string `json:"company"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
}

// HandleCreateJob 创建岗位并预热岗位描述缓存。
// POST /api/v1/jobs
func (h *JobHandler) HandleCreateJob(ctx context.Context, c *app.RequestContext) {
	var req JobRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败: " + err.Error()})
		return
	}
	if req.Title == "" || req.Description == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "title 和 description 不能为空"})
		return
	}

	job := &models.Job{
		JobID:        uuid.NewString(),
		UserID:       req.UserID,
		Title:        req.Title,
		Company:      req.Company,
		Description:  req.Description,
		Requirements: req.Requirements,
	}

	if err := h.storage.MySQL.CreateJob(ctx, job); err != nil {
		h.logger.Printf("创建岗位失败: %v", err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	if h.storage.Redis != nil {
		if err := h.storage.Redis.CacheJobText(ctx, job.JobID, h.jobMatchText(job)); err != nil {
			h.logger.Printf("预热岗位描述缓存失败: %v", err)
		}
	}

	c.JSON(consts.StatusCreated, job)
}

// HandleGetJob 按ID查岗位。
// GET /api/v1/jobs/:job_id
func (h *JobHandler) HandleGetJob(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	job, err := h.storage.MySQL.GetJob(ctx, jobID)
	if err != nil {
		if storage.IsNotFound(err) {
			c.JSON(consts.StatusNotFound, utils.H{"error": "岗位不存在"})
			return
		}
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, job)
}

// HandleUpdateJob 更新岗位并刷新岗位描述缓存。
// PUT /api/v1/jobs/:job_id
func (h *JobHandler) HandleUpdateJob(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	job, err := h.storage.MySQL.GetJob(ctx, jobID)
	if err != nil {
		if storage.IsNotFound(err) {
			c.JSON(consts.StatusNotFound, utils.H{"error": "岗位不存在"})
			return
		}
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	var req JobRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败: " + err.Error()})
		return
	}

	if req.Title != "" {
		job.Title = req.Title
	}
	if req.Company != "" {
		job.Company = req.Company
	}
	if req.Description != "" {
		job.Description = req.Description
	}
	if req.Requirements != "" {
		job.Requirements = req.Requirements
	}

	if err := h.storage.MySQL.UpdateJob(ctx, job); err != nil {
		h.logger.Printf("更新岗位失败: %v", err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	if h.storage.Redis != nil {
		if err := h.storage.Redis.CacheJobText(ctx, job.JobID, h.jobMatchText(job)); err != nil {
			h.logger.Printf("刷新岗位描述缓存失败: %v", err)
		}
	}

	c.JSON(consts.StatusOK, job)
}

// HandleDeleteJob 删除岗位及其投递记录。
// DELETE /api/v1/jobs/:job_id
func (h *JobHandler) HandleDeleteJob(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	if err := h.storage.MySQL.DeleteJob(ctx, jobID); err != nil {
		h.logger.Printf("删除岗位失败: %v", err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"deleted": jobID})
}

// HandleListJobs 列出岗位, 支持limit/offset分页和keyword搜索。
// GET /api/v1/jobs
func (h *JobHandler) HandleListJobs(ctx context.Context, c *app.RequestContext) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	var jobs []models.Job
	if keyword := c.Query("keyword"); keyword != "" {
		jobs, err = h.storage.MySQL.SearchJobs(ctx, keyword, limit)
	} else {
		jobs, err = h.storage.MySQL.ListJobs(ctx, limit, offset)
	}
	if err != nil {
		h.logger.Printf("查询岗位失败: %v", err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	c.JSON(consts.StatusOK, utils.H{"total": len(jobs), "jobs": jobs})
}

// HandleSearchJobs 按关键词搜索岗位标题/公司/描述。
// GET /api/v1/jobs/search?q=...
func (h *JobHandler) HandleSearchJobs(ctx context.Context, c *app.RequestContext) {
	keyword := c.Query("q")
	if keyword == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "查询参数 q 不能为空"})
		return
	}

	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}

	jobs, err := h.storage.MySQL.SearchJobs(ctx, keyword, limit)
	if err != nil {
		h.logger.Printf("搜索岗位失败: %v", err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	c.JSON(consts.StatusOK, utils.H{"total": len(jobs), "jobs": jobs})
}

// ApplyRequest 投递请求。ResumeObject是上传接口返回的原始简历对象key, 可选。
type ApplyRequest struct {
	UserID       string `json:"user_id"`
	ResumeText   string `json:"resume_text"`
	ResumeObject string `json:"resume_object"`
}

// HandleApply 投递岗位: 简历文本先脱敏再评分, 投递记录只保留匿名候选标识和分数。
// POST /api/v1/jobs/:job_id/apply
func (h *JobHandler) HandleApply(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")

	var req ApplyRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败: " + err.Error()})
		return
	}
	if req.UserID == "" || req.ResumeText == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "user_id 和 resume_text 不能为空"})
		return
	}

	user, err := h.storage.MySQL.GetUserByID(ctx, req.UserID)
	if err != nil {
		if storage.IsNotFound(err) {
			c.JSON(consts.StatusNotFound, utils.H{"error": "用户不存在"})
			return
		}
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	jobText, err := h.loadJobText(ctx, jobID)
	if err != nil {
		if storage.IsNotFound(err) {
			c.JSON(consts.StatusNotFound, utils.H{"error": "岗位不存在"})
			return
		}
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	redacted, err := h.anonymizer.AnonymizeText(ctx, req.ResumeText)
	if err != nil {
		h.logger.Printf("简历脱敏失败: %v", err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	result, err := h.scorer.Score(ctx, jobText, redacted)
	if err != nil {
		h.logger.Printf("投递评分失败: %v", err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	application := &models.Application{
		ApplicationID: uuid.NewString(),
		JobID:         jobID,
		UserID:        user.UserID,
		CandidateID:   anonymizer.GenerateCandidateID(user.Name, user.Email),
		Score:         result.FinalScore,
		ResumeObject:  req.ResumeObject,
	}
	if err := h.storage.MySQL.CreateApplication(ctx, application); err != nil {
		h.logger.Printf("创建投递记录失败: %v", err)
		c.JSON(consts.StatusConflict, utils.H{"error": "投递失败, 可能已投递过该岗位"})
		return
	}

	c.JSON(consts.StatusCreated, utils.H{
		"application": application,
		"match":       result,
	})
}

// resumeURLExpiry 原始简历下载链接的有效期
const resumeURLExpiry = 15 * time.Minute

// applicationEntry 投递记录响应, 能生成下载链接时附带限时URL
type applicationEntry struct {
	models.Application
	ResumeURL string `json:"resume_url,omitempty"`
}

// buildApplicationEntries 组装投递记录响应。presign为nil或对象key为空时不带链接。
func buildApplicationEntries(apps []models.Application, presign func(objectKey string) (string, error)) []applicationEntry {
	entries := make([]applicationEntry, len(apps))
	for i, a := range apps {
		entries[i] = applicationEntry{Application: a}
		if presign == nil || a.ResumeObject == "" {
			continue
		}
		if url, err := presign(a.ResumeObject); err == nil {
			entries[i].ResumeURL = url
		}
	}
	return entries
}

// HandleListApplications 列出某岗位的投递, 按分数倒序,
// 归档过原始简历且MinIO可用时附带限时下载链接。
// GET /api/v1/jobs/:job_id/applications
func (h *JobHandler) HandleListApplications(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	apps, err := h.storage.MySQL.ListApplicationsByJob(ctx, jobID)
	if err != nil {
		h.logger.Printf("查询投递记录失败: %v", err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	var presign func(string) (string, error)
	if h.storage.MinIO != nil {
		presign = func(objectKey string) (string, error) {
			url, err := h.storage.MinIO.PresignedResumeURL(ctx, objectKey, resumeURLExpiry)
			if err != nil {
				h.logger.Printf("生成简历下载链接失败: %v", err)
			}
			return url, err
		}
	}

	entries := buildApplicationEntries(apps, presign)
	c.JSON(consts.StatusOK, utils.H{"total": len(entries), "applications": entries})
}

// HandleDownloadApplicationResume 下载某条投递归档的原始简历。
// GET /api/v1/jobs/:job_id/applications/:application_id/resume
func (h *JobHandler) HandleDownloadApplicationResume(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	applicationID := c.Param("application_id")

	application, err := h.storage.MySQL.GetApplication(ctx, applicationID)
	if err != nil {
		if storage.IsNotFound(err) {
			c.JSON(consts.StatusNotFound, utils.H{"error": "投递记录不存在"})
			return
		}
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	if application.JobID != jobID {
		c.JSON(consts.StatusNotFound, utils.H{"error": "投递记录不属于该岗位"})
		return
	}
	if application.ResumeObject == "" {
		c.JSON(consts.StatusNotFound, utils.H{"error": "该投递未归档原始简历"})
		return
	}
	if h.storage.MinIO == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "对象存储不可用"})
		return
	}

	data, err := h.storage.MinIO.GetResume(ctx, application.ResumeObject)
	if err != nil {
		h.logger.Printf("读取归档简历失败: %v", err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	c.Data(consts.StatusOK, "application/pdf", data)
}

// loadJobText 读取用于匹配的岗位全文, 优先走Redis缓存
func (h *JobHandler) loadJobText(ctx context.Context, jobID string) (string, error) {
	if h.storage.Redis != nil {
		text, err := h.storage.Redis.GetJobText(ctx, jobID)
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			h.logger.Printf("读取岗位描述缓存失败: %v", err)
		}
	}

	job, err := h.storage.MySQL.GetJob(ctx, jobID)
	if err != nil {
		return "", err
	}

	text := h.jobMatchText(job)
	if h.storage.Redis != nil {
		if err := h.storage.Redis.CacheJobText(ctx, jobID, text); err != nil {
			h.logger.Printf("回填岗位描述缓存失败: %v", err)
		}
	}
	return text, nil
}

// jobMatchText 拼接岗位的匹配用全文
func (h *JobHandler) jobMatchText(job *models.Job) string {
	text := job.Title + "\n" + job.Description
	if job.Requirements != "" {
		text += "\n" + job.Requirements
	}
	return text
}
