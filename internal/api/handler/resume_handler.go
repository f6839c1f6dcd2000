package handler

import (
	"context"
	"io"
	"log"
	"os"
	"strconv"

	"fair-ats-go/internal/anonymizer"
	"fair-ats-go/internal/parser"
	"fair-ats-go/internal/storage"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// maxResumeUploadBytes 单份简历上传大小上限
const maxResumeUploadBytes = 10 << 20 // 10 MB

// ResumeHandler 简历上传入口: 归档原始PDF → 提取文本 → 结构化解析 → 可选脱敏
type ResumeHandler struct {
	storage      *storage.Storage
	pdfExtractor *parser.EinoPDFTextExtractor
	parser       *parser.ResumeParser
	anonymizer   *anonymizer.Anonymizer
	logger       *log.Logger
}

// NewResumeHandler 创建简历处理器
func NewResumeHandler(
	store *storage.Storage,
	pdfExtractor *parser.EinoPDFTextExtractor,
	resumeParser *parser.ResumeParser,
	anon *anonymizer.Anonymizer,
) *ResumeHandler {
	return &ResumeHandler{
		storage:      store,
		pdfExtractor: pdfExtractor,
		parser:       resumeParser,
		anonymizer:   anon,
		logger:       log.New(os.Stdout, "[ResumeHandler] ", log.LstdFlags|log.Lshortfile),
	}
}

// HandleResumeUpload 处理简历上传。
// 表单字段: file(必填, PDF), anonymize(可选, "true"时返回脱敏后的解析结果)。
// PDF提取失败直接报错, 不吞掉错误返回半截数据。
// POST /api/v1/resume/upload
func (h *ResumeHandler) HandleResumeUpload(ctx context.Context, c *app.RequestContext) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
		return
	}
	if fileHeader.Size > maxResumeUploadBytes {
		c.JSON(consts.StatusRequestEntityTooLarge, utils.H{"error": "文件过大"})
		return
	}

	anonymize, _ := strconv.ParseBool(c.PostForm("anonymize"))

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "读取文件失败"})
		return
	}

	// 原始文件归档是尽力而为, MinIO不可用时继续走解析流程
	var objectKey string
	if h.storage != nil && h.storage.MinIO != nil {
		objectKey, err = h.storage.MinIO.UploadResume(ctx, fileHeader.Filename, data, "application/pdf")
		if err != nil {
			h.logger.Printf("归档原始简历失败: %v", err)
			objectKey = ""
		}
	}

	rawText, err := h.pdfExtractor.ExtractFromBytes(ctx, data, fileHeader.Filename)
	if err != nil {
		h.logger.Printf("PDF文本提取失败: %v", err)
		c.JSON(consts.StatusUnprocessableEntity, utils.H{"error": "PDF文本提取失败: " + err.Error()})
		return
	}

	resume, err := h.parser.Parse(ctx, rawText)
	if err != nil {
		h.logger.Printf("简历解析失败: %v", err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	if anonymize {
		anonymized, err := h.anonymizer.Anonymize(ctx, *resume)
		if err != nil {
			h.logger.Printf("简历脱敏失败: %v", err)
			c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		resume = &anonymized
	}

	c.JSON(consts.StatusOK, utils.H{
		"resume":     resume,
		"object_key": objectKey,
	})
}
