package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"fair-ats-go/internal/config"
	"fair-ats-go/internal/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIO 对象存储: 保存上传的原始简历文件
type MinIO struct {
	client *minio.Client
	cfg    *config.MinIOConfig
}

// NewMinIO 创建MinIO客户端并确保原始简历桶存在
func NewMinIO(ctx context.Context, cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{client: client, cfg: cfg}
	if err := m.ensureBucket(ctx, cfg.OriginalsBucket); err != nil {
		return nil, err
	}

	logger.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.OriginalsBucket).Msg("成功连接到MinIO")
	return m, nil
}

// ensureBucket 桶不存在时创建
func (m *MinIO) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 失败: %w", bucket, err)
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: m.cfg.Location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucket, err)
	}
	logger.Info().Str("bucket", bucket).Msg("已创建存储桶")
	return nil
}

// UploadResume 上传原始简历, 返回对象key。
// key按日期分目录, 带随机UUID避免同名覆盖。
func (m *MinIO) UploadResume(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	objectName := fmt.Sprintf("%s/%s-%s", time.Now().Format("2006/01/02"), uuid.NewString(), filename)

	_, err := m.client.PutObject(ctx, m.cfg.OriginalsBucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("上传简历到MinIO失败: %w", err)
	}
	return objectName, nil
}

// GetResume 下载原始简历内容
func (m *MinIO) GetResume(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.cfg.OriginalsBucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("读取MinIO对象失败: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("读取MinIO对象内容失败: %w", err)
	}
	return data, nil
}

// PresignedResumeURL 生成限时下载链接
func (m *MinIO) PresignedResumeURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.cfg.OriginalsBucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("生成预签名URL失败: %w", err)
	}
	return u.String(), nil
}
