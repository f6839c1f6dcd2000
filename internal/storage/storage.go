package storage

import (
	"context"

	"fair-ats-go/internal/config"
	"fair-ats-go/internal/logger"
)

// Storage 聚合所有存储后端。MySQL是硬依赖, 初始化失败直接报错;
// Redis和MinIO是可选增强, 失败时记录警告并以nil降级,
// 调用方使用前需判空。
type Storage struct {
	MySQL *MySQL
	Redis *Redis
	MinIO *MinIO
}

// NewStorage 按配置初始化存储层
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	s := &Storage{}

	mysqlDB, err := NewMySQL(&cfg.MySQL)
	if err != nil {
		return nil, err
	}
	s.MySQL = mysqlDB

	redisClient, err := NewRedis(ctx, &cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis初始化失败, 评分缓存不可用")
	} else {
		s.Redis = redisClient
	}

	minioClient, err := NewMinIO(ctx, &cfg.MinIO)
	if err != nil {
		logger.Warn().Err(err).Msg("MinIO初始化失败, 原始简历将不会归档")
	} else {
		s.MinIO = minioClient
	}

	return s, nil
}

// Close 关闭全部存储连接
func (s *Storage) Close() {
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭Redis连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭MySQL连接失败")
		}
	}
}
