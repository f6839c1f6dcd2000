package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"fair-ats-go/internal/config"
	"fair-ats-go/internal/constants"
	"fair-ats-go/internal/logger"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound 缓存未命中
var ErrNotFound = errors.New("storage: key not found")

// Redis 缓存层: 岗位描述文本缓存和匹配分缓存
type Redis struct {
	client *redis.Client
	cfg    *config.RedisConfig
}

// NewRedis 创建Redis客户端并做连通性检查
func NewRedis(ctx context.Context, cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("Redis配置不能为空")
	}

	client := redis.NewClient(&redis.Options{
		Addr:            cfg.Address,
		Password:        cfg.Password,
		DB:              cfg.DB,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		DialTimeout:     time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:     time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:    time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	})

	// 挂载OpenTelemetry追踪钩子
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Warn().Err(err).Msg("Redis追踪钩子挂载失败, 继续运行")
	}

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("Redis连通性检查失败: %w", err)
	}

	logger.Info().Str("address", cfg.Address).Int("db", cfg.DB).Msg("成功连接到Redis")
	return &Redis{client: client, cfg: cfg}, nil
}

// Client 返回底层客户端
func (r *Redis) Client() *redis.Client {
	return r.client
}

// Close 关闭连接
func (r *Redis) Close() error {
	return r.client.Close()
}

//
// 岗位描述文本缓存
//

// CacheJobText 缓存岗位描述文本
func (r *Redis) CacheJobText(ctx context.Context, jobID, text string) error {
	key := constants.JDCachePrefix + jobID
	if err := r.client.Set(ctx, key, text, constants.JDCacheDuration).Err(); err != nil {
		return fmt.Errorf("缓存岗位描述失败: %w", err)
	}
	return nil
}

// GetJobText 读取岗位描述文本缓存, 未命中返回ErrNotFound
func (r *Redis) GetJobText(ctx context.Context, jobID string) (string, error) {
	key := constants.JDCachePrefix + jobID
	text, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("读取岗位描述缓存失败: %w", err)
	}
	return text, nil
}

//
// 匹配分缓存
//

// matchScoreKey 匹配分缓存key: 岗位文本和简历文本联合哈希,
// 任一侧文本变化即失效
func matchScoreKey(jobText, resumeText string) string {
	sum := sha256.Sum256([]byte(jobText + "\x00" + resumeText))
	return constants.MatchScorePrefix + hex.EncodeToString(sum[:16])
}

// CacheMatchScore 缓存一次评分结果
func (r *Redis) CacheMatchScore(ctx context.Context, jobText, resumeText string, score float64) error {
	key := matchScoreKey(jobText, resumeText)
	value := strconv.FormatFloat(score, 'f', -1, 64)
	if err := r.client.Set(ctx, key, value, constants.MatchScoreDuration).Err(); err != nil {
		return fmt.Errorf("缓存匹配分失败: %w", err)
	}
	return nil
}

// GetMatchScore 读取评分缓存, 未命中返回ErrNotFound
func (r *Redis) GetMatchScore(ctx context.Context, jobText, resumeText string) (float64, error) {
	key := matchScoreKey(jobText, resumeText)
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("读取匹配分缓存失败: %w", err)
	}

	score, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("匹配分缓存值损坏: %w", err)
	}
	return score, nil
}
