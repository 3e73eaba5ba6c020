package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"testcracker/internal/model"
	"testcracker/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ExamCache keeps single-exam lookups out of the database. Misses and cache
// errors both report ok == false; callers fall back to the repository.
type ExamCache interface {
	GetByID(ctx context.Context, id string) (*model.Exam, bool)
	GetByCode(ctx context.Context, code string) (*model.Exam, bool)
	Set(ctx context.Context, exam *model.Exam)
	Invalidate(ctx context.Context, exam *model.Exam)
}

func examIDKey(id string) string {
	return fmt.Sprintf("testcracker:exam:id:%s", id)
}

func examCodeKey(code string) string {
	return fmt.Sprintf("testcracker:exam:code:%s", code)
}

type RedisExamCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewRedisExamCache(rdb *redis.Client, ttl time.Duration) *RedisExamCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisExamCache{Redis: rdb, TTL: ttl}
}

func (c *RedisExamCache) GetByID(ctx context.Context, id string) (*model.Exam, bool) {
	return c.get(ctx, examIDKey(id))
}

func (c *RedisExamCache) GetByCode(ctx context.Context, code string) (*model.Exam, bool) {
	return c.get(ctx, examCodeKey(code))
}

func (c *RedisExamCache) get(ctx context.Context, key string) (*model.Exam, bool) {
	data, err := c.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("Exam cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var exam model.Exam
	if err := json.Unmarshal(data, &exam); err != nil {
		c.Redis.Del(ctx, key)
		return nil, false
	}
	return &exam, true
}

func (c *RedisExamCache) Set(ctx context.Context, exam *model.Exam) {
	data, err := json.Marshal(exam)
	if err != nil {
		return
	}
	_, err = c.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, examIDKey(exam.ID), data, c.TTL)
		pipe.Set(ctx, examCodeKey(exam.Code), data, c.TTL)
		return nil
	})
	if err != nil {
		logger.Log.Warn("Exam cache write failed", zap.String("examID", exam.ID), zap.Error(err))
	}
}

func (c *RedisExamCache) Invalidate(ctx context.Context, exam *model.Exam) {
	if err := c.Redis.Del(ctx, examIDKey(exam.ID), examCodeKey(exam.Code)).Err(); err != nil {
		logger.Log.Warn("Exam cache invalidation failed", zap.String("examID", exam.ID), zap.Error(err))
	}
}

// Nop is used when redis is disabled.
type Nop struct{}

func (Nop) GetByID(context.Context, string) (*model.Exam, bool)   { return nil, false }
func (Nop) GetByCode(context.Context, string) (*model.Exam, bool) { return nil, false }
func (Nop) Set(context.Context, *model.Exam)                      {}
func (Nop) Invalidate(context.Context, *model.Exam)               {}
