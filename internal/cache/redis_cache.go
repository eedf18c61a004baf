package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache 基于Redis实现的回答缓存
// 问答条目序列化为JSON后整条存储，回答和来源一起过期
type RedisCache struct {
	client     *redis.Client
	ctx        context.Context
	defaultTTL time.Duration
}

// NewRedisCache 创建一个新的Redis缓存
func NewRedisCache(config Config) (Cache, error) {
	// 配置Redis客户端
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	// 测试连接
	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}

	defaultTTL := config.DefaultTTL
	if defaultTTL == 0 {
		defaultTTL = 24 * time.Hour
	}

	return &RedisCache{
		client:     client,
		ctx:        ctx,
		defaultTTL: defaultTTL,
	}, nil
}

// GetAnswer 按问题获取缓存的问答条目
// 反序列化失败的条目视为未命中并删除
func (r *RedisCache) GetAnswer(question string) (AnswerEntry, bool, error) {
	key := QuestionKey(question)

	data, err := r.client.Get(r.ctx, key).Result()
	if err == redis.Nil {
		// 键不存在
		return AnswerEntry{}, false, nil
	} else if err != nil {
		// 其他错误
		return AnswerEntry{}, false, err
	}

	var entry AnswerEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		r.client.Del(r.ctx, key)
		return AnswerEntry{}, false, nil
	}
	return entry, true, nil
}

// SetAnswer 缓存问答条目
func (r *RedisCache) SetAnswer(question string, entry AnswerEntry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal answer entry: %v", err)
	}

	if ttl == 0 {
		ttl = r.defaultTTL
	}
	return r.client.Set(r.ctx, QuestionKey(question), data, ttl).Err()
}

// DeleteAnswer 删除问题对应的缓存条目
func (r *RedisCache) DeleteAnswer(question string) error {
	return r.client.Del(r.ctx, QuestionKey(question)).Err()
}

// Clear 清空所有缓存
// 注意：这会清空整个Redis数据库，谨慎使用
func (r *RedisCache) Clear() error {
	return r.client.FlushDB(r.ctx).Err()
}

// 在包初始化时注册Redis缓存
func init() {
	RegisterCache("redis", NewRedisCache)
}
