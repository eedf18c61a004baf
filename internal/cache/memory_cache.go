package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache 基于go-cache实现的内存回答缓存
// 条目直接以结构体存储，不经过序列化
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache 创建一个新的内存缓存
func NewMemoryCache(config Config) (Cache, error) {
	// 默认过期时间和清理间隔
	defaultExpiration := config.DefaultTTL
	if defaultExpiration == 0 {
		defaultExpiration = 24 * time.Hour
	}

	cleanupInterval := config.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 10 * time.Minute
	}

	return &MemoryCache{
		cache: gocache.New(defaultExpiration, cleanupInterval),
	}, nil
}

// GetAnswer 按问题获取缓存的问答条目
func (m *MemoryCache) GetAnswer(question string) (AnswerEntry, bool, error) {
	value, found := m.cache.Get(QuestionKey(question))
	if !found {
		return AnswerEntry{}, false, nil
	}

	entry, ok := value.(AnswerEntry)
	if !ok {
		return AnswerEntry{}, false, nil
	}
	return entry, true, nil
}

// SetAnswer 缓存问答条目
func (m *MemoryCache) SetAnswer(question string, entry AnswerEntry, ttl time.Duration) error {
	// 如果ttl为0，使用默认过期时间
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	m.cache.Set(QuestionKey(question), entry, ttl)
	return nil
}

// DeleteAnswer 删除问题对应的缓存条目
func (m *MemoryCache) DeleteAnswer(question string) error {
	m.cache.Delete(QuestionKey(question))
	return nil
}

// Clear 清空所有缓存
func (m *MemoryCache) Clear() error {
	m.cache.Flush()
	return nil
}

// 在包初始化时注册内存缓存
func init() {
	RegisterCache("memory", NewMemoryCache)
}
