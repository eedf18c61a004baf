package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/fyerfyer/lcr-QA-system/internal/models"
)

// AnswerEntry 缓存的问答条目
// 回答与来源出处存为同一条目，保证二者一起过期
type AnswerEntry struct {
	Answer  string              `json:"answer"`
	Sources []models.Provenance `json:"sources"`
}

// Cache 回答缓存接口
// 以归一化后的问题文本为键存取完整的问答条目
type Cache interface {
	GetAnswer(question string) (entry AnswerEntry, found bool, err error)
	SetAnswer(question string, entry AnswerEntry, ttl time.Duration) error
	DeleteAnswer(question string) error
	Clear() error
}

// Factory 缓存工厂函数类型
type Factory func(config Config) (Cache, error)

// 注册的缓存实现
var registry = make(map[string]Factory)

// RegisterCache 注册缓存实现
func RegisterCache(name string, factory Factory) {
	registry[name] = factory
}

// NewCache 创建缓存实例
func NewCache(config Config) (Cache, error) {
	if factory, ok := registry[config.Type]; ok {
		return factory(config)
	}
	// 默认使用内存缓存
	return NewMemoryCache(config)
}

// Config 缓存配置
type Config struct {
	// 缓存类型: "memory", "redis" 等
	Type string
	// Redis连接地址 (仅Redis缓存使用)
	RedisAddr string
	// Redis密码 (仅Redis缓存使用)
	RedisPassword string
	// Redis数据库编号 (仅Redis缓存使用)
	RedisDB int
	// 默认缓存过期时间
	DefaultTTL time.Duration
	// 自动清理间隔时间 (仅内存缓存使用)
	CleanupInterval time.Duration
}

// DefaultConfig 返回默认缓存配置
func DefaultConfig() Config {
	return Config{
		Type:            "memory",
		DefaultTTL:      time.Hour * 24,
		CleanupInterval: time.Minute * 10,
	}
}

// QuestionKey 为问题文本生成定长缓存键
// 归一化空白并忽略大小写，相同语义的问法命中同一条目
func QuestionKey(question string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(question), " "))
	sum := sha256.Sum256([]byte(normalized))
	return "answer:" + hex.EncodeToString(sum[:])
}
