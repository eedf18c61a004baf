package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fyerfyer/lcr-QA-system/internal/models"
)

// sampleEntry 构造带来源出处的问答条目
func sampleEntry(answer string) AnswerEntry {
	docType := "lcr_template"
	return AnswerEntry{
		Answer: answer,
		Sources: []models.Provenance{
			{ReturnCode: "S1A.1", Sheet: "S1A.1", LineCode: "020", LineDesc: "1.1", DocType: &docType},
		},
	}
}

// TestMemoryCacheAnswers 测试内存缓存的问答条目读写
func TestMemoryCacheAnswers(t *testing.T) {
	config := Config{
		Type:            "memory",
		DefaultTTL:      time.Second * 2,
		CleanupInterval: time.Second,
	}
	cache, err := NewMemoryCache(config)
	assert.NoError(t, err)
	assert.NotNil(t, cache)

	question := "Where do I report total HQLA?"
	err = cache.SetAnswer(question, sampleEntry("sheet S1A.1 row 020"), 0) // 使用默认TTL
	assert.NoError(t, err)

	entry, found, err := cache.GetAnswer(question)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "sheet S1A.1 row 020", entry.Answer)
	assert.Len(t, entry.Sources, 1)
	assert.Equal(t, "020", entry.Sources[0].LineCode)

	// 未缓存的问题
	_, found, err = cache.GetAnswer("never asked")
	assert.NoError(t, err)
	assert.False(t, found)

	// 删除
	err = cache.DeleteAnswer(question)
	assert.NoError(t, err)

	_, found, err = cache.GetAnswer(question)
	assert.NoError(t, err)
	assert.False(t, found)

	// 清空
	err = cache.SetAnswer("another question", sampleEntry("another answer"), 0)
	assert.NoError(t, err)

	err = cache.Clear()
	assert.NoError(t, err)

	_, found, err = cache.GetAnswer("another question")
	assert.NoError(t, err)
	assert.False(t, found)
}

// TestMemoryCacheEntryExpiresWhole 测试过期后回答和来源一起消失
func TestMemoryCacheEntryExpiresWhole(t *testing.T) {
	cache, err := NewMemoryCache(DefaultConfig())
	assert.NoError(t, err)

	question := "What counts as Level 1 assets?"
	err = cache.SetAnswer(question, sampleEntry("central bank reserves"), time.Millisecond*500)
	assert.NoError(t, err)

	time.Sleep(time.Second)

	entry, found, err := cache.GetAnswer(question)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, entry.Answer)
	assert.Empty(t, entry.Sources)
}

// TestMemoryCacheQuestionNormalization 测试问法差异命中同一条目
func TestMemoryCacheQuestionNormalization(t *testing.T) {
	cache, err := NewMemoryCache(DefaultConfig())
	assert.NoError(t, err)

	err = cache.SetAnswer("What is HQLA?", sampleEntry("high quality liquid assets"), 0)
	assert.NoError(t, err)

	entry, found, err := cache.GetAnswer("  WHAT   is hqla?  ")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "high quality liquid assets", entry.Answer)
	assert.Len(t, entry.Sources, 1)
}

// TestCacheFactory 测试缓存工厂函数
func TestCacheFactory(t *testing.T) {
	// 测试内存缓存创建
	memCache, err := NewCache(DefaultConfig())
	assert.NoError(t, err)
	assert.NotNil(t, memCache)

	// 测试未知缓存类型（应该返回默认内存缓存）
	unknownCache, err := NewCache(Config{Type: "unknown-type"})
	assert.NoError(t, err)
	assert.NotNil(t, unknownCache)
}

// TestQuestionKey 测试问题键的归一化
func TestQuestionKey(t *testing.T) {
	key1 := QuestionKey("What is HQLA?")
	key2 := QuestionKey("  what   is hqla?  ")
	key3 := QuestionKey("What is Level 1?")

	assert.Equal(t, key1, key2)
	assert.NotEqual(t, key1, key3)
}
