package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupMiniredisCache 基于内嵌Redis创建缓存实例
func setupMiniredisCache(t *testing.T) (Cache, *miniredis.Miniredis) {
	server := miniredis.RunT(t)

	cache, err := NewRedisCache(Config{
		Type:      "redis",
		RedisAddr: server.Addr(),
	})
	require.NoError(t, err)

	return cache, server
}

// TestRedisCacheAnswers 测试Redis缓存的问答条目读写
func TestRedisCacheAnswers(t *testing.T) {
	cache, _ := setupMiniredisCache(t)

	question := "Where do I report total HQLA?"
	require.NoError(t, cache.SetAnswer(question, sampleEntry("sheet S1A.1 row 020"), 0))

	entry, found, err := cache.GetAnswer(question)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "sheet S1A.1 row 020", entry.Answer)

	// 来源出处经过序列化往返保持完整
	require.Len(t, entry.Sources, 1)
	assert.Equal(t, "S1A.1", entry.Sources[0].Sheet)
	assert.Equal(t, "020", entry.Sources[0].LineCode)
	require.NotNil(t, entry.Sources[0].DocType)
	assert.Equal(t, "lcr_template", *entry.Sources[0].DocType)

	// 未缓存的问题
	_, found, err = cache.GetAnswer("never asked")
	require.NoError(t, err)
	assert.False(t, found)

	// 删除
	require.NoError(t, cache.DeleteAnswer(question))
	_, found, err = cache.GetAnswer(question)
	require.NoError(t, err)
	assert.False(t, found)
}

// TestRedisCacheExpiration 测试回答和来源作为整条缓存一起过期
func TestRedisCacheExpiration(t *testing.T) {
	cache, server := setupMiniredisCache(t)

	question := "What counts as Level 1 assets?"
	require.NoError(t, cache.SetAnswer(question, sampleEntry("central bank reserves"), time.Second))

	entry, found, err := cache.GetAnswer(question)
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotEmpty(t, entry.Sources)

	// 快进时间触发过期
	server.FastForward(2 * time.Second)

	entry, found, err = cache.GetAnswer(question)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, entry.Answer)
	assert.Empty(t, entry.Sources)
}

// TestRedisCacheCorruptEntry 测试损坏的条目视为未命中
func TestRedisCacheCorruptEntry(t *testing.T) {
	cache, server := setupMiniredisCache(t)

	question := "What is HQLA?"
	require.NoError(t, server.Set(QuestionKey(question), "not valid json"))

	_, found, err := cache.GetAnswer(question)
	require.NoError(t, err)
	assert.False(t, found)

	// 损坏的条目已被删除
	assert.False(t, server.Exists(QuestionKey(question)))
}

// TestRedisCacheClear 测试清空缓存
func TestRedisCacheClear(t *testing.T) {
	cache, _ := setupMiniredisCache(t)

	require.NoError(t, cache.SetAnswer("first question", sampleEntry("a"), 0))
	require.NoError(t, cache.SetAnswer("second question", sampleEntry("b"), 0))

	require.NoError(t, cache.Clear())

	_, found, err := cache.GetAnswer("first question")
	require.NoError(t, err)
	assert.False(t, found)
}

// TestRedisCacheQuestionNormalization 测试问法差异命中同一条目
func TestRedisCacheQuestionNormalization(t *testing.T) {
	cache, _ := setupMiniredisCache(t)

	require.NoError(t, cache.SetAnswer("What is HQLA?", sampleEntry("cached answer"), 0))

	entry, found, err := cache.GetAnswer("  what   is hqla?  ")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "cached answer", entry.Answer)
}
