package repository

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fyerfyer/lcr-QA-system/internal/database"
	"github.com/fyerfyer/lcr-QA-system/internal/models"
)

func setupHistoryTestDB(t *testing.T) (*gorm.DB, func()) {
	// Use in-memory SQLite database for testing
	dbName := fmt.Sprintf("file:memdb_history_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err, "Failed to open in-memory database")

	// Run migrations
	err = db.AutoMigrate(&models.ChatSession{}, &models.ChatMessage{})
	require.NoError(t, err, "Failed to run migrations")

	// Save original DB reference
	originalDB := database.DB

	// Replace global DB with test DB
	database.DB = db

	// Return cleanup function
	cleanup := func() {
		database.DB = originalDB
	}

	return db, cleanup
}

func TestHistoryRepository_CreateAndGetSession(t *testing.T) {
	_, cleanup := setupHistoryTestDB(t)
	defer cleanup()

	repo := NewHistoryRepository()

	session := &models.ChatSession{
		ID:    "test-session-1",
		Title: "What is HQLA?",
	}
	require.NoError(t, repo.CreateSession(session))

	got, err := repo.GetSession("test-session-1")
	require.NoError(t, err)
	assert.Equal(t, "What is HQLA?", got.Title)
	assert.False(t, got.CreatedAt.IsZero())

	// 不存在的会话
	_, err = repo.GetSession("missing")
	assert.Error(t, err)
}

func TestHistoryRepository_RecordExchange(t *testing.T) {
	_, cleanup := setupHistoryTestDB(t)
	defer cleanup()

	repo := NewHistoryRepository()

	sources := []models.Provenance{
		{
			ReturnCode: "S1A",
			Sheet:      "S1A.1",
			LineCode:   "020",
			LineDesc:   "1.1",
		},
	}

	err := repo.RecordExchange("session-1", "Where do I report Level 1 assets?", "Report them in sheet S1A.1 row 020.", sources)
	require.NoError(t, err)

	// 会话被自动创建，标题取问题文本
	session, err := repo.GetSession("session-1")
	require.NoError(t, err)
	assert.Equal(t, "Where do I report Level 1 assets?", session.Title)

	// 一轮问答产生两条消息
	messages, total, err := repo.GetMessages("session-1", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, messages, 2)

	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)

	// 回答消息的来源出处可以反序列化
	var decoded []models.Provenance
	require.NoError(t, json.Unmarshal(messages[1].Sources, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "S1A.1", decoded[0].Sheet)

	// 第二轮问答追加到同一会话
	err = repo.RecordExchange("session-1", "And Level 2 assets?", "See sheet S1A.1 row 030.", nil)
	require.NoError(t, err)

	count, err := repo.CountMessages("session-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestHistoryRepository_DeleteSession(t *testing.T) {
	_, cleanup := setupHistoryTestDB(t)
	defer cleanup()

	repo := NewHistoryRepository()

	require.NoError(t, repo.RecordExchange("session-del", "q", "a", nil))
	require.NoError(t, repo.DeleteSession("session-del"))

	_, err := repo.GetSession("session-del")
	assert.Error(t, err)

	count, err := repo.CountMessages("session-del")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestHistoryRepository_CreateMessageValidation(t *testing.T) {
	_, cleanup := setupHistoryTestDB(t)
	defer cleanup()

	repo := NewHistoryRepository()

	err := repo.CreateMessage(&models.ChatMessage{Content: "orphan"})
	assert.Error(t, err)
}
