package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fyerfyer/lcr-QA-system/internal/database"
	"github.com/fyerfyer/lcr-QA-system/internal/models"
)

// HistoryRepository 问答历史仓储接口
// 负责问答会话和消息的存储和检索
type HistoryRepository interface {
	// CreateSession 创建问答会话
	CreateSession(session *models.ChatSession) error

	// GetSession 获取问答会话
	GetSession(id string) (*models.ChatSession, error)

	// DeleteSession 删除问答会话及其消息
	DeleteSession(id string) error

	// CreateMessage 创建问答消息
	CreateMessage(message *models.ChatMessage) error

	// RecordExchange 记录一轮完整问答（问题与带出处的回答）
	RecordExchange(sessionID, question, answer string, sources []models.Provenance) error

	// GetMessages 获取会话消息列表
	GetMessages(sessionID string, offset, limit int) ([]*models.ChatMessage, int64, error)

	// CountMessages 统计会话消息数量
	CountMessages(sessionID string) (int64, error)

	// WithContext 创建带有上下文的仓储
	WithContext(ctx context.Context) HistoryRepository
}

// historyRepo 问答历史仓储实现
type historyRepo struct {
	db *gorm.DB // 数据库连接
}

// NewHistoryRepository 创建问答历史仓储实例
func NewHistoryRepository() HistoryRepository {
	return &historyRepo{
		db: database.MustDB(),
	}
}

// NewHistoryRepositoryWithDB 使用指定的数据库连接创建问答历史仓储实例
func NewHistoryRepositoryWithDB(db *gorm.DB) HistoryRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &historyRepo{
		db: db,
	}
}

// WithContext 创建带有上下文的仓储
func (r *historyRepo) WithContext(ctx context.Context) HistoryRepository {
	return &historyRepo{
		db: r.db.WithContext(ctx),
	}
}

// CreateSession 创建问答会话
func (r *historyRepo) CreateSession(session *models.ChatSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	// 确保时间字段被设置
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	return r.db.Create(session).Error
}

// GetSession 获取问答会话
func (r *historyRepo) GetSession(id string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := r.db.Where("id = ?", id).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("chat session not found: %s", id)
		}
		return nil, err
	}
	return &session, nil
}

// DeleteSession 删除问答会话及其消息
func (r *historyRepo) DeleteSession(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.ChatSession{}).Error
	})
}

// CreateMessage 创建问答消息
func (r *historyRepo) CreateMessage(message *models.ChatMessage) error {
	if message.SessionID == "" {
		return fmt.Errorf("message session ID cannot be empty")
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	return r.db.Create(message).Error
}

// RecordExchange 记录一轮完整问答
// 会话不存在时自动创建，标题取问题文本
func (r *historyRepo) RecordExchange(sessionID, question, answer string, sources []models.Provenance) error {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		// 会话不存在时创建
		var session models.ChatSession
		err := tx.Where("id = ?", sessionID).First(&session).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			session = models.ChatSession{
				ID:    sessionID,
				Title: truncateTitle(question),
			}
			if err := tx.Create(&session).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		// 问题消息
		if err := tx.Create(&models.ChatMessage{
			SessionID: sessionID,
			Role:      models.RoleUser,
			Content:   question,
		}).Error; err != nil {
			return err
		}

		// 回答消息，来源出处序列化为JSON
		sourcesJSON, err := json.Marshal(sources)
		if err != nil {
			return fmt.Errorf("failed to marshal sources: %v", err)
		}

		return tx.Create(&models.ChatMessage{
			SessionID: sessionID,
			Role:      models.RoleAssistant,
			Content:   answer,
			Sources:   sourcesJSON,
		}).Error
	})
}

// GetMessages 获取会话消息列表
func (r *historyRepo) GetMessages(sessionID string, offset, limit int) ([]*models.ChatMessage, int64, error) {
	var messages []*models.ChatMessage
	var total int64

	query := r.db.Model(&models.ChatMessage{}).Where("session_id = ?", sessionID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}

	if err := query.Order("created_at ASC, id ASC").Find(&messages).Error; err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// CountMessages 统计会话消息数量
func (r *historyRepo) CountMessages(sessionID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.ChatMessage{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

// truncateTitle 以问题文本生成会话标题，过长时截断
func truncateTitle(question string) string {
	const maxTitleLen = 64
	runes := []rune(question)
	if len(runes) <= maxTitleLen {
		return question
	}
	return string(runes[:maxTitleLen]) + "..."
}
