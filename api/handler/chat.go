package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/lcr-QA-system/api/middleware"
	"github.com/fyerfyer/lcr-QA-system/api/model"
	"github.com/fyerfyer/lcr-QA-system/internal/models"
)

// Answerer 问答服务接口
type Answerer interface {
	Answer(ctx context.Context, question string, sessionID string) (string, []models.Provenance, error)
}

// ChatHandler 处理问答相关的API请求
type ChatHandler struct {
	qa     Answerer       // 问答服务
	logger *logrus.Logger // 日志记录器
}

// NewChatHandler 创建新的问答处理器
func NewChatHandler(qa Answerer) *ChatHandler {
	return &ChatHandler{
		qa:     qa,
		logger: middleware.GetLogger(),
	}
}

// Chat 回答监管申报问题
// POST /chat
func (h *ChatHandler) Chat(c *gin.Context) {
	// 绑定请求参数
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid chat request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"question is required",
		))
		return
	}

	h.logger.WithFields(logrus.Fields{
		"question":   req.Question,
		"session_id": req.SessionID,
	}).Info("Received chat request")

	// 调用问答服务
	answer, sources, err := h.qa.Answer(c.Request.Context(), req.Question, req.SessionID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to answer question")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to generate answer",
		))
		return
	}

	// 空来源也要序列化为空数组而不是null
	if sources == nil {
		sources = []models.Provenance{}
	}

	// 平铺返回，前端直接读取answer和sources
	c.JSON(http.StatusOK, model.ChatResponse{
		Answer:      answer,
		Sources:     model.ConvertToSourceMeta(sources),
		RawMetadata: sources,
	})
}
