package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/lcr-QA-system/internal/cache"
	"github.com/fyerfyer/lcr-QA-system/internal/embedding"
	"github.com/fyerfyer/lcr-QA-system/internal/llm"
	"github.com/fyerfyer/lcr-QA-system/internal/models"
	"github.com/fyerfyer/lcr-QA-system/internal/repository"
	"github.com/fyerfyer/lcr-QA-system/internal/vectordb"
)

// QueryService 问答服务
// 负责协调向量检索、上下文格式化和大模型生成
type QueryService struct {
	embedder   embedding.Client             // 嵌入模型客户端
	vectorDB   vectordb.Repository          // 向量存储
	rag        *llm.RAGService              // RAG服务
	cache      cache.Cache                  // 回答缓存
	history    repository.HistoryRepository // 问答历史仓储，可选
	searchOpts vectordb.SearchOptions       // 检索参数
	cacheTTL   time.Duration                // 缓存有效期
	logger     *logrus.Logger               // 日志记录器
}

// QueryOption 问答服务配置选项
type QueryOption func(*QueryService)

// NewQueryService 创建问答服务实例
func NewQueryService(
	embedder embedding.Client,
	vectorDB vectordb.Repository,
	rag *llm.RAGService,
	cache cache.Cache,
	opts ...QueryOption,
) *QueryService {
	service := &QueryService{
		embedder:   embedder,
		vectorDB:   vectorDB,
		rag:        rag,
		cache:      cache,
		searchOpts: vectordb.DefaultSearchOptions(),
		cacheTTL:   24 * time.Hour, // 默认缓存24小时
		logger:     logrus.New(),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// WithCacheTTL 设置缓存有效期
func WithCacheTTL(ttl time.Duration) QueryOption {
	return func(s *QueryService) {
		s.cacheTTL = ttl
	}
}

// WithSearchOptions 设置检索参数
func WithSearchOptions(opts vectordb.SearchOptions) QueryOption {
	return func(s *QueryService) {
		s.searchOpts = opts
	}
}

// WithHistory 设置问答历史仓储
func WithHistory(history repository.HistoryRepository) QueryOption {
	return func(s *QueryService) {
		s.history = history
	}
}

// WithQueryLogger 设置日志记录器
func WithQueryLogger(logger *logrus.Logger) QueryOption {
	return func(s *QueryService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Answer 回答监管问题
// 返回生成的回答和来源出处列表；出处与送入生成的上下文
// 来自同一次检索，顺序一致
func (s *QueryService) Answer(ctx context.Context, question string, sessionID string) (string, []models.Provenance, error) {
	if question == "" {
		return "", nil, fmt.Errorf("question cannot be empty")
	}

	// 1. 尝试从缓存获取，缓存故障不阻断回答
	if entry, found, err := s.cache.GetAnswer(question); err != nil {
		s.logger.WithError(err).Warn("answer cache lookup failed")
	} else if found {
		s.recordHistory(sessionID, question, entry.Answer, entry.Sources)
		return entry.Answer, entry.Sources, nil
	}

	// 2. 将问题转换为向量
	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	// 3. 单次检索，出处和生成上下文共用结果
	results, err := s.vectorDB.Search(vector, s.searchOpts)
	if err != nil {
		return "", nil, fmt.Errorf("search failed: %w", err)
	}

	docs := make([]vectordb.Document, len(results))
	sources := make([]models.Provenance, len(results))
	for i, result := range results {
		docs[i] = result.Document
		sources[i] = models.ProvenanceFromMetadata(result.Document.Metadata)
	}

	// 4. 格式化上下文并生成回答
	// 检索为空时上下文为空串，提示词规则触发兜底回答
	contextText := FormatContext(docs)

	answer, err := s.rag.Answer(ctx, question, contextText)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	// 5. 回答连同来源出处整条缓存
	entry := cache.AnswerEntry{Answer: answer, Sources: sources}
	if err := s.cache.SetAnswer(question, entry, s.cacheTTL); err != nil {
		s.logger.WithError(err).Warn("failed to cache answer")
	}

	// 6. 记录问答历史
	s.recordHistory(sessionID, question, answer, sources)

	return answer, sources, nil
}

// recordHistory 尽力记录问答历史，失败不影响主流程
func (s *QueryService) recordHistory(sessionID, question, answer string, sources []models.Provenance) {
	if s.history == nil || sessionID == "" {
		return
	}
	if err := s.history.RecordExchange(sessionID, question, answer, sources); err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).
			Warn("failed to record chat history")
	}
}

// ClearCache 清除问答缓存
func (s *QueryService) ClearCache() error {
	return s.cache.Clear()
}
