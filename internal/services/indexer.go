package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/lcr-QA-system/internal/embedding"
	"github.com/fyerfyer/lcr-QA-system/internal/models"
	"github.com/fyerfyer/lcr-QA-system/internal/rulebook"
	"github.com/fyerfyer/lcr-QA-system/internal/template"
	"github.com/fyerfyer/lcr-QA-system/internal/vectordb"
)

// Indexer 语料索引服务
// 负责协调规则手册与申报模板的结构化、嵌入和入库
type Indexer struct {
	embedder   embedding.Client                 // 嵌入模型客户端
	batcher    *embedding.DefaultBatchProcessor // 并行嵌入批处理器
	vectorDB   vectordb.Repository              // 向量存储
	splitCfg   rulebook.SplitterConfig          // 细分段配置
	batchSize  int                              // 嵌入与入库批处理大小
	maxWorkers int                              // 嵌入并行度
	timeout    time.Duration                    // 嵌入超时时间
	logger     *logrus.Logger                   // 日志记录器
}

// IndexerOption 索引服务配置选项
type IndexerOption func(*Indexer)

// NewIndexer 创建一个新的语料索引服务
func NewIndexer(
	embedder embedding.Client,
	vectorDB vectordb.Repository,
	opts ...IndexerOption,
) *Indexer {
	idx := &Indexer{
		embedder:   embedder,
		vectorDB:   vectorDB,
		splitCfg:   rulebook.DefaultSplitterConfig(),
		batchSize:  160,             // 默认批处理大小
		maxWorkers: 4,               // 默认嵌入并行度
		timeout:    time.Minute * 5, // 默认嵌入超时时间
		logger:     logrus.New(),    // 默认日志记录器
	}

	for _, opt := range opts {
		opt(idx)
	}

	idx.batcher = embedding.NewBatchProcessor(embedder, idx.batchSize, idx.maxWorkers)

	return idx
}

// WithIndexBatchSize 设置入库批处理大小
func WithIndexBatchSize(size int) IndexerOption {
	return func(s *Indexer) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithIndexTimeout 设置嵌入超时时间
func WithIndexTimeout(timeout time.Duration) IndexerOption {
	return func(s *Indexer) {
		s.timeout = timeout
	}
}

// WithIndexWorkers 设置嵌入并行度
func WithIndexWorkers(workers int) IndexerOption {
	return func(s *Indexer) {
		if workers > 0 {
			s.maxWorkers = workers
		}
	}
}

// WithSplitterConfig 设置细分段配置
func WithSplitterConfig(cfg rulebook.SplitterConfig) IndexerOption {
	return func(s *Indexer) {
		s.splitCfg = cfg
	}
}

// WithIndexerLogger 设置日志记录器
func WithIndexerLogger(logger *logrus.Logger) IndexerOption {
	return func(s *Indexer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// BuildCorpus 构建完整语料并写入向量存储
// 规则手册经结构切分与细分段，申报模板经规范化与行合并，
// 两路单元统一嵌入后批量入库
func (s *Indexer) BuildCorpus(ctx context.Context, rulebookPath string, templatePath string) (int, error) {
	s.logger.WithFields(logrus.Fields{
		"rulebook": rulebookPath,
		"template": templatePath,
	}).Info("building retrieval corpus")

	rulebookUnits, err := s.buildRulebookUnits(rulebookPath)
	if err != nil {
		return 0, fmt.Errorf("failed to build rulebook units: %w", err)
	}
	s.logger.WithField("units", len(rulebookUnits)).Info("rulebook units built")

	templateUnits, err := s.buildTemplateUnits(templatePath)
	if err != nil {
		return 0, fmt.Errorf("failed to build template units: %w", err)
	}
	s.logger.WithField("units", len(templateUnits)).Info("template units built")

	units := append(rulebookUnits, templateUnits...)
	if err := s.IndexUnits(ctx, units); err != nil {
		return 0, err
	}

	return len(units), nil
}

// buildRulebookUnits 解析并切分规则手册
func (s *Indexer) buildRulebookUnits(path string) ([]models.RetrievableUnit, error) {
	parser, err := rulebook.ParserFactory(path)
	if err != nil {
		return nil, err
	}

	pages, err := parser.Parse(path)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("pages", len(pages)).Info("rulebook loaded")

	chunks := rulebook.Segment(pages)
	s.logger.WithField("chunks", len(chunks)).Info("rulebook segmented")

	return rulebook.BuildUnits(chunks, s.splitCfg), nil
}

// buildTemplateUnits 加载并规范化申报模板工作簿
// 没有表头的表记录警告后跳过
func (s *Indexer) buildTemplateUnits(path string) ([]models.RetrievableUnit, error) {
	sheets, err := template.LoadWorkbook(path)
	if err != nil {
		return nil, err
	}

	var tables []*template.Table
	for _, sheet := range sheets {
		table, err := template.Normalize(sheet)
		if err != nil {
			if errors.Is(err, template.ErrNoHeaderRow) {
				s.logger.WithField("sheet", sheet.Name).Warn("no header row detected, skipping sheet")
				continue
			}
			return nil, fmt.Errorf("failed to normalize sheet %s: %w", sheet.Name, err)
		}
		tables = append(tables, table)
	}

	merged := template.MergeContinuations(tables)
	return template.ToUnits(merged), nil
}

// IndexUnits 将检索单元批量嵌入并写入向量存储
// 空内容单元记录警告后跳过，空批次为无操作
func (s *Indexer) IndexUnits(ctx context.Context, units []models.RetrievableUnit) error {
	var valid []models.RetrievableUnit
	for _, unit := range units {
		if strings.TrimSpace(unit.Content) == "" {
			s.logger.Warn("skipping unit with empty content")
			continue
		}
		valid = append(valid, unit)
	}

	if len(valid) == 0 {
		s.logger.Info("no units to index")
		return nil
	}

	s.logger.WithField("total", len(valid)).Info("indexing units")

	texts := make([]string, len(valid))
	for i, unit := range valid {
		texts[i] = unit.Content
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vectors, err := s.batcher.Process(embedCtx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(valid) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(valid), len(vectors))
	}

	for start := 0; start < len(valid); start += s.batchSize {
		end := start + s.batchSize
		if end > len(valid) {
			end = len(valid)
		}

		docs := make([]vectordb.Document, end-start)
		for i, unit := range valid[start:end] {
			docs[i] = vectordb.Document{
				ID:       uuid.New().String(),
				Text:     unit.Content,
				Vector:   vectors[start+i],
				Metadata: unit.Meta.AsMap(),
			}
		}

		if err := s.vectorDB.AddBatch(docs); err != nil {
			return fmt.Errorf("failed to index batch starting at %d: %w", start, err)
		}

		s.logger.WithFields(logrus.Fields{
			"batch": start/s.batchSize + 1,
			"size":  len(docs),
		}).Info("batch indexed")
	}

	return nil
}
