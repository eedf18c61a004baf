package vectordb

import (
	"fmt"
	"sync"
	"time"
)

// MemoryRepository 内存向量仓库实现
// 用于开发和测试环境的简单内存存储
type MemoryRepository struct {
	mu        sync.RWMutex        // 读写锁，确保并发安全
	dimension int                 // 向量维度
	distType  DistanceType        // 距离计算类型
	documents map[string]Document // 文档存储，ID到文档的映射
}

// NewMemoryRepository 创建内存向量仓库
func NewMemoryRepository(config Config) (Repository, error) {
	// 确保维度大于0
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive")
	}

	// 确保距离类型有效
	distType := config.DistanceType
	if distType != Cosine && distType != DotProduct && distType != Euclidean {
		distType = Cosine // 默认使用余弦距离
	}

	return &MemoryRepository{
		dimension: config.Dimension,
		distType:  distType,
		documents: make(map[string]Document),
	}, nil
}

// Add 添加单个文档到内存仓库
func (r *MemoryRepository) Add(doc Document) error {
	// 验证向量维度
	if err := ValidateVector(doc.Vector, r.dimension); err != nil {
		return err
	}

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	doc.Metadata = SanitizeMetadata(doc.Metadata)

	// 对于余弦距离，先对向量进行归一化处理
	if r.distType == Cosine {
		doc.Vector = normalizeVector(doc.Vector)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.documents[doc.ID] = doc
	return nil
}

// AddBatch 批量添加文档到内存仓库
func (r *MemoryRepository) AddBatch(docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	// 使用单个锁进行批处理，避免多次加解锁开销
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range docs {
		doc := &docs[i] // 使用指针避免复制

		// 验证向量维度
		if err := ValidateVector(doc.Vector, r.dimension); err != nil {
			return fmt.Errorf("invalid vector for document %s: %v", doc.ID, err)
		}

		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = time.Now()
		}
		doc.Metadata = SanitizeMetadata(doc.Metadata)

		// 对于余弦距离，对向量进行归一化处理
		if r.distType == Cosine {
			doc.Vector = normalizeVector(doc.Vector)
		}

		r.documents[doc.ID] = *doc
	}

	return nil
}

// Get 获取单个文档
func (r *MemoryRepository) Get(id string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, exists := r.documents[id]
	if !exists {
		return Document{}, ErrDocumentNotFound
	}

	return doc, nil
}

// Delete 删除单个文档
func (r *MemoryRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.documents[id]; !exists {
		return ErrDocumentNotFound
	}

	delete(r.documents, id)
	return nil
}

// Search 相似度或MMR检索
// 先取fetchK个最相似候选，MMR模式下再对候选做多样化重排
func (r *MemoryRepository) Search(vector []float32, opts SearchOptions) ([]SearchResult, error) {
	// 验证向量
	if err := ValidateVector(vector, r.dimension); err != nil {
		return nil, err
	}

	opts = opts.normalized()

	// 对于余弦距离，对查询向量进行归一化处理
	if r.distType == Cosine {
		vector = normalizeVector(vector)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// 元数据过滤后逐个计算距离
	candidates := make([]SearchResult, 0, len(r.documents))
	for _, doc := range r.documents {
		if !matchMetadata(doc.Metadata, opts.Metadata) {
			continue
		}

		dist, err := ComputeDistance(vector, doc.Vector, r.distType)
		if err != nil {
			return nil, fmt.Errorf("error computing distance: %v", err)
		}

		candidates = append(candidates, SearchResult{
			Document: doc,
			Score:    DistanceToScore(dist, r.distType),
			Distance: dist,
		})
	}

	if len(candidates) == 0 {
		return []SearchResult{}, nil
	}

	// 按得分排序后截取候选池
	SortSearchResults(candidates)
	if len(candidates) > opts.FetchK {
		candidates = candidates[:opts.FetchK]
	}

	if opts.Mode == ModeMMR {
		return maximalMarginalRelevance(candidates, opts.K, opts.LambdaMult), nil
	}

	if len(candidates) > opts.K {
		candidates = candidates[:opts.K]
	}
	return candidates, nil
}

// Count 获取文档总数
func (r *MemoryRepository) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.documents), nil
}

// GetDimension 返回向量维数
func (r *MemoryRepository) GetDimension() int {
	return r.dimension
}

// Close 关闭存储
// 对于内存实现这是一个空操作
func (r *MemoryRepository) Close() error {
	return nil
}

// 在包初始化时注册内存仓库
func init() {
	RegisterRepository("memory", NewMemoryRepository)
}
