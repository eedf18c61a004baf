package vectordb

import (
	"errors"
	"time"
)

// 常用错误定义
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrEmptyVector      = errors.New("empty vector")
	ErrInvalidDimension = errors.New("vector dimension mismatch")
)

// Document 向量库中的检索单元
// 元数据必须是扁平的标量映射，插入路径用SanitizeMetadata兜底
type Document struct {
	ID        string                 // 唯一标识符
	Text      string                 // 单元文本内容
	Vector    []float32              // 向量表示
	CreatedAt time.Time              // 创建时间
	Metadata  map[string]interface{} // 扁平元数据
}

// DistanceType 向量距离计算方法
type DistanceType string

const (
	// Cosine 余弦相似度
	Cosine DistanceType = "cosine"
	// DotProduct 点积
	DotProduct DistanceType = "dot"
	// Euclidean 欧几里得距离
	Euclidean DistanceType = "l2"
)

// SearchMode 检索模式
type SearchMode string

const (
	// ModeSimilarity 纯相似度排序检索
	ModeSimilarity SearchMode = "similarity"
	// ModeMMR 最大边际相关性检索，兼顾相关性与多样性
	ModeMMR SearchMode = "mmr"
)

// SearchOptions 检索参数
type SearchOptions struct {
	Mode       SearchMode             // 检索模式
	K          int                    // 最终返回的结果数
	FetchK     int                    // 多样化之前的候选池大小
	LambdaMult float32                // MMR相关性与多样性的权衡系数，取值(0,1]
	Metadata   map[string]interface{} // 按元数据过滤
}

// DefaultSearchOptions 返回默认检索参数
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Mode:       ModeMMR,
		K:          6,
		FetchK:     20,
		LambdaMult: 0.5,
	}
}

// normalized 补全零值参数并保证K不超过FetchK
func (o SearchOptions) normalized() SearchOptions {
	def := DefaultSearchOptions()
	if o.Mode == "" {
		o.Mode = def.Mode
	}
	if o.K <= 0 {
		o.K = def.K
	}
	if o.FetchK <= 0 {
		o.FetchK = def.FetchK
	}
	if o.FetchK < o.K {
		o.FetchK = o.K
	}
	if o.LambdaMult <= 0 || o.LambdaMult > 1 {
		o.LambdaMult = def.LambdaMult
	}
	return o
}

// SearchResult 检索结果
type SearchResult struct {
	Document Document // 文档对象
	Score    float32  // 相似度得分
	Distance float32  // 计算的距离
}

// Repository 向量存储仓库接口
// 定义检索单元的基本操作
type Repository interface {
	// Add 添加单个文档
	Add(doc Document) error

	// AddBatch 批量添加文档
	AddBatch(docs []Document) error

	// Get 获取单个文档
	Get(id string) (Document, error)

	// Delete 删除单个文档
	Delete(id string) error

	// Search 按检索参数执行相似度或MMR检索
	Search(vector []float32, opts SearchOptions) ([]SearchResult, error)

	// Count 获取文档总数
	Count() (int, error)

	// GetDimension 返回向量维数
	GetDimension() int

	// Close 关闭存储
	Close() error
}

// Config 向量存储配置
type Config struct {
	Type              string       // 存储类型，如 "memory", "faiss"
	Path              string       // 索引文件路径
	Dimension         int          // 向量维度
	DistanceType      DistanceType // 距离计算类型
	CreateIfNotExists bool         // 如果不存在是否创建
	InMemory          bool         // 是否仅在内存中运行
}

// Factory 向量存储工厂函数类型
type Factory func(config Config) (Repository, error)

// RepositoryRegistry 注册可用的向量存储实现
var RepositoryRegistry = map[string]Factory{}

// RegisterRepository 注册向量存储工厂函数
func RegisterRepository(name string, factory Factory) {
	RepositoryRegistry[name] = factory
}

// NewRepository 根据配置创建向量存储实例
func NewRepository(config Config) (Repository, error) {
	factory, ok := RepositoryRegistry[config.Type]
	if !ok {
		// 默认使用内存实现
		factory = NewMemoryRepository
	}
	return factory(config)
}
