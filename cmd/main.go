package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/lcr-QA-system/api"
	"github.com/fyerfyer/lcr-QA-system/api/handler"
	"github.com/fyerfyer/lcr-QA-system/api/middleware"
	appconfig "github.com/fyerfyer/lcr-QA-system/config"
	"github.com/fyerfyer/lcr-QA-system/internal/cache"
	"github.com/fyerfyer/lcr-QA-system/internal/database"
	"github.com/fyerfyer/lcr-QA-system/internal/embedding"
	"github.com/fyerfyer/lcr-QA-system/internal/llm"
	"github.com/fyerfyer/lcr-QA-system/internal/repository"
	"github.com/fyerfyer/lcr-QA-system/internal/rulebook"
	"github.com/fyerfyer/lcr-QA-system/internal/services"
	"github.com/fyerfyer/lcr-QA-system/internal/vectordb"
)

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "", "Path to config file")
	mode := flag.String("mode", gin.ReleaseMode, "Run mode (debug/release)")
	skipIndex := flag.Bool("skip-index", false, "Skip corpus indexing at startup")
	flag.Parse()

	// 加载配置
	cfg, err := appconfig.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// 设置Gin模式
	gin.SetMode(*mode)

	// 初始化日志
	middleware.ConfigureLogger(cfg.Log.Level, cfg.Log.FilePath,
		cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays)
	logger := middleware.GetLogger()
	logger.Info("Starting LCR QA system...")

	// 初始化数据库
	if err := setupDatabase(cfg, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}

	// 创建向量存储
	vectorDB, err := setupVectorDB(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize vector store: %v", err)
	}
	defer vectorDB.Close()

	// 创建嵌入客户端
	embeddingClient, err := setupEmbedding(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize embedding client: %v", err)
	}

	// 创建大语言模型客户端
	llmClient, err := setupLLM(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize LLM client: %v", err)
	}

	// 创建缓存服务
	cacheService, err := setupCache(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize cache: %v", err)
	}

	// 初始化RAG服务
	ragService := llm.NewRAG(llmClient,
		llm.WithRAGMaxTokens(cfg.LLM.MaxTokens),
		llm.WithRAGTemperature(cfg.LLM.Temperature),
	)

	// 启动时构建语料索引
	if !*skipIndex {
		indexer := services.NewIndexer(embeddingClient, vectorDB,
			services.WithIndexBatchSize(cfg.Index.BatchSize),
			services.WithSplitterConfig(rulebook.SplitterConfig{
				ChunkSize:    cfg.Document.ChunkSize,
				ChunkOverlap: cfg.Document.ChunkOverlap,
			}),
			services.WithIndexerLogger(logger),
		)

		total, err := indexer.BuildCorpus(context.Background(),
			cfg.Corpus.RulebookPath, cfg.Corpus.TemplatePath)
		if err != nil {
			logger.Fatalf("Failed to build corpus: %v", err)
		}
		logger.Infof("Corpus ready: %d retrieval units indexed", total)
	}

	// 初始化问答服务
	queryService := services.NewQueryService(
		embeddingClient,
		vectorDB,
		ragService,
		cacheService,
		services.WithSearchOptions(vectordb.SearchOptions{
			Mode:       vectordb.SearchMode(cfg.Search.Mode),
			K:          cfg.Search.K,
			FetchK:     cfg.Search.FetchK,
			LambdaMult: cfg.Search.LambdaMult,
		}),
		services.WithCacheTTL(time.Duration(cfg.Cache.TTL)*time.Second),
		services.WithHistory(repository.NewHistoryRepository()),
		services.WithQueryLogger(logger),
	)

	// 设置路由
	r := api.SetupRouter(handler.NewChatHandler(queryService))

	// 启动HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // 生成回答可能较慢
	}

	// 优雅关闭
	go func() {
		// 启动服务
		logger.Infof("Server is running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// 创建带超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupDatabase 设置问答历史数据库
func setupDatabase(cfg *appconfig.Config, logger *logrus.Logger) error {
	// 确保数据目录存在
	if dir := filepath.Dir(cfg.Database.DSN); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %v", err)
		}
	}

	return database.Setup(&database.Config{
		Type: cfg.Database.Type,
		DSN:  cfg.Database.DSN,
	}, logger)
}

// setupVectorDB 设置向量存储
func setupVectorDB(cfg *appconfig.Config) (vectordb.Repository, error) {
	// 确保索引目录存在
	if err := os.MkdirAll(filepath.Dir(cfg.VectorDB.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create vector store directory: %v", err)
	}

	repo, err := vectordb.NewRepository(vectordb.Config{
		Type:              cfg.VectorDB.Type,
		Path:              cfg.VectorDB.Path,
		Dimension:         cfg.VectorDB.Dim,
		DistanceType:      vectordb.DistanceType(cfg.VectorDB.Distance),
		CreateIfNotExists: true,
	})
	if err != nil {
		// FAISS初始化失败时回退到内存实现
		log.Printf("Warning: Failed to initialize %s vector store: %v", cfg.VectorDB.Type, err)
		log.Printf("Falling back to in-memory vector store")

		return vectordb.NewRepository(vectordb.Config{
			Type:         "memory",
			Dimension:    cfg.VectorDB.Dim,
			DistanceType: vectordb.DistanceType(cfg.VectorDB.Distance),
		})
	}

	return repo, nil
}

// setupEmbedding 设置嵌入模型客户端
func setupEmbedding(cfg *appconfig.Config) (embedding.Client, error) {
	if cfg.Embed.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}

	opts := []embedding.Option{
		embedding.WithAPIKey(cfg.Embed.APIKey),
		embedding.WithModel(cfg.Embed.Model),
		embedding.WithDimensions(cfg.Embed.Dimensions),
		embedding.WithBatchSize(cfg.Embed.BatchSize),
	}
	if cfg.Embed.Endpoint != "" {
		opts = append(opts, embedding.WithBaseURL(cfg.Embed.Endpoint))
	}

	return embedding.NewClient(cfg.Embed.Provider, opts...)
}

// setupLLM 设置大语言模型客户端
func setupLLM(cfg *appconfig.Config) (llm.Client, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("LLM API key is required")
	}

	opts := []llm.Option{
		llm.WithAPIKey(cfg.LLM.APIKey),
		llm.WithModel(cfg.LLM.Model),
		llm.WithMaxTokens(cfg.LLM.MaxTokens),
		llm.WithTemperature(cfg.LLM.Temperature),
	}
	if cfg.LLM.Endpoint != "" {
		opts = append(opts, llm.WithBaseURL(cfg.LLM.Endpoint))
	}

	return llm.NewClient(cfg.LLM.Provider, opts...)
}

// setupCache 设置缓存服务
func setupCache(cfg *appconfig.Config) (cache.Cache, error) {
	cacheConfig := cache.Config{
		Type:            cfg.Cache.Type,
		DefaultTTL:      time.Duration(cfg.Cache.TTL) * time.Second,
		CleanupInterval: 10 * time.Minute,
	}

	// 如果配置了Redis，添加Redis配置
	if cfg.Cache.Type == "redis" {
		cacheConfig.RedisAddr = cfg.Cache.Address
		cacheConfig.RedisPassword = cfg.Cache.Password
		cacheConfig.RedisDB = cfg.Cache.DB
	}

	return cache.NewCache(cacheConfig)
}
