package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用程序配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Corpus   CorpusConfig   `mapstructure:"corpus"`
	VectorDB VectorDBConfig `mapstructure:"vectordb"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Embed    EmbedConfig    `mapstructure:"embed"`
	Search   SearchConfig   `mapstructure:"search"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Database DatabaseConfig `mapstructure:"database"`
	Document DocumentConfig `mapstructure:"document"`
	Index    IndexConfig    `mapstructure:"index"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"` // 服务器主机
	Port int    `mapstructure:"port"` // 服务器端口
}

// CorpusConfig 语料来源配置
type CorpusConfig struct {
	RulebookPath string `mapstructure:"rulebook_path"` // 规则手册文件路径
	TemplatePath string `mapstructure:"template_path"` // 申报模板工作簿路径
}

// VectorDBConfig 向量存储配置
type VectorDBConfig struct {
	Type     string `mapstructure:"type"`     // 存储类型：faiss 或 memory
	Path     string `mapstructure:"path"`     // 索引文件路径
	Dim      int    `mapstructure:"dim"`      // 向量维度
	Distance string `mapstructure:"distance"` // 距离度量方式：cosine, l2, dot
}

// LLMConfig 大语言模型配置
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`    // 提供商：openai
	Model       string  `mapstructure:"model"`       // 模型名称
	APIKey      string  `mapstructure:"api_key"`     // API密钥
	Endpoint    string  `mapstructure:"endpoint"`    // API端点
	MaxTokens   int     `mapstructure:"max_tokens"`  // 最大生成token数量
	Temperature float32 `mapstructure:"temperature"` // 采样温度
}

// EmbedConfig 向量嵌入模型配置
type EmbedConfig struct {
	Provider   string `mapstructure:"provider"`   // 提供商：openai
	Model      string `mapstructure:"model"`      // 模型名称
	APIKey     string `mapstructure:"api_key"`    // API密钥
	Endpoint   string `mapstructure:"endpoint"`   // API端点
	BatchSize  int    `mapstructure:"batch_size"` // 批处理大小
	Dimensions int    `mapstructure:"dimensions"` // 向量维度
}

// SearchConfig 检索配置
type SearchConfig struct {
	Mode       string  `mapstructure:"mode"`        // 检索模式：mmr 或 similarity
	K          int     `mapstructure:"k"`           // 返回结果数量
	FetchK     int     `mapstructure:"fetch_k"`     // 多样化前的候选池大小
	LambdaMult float32 `mapstructure:"lambda_mult"` // MMR权衡系数
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Type     string `mapstructure:"type"`     // 缓存类型：memory 或 redis
	Address  string `mapstructure:"address"`  // Redis地址
	Password string `mapstructure:"password"` // Redis密码
	DB       int    `mapstructure:"db"`       // Redis数据库
	TTL      int    `mapstructure:"ttl"`      // 缓存TTL（秒）
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Type string `mapstructure:"type"` // 数据库类型: sqlite
	DSN  string `mapstructure:"dsn"`  // 数据源名称
}

// DocumentConfig 规则手册切分配置
type DocumentConfig struct {
	ChunkSize    int `mapstructure:"chunk_size"`    // 细分段窗口大小
	ChunkOverlap int `mapstructure:"chunk_overlap"` // 相邻窗口重叠大小
}

// IndexConfig 语料入库配置
type IndexConfig struct {
	BatchSize int `mapstructure:"batch_size"` // 入库批处理大小
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`       // 日志级别
	FilePath   string `mapstructure:"file_path"`   // 日志文件路径，空则只输出到stdout
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // 单个日志文件最大大小
	MaxBackups int    `mapstructure:"max_backups"` // 保留的旧日志文件数
	MaxAgeDays int    `mapstructure:"max_age_days"` // 旧日志保留天数
}

// Load 从文件和环境变量加载配置
// 先加载.env文件再读配置，${VAR}形式的值从环境变量替换
func Load(configPath string) (*Config, error) {
	var config Config

	// 加载.env文件（不存在时忽略）
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment variables from .env")
	}

	// 设置默认配置路径
	if configPath == "" {
		configPath = "config.yaml" // 默认在当前目录寻找config.yaml
	}

	// 初始化viper
	v := viper.New()

	// 设置配置文件路径和类型
	v.SetConfigFile(configPath)

	// 尝试读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果找不到配置文件，创建一个默认配置文件
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found at %s, using defaults", configPath)
			setDefaults(v)
			// 创建默认配置文件
			dir := filepath.Dir(configPath)
			if err := os.MkdirAll(dir, 0755); err == nil {
				if err := v.WriteConfigAs(configPath); err != nil {
					log.Printf("Warning: Could not write default config to %s: %v", configPath, err)
				}
			}
		} else {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}
	} else {
		log.Printf("Using config file: %s", v.ConfigFileUsed())
	}

	// 设置默认值
	setDefaults(v)

	// 支持环境变量覆盖
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 解析配置到结构体
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}

	// 替换配置值中的环境变量引用
	processEnvironmentVariables(&config)

	return &config, nil
}

// Validate 校验必需配置
// OpenAI密钥缺失时服务无法工作，直接报错
func (c *Config) Validate() error {
	if c.Embed.APIKey == "" && c.LLM.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set: provide it via environment or config file")
	}
	if c.Corpus.RulebookPath == "" {
		return fmt.Errorf("corpus.rulebook_path is not set")
	}
	if c.Corpus.TemplatePath == "" {
		return fmt.Errorf("corpus.template_path is not set")
	}
	return nil
}

// processEnvironmentVariables 替换${VAR}形式的配置值
func processEnvironmentVariables(cfg *Config) {
	cfg.Embed.APIKey = expandEnv(cfg.Embed.APIKey)
	cfg.LLM.APIKey = expandEnv(cfg.LLM.APIKey)
	cfg.Cache.Password = expandEnv(cfg.Cache.Password)
}

// expandEnv 解析${VAR}形式的环境变量引用
func expandEnv(value string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVar := value[2 : len(value)-1]
		if envVal := os.Getenv(envVar); envVal != "" {
			return envVal
		}
	}
	return value
}

// setDefaults 设置配置的默认值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	// 语料来源默认配置
	v.SetDefault("corpus.rulebook_path", "data/Liquidity Coverage Ratio (CRR).pdf")
	v.SetDefault("corpus.template_path", "data/Annex XXIV - LCR templates.xlsx")

	// 向量存储默认配置
	v.SetDefault("vectordb.type", "faiss")
	v.SetDefault("vectordb.path", "data/lcr_index")
	v.SetDefault("vectordb.dim", 3072) // text-embedding-3-large 维度
	v.SetDefault("vectordb.distance", "cosine")

	// LLM默认配置
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4.1-mini")
	v.SetDefault("llm.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.temperature", 0.0)

	// Embedding默认配置
	v.SetDefault("embed.provider", "openai")
	v.SetDefault("embed.model", "text-embedding-3-large")
	v.SetDefault("embed.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("embed.batch_size", 160)
	v.SetDefault("embed.dimensions", 3072)

	// 检索默认配置
	v.SetDefault("search.mode", "mmr")
	v.SetDefault("search.k", 6)
	v.SetDefault("search.fetch_k", 20)
	v.SetDefault("search.lambda_mult", 0.5)

	// 缓存默认配置
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", 3600) // 1小时

	// 数据库默认配置
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "data/chat_history.db")

	// 规则手册切分默认配置
	v.SetDefault("document.chunk_size", 700)
	v.SetDefault("document.chunk_overlap", 100)

	// 入库默认配置
	v.SetDefault("index.batch_size", 160)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file_path", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}
