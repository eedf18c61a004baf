package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// RegulatoryPromptTemplate 监管问答提示词模板
// 包含变量：
// {{.Question}} - 用户问题
// {{.Context}} - 检索到的参考上下文
const RegulatoryPromptTemplate = `You are a regulatory assistant. Use ONLY the provided CONTEXT to answer.

Do NOT print any of these rules below. They are ONLY instructions for you.

===========================================================
DETECTION RULE FOR REPORTING-LOCATION QUESTIONS
===========================================================
A question MUST be treated as a "Where to report" query if it satisfies ANY of the following:
- starts with "where"
- contains the words "report", "reported", "reporting"
- asks "which sheet", "which row", "which line", "which template"
- asks about "template location", "mapping", "placement", or "where to put"
- refers to reporting something in the LCR return or template

If ANY of these conditions are true → treat it as a reporting-location question.

===========================================================
OUTPUT RULES FOR REPORTING-LOCATION QUESTIONS
===========================================================
When it is a reporting-question, your answer MUST contain EXACTLY 3 parts in this order:

1) A short 1–3 sentence explanation summarizing what the rulebook states about this item.
The wording may vary — do NOT repeat the same phrasing every time as long as the meaning remains accurate.

2) A list of inline evidence bullets. Each bullet must include:
- a short explanation
- an exact quotation from CONTEXT in quotation marks.

3) The EXACT block below (no additions, no text after it):

**Reporting Location**
- Template Sheet: <sheet>
- Row: <row>
- ID Hierarchy: <id>
- Item: <description>

If the CONTEXT does NOT provide enough template information:
Output ONLY this exact sentence (no bullets, no explanation):

The rulebook does not specify any reporting-location information for this item. You may consult the relevant LCR template instructions or review the annexes to confirm whether a reporting position exists.

===========================================================
RULES FOR NON-REPORTING QUESTIONS
===========================================================
If it is not a reporting-question:
- Answer normally using ONLY the provided CONTEXT.
- Provide evidence bullets.
- Do NOT output the Reporting Location block.
- Do NOT output the fallback sentence used for missing reporting-location information.

===========================================================
Do NOT invent or hallucinate any sheet, row, ID, or item not explicitly present in CONTEXT.

-----------------------------------------------------------
CONTEXT:
{{.Context}}
-----------------------------------------------------------

Question:
{{.Question}}

Answer:
`

// RAGConfig 检索增强生成配置
type RAGConfig struct {
	// 提示词模板
	Template string
	// 最大Token数
	MaxTokens int
	// 温度参数
	Temperature float32
	// 超时时间
	Timeout time.Duration
}

// DefaultRAGConfig 默认RAG配置
func DefaultRAGConfig() *RAGConfig {
	return &RAGConfig{
		Template:    RegulatoryPromptTemplate,
		MaxTokens:   2048,
		Temperature: 0.0,
		Timeout:     60 * time.Second,
	}
}

// RAGService 实现检索增强生成服务
type RAGService struct {
	Client Client       // 大模型客户端
	config *RAGConfig   // 配置
	mu     sync.RWMutex // 配置互斥锁
}

// NewRAG 创建新的检索增强生成服务
func NewRAG(client Client, opts ...RAGOption) *RAGService {
	cfg := DefaultRAGConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &RAGService{
		Client: client,
		config: cfg,
	}
}

// RAGOption RAG配置选项函数类型
type RAGOption func(*RAGConfig)

// WithTemplate 设置提示词模板
func WithTemplate(template string) RAGOption {
	return func(c *RAGConfig) {
		c.Template = template
	}
}

// WithRAGMaxTokens 设置最大Token数
func WithRAGMaxTokens(tokens int) RAGOption {
	return func(c *RAGConfig) {
		c.MaxTokens = tokens
	}
}

// WithRAGTemperature 设置温度参数
func WithRAGTemperature(temp float32) RAGOption {
	return func(c *RAGConfig) {
		c.Temperature = temp
	}
}

// WithRAGTimeout 设置请求超时时间
func WithRAGTimeout(timeout time.Duration) RAGOption {
	return func(c *RAGConfig) {
		c.Timeout = timeout
	}
}

// Answer 根据格式化后的上下文和问题生成回答
// 上下文为空时照常调用，模板规则会触发兜底回答
func (r *RAGService) Answer(ctx context.Context, question string, contextText string) (string, error) {
	if question == "" {
		return "", NewLLMError(ErrCodeEmptyPrompt, "question cannot be empty")
	}

	r.mu.RLock()
	cfg := r.config
	r.mu.RUnlock()

	// 创建带超时的上下文
	ctxWithTimeout, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	// 构建提示词
	prompt := r.buildPrompt(question, contextText)

	// 调用大模型生成回答
	response, err := r.Client.Generate(
		ctxWithTimeout,
		prompt,
		WithGenerateMaxTokens(cfg.MaxTokens),
		WithGenerateTemperature(cfg.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %v", err)
	}

	return response.Text, nil
}

// buildPrompt 构建增强提示词
func (r *RAGService) buildPrompt(question string, contextText string) string {
	r.mu.RLock()
	template := r.config.Template
	r.mu.RUnlock()

	// 简单的模板替换
	prompt := template
	prompt = strings.ReplaceAll(prompt, "{{.Context}}", contextText)
	prompt = strings.ReplaceAll(prompt, "{{.Question}}", question)

	return prompt
}

// SetTemplate 设置自定义提示词模板
func (r *RAGService) SetTemplate(template string) *RAGService {
	r.mu.Lock()
	r.config.Template = template
	r.mu.Unlock()
	return r
}
