package llm

import (
	"context"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient OpenAI聊天补全客户端
type OpenAIClient struct {
	client *openai.Client // OpenAI API客户端
	config *Config        // 客户端配置
}

// NewOpenAIClient 创建一个新的OpenAI大模型客户端
func NewOpenAIClient(opts ...Option) (Client, error) {
	config := NewConfig(opts...)

	// 检查必要配置
	if config.APIKey == "" {
		return nil, NewLLMError(ErrCodeInvalidAPIKey, "OpenAI API key is required")
	}

	// 创建OpenAI客户端配置
	clientConfig := openai.DefaultConfig(config.APIKey)

	// 如果指定了自定义端点，则使用它
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name 返回模型名称
func (c *OpenAIClient) Name() string {
	return c.config.Model
}

// Generate 根据提示词生成回答
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, options ...GenerateOption) (*Response, error) {
	if prompt == "" {
		return nil, NewLLMError(ErrCodeEmptyPrompt, ErrMsgEmptyPrompt)
	}

	genOpts := &GenerateOptions{}
	for _, opt := range options {
		opt(genOpts)
	}

	messages := []Message{{Role: RoleUser, Content: prompt}}
	return c.complete(ctx, messages, genOpts.MaxTokens, genOpts.Temperature, genOpts.TopP)
}

// Chat 进行多轮对话
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, options ...ChatOption) (*Response, error) {
	if len(messages) == 0 {
		return nil, NewLLMError(ErrCodeEmptyPrompt, "messages cannot be empty")
	}

	chatOpts := &ChatOptions{}
	for _, opt := range options {
		opt(chatOpts)
	}

	return c.complete(ctx, messages, chatOpts.MaxTokens, chatOpts.Temperature, chatOpts.TopP)
}

// complete 发送聊天补全请求，速率受限时按指数退避重试
func (c *OpenAIClient) complete(ctx context.Context, messages []Message, maxTokens *int, temperature, topP *float32) (*Response, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		TopP:        c.config.TopP,
	}

	// 请求级选项覆盖客户端默认值
	if maxTokens != nil {
		req.MaxTokens = *maxTokens
	}
	if temperature != nil {
		req.Temperature = *temperature
	}
	if topP != nil {
		req.TopP = *topP
	}

	req.Messages = make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
			Name:    msg.Name,
		}
	}

	maxRetries := c.config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	retries := 0
	for {
		timeoutCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		resp, err := c.client.CreateChatCompletion(timeoutCtx, req)
		cancel()

		if err == nil {
			if len(resp.Choices) == 0 {
				return nil, NewLLMError(ErrCodeServerError, "chat completion returned no choices")
			}

			choice := resp.Choices[0]
			return &Response{
				Text: choice.Message.Content,
				Messages: append(messages, Message{
					Role:    RoleAssistant,
					Content: choice.Message.Content,
				}),
				TokenCount: resp.Usage.TotalTokens,
				ModelName:  resp.Model,
				FinishTime: time.Now(),
			}, nil
		}

		// 速率限制错误等待后重试，其他错误直接返回
		if !isRateLimitError(err) {
			return nil, WrapError(err, ErrCodeServerError)
		}

		retries++
		if retries > maxRetries {
			return nil, NewLLMError(ErrCodeRateLimited, ErrMsgRateLimited)
		}

		// 指数退避策略
		waitTime := time.Duration(1<<retries) * time.Second
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

// isRateLimitError 检查是否为速率限制错误
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}

// 在包初始化时注册OpenAI客户端
func init() {
	RegisterClient("openai", NewOpenAIClient)
}
