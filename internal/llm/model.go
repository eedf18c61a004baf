package llm

import "time"

// MessageRole 消息角色类型
type MessageRole string

const (
	// RoleSystem 系统角色
	RoleSystem MessageRole = "system"
	// RoleUser 用户角色
	RoleUser MessageRole = "user"
	// RoleAssistant 助手角色
	RoleAssistant MessageRole = "assistant"
	// RoleTool 工具角色
	RoleTool MessageRole = "tool"
)

// Message 对话消息结构
type Message struct {
	Role    MessageRole `json:"role"`           // 角色
	Content string      `json:"content"`        // 内容
	Name    string      `json:"name,omitempty"` // 可选名称标识
}

// Response 统一的响应结构
type Response struct {
	Text       string    // 生成的文本
	Messages   []Message // 消息列表（如果是对话）
	TokenCount int       // 使用的token数
	ModelName  string    // 使用的模型名称
	FinishTime time.Time // 完成时间
	Error      error     // 如果出错，则包含错误信息
}

// Model 常用模型名称
const (
	ModelGPT41Mini = "gpt-4.1-mini" // 默认生成模型（平衡速度与能力）
	ModelGPT41     = "gpt-4.1"      // 高级能力模型
	ModelGPT4o     = "gpt-4o"       // 多模态模型
	ModelGPT4oMini = "gpt-4o-mini"  // 轻量快速模型
)
