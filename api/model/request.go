package model

// ChatRequest 问答请求
type ChatRequest struct {
	Question  string     `json:"question" binding:"required"` // 用户问题
	SessionID string     `json:"session_id"`                  // 会话ID，选填，用于记录问答历史
	History   []ChatTurn `json:"history"`                     // 前端传入的历史对话，不参与检索
}

// ChatTurn 历史对话中的一轮
type ChatTurn struct {
	Role    string `json:"role"`    // 角色：user 或 assistant
	Content string `json:"content"` // 消息内容
}
