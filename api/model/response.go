package model

import (
	"github.com/fyerfyer/lcr-QA-system/internal/models"
)

// Response 通用错误响应结构
// 仅用于错误返回；/chat 的成功响应为平铺结构
type Response struct {
	Code    int         `json:"code"`               // 响应状态码，0表示成功
	Message string      `json:"message"`            // 响应消息
	Data    interface{} `json:"data,omitempty"`     // 响应数据，可能为空
	TraceID string      `json:"trace_id,omitempty"` // 调用链追踪ID
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// SourceMeta 申报定位摘要
// 对应一条检索来源的回执代码、表名、行号和ID层级
type SourceMeta struct {
	ReturnName string `json:"return_name"` // 申报回执代码
	SheetName  string `json:"sheet_name"`  // 模板表名
	LineCode   string `json:"line_code"`   // 行号
	LineDesc   string `json:"line_desc"`   // ID层级描述
}

// ChatResponse 问答响应
// 不使用通用信封，直接平铺返回给前端
type ChatResponse struct {
	Answer      string              `json:"answer"`       // 生成的回答
	Sources     []SourceMeta        `json:"sources"`      // 申报定位摘要列表
	RawMetadata []models.Provenance `json:"raw_metadata"` // 完整的来源元数据
}

// ConvertToSourceMeta 将来源出处转换为申报定位摘要
func ConvertToSourceMeta(sources []models.Provenance) []SourceMeta {
	metas := make([]SourceMeta, len(sources))
	for i, src := range sources {
		metas[i] = SourceMeta{
			ReturnName: src.ReturnCode,
			SheetName:  src.Sheet,
			LineCode:   src.LineCode,
			LineDesc:   src.LineDesc,
		}
	}
	return metas
}
