package models

import (
	"fmt"
	"strings"
)

// SourceKind 检索单元的来源类型
type SourceKind string

const (
	// SourceRulebook 规则手册来源
	SourceRulebook SourceKind = "pra_rulebook"
	// SourceTemplate 申报模板来源
	SourceTemplate SourceKind = "lcr_template"
)

// 规则手册的固定文档标识元数据
const (
	DocumentTitle     = "PRA Rulebook – Liquidity Coverage Ratio (CRR)"
	DocumentIssuer    = "Bank of England"
	DocumentAuthority = "Prudential Regulation Authority"
	DocumentPart      = "Liquidity Coverage Ratio (CRR)"
)

// Metadata 检索单元元数据的标签联合
// 两种具体实现：RulebookMetadata 和 TemplateMetadata
// AsMap 输出的所有值必须是标量（string/number/bool）或nil，
// 因为向量存储只接受扁平元数据
type Metadata interface {
	// Kind 返回来源类型
	Kind() SourceKind

	// AsMap 展开为扁平的标量元数据映射
	AsMap() map[string]interface{}
}

// RulebookMetadata 规则手册单元的层级元数据
// 空字符串字段表示该层级标记不存在
type RulebookMetadata struct {
	Chapter    string // 章标记
	Title      string // 编标记
	Article    string // 条标记
	Section    string // 节编号（如 "3.2"）
	Subsection string // 小节标记（如 "(a)"）
	Roman      string // 罗马数字列表项，逗号连接（如 "(i), (ii)"）
	Page       int    // 页码
}

// Kind 返回来源类型
func (m RulebookMetadata) Kind() SourceKind {
	return SourceRulebook
}

// AsMap 展开为扁平元数据映射
// 缺失的层级字段输出为nil，与原始文档结构保持一致
func (m RulebookMetadata) AsMap() map[string]interface{} {
	return map[string]interface{}{
		"document_title": DocumentTitle,
		"issuer":         DocumentIssuer,
		"authority":      DocumentAuthority,
		"part":           DocumentPart,
		"chapter":        nilIfEmpty(m.Chapter),
		"title":          nilIfEmpty(m.Title),
		"article":        nilIfEmpty(m.Article),
		"section":        nilIfEmpty(m.Section),
		"subsection":     nilIfEmpty(m.Subsection),
		"roman":          nilIfEmpty(m.Roman),
		"page":           m.Page,
		"doc_type":       string(SourceRulebook),
	}
}

// TemplateMetadata 申报模板单元的坐标元数据
type TemplateMetadata struct {
	Sheet string                 // 模板表名
	Code  string                 // 模板代码（与表名一致）
	Row   string                 // 行号（如 "020"），空表示缺失
	ID    string                 // ID层级（如 "1.1"），空表示缺失
	Extra map[string]interface{} // 其余规范化列，值为标量或nil
}

// Kind 返回来源类型
func (m TemplateMetadata) Kind() SourceKind {
	return SourceTemplate
}

// AsMap 展开为扁平元数据映射
func (m TemplateMetadata) AsMap() map[string]interface{} {
	md := map[string]interface{}{
		"template_sheet": nilIfEmpty(m.Sheet),
		"template_code":  nilIfEmpty(m.Code),
		"row":            nilIfEmpty(m.Row),
		"id_hierarchy":   nilIfEmpty(m.ID),
		"doc_type":       string(SourceTemplate),
	}
	for k, v := range m.Extra {
		if _, exists := md[k]; exists {
			continue
		}
		md[k] = FlattenValue(v)
	}
	return md
}

// RetrievableUnit 可检索的文本单元
// 插入向量存储前的统一输入类型，创建后不可变
type RetrievableUnit struct {
	Content string   // 单元文本内容
	Meta    Metadata // 结构化元数据
}

// FlattenValue 将元数据值规约为标量
// 标量和nil原样通过，其余类型转为字符串表示
func FlattenValue(v interface{}) interface{} {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// nilIfEmpty 空字符串转为nil
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// Provenance 返回给调用方的来源记录
// 是单元扁平元数据的固定投影
type Provenance struct {
	ReturnCode string  `json:"return"`     // 申报回执代码（模板代码）
	Sheet      string  `json:"sheet"`      // 模板表名
	LineCode   string  `json:"line_code"`  // 行号
	LineDesc   string  `json:"line_desc"`  // ID层级描述
	DocType    *string `json:"doc_type"`   // 来源类型
	Chapter    *string `json:"chapter"`    // 章
	Title      *string `json:"title"`      // 编
	Article    *string `json:"article"`    // 条
	Section    *string `json:"section"`    // 节
	Subsection *string `json:"subsection"` // 小节
	Page       *int    `json:"page"`       // 页码
}

// ProvenanceFromMetadata 从扁平元数据映射构建来源记录
func ProvenanceFromMetadata(md map[string]interface{}) Provenance {
	return Provenance{
		ReturnCode: stringOrEmpty(md["template_code"]),
		Sheet:      stringOrEmpty(md["template_sheet"]),
		LineCode:   stringOrEmpty(md["row"]),
		LineDesc:   stringOrEmpty(md["id_hierarchy"]),
		DocType:    stringPtr(md["doc_type"]),
		Chapter:    stringPtr(md["chapter"]),
		Title:      stringPtr(md["title"]),
		Article:    stringPtr(md["article"]),
		Section:    stringPtr(md["section"]),
		Subsection: stringPtr(md["subsection"]),
		Page:       intPtr(md["page"]),
	}
}

// stringOrEmpty 取字符串值，缺失或nil时返回空字符串
func stringOrEmpty(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// stringPtr 取可选字符串值，缺失或nil时返回nil指针
func stringPtr(v interface{}) *string {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprintf("%v", v)
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// intPtr 取可选整数值，缺失或无法转换时返回nil指针
func intPtr(v interface{}) *int {
	switch n := v.(type) {
	case int:
		return &n
	case int64:
		i := int(n)
		return &i
	case float64:
		i := int(n)
		return &i
	case float32:
		i := int(n)
		return &i
	default:
		return nil
	}
}
