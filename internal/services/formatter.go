package services

import (
	"fmt"
	"strings"

	"github.com/fyerfyer/lcr-QA-system/internal/vectordb"
)

// contextSeparator 检索单元之间的分隔符
const contextSeparator = "\n\n---\n\n"

// FormatContext 将检索到的单元格式化为生成模型的上下文块
// 每个单元渲染为带方括号来源头部的文本段，
// 头部按固定顺序列出非空元数据字段，各单元间以分隔线连接
func FormatContext(docs []vectordb.Document) string {
	formatted := make([]string, 0, len(docs))

	for _, doc := range docs {
		md := doc.Metadata
		var refParts []string

		appendField := func(label, key string) {
			if value, ok := md[key]; ok && value != nil {
				text := fmt.Sprintf("%v", value)
				if text != "" {
					refParts = append(refParts, label+": "+text)
				}
			}
		}

		// 规则手册元数据
		appendField("Chapter", "chapter")
		appendField("Title", "title")
		appendField("Article", "article")
		appendField("Section", "section")
		appendField("Subsection", "subsection")
		appendField("Page", "page")

		// 申报模板元数据
		appendField("Sheet", "template_sheet")
		appendField("Row", "row")
		appendField("ID", "id_hierarchy")

		// 来源类型
		appendField("Source", "doc_type")

		header := strings.Join(refParts, " | ")
		formatted = append(formatted, "["+header+"]\n"+doc.Text)
	}

	return strings.Join(formatted, contextSeparator)
}
