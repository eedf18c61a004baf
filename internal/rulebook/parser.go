package rulebook

import (
	"errors"
	"path/filepath"
	"strings"
)

// Page 规则手册的一页原始文本
// 由外部文档抽取产生，每个物理页一条，创建后不可变
type Page struct {
	Text   string // 页面文本内容
	Number int    // 页码，从1开始
}

// Parser 规则手册解析器接口
// 负责将不同格式的规则手册文件解析为有序的页面序列
type Parser interface {
	// Parse 解析文件，返回按页码排序的页面
	Parse(filePath string) ([]Page, error)
}

// ContentType 表示规则手册文件的内容类型
type ContentType string

const (
	// PDF 文档类型
	PDF ContentType = "pdf"
	// Markdown 文档类型
	Markdown ContentType = "markdown"
	// PlainText 纯文本类型
	PlainText ContentType = "plaintext"
	// Unknown 未知类型
	Unknown ContentType = "unknown"
)

// ParserFactory 解析器工厂函数，根据文件类型创建对应的解析器
func ParserFactory(filePath string) (Parser, error) {
	switch detectContentType(filePath) {
	case PDF:
		return NewPDFParser(), nil
	case Markdown:
		return NewMarkdownParser(), nil
	case PlainText:
		return NewPlainTextParser(), nil
	default:
		return nil, errors.New("unsupported rulebook document type")
	}
}

// detectContentType 根据文件扩展名检测内容类型
func detectContentType(filePath string) ContentType {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".pdf":
		return PDF
	case ".md", ".markdown":
		return Markdown
	case ".txt":
		return PlainText
	default:
		return Unknown
	}
}
