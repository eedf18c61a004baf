package rulebook

import (
	"fmt"
	"os"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// MarkdownParser Markdown规则手册解析器
// Markdown导出不携带分页信息，整个文件作为第1页处理
type MarkdownParser struct{}

// NewMarkdownParser 创建新的Markdown解析器
func NewMarkdownParser() Parser {
	return &MarkdownParser{}
}

// Parse 解析Markdown文件并提取文本内容
func (p *MarkdownParser) Parse(filePath string) ([]Page, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown file: %v", err)
	}

	// 创建Markdown解析器
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	mdParser := parser.NewWithExtensions(extensions)

	// 解析Markdown内容
	doc := mdParser.Parse(content)

	// 创建HTML渲染器
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})

	// 将Markdown转换为HTML后剥离标签得到纯文本
	htmlContent := markdown.Render(doc, renderer)
	plainText := extractTextFromHTML(string(htmlContent))

	if strings.TrimSpace(plainText) == "" {
		return nil, fmt.Errorf("no text content found in markdown")
	}

	return []Page{{Text: plainText, Number: 1}}, nil
}

// extractTextFromHTML 从HTML中提取纯文本
// 块级标签转为换行，保留行结构供结构分段器使用
func extractTextFromHTML(content string) string {
	replacements := []struct {
		Old string
		New string
	}{
		{"<br>", "\n"},
		{"<br/>", "\n"},
		{"<br />", "\n"},
		{"</p>", "\n"},
		{"</li>", "\n"},
		{"</h1>", "\n"},
		{"</h2>", "\n"},
		{"</h3>", "\n"},
		{"</h4>", "\n"},
		{"</h5>", "\n"},
		{"</h6>", "\n"},
	}

	result := content
	for _, r := range replacements {
		result = strings.ReplaceAll(result, r.Old, r.New)
	}

	// 移除所有剩余HTML标签
	for {
		start := strings.Index(result, "<")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], ">")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+1:]
	}

	// 逐行规范化行内空白，保留换行
	lines := strings.Split(result, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
