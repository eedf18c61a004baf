package rulebook

import (
	"fmt"
	"os"
	"strings"
)

// PlainTextParser 纯文本规则手册解析器
// 以换页符（\f）作为页面边界，没有换页符时整个文件为第1页
type PlainTextParser struct{}

// NewPlainTextParser 创建一个新的纯文本解析器
func NewPlainTextParser() Parser {
	return &PlainTextParser{}
}

// Parse 解析纯文本文件
func (p *PlainTextParser) Parse(filePath string) ([]Page, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %v", err)
	}

	var pages []Page
	for i, text := range strings.Split(string(content), "\f") {
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, Page{Text: text, Number: i + 1})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no text content found in file")
	}

	return pages, nil
}
