package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyerfyer/lcr-QA-system/internal/vectordb"
)

// TestFormatContextTemplateUnit 测试模板单元的上下文渲染
func TestFormatContextTemplateUnit(t *testing.T) {
	docs := []vectordb.Document{
		{
			Text: "Total HQLA",
			Metadata: map[string]interface{}{
				"template_sheet": "S1A.1",
				"template_code":  "S1A.1",
				"row":            "020",
				"id_hierarchy":   "1.1",
				"doc_type":       "lcr_template",
			},
		},
	}

	expected := "[Sheet: S1A.1 | Row: 020 | ID: 1.1 | Source: lcr_template]\nTotal HQLA"
	assert.Equal(t, expected, FormatContext(docs))
}

// TestFormatContextRulebookUnit 测试规则手册单元的字段顺序
func TestFormatContextRulebookUnit(t *testing.T) {
	docs := []vectordb.Document{
		{
			Text: "Article 2 defines HQLA.",
			Metadata: map[string]interface{}{
				"chapter":  "Chapter 1",
				"article":  "Article 2",
				"section":  "2.1",
				"page":     12,
				"doc_type": "pra_rulebook",
				"title":    nil,
			},
		},
	}

	expected := "[Chapter: Chapter 1 | Article: Article 2 | Section: 2.1 | Page: 12 | Source: pra_rulebook]\nArticle 2 defines HQLA."
	assert.Equal(t, expected, FormatContext(docs))
}

// TestFormatContextMultipleUnits 测试多个单元间的分隔符
func TestFormatContextMultipleUnits(t *testing.T) {
	docs := []vectordb.Document{
		{Text: "first", Metadata: map[string]interface{}{"doc_type": "pra_rulebook"}},
		{Text: "second", Metadata: map[string]interface{}{"doc_type": "lcr_template"}},
	}

	expected := "[Source: pra_rulebook]\nfirst\n\n---\n\n[Source: lcr_template]\nsecond"
	assert.Equal(t, expected, FormatContext(docs))
}

// TestFormatContextEmpty 测试空输入与空元数据
func TestFormatContextEmpty(t *testing.T) {
	assert.Equal(t, "", FormatContext(nil))

	// 全空元数据时头部为空方括号
	docs := []vectordb.Document{{Text: "bare", Metadata: map[string]interface{}{}}}
	assert.Equal(t, "[]\nbare", FormatContext(docs))
}

// TestFormatContextPageZero 测试页码为0时仍渲染
func TestFormatContextPageZero(t *testing.T) {
	docs := []vectordb.Document{
		{Text: "cover", Metadata: map[string]interface{}{"page": 0}},
	}
	assert.Equal(t, "[Page: 0]\ncover", FormatContext(docs))
}
