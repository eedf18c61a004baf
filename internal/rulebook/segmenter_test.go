package rulebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSegmentArticleBoundaries 测试条标记触发切分并更新层级
func TestSegmentArticleBoundaries(t *testing.T) {
	pages := []Page{
		{
			Number: 1,
			Text: "Article 1\n" +
				"Subject matter and scope.\n" +
				"Article 2\n" +
				"This article defines HQLA.\n",
		},
	}

	chunks := Segment(pages)
	require.Len(t, chunks, 2)

	assert.Equal(t, "Article 1", chunks[0].Hierarchy.Article)
	assert.Contains(t, chunks[0].Text, "Subject matter")
	assert.Equal(t, "Article 2", chunks[1].Hierarchy.Article)
	assert.Contains(t, chunks[1].Text, "defines HQLA")
}

// TestSegmentHierarchyReset 测试章标记清除其下所有层级
func TestSegmentHierarchyReset(t *testing.T) {
	pages := []Page{
		{
			Number: 1,
			Text: "Chapter 1\n" +
				"Article 2\n" +
				"Body of article two.\n" +
				"(a) first subsection text.\n" +
				"Chapter 2\n" +
				"Fresh chapter body.\n",
		},
	}

	chunks := Segment(pages)
	require.Len(t, chunks, 3)

	// 第一块仍属于Chapter 1 / Article 2
	assert.Equal(t, "Chapter 1", chunks[0].Hierarchy.Chapter)
	assert.Equal(t, "Article 2", chunks[0].Hierarchy.Article)

	// 字母小节切分并记录标记
	assert.Equal(t, "(a)", chunks[1].Hierarchy.Subsection)

	// 新章之后条和小节标记被清除
	last := chunks[2]
	assert.Equal(t, "Chapter 2", last.Hierarchy.Chapter)
	assert.Empty(t, last.Hierarchy.Article)
	assert.Empty(t, last.Hierarchy.Subsection)
}

// TestSegmentSectionKeepsMarkerLine 测试节标记行保留在新块文本中
func TestSegmentSectionKeepsMarkerLine(t *testing.T) {
	pages := []Page{
		{
			Number: 3,
			Text: "Article 4\n" +
				"Intro line.\n" +
				"4.1 Liquidity buffer composition\n" +
				"Detail line.\n",
		},
	}

	chunks := Segment(pages)
	require.Len(t, chunks, 2)

	assert.Equal(t, "4.1", chunks[1].Hierarchy.Section)
	assert.Contains(t, chunks[1].Text, "4.1 Liquidity buffer composition")
	assert.Contains(t, chunks[1].Text, "Detail line.")
	assert.Equal(t, 3, chunks[1].Page)
}

// TestSegmentRomanItemsAccumulate 测试罗马数字列表项累积不切分
func TestSegmentRomanItemsAccumulate(t *testing.T) {
	pages := []Page{
		{
			Number: 1,
			Text: "Article 7\n" +
				"The following qualify:\n" +
				"(i) central bank reserves;\n" +
				"(ii) central government assets;\n" +
				"(i) central bank reserves again;\n",
		},
	}

	chunks := Segment(pages)
	require.Len(t, chunks, 1)

	// 去重保序
	assert.Equal(t, []string{"(i)", "(ii)"}, chunks[0].Hierarchy.Roman)
	assert.Contains(t, chunks[0].Text, "(ii) central government assets;")
}

// TestSegmentColonContinuation 测试冒号结尾后的字母项不切分
func TestSegmentColonContinuation(t *testing.T) {
	pages := []Page{
		{
			Number: 1,
			Text: "Article 8\n" +
				"Institutions shall hold the following:\n" +
				"(a) Level 1 assets;\n" +
				"(b) Level 2 assets.\n",
		},
	}

	chunks := Segment(pages)
	require.Len(t, chunks, 2)

	// (a)紧跟冒号行，留在同一块
	assert.Contains(t, chunks[0].Text, "shall hold the following:")
	assert.Contains(t, chunks[0].Text, "(a) Level 1 assets;")
	assert.Equal(t, "(a)", chunks[0].Hierarchy.Subsection)

	// (b)前缓冲区不以冒号结尾，正常切分
	assert.Contains(t, chunks[1].Text, "(b) Level 2 assets.")
	assert.Equal(t, "(b)", chunks[1].Hierarchy.Subsection)
}

// TestSegmentCrossPageState 测试层级状态跨页保持而缓冲区以页为界
func TestSegmentCrossPageState(t *testing.T) {
	pages := []Page{
		{Number: 1, Text: "Article 9\nFirst page body.\n"},
		{Number: 2, Text: "Continuation on the next page.\n"},
	}

	chunks := Segment(pages)
	require.Len(t, chunks, 2)

	// 第二页文本单独成块，但仍属于Article 9
	assert.Equal(t, "Article 9", chunks[1].Hierarchy.Article)
	assert.Equal(t, 2, chunks[1].Page)
	assert.Equal(t, "Continuation on the next page.", chunks[1].Text)
}

// TestSegmentLineCleanup 测试日期移除与空白规范化
func TestSegmentLineCleanup(t *testing.T) {
	pages := []Page{
		{
			Number: 1,
			Text: "Article 10\n" +
				"Effective   from 01/01/2022 onwards.\n" +
				"-\n" +
				"\n",
		},
	}

	chunks := Segment(pages)
	require.Len(t, chunks, 1)

	assert.Equal(t, "Effective from onwards.", chunks[0].Text)
}

// TestSegmentEmptyInput 测试空输入
func TestSegmentEmptyInput(t *testing.T) {
	assert.Empty(t, Segment(nil))
	assert.Empty(t, Segment([]Page{{Number: 1, Text: "\n\n"}}))
}
