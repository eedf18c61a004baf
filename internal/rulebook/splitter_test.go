package rulebook

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/lcr-QA-system/internal/models"
)

// TestSplitShortText 测试不超过窗口大小的文本原样返回
func TestSplitShortText(t *testing.T) {
	splitter := NewWindowSplitter(SplitterConfig{ChunkSize: 100, ChunkOverlap: 20})

	windows := splitter.Split("a short paragraph")
	require.Len(t, windows, 1)
	assert.Equal(t, "a short paragraph", windows[0])

	assert.Nil(t, splitter.Split(""))
}

// TestSplitParagraphBoundaries 测试优先在段落边界切分
func TestSplitParagraphBoundaries(t *testing.T) {
	para1 := strings.Repeat("alpha ", 10) // 60字符
	para2 := strings.Repeat("beta ", 10)  // 50字符
	para3 := strings.Repeat("gamma ", 10) // 60字符
	text := para1 + "\n\n" + para2 + "\n\n" + para3

	splitter := NewWindowSplitter(SplitterConfig{ChunkSize: 120, ChunkOverlap: 30})
	windows := splitter.Split(text)

	require.Greater(t, len(windows), 1)
	for _, w := range windows {
		assert.LessOrEqual(t, len(w), 120)
	}
	// 段落不被拦腰截断
	assert.True(t, strings.HasPrefix(windows[0], "alpha"))
}

// TestSplitWindowBounds 测试所有窗口不超过配置大小
func TestSplitWindowBounds(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("liquidity coverage requirement ")
	}

	splitter := NewWindowSplitter(SplitterConfig{ChunkSize: 700, ChunkOverlap: 100})
	windows := splitter.Split(b.String())

	require.Greater(t, len(windows), 1)
	for _, w := range windows {
		assert.LessOrEqual(t, len(w), 700)
		assert.NotEmpty(t, w)
	}
}

// TestSplitSeparatorBytesCounted 测试窗口长度计入片段间的分隔符
func TestSplitSeparatorBytesCounted(t *testing.T) {
	// 片段本身远小于窗口，合并窗口的长度主要由分隔符累积
	var words []string
	for i := 0; i < 60; i++ {
		words = append(words, "liquidity")
	}
	text := strings.Join(words, " ")

	splitter := NewWindowSplitter(SplitterConfig{ChunkSize: 55, ChunkOverlap: 10})
	windows := splitter.Split(text)

	require.Greater(t, len(windows), 1)
	for _, w := range windows {
		assert.LessOrEqual(t, len(w), 55)
	}
}

// TestSplitOverlap 测试相邻窗口存在重叠内容
func TestSplitOverlap(t *testing.T) {
	var words []string
	for i := 0; i < 100; i++ {
		words = append(words, "word")
	}
	text := strings.Join(words, " ")

	splitter := NewWindowSplitter(SplitterConfig{ChunkSize: 100, ChunkOverlap: 30})
	windows := splitter.Split(text)
	require.Greater(t, len(windows), 1)

	// 第二个窗口以第一个窗口的尾部开头
	first := windows[0]
	second := windows[1]
	tail := first[len(first)-10:]
	assert.Contains(t, second[:40], strings.TrimSpace(tail))
}

// TestSplitNoNaturalBoundary 测试无分隔符时按步长硬切
func TestSplitNoNaturalBoundary(t *testing.T) {
	text := strings.Repeat("x", 250)

	splitter := NewWindowSplitter(SplitterConfig{ChunkSize: 100, ChunkOverlap: 20})
	windows := splitter.Split(text)

	require.Len(t, windows, 3)
	assert.Equal(t, 100, len(windows[0]))
	// 相邻窗口重叠20字符
	assert.Equal(t, windows[0][80:], windows[1][:20])
}

// TestSplitterConfigDefaults 测试非法配置回退到默认值
func TestSplitterConfigDefaults(t *testing.T) {
	splitter := NewWindowSplitter(SplitterConfig{ChunkSize: 0, ChunkOverlap: -1})
	assert.Equal(t, 700, splitter.config.ChunkSize)
	assert.Equal(t, 100, splitter.config.ChunkOverlap)

	// 重叠不小于窗口时同样回退
	splitter = NewWindowSplitter(SplitterConfig{ChunkSize: 70, ChunkOverlap: 70})
	assert.Equal(t, 10, splitter.config.ChunkOverlap)
}

// TestBuildUnitsHeaderAndMetadata 测试检索单元的头部与元数据
func TestBuildUnitsHeaderAndMetadata(t *testing.T) {
	chunks := []StructuralChunk{
		{
			Text: "Institutions shall hold liquid assets.\n(i) central bank reserves;",
			Hierarchy: HierarchyPath{
				Chapter:    "Chapter 1",
				Article:    "Article 7",
				Section:    "7.1",
				Subsection: "(a)",
				Roman:      []string{"(i)", "(ii)"},
			},
			Page: 12,
		},
	}

	units := BuildUnits(chunks, DefaultSplitterConfig())
	require.Len(t, units, 1)

	unit := units[0]
	assert.Contains(t, unit.Content, "Chapter: Chapter 1")
	assert.Contains(t, unit.Content, "Article: Article 7")
	assert.Contains(t, unit.Content, "Section: 7.1")
	assert.Contains(t, unit.Content, "Subsection: (a)")
	assert.Contains(t, unit.Content, "Institutions shall hold liquid assets.")

	meta, ok := unit.Meta.(models.RulebookMetadata)
	require.True(t, ok)
	assert.Equal(t, "Article 7", meta.Article)
	assert.Equal(t, 12, meta.Page)
	// 罗马列表项按窗口实际内容重扫，(ii)不在窗口中
	assert.Equal(t, "(i)", meta.Roman)
}

// TestBuildUnitsWindowInheritsHierarchy 测试长块的每个窗口继承父块元数据
func TestBuildUnitsWindowInheritsHierarchy(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString("the liquidity buffer shall be maintained at all times ")
	}

	chunks := []StructuralChunk{
		{
			Text:      b.String(),
			Hierarchy: HierarchyPath{Article: "Article 4"},
			Page:      5,
		},
	}

	units := BuildUnits(chunks, SplitterConfig{ChunkSize: 300, ChunkOverlap: 50})
	require.Greater(t, len(units), 1)

	for _, unit := range units {
		meta, ok := unit.Meta.(models.RulebookMetadata)
		require.True(t, ok)
		assert.Equal(t, "Article 4", meta.Article)
		assert.Equal(t, 5, meta.Page)
		assert.True(t, strings.HasPrefix(unit.Content, "Article: Article 4\n\n"))
	}
}

// TestBuildUnitsEmpty 测试空输入
func TestBuildUnitsEmpty(t *testing.T) {
	assert.Empty(t, BuildUnits(nil, DefaultSplitterConfig()))
}
