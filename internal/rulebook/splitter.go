package rulebook

import (
	"strings"

	"github.com/fyerfyer/lcr-QA-system/internal/models"
)

// SplitterConfig 细分段器配置
type SplitterConfig struct {
	ChunkSize    int // 窗口目标大小（字符数）
	ChunkOverlap int // 相邻窗口重叠大小（字符数）
}

// DefaultSplitterConfig 返回默认细分段器配置
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{
		ChunkSize:    700,
		ChunkOverlap: 100,
	}
}

// WindowSplitter 将结构块再切为有界重叠窗口的细分段器
// 优先在段落、行、词边界切分，仅在无边界可用时硬切
type WindowSplitter struct {
	config     SplitterConfig
	separators []string
}

// NewWindowSplitter 创建新的细分段器
func NewWindowSplitter(config SplitterConfig) *WindowSplitter {
	if config.ChunkSize <= 0 {
		config.ChunkSize = 700
	}
	if config.ChunkOverlap < 0 || config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = config.ChunkSize / 7
	}
	return &WindowSplitter{
		config:     config,
		separators: []string{"\n\n", "\n", " "},
	}
}

// Split 将文本切为不超过窗口大小的重叠窗口
// 不超过窗口大小的文本原样返回单个窗口
func (s *WindowSplitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= s.config.ChunkSize {
		return []string{text}
	}
	return s.splitRecursive(text, s.separators)
}

// splitRecursive 用首个出现的分隔符切开文本，再合并为有界窗口
func (s *WindowSplitter) splitRecursive(text string, separators []string) []string {
	if len(text) <= s.config.ChunkSize {
		return []string{text}
	}

	// 选择第一个在文本中出现的分隔符
	sep := ""
	var rest []string
	for i, candidate := range separators {
		if strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	// 没有可用的自然边界，按步长硬切
	if sep == "" {
		return s.splitByLength(text)
	}

	// 过长的片段用更细的分隔符递归切分
	var parts []string
	for _, part := range strings.Split(text, sep) {
		if part == "" {
			continue
		}
		if len(part) > s.config.ChunkSize {
			parts = append(parts, s.splitRecursive(part, rest)...)
		} else {
			parts = append(parts, part)
		}
	}

	return s.mergeParts(parts, sep)
}

// mergeParts 将片段贪心合并为窗口，并在相邻窗口间保留重叠
func (s *WindowSplitter) mergeParts(parts []string, sep string) []string {
	var windows []string
	var current []string
	currentLen := 0

	joinedLen := func(pieces []string) int {
		total := 0
		for i, p := range pieces {
			if i > 0 {
				total += len(sep)
			}
			total += len(p)
		}
		return total
	}

	for _, part := range parts {
		extra := len(part)
		if len(current) > 0 {
			extra += len(sep)
		}

		if currentLen+extra > s.config.ChunkSize && len(current) > 0 {
			windows = append(windows, strings.Join(current, sep))

			// 保留不超过重叠大小的尾部片段作为下一窗口的开头
			var tail []string
			tailLen := 0
			for i := len(current) - 1; i >= 0; i-- {
				pieceLen := len(current[i])
				if tailLen > 0 {
					pieceLen += len(sep)
				}
				if tailLen+pieceLen > s.config.ChunkOverlap {
					break
				}
				tail = append([]string{current[i]}, tail...)
				tailLen += pieceLen
			}

			// 尾部加上新片段仍超限时继续缩减尾部
			for len(tail) > 0 && joinedLen(tail)+len(sep)+len(part) > s.config.ChunkSize {
				tail = tail[1:]
			}

			current = tail
			currentLen = joinedLen(current)
			if len(current) > 0 {
				currentLen += len(sep)
			}
		}

		current = append(current, part)
		currentLen += extra
	}

	if len(current) > 0 {
		windows = append(windows, strings.Join(current, sep))
	}

	return windows
}

// splitByLength 按固定步长硬切，相邻窗口保留重叠
func (s *WindowSplitter) splitByLength(text string) []string {
	var chunks []string
	step := s.config.ChunkSize - s.config.ChunkOverlap

	for i := 0; i < len(text); i += step {
		end := i + s.config.ChunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[i:end])
		if end == len(text) {
			break
		}
	}

	return chunks
}

// BuildUnits 将结构块序列转换为规则手册检索单元序列
// 每个窗口继承父块的层级元数据，罗马数字列表项按窗口内容重新扫描，
// 并在窗口文本前生成层级路径头部
func BuildUnits(chunks []StructuralChunk, config SplitterConfig) []models.RetrievableUnit {
	splitter := NewWindowSplitter(config)

	var units []models.RetrievableUnit
	for _, chunk := range chunks {
		for _, window := range splitter.Split(chunk.Text) {
			meta := models.RulebookMetadata{
				Chapter:    chunk.Hierarchy.Chapter,
				Title:      chunk.Hierarchy.Title,
				Article:    chunk.Hierarchy.Article,
				Section:    chunk.Hierarchy.Section,
				Subsection: chunk.Hierarchy.Subsection,
				Roman:      strings.Join(scanRomans(window), ", "),
				Page:       chunk.Page,
			}

			units = append(units, models.RetrievableUnit{
				Content: buildHeader(meta) + "\n\n" + window,
				Meta:    meta,
			})
		}
	}

	return units
}

// scanRomans 扫描窗口各行的罗马数字列表项标记，窗口内去重保序
func scanRomans(window string) []string {
	var romans []string
	seen := make(map[string]bool)

	for _, line := range strings.Split(window, "\n") {
		token := strings.TrimSpace(romanRe.FindString(strings.TrimSpace(line)))
		if token == "" || seen[token] {
			continue
		}
		romans = append(romans, token)
		seen[token] = true
	}

	return romans
}

// buildHeader 按固定顺序生成非空层级字段的头部块
func buildHeader(meta models.RulebookMetadata) string {
	var parts []string

	if meta.Chapter != "" {
		parts = append(parts, "Chapter: "+meta.Chapter)
	}
	if meta.Title != "" {
		parts = append(parts, "Title: "+meta.Title)
	}
	if meta.Article != "" {
		parts = append(parts, "Article: "+meta.Article)
	}
	if meta.Section != "" {
		parts = append(parts, "Section: "+meta.Section)
	}
	if meta.Subsection != "" {
		parts = append(parts, "Subsection: "+meta.Subsection)
	}
	if meta.Roman != "" {
		parts = append(parts, "Roman: "+meta.Roman)
	}

	return strings.Join(parts, "\n")
}
