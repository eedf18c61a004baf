package rulebook

import (
	"regexp"
	"strings"
)

// 规则手册结构标记的匹配模式
var (
	chapterRe    = regexp.MustCompile(`^\s*((Chapter|CHAPTER)\s*\d+|\d+\s+[A-Z][A-Za-z].+)$`)
	titleRe      = regexp.MustCompile(`^\s*(Title|TITLE)\s*[IVXLC0-9]+(\s+.*)?$`)
	articleRe    = regexp.MustCompile(`(?i)^\s*Article\s+\d+`)
	sectionRe    = regexp.MustCompile(`^\s*(\d+(?:\.\d+)*)\.?\s+`)
	subsectionRe = regexp.MustCompile(`(?i)^\s*\(([a-z])\)\s+`)
	romanRe      = regexp.MustCompile(`(?i)^\s*\((i|ii|iii|iv|v|vi|vii|viii|ix|x)\)\s+`)
	dateRe       = regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`)
)

// HierarchyPath 某一行生效的结构标记集合
// 空字符串字段表示该层级标记尚未出现
type HierarchyPath struct {
	Chapter    string   // 当前章
	Title      string   // 当前编
	Article    string   // 当前条
	Section    string   // 当前节编号
	Subsection string   // 当前小节标记
	Roman      []string // 累积的罗马数字列表项，按出现顺序去重
}

// clone 复制层级路径，罗马列表深拷贝
func (h HierarchyPath) clone() HierarchyPath {
	out := h
	out.Roman = append([]string(nil), h.Roman...)
	return out
}

// StructuralChunk 按结构标记切出的粗粒度文本块
type StructuralChunk struct {
	Text      string        // 块文本
	Hierarchy HierarchyPath // 触发切分时生效的层级路径
	Page      int           // 所属页码
}

// segmenterState 单次文档遍历的可变状态
// 属于一次Segment调用，不跨遍历复用
type segmenterState struct {
	path   HierarchyPath
	buffer strings.Builder
	page   int
	chunks []StructuralChunk
}

// flush 将当前缓冲区落为一个结构块，空白缓冲区不产出
func (s *segmenterState) flush() {
	text := strings.TrimSpace(s.buffer.String())
	s.buffer.Reset()
	if text == "" {
		return
	}
	s.chunks = append(s.chunks, StructuralChunk{
		Text:      text,
		Hierarchy: s.path.clone(),
		Page:      s.page,
	})
}

// appendLine 追加一行到缓冲区
func (s *segmenterState) appendLine(line string) {
	s.buffer.WriteString(line)
	s.buffer.WriteString("\n")
}

// addRoman 追加罗马数字列表项，按精确标记去重、保序
func (s *segmenterState) addRoman(token string) {
	for _, existing := range s.path.Roman {
		if existing == token {
			return
		}
	}
	s.path.Roman = append(s.path.Roman, token)
}

// Segment 将有序页面序列切分为结构块序列
// 逐页逐行分类结构标记并维护运行中的层级状态；
// 层级状态跨页保持，文本缓冲区以页为界
func Segment(pages []Page) []StructuralChunk {
	state := &segmenterState{}

	for _, page := range pages {
		state.page = page.Number

		for _, line := range strings.Split(page.Text, "\n") {
			cleaned := dateRe.ReplaceAllString(strings.TrimSpace(line), "")
			cleaned = strings.Join(strings.Fields(cleaned), " ")

			// 空行和独立的连字符行直接跳过
			if cleaned == "" || cleaned == "-" || cleaned == "–" || cleaned == "—" {
				continue
			}

			classifyLine(state, cleaned)
		}

		// 页面结束，落盘剩余缓冲
		state.flush()
	}

	return state.chunks
}

// classifyLine 按优先级分类单行并更新状态，首个命中生效
func classifyLine(s *segmenterState, cleaned string) {
	// 章：清除其下所有层级
	if chapterRe.MatchString(cleaned) {
		s.flush()
		s.path.Chapter = cleaned
		s.path.Title = ""
		s.path.Article = ""
		s.path.Section = ""
		s.path.Subsection = ""
		s.path.Roman = nil
		return
	}

	// 编：清除条及以下
	if titleRe.MatchString(cleaned) {
		s.flush()
		s.path.Title = cleaned
		s.path.Article = ""
		s.path.Section = ""
		s.path.Subsection = ""
		s.path.Roman = nil
		return
	}

	// 条：清除节及以下
	if articleRe.MatchString(cleaned) {
		s.flush()
		s.path.Article = cleaned
		s.path.Section = ""
		s.path.Subsection = ""
		s.path.Roman = nil
		return
	}

	// 节：标记行本身留在新缓冲区中
	if m := sectionRe.FindStringSubmatch(cleaned); m != nil {
		s.flush()
		s.path.Section = m[1]
		s.path.Subsection = ""
		s.path.Roman = nil
		s.appendLine(cleaned)
		return
	}

	// 罗马数字列表项：只累积，不切分
	if romanRe.MatchString(cleaned) {
		s.addRoman(strings.TrimSpace(romanRe.FindString(cleaned)))
		s.appendLine(cleaned)
		return
	}

	// 字母小节
	if m := subsectionRe.FindStringSubmatch(cleaned); m != nil {
		// 缓冲区以冒号结尾时视为子项延续，不切分
		if strings.HasSuffix(strings.TrimSpace(s.buffer.String()), ":") &&
			!sectionRe.MatchString(cleaned) && !romanRe.MatchString(cleaned) {
			s.appendLine(cleaned)
			s.path.Subsection = "(" + m[1] + ")"
			s.path.Roman = nil
			return
		}

		s.flush()
		s.path.Subsection = "(" + m[1] + ")"
		s.path.Roman = nil
		s.appendLine(cleaned)
		return
	}

	// 普通正文行
	s.appendLine(cleaned)
}
