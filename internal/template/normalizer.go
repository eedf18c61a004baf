package template

import (
	"errors"
	"strings"
)

// ErrNoHeaderRow 表中找不到可用的表头行
// 该表被整体跳过，不是致命错误
var ErrNoHeaderRow = errors.New("no header row detected")

// 规范化后保证存在的必需列
var requiredColumns = []string{"Row", "ID", "Item"}

// 附加到每一行的表坐标列
const (
	colSheet = "template_sheet"
	colCode  = "template_code"
)

// Row 规范化后的一行，列名到单元格值的映射
// 缺失的单元格为空字符串
type Row map[string]string

// Table 规范化后的行表
type Table struct {
	Columns []string // 列名，保序
	Rows    []Row    // 数据行
}

// Normalize 规范化一张原始申报表
// 丢弃全空行列，定位表头行（含不区分大小写等于"row"的单元格），
// 表头之上的内容全部丢弃；找不到表头时返回ErrNoHeaderRow
func Normalize(sheet Sheet) (*Table, error) {
	grid := dropBlank(sheet.Cells)

	// 自上而下找首个包含"row"单元格的行作为表头
	headerIdx := -1
	for i, row := range grid {
		for _, cell := range row {
			if strings.EqualFold(strings.TrimSpace(cell), "row") {
				headerIdx = i
				break
			}
		}
		if headerIdx >= 0 {
			break
		}
	}

	if headerIdx < 0 {
		return nil, ErrNoHeaderRow
	}

	// 表头行单元格裁剪后作为列名，空名列丢弃
	header := grid[headerIdx]
	columns := make([]string, len(header))
	for i, cell := range header {
		columns[i] = strings.TrimSpace(cell)
	}

	table := &Table{}
	for _, name := range columns {
		if name != "" {
			table.Columns = append(table.Columns, name)
		}
	}

	// 保证必需列存在
	for _, name := range requiredColumns {
		if !containsColumn(table.Columns, name) {
			table.Columns = append(table.Columns, name)
		}
	}
	table.Columns = append(table.Columns, colSheet, colCode)

	// 表头之下的行为数据行，附加表坐标
	for _, cells := range grid[headerIdx+1:] {
		row := make(Row, len(table.Columns))
		for i, name := range columns {
			if name == "" {
				continue
			}
			if i < len(cells) {
				row[name] = cells[i]
			}
		}
		row[colSheet] = sheet.Name
		row[colCode] = sheet.Name
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// MergeContinuations 按表序拼接各表并合并多行条目
// Row和ID均为空而Item非空的行是上一保留行的延续，
// 其Item文本以单个空格拼接到缓冲行后丢弃
func MergeContinuations(tables []*Table) *Table {
	merged := &Table{}
	seen := make(map[string]bool)

	// 列为各表列名的并集，保持首次出现的顺序
	for _, table := range tables {
		for _, name := range table.Columns {
			if !seen[name] {
				merged.Columns = append(merged.Columns, name)
				seen[name] = true
			}
		}
	}

	var buffer Row
	flush := func() {
		if buffer != nil {
			merged.Rows = append(merged.Rows, buffer)
			buffer = nil
		}
	}

	for _, table := range tables {
		for _, row := range table.Rows {
			rowCode := strings.TrimSpace(row["Row"])
			idCode := strings.TrimSpace(row["ID"])
			itemText := strings.TrimSpace(row["Item"])

			isContinuation := rowCode == "" && idCode == "" && itemText != ""

			if isContinuation {
				if buffer != nil {
					buffer["Item"] = strings.TrimSpace(buffer["Item"]) + " " + itemText
				}
				continue
			}

			flush()
			buffer = row
		}
	}
	flush()

	return merged
}

// dropBlank 丢弃全空的行与列
func dropBlank(cells [][]string) [][]string {
	if len(cells) == 0 {
		return nil
	}

	// 找出至少有一个非空单元格的列
	width := 0
	for _, row := range cells {
		if len(row) > width {
			width = len(row)
		}
	}

	keepCol := make([]bool, width)
	for _, row := range cells {
		for i, cell := range row {
			if strings.TrimSpace(cell) != "" {
				keepCol[i] = true
			}
		}
	}

	var out [][]string
	for _, row := range cells {
		blank := true
		kept := make([]string, 0, width)
		for i := 0; i < width; i++ {
			if !keepCol[i] {
				continue
			}
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if strings.TrimSpace(cell) != "" {
				blank = false
			}
			kept = append(kept, cell)
		}
		if !blank {
			out = append(out, kept)
		}
	}

	return out
}

// containsColumn 检查列名是否已存在
func containsColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}
