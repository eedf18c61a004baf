package template

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet 工作簿中一张未规范化的原始表格
// 单元格按行列保存为字符串，空单元格为空字符串
type Sheet struct {
	Name  string     // 表名
	Cells [][]string // 原始单元格网格
}

// 与申报内容无关、跳过规范化的表名
var excludedSheets = map[string]bool{
	"index":        true,
	"readme":       true,
	"instructions": true,
}

// LoadWorkbook 加载xlsx工作簿的全部申报表
// 表序与工作簿一致，索引和说明类表在规范化前排除
func LoadWorkbook(path string) ([]Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %v", err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		if excludedSheets[strings.ToLower(name)] {
			continue
		}

		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %v", name, err)
		}

		sheets = append(sheets, Sheet{Name: name, Cells: rows})
	}

	return sheets, nil
}
