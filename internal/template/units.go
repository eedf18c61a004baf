package template

import (
	"strings"

	"github.com/fyerfyer/lcr-QA-system/internal/models"
)

// 已经有专属元数据字段、不进入Extra的列
var coreColumns = map[string]bool{
	"Item":   true,
	"Row":    true,
	"ID":     true,
	colSheet: true,
	colCode:  true,
}

// ToUnits 将规范化合并后的行表转换为模板检索单元序列
// Item为空的行跳过；其余列全部进入元数据，空单元格规约为nil
func ToUnits(table *Table) []models.RetrievableUnit {
	var units []models.RetrievableUnit

	for _, row := range table.Rows {
		itemText := strings.TrimSpace(row["Item"])
		if itemText == "" {
			continue
		}

		meta := models.TemplateMetadata{
			Sheet: row[colSheet],
			Code:  row[colCode],
			Row:   strings.TrimSpace(row["Row"]),
			ID:    strings.TrimSpace(row["ID"]),
			Extra: make(map[string]interface{}),
		}

		for _, name := range table.Columns {
			if coreColumns[name] {
				continue
			}
			meta.Extra[name] = cellValue(row[name])
		}

		units = append(units, models.RetrievableUnit{
			Content: itemText,
			Meta:    meta,
		})
	}

	return units
}

// cellValue 空单元格规约为nil，其余原样通过
func cellValue(cell string) interface{} {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	return cell
}
