package template

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook 生成测试用工作簿
func writeWorkbook(t *testing.T, sheets map[string][][]interface{}) string {
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			r := row
			require.NoError(t, f.SetSheetRow(name, cell, &r))
		}
	}

	path := filepath.Join(t.TempDir(), "template.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// TestLoadWorkbookSkipsExcludedSheets 测试索引和说明表被排除
func TestLoadWorkbookSkipsExcludedSheets(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"S1A.1": {{"Row", "ID", "Item"}, {"010", "1", "LIQUID ASSETS"}},
		"Index": {{"table of contents"}},
	})

	sheets, err := LoadWorkbook(path)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "S1A.1", sheets[0].Name)
	assert.Equal(t, "LIQUID ASSETS", sheets[0].Cells[1][2])
}

// TestNormalizeHeaderDetection 测试表头定位与表头之上内容丢弃
func TestNormalizeHeaderDetection(t *testing.T) {
	sheet := Sheet{
		Name: "S1A.1",
		Cells: [][]string{
			{"Annex XXIV", "", ""},
			{"", "", ""},
			{"Row", "ID", "Item"},
			{"010", "1", "LIQUID ASSETS"},
			{"020", "1.1", "Total HQLA"},
		},
	}

	table, err := Normalize(sheet)
	require.NoError(t, err)

	assert.Contains(t, table.Columns, "Row")
	assert.Contains(t, table.Columns, "ID")
	assert.Contains(t, table.Columns, "Item")
	assert.Contains(t, table.Columns, "template_sheet")
	assert.Contains(t, table.Columns, "template_code")

	require.Len(t, table.Rows, 2)
	assert.Equal(t, "010", table.Rows[0]["Row"])
	assert.Equal(t, "Total HQLA", table.Rows[1]["Item"])
	assert.Equal(t, "S1A.1", table.Rows[0]["template_sheet"])
	assert.Equal(t, "S1A.1", table.Rows[0]["template_code"])
}

// TestNormalizeNoHeader 测试无表头时返回ErrNoHeaderRow
func TestNormalizeNoHeader(t *testing.T) {
	sheet := Sheet{
		Name:  "Notes",
		Cells: [][]string{{"free-form commentary"}, {"more text"}},
	}

	_, err := Normalize(sheet)
	assert.ErrorIs(t, err, ErrNoHeaderRow)
}

// TestNormalizeDropsBlankRowsAndColumns 测试全空行列被丢弃
func TestNormalizeDropsBlankRowsAndColumns(t *testing.T) {
	sheet := Sheet{
		Name: "S1A.1",
		Cells: [][]string{
			{"Row", "", "ID", "Item"},
			{"", "", "", ""},
			{"010", "", "1", "LIQUID ASSETS"},
		},
	}

	table, err := Normalize(sheet)
	require.NoError(t, err)

	require.Len(t, table.Rows, 1)
	assert.Equal(t, "010", table.Rows[0]["Row"])
	assert.Equal(t, "1", table.Rows[0]["ID"])
}

// TestNormalizeEnsuresRequiredColumns 测试缺失的必需列被补齐
func TestNormalizeEnsuresRequiredColumns(t *testing.T) {
	sheet := Sheet{
		Name: "S1A.2",
		Cells: [][]string{
			{"Row", "Description"},
			{"010", "something"},
		},
	}

	table, err := Normalize(sheet)
	require.NoError(t, err)

	assert.Contains(t, table.Columns, "ID")
	assert.Contains(t, table.Columns, "Item")
	// 补齐的列在数据行中为空字符串
	assert.Equal(t, "", table.Rows[0]["ID"])
}

// TestMergeContinuations 测试多行条目合并
func TestMergeContinuations(t *testing.T) {
	table := &Table{
		Columns: []string{"Row", "ID", "Item", "template_sheet", "template_code"},
		Rows: []Row{
			{"Row": "010", "ID": "1", "Item": "LIQUID ASSETS", "template_sheet": "S1A.1", "template_code": "S1A.1"},
			{"Row": "", "ID": "", "Item": "continued description", "template_sheet": "S1A.1", "template_code": "S1A.1"},
			{"Row": "", "ID": "", "Item": "and more", "template_sheet": "S1A.1", "template_code": "S1A.1"},
			{"Row": "020", "ID": "1.1", "Item": "Total HQLA", "template_sheet": "S1A.1", "template_code": "S1A.1"},
		},
	}

	merged := MergeContinuations([]*Table{table})
	require.Len(t, merged.Rows, 2)

	assert.Equal(t, "LIQUID ASSETS continued description and more", merged.Rows[0]["Item"])
	assert.Equal(t, "Total HQLA", merged.Rows[1]["Item"])
}

// TestMergeContinuationsAcrossTables 测试跨表拼接与列并集
func TestMergeContinuationsAcrossTables(t *testing.T) {
	t1 := &Table{
		Columns: []string{"Row", "ID", "Item"},
		Rows:    []Row{{"Row": "010", "ID": "1", "Item": "first sheet row"}},
	}
	t2 := &Table{
		Columns: []string{"Row", "ID", "Item", "Amount"},
		Rows:    []Row{{"Row": "010", "ID": "1", "Item": "second sheet row", "Amount": "100"}},
	}

	merged := MergeContinuations([]*Table{t1, t2})

	assert.Equal(t, []string{"Row", "ID", "Item", "Amount"}, merged.Columns)
	require.Len(t, merged.Rows, 2)
	assert.Equal(t, "first sheet row", merged.Rows[0]["Item"])
	assert.Equal(t, "100", merged.Rows[1]["Amount"])
}

// TestMergeContinuationsLeadingOrphan 测试无缓冲行时的延续行被丢弃
func TestMergeContinuationsLeadingOrphan(t *testing.T) {
	table := &Table{
		Columns: []string{"Row", "ID", "Item"},
		Rows: []Row{
			{"Row": "", "ID": "", "Item": "orphan continuation"},
			{"Row": "010", "ID": "1", "Item": "real row"},
		},
	}

	merged := MergeContinuations([]*Table{table})
	require.Len(t, merged.Rows, 1)
	assert.Equal(t, "real row", merged.Rows[0]["Item"])
}
