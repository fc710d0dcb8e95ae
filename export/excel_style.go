package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ApplyDefaultFormatting applies:
// - bold header (row 1),
// - auto-filter on row 1,
// - approximate auto-width for all data columns present on the sheet.
func ApplyDefaultFormatting(f *excelize.File, sheet string) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	if cols == 0 {
		return nil
	}

	last := columnName(cols)
	if style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", last+"1", style)
	}
	_ = f.AutoFilter(sheet, "A1:"+last+"1", nil)

	widths := make([]float64, cols)
	for c := range widths {
		widths[c] = 10
	}
	for rIdx, row := range rows {
		for cIdx := 0; cIdx < len(row) && cIdx < cols; cIdx++ {
			w := float64(len([]rune(row[cIdx]))) * 1.1
			if rIdx == 0 {
				w += 1.5
			}
			if w > 50 {
				w = 50
			}
			if w > widths[cIdx] {
				widths[cIdx] = w
			}
		}
	}
	for i, w := range widths {
		col := columnName(i + 1)
		_ = f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

// columnName converts a 1-based index to a column letter: 1 -> A, 27 -> AA.
func columnName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

func cell(col, row int) string {
	return fmt.Sprintf("%s%d", columnName(col), row)
}

var invalidFileRe = regexp.MustCompile(`[\\/:*?"<>|]+`)

// sanitizeFileName collapses whitespace to underscores and drops characters
// that are invalid in file names.
func sanitizeFileName(s string) string {
	s = strings.TrimSpace(s)
	s = invalidFileRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), "_")
}
