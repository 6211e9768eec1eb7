package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/hyperjump/lectern/internal/models"
	"github.com/xuri/excelize/v2"
)

// extractExcel returns one section per sheet with content; rows are tab-joined lines.
func extractExcel(content []byte) ([]models.Section, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	var sections []models.Section
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		var buf strings.Builder
		for _, row := range rows {
			buf.WriteString(strings.Join(row, "\t"))
			buf.WriteByte('\n')
		}
		text := strings.TrimSpace(buf.String())
		if text == "" {
			continue
		}
		sections = append(sections, models.Section{
			Text:     text,
			Location: "sheet " + sheet,
		})
	}
	return sections, nil
}
