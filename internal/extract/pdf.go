package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/hyperjump/lectern/internal/models"
	"github.com/ledongthuc/pdf"
)

// extractPDF returns one section per page with text, labeled "page N" (1-based).
func extractPDF(content []byte) ([]models.Section, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	var sections []models.Section
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		sections = append(sections, models.Section{
			Text:     text,
			Location: fmt.Sprintf("page %d", i),
		})
	}
	return sections, nil
}
