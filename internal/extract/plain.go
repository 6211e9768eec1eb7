package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/lectern/internal/models"
)

// DecodeText decodes content as UTF-8, replacing invalid sequences with U+FFFD. It never fails.
func DecodeText(content []byte) string {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "\ufffd")
	}
	return string(content)
}

// extractPlain returns the whole trimmed document as one section, or none when empty.
func extractPlain(content []byte) []models.Section {
	text := strings.TrimSpace(DecodeText(content))
	if text == "" {
		return nil
	}
	return []models.Section{{Text: text, Location: "full document"}}
}
