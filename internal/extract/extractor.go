// Package extract turns downloaded course files into labeled text sections.
package extract

import (
	"fmt"

	"github.com/hyperjump/lectern/internal/models"
	"go.uber.org/zap"
)

// Extractor dispatches a file buffer to the extractor for its format.
type Extractor struct {
	logger *zap.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets a logger for files that fail to parse.
func WithLogger(l *zap.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsSupported reports whether f resolves to a parseable format.
func (e *Extractor) IsSupported(f *models.SourceFile) bool {
	return IsSupported(f)
}

// Parse returns the sections of content, resolving the format from f.
// Unsupported or corrupt files yield no sections; Parse never fails.
func (e *Extractor) Parse(content []byte, f *models.SourceFile) (sections []models.Section) {
	format := Resolve(f)
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("extract panicked, file skipped",
				zap.Int64("file_id", f.ID), zap.String("format", format.String()), zap.Any("panic", r))
			sections = nil
		}
	}()
	sections, err := ParseFormat(content, format)
	if err != nil {
		e.logger.Warn("extract failed, file skipped",
			zap.Int64("file_id", f.ID), zap.String("format", format.String()), zap.Error(err))
		return nil
	}
	return sections
}

// ParseFormat extracts sections from content in the given format.
func ParseFormat(content []byte, format Format) ([]models.Section, error) {
	switch format {
	case FormatSlideDeck:
		return extractPPTX(content)
	case FormatWordDoc:
		return extractDOCX(content)
	case FormatPlainText:
		return extractPlain(content), nil
	case FormatPortableDoc:
		return extractPDF(content)
	case FormatSpreadsheet:
		return extractExcel(content)
	case FormatUnsupported:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown format %d", format)
	}
}
