package extract

import "github.com/hyperjump/lectern/internal/models"

// Format is the closed set of document families the parser understands.
type Format int

const (
	FormatUnsupported Format = iota
	FormatSlideDeck
	FormatWordDoc
	FormatPlainText
	FormatPortableDoc
	FormatSpreadsheet
)

func (f Format) String() string {
	switch f {
	case FormatSlideDeck:
		return "pptx"
	case FormatWordDoc:
		return "docx"
	case FormatPlainText:
		return "txt"
	case FormatPortableDoc:
		return "pdf"
	case FormatSpreadsheet:
		return "xlsx"
	default:
		return "unsupported"
	}
}

// contentTypes maps declared content types to formats. Matched exactly.
var contentTypes = map[string]Format{
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": FormatSlideDeck,
	"application/vnd.ms-powerpoint":                                             FormatSlideDeck,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   FormatWordDoc,
	"application/msword": FormatWordDoc,
	"text/plain":         FormatPlainText,
	"application/pdf":    FormatPortableDoc,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": FormatSpreadsheet,
}

// extensions is the fallback when the content type is not in contentTypes.
var extensions = map[string]Format{
	".pptx": FormatSlideDeck,
	".ppt":  FormatSlideDeck,
	".docx": FormatWordDoc,
	".doc":  FormatWordDoc,
	".txt":  FormatPlainText,
	".pdf":  FormatPortableDoc,
	".xlsx": FormatSpreadsheet,
}

// Resolve picks the format for f: content type first, then file extension.
func Resolve(f *models.SourceFile) Format {
	if format, ok := contentTypes[f.ContentType]; ok {
		return format
	}
	if format, ok := extensions[f.Extension()]; ok {
		return format
	}
	return FormatUnsupported
}

// IsSupported reports whether f resolves to a parseable format.
func IsSupported(f *models.SourceFile) bool {
	return Resolve(f) != FormatUnsupported
}
