package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperjump/lectern/internal/models"
)

// docxDocumentXMLPath is the default path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// docxMainContentType is the content type for the main document in DOCX files.
const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

var (
	// wtTag matches <w:t>text</w:t> or <w:t xml:space="preserve">text</w:t>.
	wtTag = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)
	// wordParagraph matches <w:p .../> and <w:p ...>...</w:p> (not <w:pPr> or <w:proofErr>).
	wordParagraph = regexp.MustCompile(`(?s)<w:p(?:\s[^>]*?)?(?:/>|>(.*?)</w:p>)`)
	// wordTable matches a table block; table paragraphs are not body paragraphs.
	wordTable = regexp.MustCompile(`(?s)<w:tbl>.*?</w:tbl>`)
	// wordTextBox matches text box content, whose paragraphs sit inside a body paragraph's run.
	wordTextBox = regexp.MustCompile(`(?s)<w:txbxContent(?:\s[^>]*)?>.*?</w:txbxContent>`)
)

// extractDOCX returns one section per non-empty body paragraph labeled with its 1-based
// position among all body paragraphs, so omitted empty paragraphs leave gaps.
func extractDOCX(content []byte) ([]models.Section, error) {
	zr, err := openZip(content)
	if err != nil {
		return nil, fmt.Errorf("extract DOCX: %w", err)
	}
	docPath := partForContentType(zr, docxMainContentType)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}
	docXML, err := readZipFile(zr, docPath)
	if err != nil {
		return nil, fmt.Errorf("extract DOCX: %w", err)
	}
	if docXML == nil {
		return nil, fmt.Errorf("extract DOCX: %s not found", docPath)
	}
	body := wordTextBox.ReplaceAllString(string(docXML), "")
	body = wordTable.ReplaceAllString(body, "")
	var sections []models.Section
	for i, p := range wordParagraph.FindAllStringSubmatch(body, -1) {
		text := strings.TrimSpace(runText(wtTag, p[1]))
		if text == "" {
			continue
		}
		sections = append(sections, models.Section{
			Text:     text,
			Location: fmt.Sprintf("paragraph %d", i+1),
		})
	}
	return sections, nil
}
