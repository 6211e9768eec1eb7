package extract

import (
	"archive/zip"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/lectern/internal/models"
)

const (
	pptxPresentationPath = "ppt/presentation.xml"
	pptxPresentationRels = "ppt/_rels/presentation.xml.rels"
)

var (
	// slidePart matches ppt/slides/slideN.xml and captures N.
	slidePart = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	// slideIDTag matches <p:sldId id="256" r:id="rId2"/> entries in presentation order.
	slideIDTag = regexp.MustCompile(`<p:sldId\b[^>]*\br:id="([^"]+)"`)
	// shapeTextBody matches a shape's <p:txBody>. Table cells use <a:txBody> and are not matched.
	shapeTextBody = regexp.MustCompile(`(?s)<p:txBody(?:\s[^>]*)?>(.*?)</p:txBody>`)
	// drawingParagraph matches one <a:p>...</a:p> paragraph (not <a:pPr>).
	drawingParagraph = regexp.MustCompile(`(?s)<a:p(?:\s[^>]*)?>(.*?)</a:p>`)
	// atTag matches <a:t>text</a:t> or <a:t xml:space="preserve">text</a:t>.
	atTag = regexp.MustCompile(`<a:t(?:\s[^>]*)?>([^<]*)</a:t>`)
)

// extractPPTX returns one section per slide, in presentation order. A slide's text is the
// trimmed, non-empty paragraphs of its text shapes joined by newlines; table frames are
// ignored and slides without text are omitted.
func extractPPTX(content []byte) ([]models.Section, error) {
	zr, err := openZip(content)
	if err != nil {
		return nil, fmt.Errorf("extract PPTX: %w", err)
	}
	order, err := slideOrder(zr)
	if err != nil {
		return nil, fmt.Errorf("extract PPTX: %w", err)
	}
	var sections []models.Section
	for i, part := range order {
		data, err := readZipFile(zr, part)
		if err != nil {
			return nil, fmt.Errorf("extract PPTX: %w", err)
		}
		var lines []string
		for _, body := range shapeTextBody.FindAllStringSubmatch(string(data), -1) {
			for _, p := range drawingParagraph.FindAllStringSubmatch(body[1], -1) {
				if line := strings.TrimSpace(runText(atTag, p[1])); line != "" {
					lines = append(lines, line)
				}
			}
		}
		if len(lines) == 0 {
			continue
		}
		sections = append(sections, models.Section{
			Text:     strings.Join(lines, "\n"),
			Location: fmt.Sprintf("slide %d", i+1),
		})
	}
	return sections, nil
}

// slideOrder lists slide parts in presentation order from presentation.xml and its
// relationships, falling back to numeric slide file order when those are missing.
func slideOrder(zr *zip.Reader) ([]string, error) {
	pres, err := readZipFile(zr, pptxPresentationPath)
	if err != nil {
		return nil, err
	}
	rels, err := readZipFile(zr, pptxPresentationRels)
	if err != nil {
		return nil, err
	}
	if pres != nil && rels != nil {
		targets := relationships(rels)
		var order []string
		for _, m := range slideIDTag.FindAllSubmatch(pres, -1) {
			target, ok := targets[string(m[1])]
			if !ok {
				continue
			}
			if strings.HasPrefix(target, "/") {
				order = append(order, strings.TrimPrefix(target, "/"))
			} else {
				order = append(order, path.Join("ppt", target))
			}
		}
		if len(order) > 0 {
			return order, nil
		}
	}
	type numbered struct {
		n    int
		name string
	}
	var slides []numbered
	for _, f := range zr.File {
		m := slidePart.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, numbered{n: n, name: f.Name})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })
	order := make([]string, len(slides))
	for i, s := range slides {
		order[i] = s.name
	}
	return order, nil
}
