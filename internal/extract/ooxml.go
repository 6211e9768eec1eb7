package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
)

// contentTypesPath is the path to [Content_Types].xml in OOXML packages.
const contentTypesPath = "[Content_Types].xml"

var (
	relationshipTag = regexp.MustCompile(`<Relationship\b[^>]*>`)
	relIDAttr       = regexp.MustCompile(`\bId="([^"]+)"`)
	relTargetAttr   = regexp.MustCompile(`\bTarget="([^"]+)"`)
)

func openZip(content []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("not a zip: %w", err)
	}
	return zr, nil
}

// readZipFile returns the contents of name, or nil when the package has no such part.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, nil
}

// partForContentType finds the part registered for contentType in [Content_Types].xml.
// Returns the path without leading slash, or "" if not found.
func partForContentType(zr *zip.Reader, contentType string) string {
	data, err := readZipFile(zr, contentTypesPath)
	if err != nil || data == nil {
		return ""
	}
	ct := regexp.QuoteMeta(contentType)
	// PartName and ContentType may appear in either order.
	for _, re := range []*regexp.Regexp{
		regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + ct + `"`),
		regexp.MustCompile(`<Override[^>]+ContentType="` + ct + `"[^>]+PartName="([^"]+)"`),
	} {
		if m := re.FindSubmatch(data); len(m) > 1 {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return ""
}

// relationships maps relationship ids to targets from a .rels part.
func relationships(data []byte) map[string]string {
	out := make(map[string]string)
	for _, tag := range relationshipTag.FindAll(data, -1) {
		id := relIDAttr.FindSubmatch(tag)
		target := relTargetAttr.FindSubmatch(tag)
		if len(id) > 1 && len(target) > 1 {
			out[string(id[1])] = string(target[1])
		}
	}
	return out
}

// runText concatenates the inner text of every run matched by runTag in xml.
func runText(runTag *regexp.Regexp, xml string) string {
	var b strings.Builder
	for _, m := range runTag.FindAllStringSubmatch(xml, -1) {
		b.WriteString(m[1])
	}
	return html.UnescapeString(b.String())
}
