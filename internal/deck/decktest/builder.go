// Package decktest builds minimal .pptx packages for tests.
package decktest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Shape describes one p:sp element.
type Shape struct {
	ID     int
	Name   string
	Left   int64
	Top    int64
	Width  int64
	Height int64

	// Rotation in degrees.
	Rotation float64
	Text     string

	// Placeholder, when set, emits <p:ph type=... idx=...>.
	PlaceholderType string
	PlaceholderIdx  string

	// NoFrame omits a:xfrm so geometry must be inherited.
	NoFrame bool
}

// Deck is a presentation to be written.
type Deck struct {
	Width  int64
	Height int64
	Slides [][]Shape

	// Layout holds placeholder shapes for the single slide layout.
	Layout []Shape
}

// Bytes renders the package.
func (d Deck) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	write := func(name, content string) error {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		_, err = w.Write([]byte(content))
		return err
	}

	var ids, rels strings.Builder
	for i := range d.Slides {
		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+10)
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i+10, i+1)
	}

	files := map[string]string{
		"ppt/presentation.xml": fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:sldIdLst>%s</p:sldIdLst><p:sldSz cx="%d" cy="%d"/></p:presentation>`, ids.String(), d.Width, d.Height),
		"ppt/_rels/presentation.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` + rels.String() + `</Relationships>`,
		"ppt/slideLayouts/slideLayout1.xml": slidePart("sldLayout", d.Layout),
	}
	for i, shapes := range d.Slides {
		files[fmt.Sprintf("ppt/slides/slide%d.xml", i+1)] = slidePart("sld", shapes)
		files[fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1)] = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/></Relationships>`
	}

	for name, content := range files {
		if err := write(name, content); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write saves the package into dir and returns its path.
func (d Deck) Write(t *testing.T, dir, name string) string {
	t.Helper()

	data, err := d.Bytes()
	if err != nil {
		t.Fatalf("failed to build deck: %v", err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("failed to write deck: %v", err)
	}
	return p
}

func slidePart(root string, shapes []Shape) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:%s xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree>`, root)
	b.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)
	for _, s := range shapes {
		b.WriteString(`<p:sp><p:nvSpPr>`)
		fmt.Fprintf(&b, `<p:cNvPr id="%d" name="%s"/><p:cNvSpPr/><p:nvPr>`, s.ID, html.EscapeString(s.Name))
		if s.PlaceholderType != "" || s.PlaceholderIdx != "" {
			b.WriteString(`<p:ph`)
			if s.PlaceholderType != "" {
				fmt.Fprintf(&b, ` type="%s"`, s.PlaceholderType)
			}
			if s.PlaceholderIdx != "" {
				fmt.Fprintf(&b, ` idx="%s"`, s.PlaceholderIdx)
			}
			b.WriteString(`/>`)
		}
		b.WriteString(`</p:nvPr></p:nvSpPr><p:spPr>`)
		if !s.NoFrame {
			fmt.Fprintf(&b, `<a:xfrm rot="%d"><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`,
				int64(s.Rotation*60000), s.Left, s.Top, s.Width, s.Height)
		}
		b.WriteString(`</p:spPr>`)
		if s.Text != "" {
			b.WriteString(`<p:txBody><a:bodyPr/>`)
			for _, line := range strings.Split(s.Text, "\n") {
				fmt.Fprintf(&b, `<a:p><a:r><a:rPr lang="en-US"/><a:t>%s</a:t></a:r></a:p>`, html.EscapeString(line))
			}
			b.WriteString(`</p:txBody>`)
		}
		b.WriteString(`</p:sp>`)
	}
	fmt.Fprintf(&b, `</p:spTree></p:cSld></p:%s>`, root)
	return b.String()
}
