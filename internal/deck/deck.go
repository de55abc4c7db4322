package deck

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/ironsheep/slide-qa/internal/geometry"
)

// ErrMalformed marks a presentation whose package structure cannot be read.
var ErrMalformed = errors.New("malformed presentation")

const presentationPart = "ppt/presentation.xml"

// Document is a presentation reduced to the geometry needed for layout checks.
type Document struct {
	// Path is the file the document was read from, empty for in-memory reads.
	Path string

	// Canvas is shared by all slides.
	Canvas geometry.Canvas

	Slides []Slide
}

// Slide is an ordered list of shapes.
type Slide struct {
	// Index is the 0-based position in the deck.
	Index int

	// Part is the package part name, e.g. "ppt/slides/slide3.xml".
	Part string

	Shapes []geometry.Shape
}

// Open reads the presentation at path.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open presentation: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat presentation: %w", err)
	}

	doc, err := Read(f, stat.Size())
	if err != nil {
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// Read decodes a presentation package from r.
func Read(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	p := &pkg{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		p.files[strings.TrimPrefix(f.Name, "/")] = f
	}
	return p.document()
}

// pkg is an opened OOXML package with its parts indexed by name.
type pkg struct {
	files map[string]*zip.File
}

func (p *pkg) document() (*Document, error) {
	var pres presentationXML
	if err := p.decode(presentationPart, &pres); err != nil {
		return nil, err
	}
	if pres.SlideSize == nil || pres.SlideSize.Cx <= 0 || pres.SlideSize.Cy <= 0 {
		return nil, fmt.Errorf("%w: missing or invalid slide size", ErrMalformed)
	}

	rels, err := p.relationships(presentationPart)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Canvas: geometry.Canvas{Width: pres.SlideSize.Cx, Height: pres.SlideSize.Cy},
		Slides: make([]Slide, 0, len(pres.SlideIDs)),
	}
	for i, id := range pres.SlideIDs {
		rel, ok := rels[id.RID]
		if !ok || rel.Type != relTypeSlide {
			return nil, fmt.Errorf("%w: slide %d references unknown relationship %q", ErrMalformed, i+1, id.RID)
		}
		part := resolveTarget(presentationPart, rel.Target)
		shapes, err := p.slideShapes(part)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", i+1, err)
		}
		doc.Slides = append(doc.Slides, Slide{Index: i, Part: part, Shapes: shapes})
	}
	return doc, nil
}

func (p *pkg) slideShapes(part string) ([]geometry.Shape, error) {
	var slide slidePartXML
	if err := p.decode(part, &slide); err != nil {
		return nil, err
	}

	var inherited *placeholderSet
	shapes := make([]geometry.Shape, 0, len(slide.CommonSlide.ShapeTree.Nodes))
	for i := range slide.CommonSlide.ShapeTree.Nodes {
		node := &slide.CommonSlide.ShapeTree.Nodes[i]
		if !shapeElements[node.XMLName.Local] {
			continue
		}
		nv := node.nonVisual()
		if nv == nil {
			return nil, fmt.Errorf("%w: %s element without non-visual properties in %s", ErrMalformed, node.XMLName.Local, part)
		}

		shape := geometry.Shape{
			ID:   nv.CNvPr.ID,
			Name: nv.CNvPr.Name,
			Text: node.text(),
		}

		xf := node.transform()
		if !xf.complete() && nv.NvPr.Placeholder != nil {
			if inherited == nil {
				set, err := p.inheritedPlaceholders(part)
				if err != nil {
					return nil, err
				}
				inherited = set
			}
			if base := inherited.match(nv.NvPr.Placeholder); base != nil {
				xf = base
			}
		}
		if xf.complete() {
			shape.Left = xf.Off.X
			shape.Top = xf.Off.Y
			shape.Width = xf.Ext.Cx
			shape.Height = xf.Ext.Cy
			shape.Rotation = float64(xf.Rot) / 60000
			shape.HasGeometry = true
		}
		shapes = append(shapes, shape)
	}
	return shapes, nil
}

// inheritedPlaceholders loads the placeholder frames of a slide's layout and
// that layout's master.
func (p *pkg) inheritedPlaceholders(slidePart string) (*placeholderSet, error) {
	set := &placeholderSet{}

	layoutPart, err := p.related(slidePart, relTypeSlideLayout)
	if err != nil || layoutPart == "" {
		return set, err
	}
	if set.layout, err = p.placeholderFrames(layoutPart); err != nil {
		return nil, err
	}

	masterPart, err := p.related(layoutPart, relTypeSlideMaster)
	if err != nil || masterPart == "" {
		return set, err
	}
	if set.master, err = p.placeholderFrames(masterPart); err != nil {
		return nil, err
	}
	return set, nil
}

func (p *pkg) placeholderFrames(part string) ([]placeholderFrame, error) {
	var sp slidePartXML
	if err := p.decode(part, &sp); err != nil {
		return nil, err
	}
	var frames []placeholderFrame
	for i := range sp.CommonSlide.ShapeTree.Nodes {
		node := &sp.CommonSlide.ShapeTree.Nodes[i]
		nv := node.nonVisual()
		if nv == nil || nv.NvPr.Placeholder == nil {
			continue
		}
		xf := node.transform()
		if !xf.complete() {
			continue
		}
		frames = append(frames, placeholderFrame{
			kind: placeholderKind(nv.NvPr.Placeholder.Type),
			idx:  placeholderIdx(nv.NvPr.Placeholder.Idx),
			xfrm: xf,
		})
	}
	return frames, nil
}

// related returns the first part related to part with the given type, or ""
// when there is none.
func (p *pkg) related(part, relType string) (string, error) {
	rels, err := p.relationships(part)
	if err != nil {
		return "", err
	}
	for _, rel := range rels {
		if rel.Type == relType && rel.TargetMode != "External" {
			return resolveTarget(part, rel.Target), nil
		}
	}
	return "", nil
}

// relationships reads the .rels part belonging to part. A part without a
// relationships file has no relationships.
func (p *pkg) relationships(part string) (map[string]relationship, error) {
	relsPart := path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
	if _, ok := p.files[relsPart]; !ok {
		return map[string]relationship{}, nil
	}
	var rels relationshipsXML
	if err := p.decode(relsPart, &rels); err != nil {
		return nil, err
	}
	out := make(map[string]relationship, len(rels.Relationships))
	for _, rel := range rels.Relationships {
		out[rel.ID] = rel
	}
	return out, nil
}

func (p *pkg) decode(part string, v interface{}) error {
	f, ok := p.files[part]
	if !ok {
		return fmt.Errorf("%w: missing part %s", ErrMalformed, part)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrMalformed, part, err)
	}
	defer rc.Close()
	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrMalformed, part, err)
	}
	return nil
}

// resolveTarget resolves a relationship target against the part that owns
// the relationship.
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(source), target)
}

func (n *shapeNode) text() string {
	if n.TxBody == nil {
		return ""
	}
	paragraphs := make([]string, 0, len(n.TxBody.Paragraphs))
	for _, para := range n.TxBody.Paragraphs {
		var b strings.Builder
		for _, item := range para.Items {
			switch item.XMLName.Local {
			case "r", "fld":
				b.WriteString(item.Text)
			case "br":
				b.WriteByte('\n')
			}
		}
		paragraphs = append(paragraphs, b.String())
	}
	return strings.TrimSpace(strings.Join(paragraphs, "\n"))
}

func placeholderIdx(s string) int {
	if s == "" {
		return 0
	}
	idx, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return idx
}
