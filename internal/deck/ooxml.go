package deck

import "encoding/xml"

const relNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

const (
	relTypeSlide       = relNS + "/slide"
	relTypeSlideLayout = relNS + "/slideLayout"
	relTypeSlideMaster = relNS + "/slideMaster"
)

type presentationXML struct {
	SlideIDs []struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
	SlideSize *struct {
		Cx int64 `xml:"cx,attr"`
		Cy int64 `xml:"cy,attr"`
	} `xml:"sldSz"`
}

type relationshipsXML struct {
	Relationships []relationship `xml:"Relationship"`
}

type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

// slidePartXML covers p:sld, p:sldLayout and p:sldMaster, which share the
// common slide data element.
type slidePartXML struct {
	CommonSlide struct {
		ShapeTree struct {
			Nodes []shapeNode `xml:",any"`
		} `xml:"spTree"`
	} `xml:"cSld"`
}

type shapeNode struct {
	XMLName xml.Name

	NvSpPr           *nonVisual `xml:"nvSpPr"`
	NvPicPr          *nonVisual `xml:"nvPicPr"`
	NvGraphicFramePr *nonVisual `xml:"nvGraphicFramePr"`
	NvGrpSpPr        *nonVisual `xml:"nvGrpSpPr"`
	NvCxnSpPr        *nonVisual `xml:"nvCxnSpPr"`

	SpPr    *shapeProps `xml:"spPr"`
	GrpSpPr *shapeProps `xml:"grpSpPr"`
	Xfrm    *transform  `xml:"xfrm"`

	TxBody *textBody `xml:"txBody"`
}

type nonVisual struct {
	CNvPr struct {
		ID   int    `xml:"id,attr"`
		Name string `xml:"name,attr"`
	} `xml:"cNvPr"`
	NvPr struct {
		Placeholder *placeholderXML `xml:"ph"`
	} `xml:"nvPr"`
}

type placeholderXML struct {
	Type string `xml:"type,attr"`
	Idx  string `xml:"idx,attr"`
}

type shapeProps struct {
	Xfrm *transform `xml:"xfrm"`
}

type transform struct {
	// Rot is in 60000ths of a degree.
	Rot int64 `xml:"rot,attr"`
	Off *struct {
		X int64 `xml:"x,attr"`
		Y int64 `xml:"y,attr"`
	} `xml:"off"`
	Ext *struct {
		Cx int64 `xml:"cx,attr"`
		Cy int64 `xml:"cy,attr"`
	} `xml:"ext"`
}

type textBody struct {
	Paragraphs []struct {
		Items []struct {
			XMLName xml.Name
			Text    string `xml:"t"`
		} `xml:",any"`
	} `xml:"p"`
}

// shapeElements are the spTree children that are drawn on the slide.
var shapeElements = map[string]bool{
	"sp":           true,
	"pic":          true,
	"graphicFrame": true,
	"grpSp":        true,
	"cxnSp":        true,
}

func (n *shapeNode) nonVisual() *nonVisual {
	for _, nv := range []*nonVisual{n.NvSpPr, n.NvPicPr, n.NvGraphicFramePr, n.NvGrpSpPr, n.NvCxnSpPr} {
		if nv != nil {
			return nv
		}
	}
	return nil
}

func (n *shapeNode) transform() *transform {
	switch {
	case n.SpPr != nil && n.SpPr.Xfrm != nil:
		return n.SpPr.Xfrm
	case n.GrpSpPr != nil && n.GrpSpPr.Xfrm != nil:
		return n.GrpSpPr.Xfrm
	default:
		return n.Xfrm
	}
}

// complete reports whether the transform carries both offset and extent.
func (t *transform) complete() bool {
	return t != nil && t.Off != nil && t.Ext != nil
}
