package deck

// placeholderFrame is a positioned placeholder on a layout or master.
type placeholderFrame struct {
	kind string
	idx  int
	xfrm *transform
}

// placeholderSet holds the frames a slide placeholder may inherit from.
type placeholderSet struct {
	layout []placeholderFrame
	master []placeholderFrame
}

// match finds the frame for a slide placeholder: on the layout by index, then
// by kind, then on the master by kind. It returns nil when nothing matches.
func (s *placeholderSet) match(ph *placeholderXML) *transform {
	idx := placeholderIdx(ph.Idx)
	kind := placeholderKind(ph.Type)

	for _, f := range s.layout {
		if f.idx == idx && (ph.Idx != "" || f.kind == kind) {
			return f.xfrm
		}
	}
	for _, f := range s.layout {
		if f.kind == kind {
			return f.xfrm
		}
	}
	for _, f := range s.master {
		if f.kind == kind {
			return f.xfrm
		}
	}
	return nil
}

// placeholderKind folds placeholder types onto the kinds masters define.
func placeholderKind(t string) string {
	switch t {
	case "title", "ctrTitle":
		return "title"
	case "", "obj", "body", "subTitle":
		return "body"
	default:
		return t
	}
}
