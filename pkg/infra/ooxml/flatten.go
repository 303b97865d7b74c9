package ooxml

// Placed is a leaf node of a shape tree with its frame mapped into slide
// coordinates. Frame is nil when the element inherits its geometry.
type Placed struct {
	Node
	Frame *Transform
}

type frameMapper func(Transform) Transform

// Flatten returns the leaf nodes of the tree in stacking order, applying the
// child coordinate space of every enclosing group.
func (g *ShapeTree) Flatten() []Placed {
	var result []Placed
	g.flatten(func(t Transform) Transform { return t }, &result)
	return result
}

func (g *ShapeTree) flatten(parent frameMapper, result *[]Placed) {
	mapper := g.mapper(parent)

	for _, node := range g.Nodes {
		if node.Group != nil {
			node.Group.flatten(mapper, result)
			continue
		}

		var frame *Transform
		if t := node.transform(); t != nil {
			mapped := mapper(*t)
			frame = &mapped
		}
		*result = append(*result, Placed{Node: node, Frame: frame})
	}
}

func (g *ShapeTree) mapper(parent frameMapper) frameMapper {
	if g.Transform == nil {
		return parent
	}
	group := *g.Transform
	sx := scale(group.Extent.Cx, group.ChildExtent.Cx)
	sy := scale(group.Extent.Cy, group.ChildExtent.Cy)

	return func(t Transform) Transform {
		t.Offset.X = group.Offset.X + int64(float64(t.Offset.X-group.ChildOffset.X)*sx)
		t.Offset.Y = group.Offset.Y + int64(float64(t.Offset.Y-group.ChildOffset.Y)*sy)
		t.Extent.Cx = int64(float64(t.Extent.Cx) * sx)
		t.Extent.Cy = int64(float64(t.Extent.Cy) * sy)
		t.Rotation += group.Rotation
		return parent(t)
	}
}

func scale(extent, childExtent int64) float64 {
	if extent == 0 || childExtent == 0 {
		return 1
	}
	return float64(extent) / float64(childExtent)
}

func (n Node) transform() *Transform {
	switch {
	case n.Shape != nil:
		return n.Shape.Props.Transform
	case n.Connector != nil:
		return n.Connector.Props.Transform
	case n.Picture != nil:
		return n.Picture.Props.Transform
	}
	return nil
}

// PlaceholderFrames indexes the frames of a layout's placeholders by idx and
// by type
type PlaceholderFrames struct {
	byIdx  map[string]Transform
	byType map[string]Transform
}

// NewPlaceholderFrames collects placeholder frames from a layout; layout may be nil
func NewPlaceholderFrames(layout *Slide) *PlaceholderFrames {
	p := &PlaceholderFrames{
		byIdx:  make(map[string]Transform),
		byType: make(map[string]Transform),
	}
	if layout == nil {
		return p
	}

	for _, placed := range layout.Tree.Flatten() {
		if placed.Shape == nil || placed.Frame == nil {
			continue
		}
		ph := placed.Shape.NonVisual.Placeholder
		if ph == nil {
			continue
		}
		if ph.Idx != "" {
			if _, ok := p.byIdx[ph.Idx]; !ok {
				p.byIdx[ph.Idx] = *placed.Frame
			}
		}
		if _, ok := p.byType[placeholderType(ph)]; !ok {
			p.byType[placeholderType(ph)] = *placed.Frame
		}
	}
	return p
}

// Lookup returns the layout frame of a slide placeholder
func (p *PlaceholderFrames) Lookup(ph *Placeholder) (Transform, bool) {
	if ph == nil {
		return Transform{}, false
	}
	if ph.Idx != "" {
		if t, ok := p.byIdx[ph.Idx]; ok {
			return t, true
		}
	}
	t, ok := p.byType[placeholderType(ph)]
	return t, ok
}

func placeholderType(ph *Placeholder) string {
	switch ph.Type {
	case "":
		return "body"
	case "ctrTitle":
		return "title"
	default:
		return ph.Type
	}
}
