package ooxml

import (
	"encoding/xml"
	"io"
	"strings"
)

// Slide is a decoded slide or slide layout part
type Slide struct {
	Tree ShapeTree `xml:"cSld>spTree"`
}

// ParseSlide decodes a slide or slide layout part
func ParseSlide(markup string) (*Slide, error) {
	var slide Slide
	if err := decode(markup, &slide, "slide"); err != nil {
		return nil, err
	}
	return &slide, nil
}

// Node is one child of a shape tree. Exactly one field is set.
type Node struct {
	Shape     *Shape
	Connector *Connector
	Picture   *Picture
	Group     *ShapeTree
}

// ShapeTree is p:spTree or p:grpSp. Nodes keep document order, which is the
// stacking order of the slide.
type ShapeTree struct {
	Transform *Transform
	Nodes     []Node
}

// UnmarshalXML walks the children in order; encoding/xml would otherwise
// split them into one slice per element name.
func (g *ShapeTree) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := g.decodeChild(d, t); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (g *ShapeTree) decodeChild(d *xml.Decoder, t xml.StartElement) error {
	switch t.Name.Local {
	case "grpSpPr":
		var props struct {
			Transform *Transform `xml:"xfrm"`
		}
		if err := d.DecodeElement(&props, &t); err != nil {
			return err
		}
		g.Transform = props.Transform
	case "sp":
		var s Shape
		if err := d.DecodeElement(&s, &t); err != nil {
			return err
		}
		g.Nodes = append(g.Nodes, Node{Shape: &s})
	case "cxnSp":
		var c Connector
		if err := d.DecodeElement(&c, &t); err != nil {
			return err
		}
		g.Nodes = append(g.Nodes, Node{Connector: &c})
	case "pic":
		var p Picture
		if err := d.DecodeElement(&p, &t); err != nil {
			return err
		}
		g.Nodes = append(g.Nodes, Node{Picture: &p})
	case "grpSp":
		var sub ShapeTree
		if err := d.DecodeElement(&sub, &t); err != nil {
			return err
		}
		g.Nodes = append(g.Nodes, Node{Group: &sub})
	default:
		return d.Skip()
	}
	return nil
}

// NonVisual holds identity and placeholder information
type NonVisual struct {
	Props struct {
		ID   int    `xml:"id,attr"`
		Name string `xml:"name,attr"`
	} `xml:"cNvPr"`
	Placeholder *Placeholder `xml:"nvPr>ph"`
}

// Placeholder links a slide shape to a layout shape
type Placeholder struct {
	Type string `xml:"type,attr"`
	Idx  string `xml:"idx,attr"`
}

// Shape is p:sp
type Shape struct {
	NonVisual NonVisual   `xml:"nvSpPr"`
	Props     ShapeProps  `xml:"spPr"`
	Style     *ShapeStyle `xml:"style"`
	Text      *TextBody   `xml:"txBody"`
}

// Connector is p:cxnSp
type Connector struct {
	NonVisual NonVisual   `xml:"nvCxnSpPr"`
	Props     ShapeProps  `xml:"spPr"`
	Style     *ShapeStyle `xml:"style"`
}

// Picture is p:pic
type Picture struct {
	NonVisual NonVisual  `xml:"nvPicPr"`
	Blip      Blip       `xml:"blipFill>blip"`
	Props     ShapeProps `xml:"spPr"`
}

// Blip references image data. SVG pictures carry a raster fallback in
// r:embed and the vector part in an asvg:svgBlip extension.
type Blip struct {
	Embed      string `xml:"embed,attr"`
	Extensions []struct {
		SVG *struct {
			Embed string `xml:"embed,attr"`
		} `xml:"svgBlip"`
	} `xml:"extLst>ext"`
}

// SVGEmbed returns the relationship id of the vector part, if any
func (b Blip) SVGEmbed() string {
	for _, ext := range b.Extensions {
		if ext.SVG != nil && ext.SVG.Embed != "" {
			return ext.SVG.Embed
		}
	}
	return ""
}

// ShapeProps is p:spPr
type ShapeProps struct {
	Transform *Transform `xml:"xfrm"`
	Geometry  *struct {
		Preset string `xml:"prst,attr"`
	} `xml:"prstGeom"`
	NoFill    *struct{}  `xml:"noFill"`
	SolidFill *Color     `xml:"solidFill"`
	Line      *LineProps `xml:"ln"`
}

// Preset returns the preset geometry name or ""
func (p ShapeProps) Preset() string {
	if p.Geometry == nil {
		return ""
	}
	return p.Geometry.Preset
}

// LineProps is a:ln
type LineProps struct {
	Width     int64     `xml:"w,attr"`
	NoFill    *struct{} `xml:"noFill"`
	SolidFill *Color    `xml:"solidFill"`
}

// ShapeStyle is p:style; its references carry the theme colour to fall back on
type ShapeStyle struct {
	LineRef *Color `xml:"lnRef"`
	FillRef *Color `xml:"fillRef"`
	FontRef *Color `xml:"fontRef"`
}

// Color is any DrawingML colour choice
type Color struct {
	RGB    *valueXML `xml:"srgbClr"`
	Scheme *valueXML `xml:"schemeClr"`
	System *struct {
		LastColor string `xml:"lastClr,attr"`
	} `xml:"sysClr"`
}

// Resolve returns the colour as #RRGGBB, or "" when it cannot be resolved
func (c *Color) Resolve(theme *Theme) string {
	if c == nil {
		return ""
	}
	switch {
	case c.RGB != nil:
		return hexColor(c.RGB.Val)
	case c.System != nil:
		return hexColor(c.System.LastColor)
	case c.Scheme != nil:
		v, _ := theme.Color(c.Scheme.Val)
		return v
	}
	return ""
}

// Transform is a:xfrm, in EMU and 60000ths of a degree
type Transform struct {
	Rotation    int64  `xml:"rot,attr"`
	FlipH       bool   `xml:"flipH,attr"`
	FlipV       bool   `xml:"flipV,attr"`
	Offset      Point  `xml:"off"`
	Extent      Extent `xml:"ext"`
	ChildOffset Point  `xml:"chOff"`
	ChildExtent Extent `xml:"chExt"`
}

// Point is a:off / a:chOff
type Point struct {
	X int64 `xml:"x,attr"`
	Y int64 `xml:"y,attr"`
}

// Extent is a:ext / a:chExt
type Extent struct {
	Cx int64 `xml:"cx,attr"`
	Cy int64 `xml:"cy,attr"`
}

// TextBody is p:txBody
type TextBody struct {
	Paragraphs []Paragraph `xml:"p"`
}

// Paragraph is a:p. Items keeps runs, fields and breaks in order.
type Paragraph struct {
	Props *ParagraphProps `xml:"pPr"`
	Items []ParagraphItem `xml:",any"`
}

// ParagraphProps is a:pPr
type ParagraphProps struct {
	Align      string `xml:"algn,attr"`
	BulletChar *struct {
		Char string `xml:"char,attr"`
	} `xml:"buChar"`
	AutoNumber *struct{} `xml:"buAutoNum"`
	NoBullet   *struct{} `xml:"buNone"`
}

// ParagraphItem is a:r, a:fld, a:br or a:endParaRPr
type ParagraphItem struct {
	XMLName xml.Name
	Props   *RunProps `xml:"rPr"`
	Text    string    `xml:"t"`
}

// RunProps is a:rPr; Size is in hundredths of a point
type RunProps struct {
	Size   int  `xml:"sz,attr"`
	Bold   bool `xml:"b,attr"`
	Italic bool `xml:"i,attr"`
	Latin  *struct {
		Typeface string `xml:"typeface,attr"`
	} `xml:"latin"`
	SolidFill *Color `xml:"solidFill"`
}

// Text returns the paragraph text; a:br becomes a line feed
func (p Paragraph) Text() string {
	var sb strings.Builder
	for _, item := range p.Items {
		switch item.XMLName.Local {
		case "r", "fld":
			sb.WriteString(item.Text)
		case "br":
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// FirstRunProps returns the properties of the first run carrying any
func (p Paragraph) FirstRunProps() *RunProps {
	for _, item := range p.Items {
		if (item.XMLName.Local == "r" || item.XMLName.Local == "fld") && item.Props != nil {
			return item.Props
		}
	}
	return nil
}

// Bullet reports whether the paragraph is bulleted and its glyph, if any
func (p Paragraph) Bullet() (bool, string) {
	if p.Props == nil || p.Props.NoBullet != nil {
		return false, ""
	}
	if p.Props.BulletChar != nil {
		return true, p.Props.BulletChar.Char
	}
	if p.Props.AutoNumber != nil {
		return true, ""
	}
	return false, ""
}

// Align returns the a:pPr algn value or ""
func (p Paragraph) Align() string {
	if p.Props == nil {
		return ""
	}
	return p.Props.Align
}
