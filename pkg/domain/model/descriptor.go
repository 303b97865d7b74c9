package model

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/domain/types"
)

// DescriptorKind identifies a ShapeDescriptor variant
type DescriptorKind string

const (
	KindText  DescriptorKind = "text"
	KindShape DescriptorKind = "shape"
	KindLine  DescriptorKind = "line"
	KindImage DescriptorKind = "image"
)

// Geometry is the preset geometry of a GeometricDescriptor
type Geometry string

const (
	GeometryEllipse Geometry = "ellipse"
)

// Alignment is the horizontal text alignment. AlignUnset leaves the canvas default.
type Alignment string

const (
	AlignUnset  Alignment = ""
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

const (
	// FillNone means no fill is applied to a geometric shape
	FillNone = "N/A"
	// LineWeight is the stroke weight of every reconstructed connector
	LineWeight = 2.0
	// DefaultLineColor is used when a connector carries no colour
	DefaultLineColor = "#000000"
)

// EMUFrame is a position and size in package units
type EMUFrame struct {
	X      int64
	Y      int64
	Width  int64
	Height int64
}

// ShapeDescriptor is the normalized, source-independent description of one
// reconstructable element. Geometry is always in canvas units.
type ShapeDescriptor interface {
	Kind() DescriptorKind
}

// TextDescriptor is a text container
type TextDescriptor struct {
	ID                  int       `json:"id" validate:"gte=0"`
	Text                string    `json:"text"`
	X                   float64   `json:"x"`
	Y                   float64   `json:"y"`
	Width               float64   `json:"width" validate:"gt=0"`
	Height              float64   `json:"height" validate:"gt=0"`
	FontName            string    `json:"fontName,omitempty"`
	FontSize            float64   `json:"fontSize,omitempty" validate:"gte=0"`
	IsBold              bool      `json:"isBold"`
	IsItalic            bool      `json:"isItalic"`
	FontColor           string    `json:"fontColor,omitempty"`
	IsBullet            bool      `json:"isBullet"`
	HorizontalAlignment Alignment `json:"horizontalAlignment,omitempty" validate:"omitempty,oneof=left center right"`
}

// TextStyle groups the formatting fields of a TextDescriptor
type TextStyle struct {
	FontName  string
	FontSize  float64
	Bold      bool
	Italic    bool
	FontColor string
	Bullet    bool
	Alignment Alignment
}

func (*TextDescriptor) Kind() DescriptorKind { return KindText }

// GeometricDescriptor is a preset shape such as an ellipse
type GeometricDescriptor struct {
	ID          int      `json:"id" validate:"gte=0"`
	Geometry    Geometry `json:"geometry" validate:"oneof=ellipse"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Width       float64  `json:"width" validate:"gt=0"`
	Height      float64  `json:"height" validate:"gt=0"`
	Rotation    float64  `json:"rotation"`
	FillColor   string   `json:"fillColor" validate:"required"`
	LineVisible bool     `json:"lineVisible"`
}

func (*GeometricDescriptor) Kind() DescriptorKind { return KindShape }

// LineDescriptor is a straight connector. Width and Height are a signed delta
// from the start point, not an absolute end point.
type LineDescriptor struct {
	ID     int     `json:"id" validate:"gte=0"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Color  string  `json:"color" validate:"required"`
	Weight float64 `json:"weight" validate:"gt=0"`
}

func (*LineDescriptor) Kind() DescriptorKind { return KindLine }

// Start returns the connector start point
func (d LineDescriptor) Start() Point { return Point{X: d.X, Y: d.Y} }

// End returns the connector end point
func (d LineDescriptor) End() Point { return Point{X: d.X + d.Width, Y: d.Y + d.Height} }

// ImageDescriptor is an embedded vector image. Height follows the aspect
// ratio of the payload.
type ImageDescriptor struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width" validate:"gt=0"`
	Payload []byte  `json:"-" masq:"secret" validate:"min=1"`
}

func (*ImageDescriptor) Kind() DescriptorKind { return KindImage }

// NewTextDescriptor builds a text descriptor from a package-unit frame
func NewTextDescriptor(id int, text string, frame EMUFrame, style TextStyle) *TextDescriptor {
	return &TextDescriptor{
		ID:                  id,
		Text:                text,
		X:                   FromEMU(frame.X),
		Y:                   FromEMU(frame.Y),
		Width:               FromEMU(frame.Width),
		Height:              FromEMU(frame.Height),
		FontName:            style.FontName,
		FontSize:            style.FontSize,
		IsBold:              style.Bold,
		IsItalic:            style.Italic,
		FontColor:           style.FontColor,
		IsBullet:            style.Bullet,
		HorizontalAlignment: style.Alignment,
	}
}

// NewEllipseDescriptor builds an ellipse. rotation is in 60000ths of a degree
// and an empty fill becomes FillNone.
func NewEllipseDescriptor(id int, frame EMUFrame, rotation int64, fill string) *GeometricDescriptor {
	if fill == "" {
		fill = FillNone
	}
	return &GeometricDescriptor{
		ID:        id,
		Geometry:  GeometryEllipse,
		X:         FromEMU(frame.X),
		Y:         FromEMU(frame.Y),
		Width:     FromEMU(frame.Width),
		Height:    FromEMU(frame.Height),
		Rotation:  DegreesFromAngle(rotation),
		FillColor: fill,
	}
}

// NewLineDescriptor builds a connector from a start point and a signed
// package-unit delta. A zero delta component becomes LineEpsilon.
func NewLineDescriptor(id int, frame EMUFrame, color string) *LineDescriptor {
	if color == "" {
		color = DefaultLineColor
	}
	d := &LineDescriptor{
		ID:     id,
		X:      FromEMU(frame.X),
		Y:      FromEMU(frame.Y),
		Width:  FromEMU(frame.Width),
		Height: FromEMU(frame.Height),
		Color:  color,
		Weight: LineWeight,
	}
	if d.Width == 0 {
		d.Width = LineEpsilon
	}
	if d.Height == 0 {
		d.Height = LineEpsilon
	}
	return d
}

// NewImageDescriptor builds an image placed at (x, y) with the given width
func NewImageDescriptor(x, y, width int64, payload []byte) *ImageDescriptor {
	return &ImageDescriptor{
		X:       FromEMU(x),
		Y:       FromEMU(y),
		Width:   FromEMU(width),
		Payload: payload,
	}
}

var bulletGlyphs = []rune{'•', '◦', '▪', '‣', '○', '■'}

// StripBulletGlyph removes a leading bullet glyph baked into a line of text
func StripBulletGlyph(line string) (string, bool) {
	r, size := utf8.DecodeRuneInString(line)
	for _, g := range bulletGlyphs {
		if r == g {
			return strings.TrimLeft(line[size:], " \t"), true
		}
	}
	return line, false
}

// TextRow is one line of a text body with its own bullet flag
type TextRow struct {
	Text   string
	Bullet bool
}

// SplitRows turns a text box into one descriptor per row, stacked in
// equal-height rows inside the original frame. The first row keeps the
// original id; nextID allocates the rest.
func (d *TextDescriptor) SplitRows(rows []TextRow, nextID func() int) []*TextDescriptor {
	if len(rows) == 0 {
		return nil
	}
	rowHeight := d.Height / float64(len(rows))

	result := make([]*TextDescriptor, 0, len(rows))
	for i, r := range rows {
		row := *d
		if i > 0 {
			row.ID = nextID()
		}
		row.Y = d.Y + rowHeight*float64(i)
		row.Height = rowHeight
		row.Text = r.Text
		row.IsBullet = r.Bullet
		result = append(result, &row)
	}
	return result
}

// SplitLines splits text whose bullets are baked in as leading glyphs, such
// as fixture text. Lines starting with a known glyph lose it and get
// IsBullet set; a bulleted descriptor bullets every line.
func (d *TextDescriptor) SplitLines(nextID func() int) []*TextDescriptor {
	lines := strings.Split(d.Text, "\n")
	rows := make([]TextRow, len(lines))
	for i, line := range lines {
		text, bullet := StripBulletGlyph(line)
		rows[i] = TextRow{Text: text, Bullet: d.IsBullet || bullet}
	}
	return d.SplitRows(rows, nextID)
}

var validate = validator.New()

// Validate checks the field constraints of a descriptor
func Validate(d ShapeDescriptor) error {
	if d == nil {
		return goerr.New("descriptor is nil", goerr.T(types.ErrTagInvalidInput))
	}
	if err := validate.Struct(d); err != nil {
		return goerr.Wrap(err, "invalid descriptor",
			goerr.V("kind", d.Kind()),
			goerr.T(types.ErrTagInvalidInput),
		)
	}
	return nil
}
