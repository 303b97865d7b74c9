package model

// ElementType is the type of an element placed on a Scene
type ElementType string

const (
	ElementTextBox ElementType = "text_box"
	ElementEllipse ElementType = "ellipse"
	ElementLine    ElementType = "line"
	ElementImage   ElementType = "image"
)

// Element is one committed canvas element
type Element struct {
	Handle    Handle      `json:"handle"`
	Type      ElementType `json:"type"`
	Name      string      `json:"name,omitempty"`
	Text      string      `json:"text,omitempty"`
	Bounds    Bounds      `json:"bounds"`
	Start     *Point      `json:"start,omitempty"`
	End       *Point      `json:"end,omitempty"`
	Font      *Font       `json:"font,omitempty"`
	Bullet    bool        `json:"bullet,omitempty"`
	Alignment Alignment   `json:"alignment,omitempty"`
	Rotation  float64     `json:"rotation,omitempty"`
	Fill      string      `json:"fill,omitempty"`
	Stroke    *Stroke     `json:"stroke,omitempty"`
	NoStroke  bool        `json:"no_stroke,omitempty"`
	SVG       string      `json:"svg,omitempty" masq:"secret"`
}

// Scene is the committed content of an in-memory canvas, in creation order
type Scene struct {
	Elements []*Element `json:"elements"`
}
