package model

// Handle identifies an element created on a canvas
type Handle string

// Point is a position in canvas units
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is a rectangle in canvas units
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Font is the character formatting applied to a whole text container.
// An empty Color leaves the canvas default.
type Font struct {
	Family string  `json:"family"`
	Size   float64 `json:"size"`
	Bold   bool    `json:"bold"`
	Italic bool    `json:"italic"`
	Color  string  `json:"color,omitempty"`
}

// Stroke is an outline or connector stroke
type Stroke struct {
	Color  string  `json:"color"`
	Weight float64 `json:"weight"`
}
