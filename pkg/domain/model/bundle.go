package model

// SlideBundle holds the markup fragments of one slide. Optional fields are
// empty when the entry is missing; Warnings explains each gap.
type SlideBundle struct {
	SlideNumber int    // Number parsed from the slide entry name, 0 if it has none
	SlideName   string // Entry name of the slide markup
	Slide       string // Slide markup, always present
	SlideRels   string // Slide relationships
	LayoutName  string
	Layout      string
	LayoutRels  string
	ThemeName   string
	Theme       string

	// Images maps entry name to SVG payload
	Images map[string][]byte
	// Relationships maps slide relationship id to the resolved entry name
	Relationships map[string]string
	Warnings      []string
}

// ImageByRelationship returns the payload of the image referenced by rID
func (b *SlideBundle) ImageByRelationship(rID string) ([]byte, bool) {
	name, ok := b.Relationships[rID]
	if !ok {
		return nil, false
	}
	data, ok := b.Images[name]
	return data, ok
}
