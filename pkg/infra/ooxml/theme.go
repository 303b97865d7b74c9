package ooxml

import (
	"encoding/xml"
	"strings"
)

// Theme holds the colour and font schemes of a theme part
type Theme struct {
	Colors     map[string]string // Scheme slot (dk1, accent1, ...) to #RRGGBB
	MajorLatin string
	MinorLatin string
}

type themeXML struct {
	ColorScheme struct {
		Entries []struct {
			XMLName xml.Name
			RGB     *valueXML `xml:"srgbClr"`
			System  *struct {
				LastColor string `xml:"lastClr,attr"`
			} `xml:"sysClr"`
		} `xml:",any"`
	} `xml:"themeElements>clrScheme"`
	MajorLatin typefaceXML `xml:"themeElements>fontScheme>majorFont>latin"`
	MinorLatin typefaceXML `xml:"themeElements>fontScheme>minorFont>latin"`
}

type valueXML struct {
	Val string `xml:"val,attr"`
}

type typefaceXML struct {
	Typeface string `xml:"typeface,attr"`
}

// ParseTheme decodes a theme part
func ParseTheme(markup string) (*Theme, error) {
	var raw themeXML
	if err := decode(markup, &raw, "theme"); err != nil {
		return nil, err
	}

	theme := &Theme{
		Colors:     make(map[string]string),
		MajorLatin: raw.MajorLatin.Typeface,
		MinorLatin: raw.MinorLatin.Typeface,
	}
	for _, entry := range raw.ColorScheme.Entries {
		switch {
		case entry.RGB != nil:
			theme.Colors[entry.XMLName.Local] = hexColor(entry.RGB.Val)
		case entry.System != nil && entry.System.LastColor != "":
			theme.Colors[entry.XMLName.Local] = hexColor(entry.System.LastColor)
		}
	}
	return theme, nil
}

var schemeAliases = map[string]string{
	"tx1": "dk1",
	"bg1": "lt1",
	"tx2": "dk2",
	"bg2": "lt2",
}

// Color resolves a scheme colour name such as accent1 or tx1
func (t *Theme) Color(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	if alias, ok := schemeAliases[name]; ok {
		name = alias
	}
	c, ok := t.Colors[name]
	return c, ok
}

// Font resolves theme font references (+mj-lt, +mn-lt); other typefaces are
// returned unchanged
func (t *Theme) Font(typeface string) string {
	if !strings.HasPrefix(typeface, "+") {
		return typeface
	}
	if t == nil {
		return ""
	}
	switch typeface {
	case "+mj-lt":
		return t.MajorLatin
	case "+mn-lt":
		return t.MinorLatin
	default:
		return ""
	}
}

func hexColor(v string) string {
	if v == "" {
		return ""
	}
	return "#" + strings.ToUpper(v)
}
