package memory

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/domain/types"
)

// svgAspect returns height/width of an SVG document, taken from the root
// width and height attributes or else the viewBox. 1 when neither is usable.
func svgAspect(payload []byte) (float64, error) {
	decoder := xml.NewDecoder(bytes.NewReader(payload))
	for {
		tok, err := decoder.Token()
		if err != nil {
			return 0, goerr.Wrap(err, "failed to read SVG payload", goerr.T(types.ErrTagFormat))
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "svg" {
			return 0, goerr.New("payload is not an SVG document",
				goerr.V("root", start.Name.Local),
				goerr.T(types.ErrTagFormat),
			)
		}
		return aspectOf(start.Attr), nil
	}
}

func aspectOf(attrs []xml.Attr) float64 {
	var width, height, viewBox string
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "width":
			width = attr.Value
		case "height":
			height = attr.Value
		case "viewBox":
			viewBox = attr.Value
		}
	}

	w, okW := length(width)
	h, okH := length(height)
	if okW && okH {
		return h / w
	}

	fields := strings.FieldsFunc(viewBox, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) == 4 {
		w, okW = length(fields[2])
		h, okH = length(fields[3])
		if okW && okH {
			return h / w
		}
	}
	return 1
}

// length parses an SVG length; percentages are not usable here
func length(v string) (float64, bool) {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if v == "" || strings.HasSuffix(v, "%") {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}
