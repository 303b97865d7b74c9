// Package ooxml decodes the subset of PresentationML and DrawingML needed to
// rebuild slide layout: relationships, shape trees and theme schemes.
package ooxml

import (
	"encoding/xml"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/domain/types"
	"golang.org/x/net/html/charset"
)

func newDecoder(markup string) *xml.Decoder {
	decoder := xml.NewDecoder(strings.NewReader(markup))
	decoder.CharsetReader = charset.NewReaderLabel
	return decoder
}

func decode(markup string, v any, part string) error {
	if err := newDecoder(markup).Decode(v); err != nil {
		return goerr.Wrap(err, "failed to decode markup",
			goerr.V("part", part),
			goerr.T(types.ErrTagFormat),
		)
	}
	return nil
}
