package ooxml

import (
	"path"
	"strings"
)

// Relationship type suffixes, matched against the last path segment of Type
const (
	RelSlideLayout = "slideLayout"
	RelSlideMaster = "slideMaster"
	RelTheme       = "theme"
	RelImage       = "image"
)

// Relationship is one entry of a .rels part
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

// External reports whether the target lives outside the package
func (r Relationship) External() bool {
	return strings.EqualFold(r.TargetMode, "External")
}

// Is reports whether the relationship type ends with kind
func (r Relationship) Is(kind string) bool {
	return path.Base(r.Type) == kind
}

// Relationships is a decoded .rels part
type Relationships struct {
	Items []Relationship `xml:"Relationship"`
}

// ParseRelationships decodes a .rels part
func ParseRelationships(markup string) (*Relationships, error) {
	var rels Relationships
	if err := decode(markup, &rels, "relationships"); err != nil {
		return nil, err
	}
	return &rels, nil
}

// First returns the first internal relationship of the given kind
func (r *Relationships) First(kind string) (Relationship, bool) {
	for _, item := range r.Items {
		if item.Is(kind) && !item.External() {
			return item, true
		}
	}
	return Relationship{}, false
}

// All returns every internal relationship of the given kind in document order
func (r *Relationships) All(kind string) []Relationship {
	var found []Relationship
	for _, item := range r.Items {
		if item.Is(kind) && !item.External() {
			found = append(found, item)
		}
	}
	return found
}

// RelsName returns the relationships part that belongs to entry,
// e.g. ppt/slides/slide1.xml -> ppt/slides/_rels/slide1.xml.rels
func RelsName(entry string) string {
	return path.Join(path.Dir(entry), "_rels", path.Base(entry)+".rels")
}

// ResolveTarget resolves a relationship target against its source part
func ResolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join(path.Dir(source), target)
}
