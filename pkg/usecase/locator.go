package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/domain/interfaces"
	"github.com/m-mizutani/reslide/pkg/domain/model"
	"github.com/m-mizutani/reslide/pkg/domain/types"
	"github.com/m-mizutani/reslide/pkg/infra/ooxml"
)

const (
	slidesDir  = "ppt/slides/"
	markupExt  = ".xml"
	vectorExt  = ".svg"
	layoutsFmt = "ppt/slideLayouts/slideLayout%d.xml"
	themeFmt   = "ppt/theme/theme%d.xml"
)

var slideNumberPattern = regexp.MustCompile(`(\d+)\.xml$`)

// SlideEntries returns the slide markup entries of a package in lexical order
func SlideEntries(archive interfaces.Archive) []string {
	var slides []string
	for _, name := range archive.EntryNames() {
		if !strings.HasPrefix(name, slidesDir) || !strings.HasSuffix(name, markupExt) {
			continue
		}
		// skip _rels and any other nested directory
		if strings.Contains(strings.TrimPrefix(name, slidesDir), "/") {
			continue
		}
		slides = append(slides, name)
	}
	return slides
}

// Locate collects the markup fragments of one slide. slideIndex 0 selects the
// first slide entry in lexical order; a positive index selects slide<N>.xml.
// Only missing slide markup is fatal; every other gap becomes a warning.
func Locate(ctx context.Context, archive interfaces.Archive, slideIndex int) (*model.SlideBundle, error) {
	logger := ctxlog.From(ctx)

	if slideIndex < 0 {
		return nil, goerr.New("slide index must not be negative",
			goerr.V("slide_index", slideIndex),
			goerr.T(types.ErrTagInvalidInput),
		)
	}

	slides := SlideEntries(archive)
	if len(slides) == 0 {
		logger.Error("No slides found in the package")
		return nil, goerr.New("no slides found in the package", goerr.T(types.ErrTagNotFound))
	}

	slideName := slides[0]
	if slideIndex > 0 {
		slideName = fmt.Sprintf("%sslide%d%s", slidesDir, slideIndex, markupExt)
		if !archive.Has(slideName) {
			logger.Error("Slide not found in the package", "slide", slideName, "slide_count", len(slides))
			return nil, goerr.New("slide not found in the package",
				goerr.V("slide", slideName),
				goerr.V("slide_count", len(slides)),
				goerr.T(types.ErrTagNotFound),
			)
		}
	}

	slideText, err := archive.ReadText(slideName)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read slide markup", goerr.V("slide", slideName))
	}

	l := &locator{
		archive: archive,
		bundle: &model.SlideBundle{
			SlideNumber:   entryNumber(slideName),
			SlideName:     slideName,
			Slide:         slideText,
			Images:        make(map[string][]byte),
			Relationships: make(map[string]string),
		},
		logger: logger,
	}
	l.locate()

	logger.Info("Located slide fragments",
		"slide", l.bundle.SlideName,
		"layout", l.bundle.LayoutName,
		"theme", l.bundle.ThemeName,
		"image_count", len(l.bundle.Images),
		"warning_count", len(l.bundle.Warnings),
	)

	return l.bundle, nil
}

type locator struct {
	archive interfaces.Archive
	bundle  *model.SlideBundle
	logger  *slog.Logger
}

func (l *locator) warn(msg string, name string) {
	l.logger.Warn(msg, "entry", name, "slide", l.bundle.SlideName)
	l.bundle.Warnings = append(l.bundle.Warnings, msg+": "+name)
}

// readOptional reads an entry whose absence is not fatal. ok reports whether
// the entry exists and could be read, even when it is empty.
func (l *locator) readOptional(name, what string) (string, bool) {
	if !l.archive.Has(name) {
		l.warn(what+" not found", name)
		return "", false
	}
	text, err := l.archive.ReadText(name)
	if err != nil {
		l.warn(what+" is unreadable", name)
		return "", false
	}
	if text == "" {
		l.warn(what+" is empty", name)
	}
	return text, true
}

func (l *locator) relationships(source, text, what string) *ooxml.Relationships {
	if text == "" {
		return nil
	}
	rels, err := ooxml.ParseRelationships(text)
	if err != nil {
		l.warn(what+" is malformed", ooxml.RelsName(source))
		return nil
	}
	return rels
}

func (l *locator) locate() {
	b := l.bundle
	number := b.SlideNumber
	if number == 0 {
		number = 1
	}

	slideRelsName := ooxml.RelsName(b.SlideName)
	b.SlideRels, _ = l.readOptional(slideRelsName, "slide relationships")
	slideRels := l.relationships(b.SlideName, b.SlideRels, "slide relationships")

	// layout
	b.LayoutName = fmt.Sprintf(layoutsFmt, number)
	if slideRels != nil {
		if rel, ok := slideRels.First(ooxml.RelSlideLayout); ok {
			b.LayoutName = ooxml.ResolveTarget(b.SlideName, rel.Target)
		}
	}
	var ok bool
	if b.Layout, ok = l.readOptional(b.LayoutName, "slide layout"); ok {
		b.LayoutRels, _ = l.readOptional(ooxml.RelsName(b.LayoutName), "layout relationships")
	} else {
		b.LayoutName = ""
	}

	// theme
	b.ThemeName = l.themeName(number)
	if b.Theme, ok = l.readOptional(b.ThemeName, "theme"); !ok {
		b.ThemeName = ""
	}

	// vector images referenced by the slide
	if slideRels == nil {
		return
	}
	for _, rel := range slideRels.All(ooxml.RelImage) {
		name := ooxml.ResolveTarget(b.SlideName, rel.Target)
		if !strings.EqualFold(path.Ext(name), vectorExt) {
			continue
		}
		b.Relationships[rel.ID] = name
		if _, done := b.Images[name]; done {
			continue
		}
		data, err := l.archive.ReadBytes(name)
		if err != nil {
			l.warn("vector image not found", name)
			continue
		}
		b.Images[name] = data
	}
}

// themeName follows layout -> master -> theme, falling back to theme<N>.xml
func (l *locator) themeName(number int) string {
	fallback := fmt.Sprintf(themeFmt, number)
	b := l.bundle
	if b.LayoutRels == "" {
		return fallback
	}

	layoutRels := l.relationships(b.LayoutName, b.LayoutRels, "layout relationships")
	if layoutRels == nil {
		return fallback
	}
	masterRel, ok := layoutRels.First(ooxml.RelSlideMaster)
	if !ok {
		return fallback
	}
	masterName := ooxml.ResolveTarget(b.LayoutName, masterRel.Target)

	masterRelsText, err := l.archive.ReadText(ooxml.RelsName(masterName))
	if err != nil {
		l.warn("master relationships not found", ooxml.RelsName(masterName))
		return fallback
	}
	masterRels := l.relationships(masterName, masterRelsText, "master relationships")
	if masterRels == nil {
		return fallback
	}
	themeRel, ok := masterRels.First(ooxml.RelTheme)
	if !ok {
		return fallback
	}
	return ooxml.ResolveTarget(masterName, themeRel.Target)
}

func entryNumber(name string) int {
	m := slideNumberPattern.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
