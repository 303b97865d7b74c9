package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/domain/interfaces"
	"github.com/m-mizutani/reslide/pkg/domain/model"
	"github.com/m-mizutani/reslide/pkg/domain/types"
	"github.com/m-mizutani/reslide/pkg/infra/ooxml"
)

// TextMode selects how multi-paragraph text bodies become descriptors
type TextMode string

const (
	// TextModeMultiLine keeps a text body in one box with embedded line breaks
	TextModeMultiLine TextMode = "multiline"
	// TextModePerLine emits one descriptor per visual line
	TextModePerLine TextMode = "perline"
)

const defaultBulletGlyph = "•"

// ParseTextMode converts a flag value into a TextMode
func ParseTextMode(s string) (TextMode, error) {
	switch m := TextMode(s); m {
	case TextModeMultiLine, TextModePerLine:
		return m, nil
	default:
		return "", goerr.New("unknown text mode",
			goerr.V("mode", s),
			goerr.T(types.ErrTagInvalidInput),
		)
	}
}

type markupExtractor struct {
	textMode TextMode
}

// ExtractorOption configures the markup extractor
type ExtractorOption func(*markupExtractor)

// WithTextMode sets the text construction path
func WithTextMode(mode TextMode) ExtractorOption {
	return func(x *markupExtractor) {
		x.textMode = mode
	}
}

// NewMarkupExtractor creates an extractor that reads descriptors from slide markup
func NewMarkupExtractor(opts ...ExtractorOption) interfaces.DescriptorExtractor {
	x := &markupExtractor{
		textMode: TextModeMultiLine,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// extraction holds the per-call state of one slide
type extraction struct {
	bundle *model.SlideBundle
	theme  *ooxml.Theme
	frames *ooxml.PlaceholderFrames
	logger *slog.Logger
	nextID int
	mode   TextMode
}

func (e *extraction) allocateID() int {
	e.nextID++
	return e.nextID
}

// ExtractDescriptors converts the slide shape tree into descriptors in
// stacking order. Elements that cannot be represented are skipped.
func (x *markupExtractor) ExtractDescriptors(ctx context.Context, bundle *model.SlideBundle) ([]model.ShapeDescriptor, error) {
	logger := ctxlog.From(ctx)

	if bundle == nil || bundle.Slide == "" {
		return nil, goerr.New("slide markup is empty", goerr.T(types.ErrTagNotFound))
	}

	slide, err := ooxml.ParseSlide(bundle.Slide)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse slide markup", goerr.V("slide", bundle.SlideName))
	}

	e := &extraction{
		bundle: bundle,
		logger: logger,
		mode:   x.textMode,
	}

	if bundle.Theme != "" {
		if e.theme, err = ooxml.ParseTheme(bundle.Theme); err != nil {
			logger.Warn("Ignoring malformed theme", "theme", bundle.ThemeName, "error", err)
		}
	}

	var layout *ooxml.Slide
	if bundle.Layout != "" {
		if layout, err = ooxml.ParseSlide(bundle.Layout); err != nil {
			logger.Warn("Ignoring malformed layout", "layout", bundle.LayoutName, "error", err)
		}
	}
	e.frames = ooxml.NewPlaceholderFrames(layout)

	placed := slide.Tree.Flatten()
	for _, p := range placed {
		if id := nodeID(p.Node); id > e.nextID {
			e.nextID = id
		}
	}

	var descriptors []model.ShapeDescriptor
	for _, p := range placed {
		var found []model.ShapeDescriptor
		switch {
		case p.Shape != nil:
			found = e.shape(p.Shape, p.Frame)
		case p.Connector != nil:
			found = e.connector(p.Connector.NonVisual, p.Connector.Props, p.Connector.Style, p.Frame)
		case p.Picture != nil:
			found = e.picture(p.Picture, p.Frame)
		}

		for _, d := range found {
			if err := model.Validate(d); err != nil {
				logger.Warn("Dropping invalid descriptor", "kind", d.Kind(), "name", model.DisplayName(d), "error", err)
				continue
			}
			descriptors = append(descriptors, d)
		}
	}

	logger.Info("Extracted descriptors from slide markup",
		"slide", bundle.SlideName,
		"element_count", len(placed),
		"descriptor_count", len(descriptors),
	)

	return descriptors, nil
}

func nodeID(n ooxml.Node) int {
	switch {
	case n.Shape != nil:
		return n.Shape.NonVisual.Props.ID
	case n.Connector != nil:
		return n.Connector.NonVisual.Props.ID
	case n.Picture != nil:
		return n.Picture.NonVisual.Props.ID
	}
	return 0
}

func toFrame(t ooxml.Transform) model.EMUFrame {
	return model.EMUFrame{
		X:      t.Offset.X,
		Y:      t.Offset.Y,
		Width:  t.Extent.Cx,
		Height: t.Extent.Cy,
	}
}

func (e *extraction) shape(s *ooxml.Shape, frame *ooxml.Transform) []model.ShapeDescriptor {
	if frame == nil {
		if inherited, ok := e.frames.Lookup(s.NonVisual.Placeholder); ok {
			frame = &inherited
		}
	}
	if frame == nil {
		e.logger.Debug("Skipping shape without geometry", "id", s.NonVisual.Props.ID, "name", s.NonVisual.Props.Name)
		return nil
	}

	var result []model.ShapeDescriptor
	switch preset := s.Props.Preset(); preset {
	case "line", "straightConnector1":
		return e.connector(s.NonVisual, s.Props, s.Style, frame)
	case "ellipse":
		result = append(result, model.NewEllipseDescriptor(
			s.NonVisual.Props.ID,
			toFrame(*frame),
			frame.Rotation,
			e.fill(s.Props, s.Style),
		))
	case "", "rect":
	default:
		if s.Text == nil {
			e.logger.Debug("Skipping unsupported geometry", "id", s.NonVisual.Props.ID, "preset", preset)
		}
	}

	if s.Text != nil {
		result = append(result, e.text(s, toFrame(*frame))...)
	}
	return result
}

func (e *extraction) fill(props ooxml.ShapeProps, style *ooxml.ShapeStyle) string {
	switch {
	case props.NoFill != nil:
		return model.FillNone
	case props.SolidFill != nil:
		if c := props.SolidFill.Resolve(e.theme); c != "" {
			return c
		}
	case style != nil && style.FillRef != nil:
		if c := style.FillRef.Resolve(e.theme); c != "" {
			return c
		}
	}
	return model.FillNone
}

func (e *extraction) connector(nv ooxml.NonVisual, props ooxml.ShapeProps, style *ooxml.ShapeStyle, frame *ooxml.Transform) []model.ShapeDescriptor {
	if frame == nil {
		e.logger.Debug("Skipping connector without geometry", "id", nv.Props.ID)
		return nil
	}

	color := ""
	if ln := props.Line; ln != nil {
		if ln.NoFill != nil {
			e.logger.Debug("Skipping invisible connector", "id", nv.Props.ID)
			return nil
		}
		color = ln.SolidFill.Resolve(e.theme)
	}
	if color == "" && style != nil {
		color = style.LineRef.Resolve(e.theme)
	}

	f := toFrame(*frame)
	if frame.FlipH {
		f.X += f.Width
		f.Width = -f.Width
	}
	if frame.FlipV {
		f.Y += f.Height
		f.Height = -f.Height
	}

	return []model.ShapeDescriptor{model.NewLineDescriptor(nv.Props.ID, f, color)}
}

func (e *extraction) picture(p *ooxml.Picture, frame *ooxml.Transform) []model.ShapeDescriptor {
	rID := p.Blip.SVGEmbed()
	if rID == "" {
		e.logger.Debug("Skipping raster picture", "id", p.NonVisual.Props.ID, "name", p.NonVisual.Props.Name)
		return nil
	}
	if frame == nil {
		e.logger.Debug("Skipping picture without geometry", "id", p.NonVisual.Props.ID)
		return nil
	}

	payload, ok := e.bundle.ImageByRelationship(rID)
	if !ok {
		e.logger.Warn("Vector image payload is missing", "id", p.NonVisual.Props.ID, "relationship", rID)
		return nil
	}

	return []model.ShapeDescriptor{
		model.NewImageDescriptor(frame.Offset.X, frame.Offset.Y, frame.Extent.Cx, payload),
	}
}

type textLine struct {
	text   string
	bullet bool
	glyph  string
}

func (e *extraction) text(s *ooxml.Shape, frame model.EMUFrame) []model.ShapeDescriptor {
	var lines []textLine
	for _, p := range s.Text.Paragraphs {
		bullet, glyph := p.Bullet()
		if glyph == "" {
			glyph = defaultBulletGlyph
		}
		lines = append(lines, textLine{text: p.Text(), bullet: bullet, glyph: glyph})
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1].text) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil
	}

	style := e.textStyle(s)
	id := s.NonVisual.Props.ID

	if e.mode == TextModePerLine {
		rows := make([]model.TextRow, len(lines))
		texts := make([]string, len(lines))
		for i, l := range lines {
			rows[i] = model.TextRow{Text: l.text, Bullet: l.bullet}
			texts[i] = l.text
		}
		base := model.NewTextDescriptor(id, strings.Join(texts, "\n"), frame, style)
		var result []model.ShapeDescriptor
		for _, row := range base.SplitRows(rows, e.allocateID) {
			if strings.TrimSpace(row.Text) == "" {
				continue
			}
			result = append(result, row)
		}
		return result
	}

	allBulleted := true
	for _, l := range lines {
		if strings.TrimSpace(l.text) != "" && !l.bullet {
			allBulleted = false
		}
	}

	var text string
	if allBulleted {
		style.Bullet = true
		texts := make([]string, len(lines))
		for i, l := range lines {
			texts[i] = l.text
		}
		text = strings.Join(texts, "\n")
	} else {
		text = bakeGlyphs(lines)
	}

	return []model.ShapeDescriptor{model.NewTextDescriptor(id, text, frame, style)}
}

// bakeGlyphs joins lines, prefixing bulleted ones with their glyph
func bakeGlyphs(lines []textLine) string {
	texts := make([]string, len(lines))
	for i, l := range lines {
		if l.bullet && strings.TrimSpace(l.text) != "" {
			texts[i] = fmt.Sprintf("%s %s", l.glyph, l.text)
		} else {
			texts[i] = l.text
		}
	}
	return strings.Join(texts, "\n")
}

func (e *extraction) textStyle(s *ooxml.Shape) model.TextStyle {
	var style model.TextStyle

	var first *ooxml.Paragraph
	for i := range s.Text.Paragraphs {
		p := &s.Text.Paragraphs[i]
		if first == nil {
			first = p
		}
		if props := p.FirstRunProps(); props != nil {
			if props.Latin != nil {
				style.FontName = e.theme.Font(props.Latin.Typeface)
			}
			if props.Size > 0 {
				style.FontSize = float64(props.Size) / 100
			}
			style.Bold = props.Bold
			style.Italic = props.Italic
			style.FontColor = props.SolidFill.Resolve(e.theme)
			break
		}
	}

	if style.FontColor == "" && s.Style != nil {
		style.FontColor = s.Style.FontRef.Resolve(e.theme)
	}
	if first != nil {
		style.Alignment = alignment(first.Align())
	}
	return style
}

func alignment(algn string) model.Alignment {
	switch algn {
	case "l":
		return model.AlignLeft
	case "ctr":
		return model.AlignCenter
	case "r":
		return model.AlignRight
	default:
		return model.AlignUnset
	}
}
