package usecase

import (
	"context"
	_ "embed"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/domain/interfaces"
	"github.com/m-mizutani/reslide/pkg/domain/model"
	"github.com/m-mizutani/reslide/pkg/domain/types"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/mindmap.toml
var defaultFixture []byte

// FixtureFormat is the encoding of a fixture file
type FixtureFormat string

const (
	FixtureTOML FixtureFormat = "toml"
	FixtureYAML FixtureFormat = "yaml"
)

// FixtureFormatOf guesses the format from a file name
func FixtureFormatOf(name string) (FixtureFormat, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		return FixtureTOML, nil
	case ".yaml", ".yml":
		return FixtureYAML, nil
	default:
		return "", goerr.New("unsupported fixture file extension",
			goerr.V("name", name),
			goerr.T(types.ErrTagInvalidInput),
		)
	}
}

// fixture geometry is in package units (EMU), rotation in degrees
type fixtureFile struct {
	Descriptors []fixtureDescriptor `toml:"descriptor" yaml:"descriptor"`
}

type fixtureDescriptor struct {
	Kind      string  `toml:"kind" yaml:"kind"`
	ID        int     `toml:"id" yaml:"id"`
	Text      string  `toml:"text" yaml:"text"`
	X         int64   `toml:"x" yaml:"x"`
	Y         int64   `toml:"y" yaml:"y"`
	Width     int64   `toml:"width" yaml:"width"`
	Height    int64   `toml:"height" yaml:"height"`
	FontName  string  `toml:"font_name" yaml:"font_name"`
	FontSize  float64 `toml:"font_size" yaml:"font_size"`
	Bold      bool    `toml:"bold" yaml:"bold"`
	Italic    bool    `toml:"italic" yaml:"italic"`
	FontColor string  `toml:"font_color" yaml:"font_color"`
	Bullet    bool    `toml:"bullet" yaml:"bullet"`
	Align     string  `toml:"align" yaml:"align"`
	Rotation  float64 `toml:"rotation" yaml:"rotation"`
	Fill      string  `toml:"fill" yaml:"fill"`
	Color     string  `toml:"color" yaml:"color"`
	SVG       string  `toml:"svg" yaml:"svg"`
}

func parseFixture(data []byte, format FixtureFormat) (*fixtureFile, error) {
	var f fixtureFile
	var err error
	switch format {
	case FixtureTOML:
		err = toml.Unmarshal(data, &f)
	case FixtureYAML:
		err = yaml.Unmarshal(data, &f)
	default:
		return nil, goerr.New("unknown fixture format", goerr.V("format", format), goerr.T(types.ErrTagInvalidInput))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode fixture",
			goerr.V("format", format),
			goerr.T(types.ErrTagInvalidInput),
		)
	}
	return &f, nil
}

// build creates fresh descriptors; every call converts the EMU geometry anew
func (f *fixtureFile) build() ([]model.ShapeDescriptor, error) {
	descriptors := make([]model.ShapeDescriptor, 0, len(f.Descriptors))
	for i, fd := range f.Descriptors {
		frame := model.EMUFrame{X: fd.X, Y: fd.Y, Width: fd.Width, Height: fd.Height}

		var d model.ShapeDescriptor
		switch model.DescriptorKind(fd.Kind) {
		case model.KindText:
			d = model.NewTextDescriptor(fd.ID, fd.Text, frame, model.TextStyle{
				FontName:  fd.FontName,
				FontSize:  fd.FontSize,
				Bold:      fd.Bold,
				Italic:    fd.Italic,
				FontColor: fd.FontColor,
				Bullet:    fd.Bullet,
				Alignment: model.Alignment(fd.Align),
			})
		case model.KindShape:
			d = model.NewEllipseDescriptor(fd.ID, frame, int64(fd.Rotation*60000), fd.Fill)
		case model.KindLine:
			d = model.NewLineDescriptor(fd.ID, frame, fd.Color)
		case model.KindImage:
			d = model.NewImageDescriptor(fd.X, fd.Y, fd.Width, []byte(fd.SVG))
		default:
			return nil, goerr.New("unknown descriptor kind in fixture",
				goerr.V("index", i),
				goerr.V("kind", fd.Kind),
				goerr.T(types.ErrTagInvalidInput),
			)
		}

		if err := model.Validate(d); err != nil {
			return nil, goerr.Wrap(err, "invalid fixture descriptor", goerr.V("index", i))
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

type fixtureExtractor struct {
	fixture  *fixtureFile
	textMode TextMode
}

// FixtureOption configures the fixture extractor
type FixtureOption func(*fixtureExtractor)

// WithFixtureTextMode sets the text construction path. Fixture text carries
// its bullets as leading glyphs, so the per-line mode recovers them from the
// text.
func WithFixtureTextMode(mode TextMode) FixtureOption {
	return func(x *fixtureExtractor) {
		x.textMode = mode
	}
}

// NewFixtureExtractor creates an extractor that ignores the slide bundle and
// returns the descriptors of a fixture file
func NewFixtureExtractor(data []byte, format FixtureFormat, opts ...FixtureOption) (interfaces.DescriptorExtractor, error) {
	f, err := parseFixture(data, format)
	if err != nil {
		return nil, err
	}
	if _, err := f.build(); err != nil {
		return nil, err
	}
	x := &fixtureExtractor{fixture: f, textMode: TextModeMultiLine}
	for _, opt := range opts {
		opt(x)
	}
	return x, nil
}

// NewDefaultFixtureExtractor returns the embedded mind-map fixture
func NewDefaultFixtureExtractor(opts ...FixtureOption) (interfaces.DescriptorExtractor, error) {
	return NewFixtureExtractor(defaultFixture, FixtureTOML, opts...)
}

// splitText gives every line of a fixture text box its own descriptor
func splitText(descriptors []model.ShapeDescriptor) []model.ShapeDescriptor {
	nextID := 0
	for _, d := range descriptors {
		if v, ok := d.(*model.TextDescriptor); ok && v.ID > nextID {
			nextID = v.ID
		}
	}
	allocate := func() int {
		nextID++
		return nextID
	}

	result := make([]model.ShapeDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		text, ok := d.(*model.TextDescriptor)
		if !ok {
			result = append(result, d)
			continue
		}
		for _, row := range text.SplitLines(allocate) {
			if strings.TrimSpace(row.Text) == "" {
				continue
			}
			result = append(result, row)
		}
	}
	return result
}

func (x *fixtureExtractor) ExtractDescriptors(ctx context.Context, bundle *model.SlideBundle) ([]model.ShapeDescriptor, error) {
	descriptors, err := x.fixture.build()
	if err != nil {
		return nil, err
	}
	if x.textMode == TextModePerLine {
		descriptors = splitText(descriptors)
	}

	slide := ""
	if bundle != nil {
		slide = bundle.SlideName
	}
	ctxlog.From(ctx).Info("Using fixture descriptors",
		"slide", slide,
		"descriptor_count", len(descriptors),
	)
	return descriptors, nil
}
