package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/domain/interfaces"
	"github.com/m-mizutani/reslide/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Rebuild holds the extraction configuration
type Rebuild struct {
	TextMode string
	Fixture  string
}

// Flags returns CLI flags for extraction configuration
func (c *Rebuild) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "text-mode",
			Usage:       "How text bodies become text boxes (multiline, perline)",
			Value:       string(usecase.TextModeMultiLine),
			Destination: &c.TextMode,
			Sources:     cli.EnvVars("RESLIDE_TEXT_MODE"),
		},
		&cli.StringFlag{
			Name:        "fixture",
			Usage:       "Reconstruct descriptors from a TOML or YAML file instead of the slide markup. 'builtin' selects the bundled mind map",
			Destination: &c.Fixture,
			Sources:     cli.EnvVars("RESLIDE_FIXTURE"),
		},
	}
}

// Extractor creates the configured descriptor extractor
func (c *Rebuild) Extractor() (interfaces.DescriptorExtractor, error) {
	mode := usecase.TextModeMultiLine
	if c.TextMode != "" {
		parsed, err := usecase.ParseTextMode(c.TextMode)
		if err != nil {
			return nil, err
		}
		mode = parsed
	}

	switch c.Fixture {
	case "":
		return usecase.NewMarkupExtractor(usecase.WithTextMode(mode)), nil

	case "builtin":
		return usecase.NewDefaultFixtureExtractor(usecase.WithFixtureTextMode(mode))

	default:
		format, err := usecase.FixtureFormatOf(c.Fixture)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(c.Fixture)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read fixture file", goerr.V("path", c.Fixture))
		}
		return usecase.NewFixtureExtractor(data, format, usecase.WithFixtureTextMode(mode))
	}
}
