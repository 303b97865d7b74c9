package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/domain/interfaces"
	"github.com/m-mizutani/reslide/pkg/domain/model"
	"github.com/m-mizutani/reslide/pkg/infra/canvas/memory"
	"github.com/m-mizutani/reslide/pkg/infra/canvas/remote"
	"github.com/m-mizutani/reslide/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Canvas holds the reconstruction target configuration
type Canvas struct {
	Endpoint    string
	Token       string `masq:"secret"`
	ImagePolicy string
}

// Flags returns CLI flags for canvas configuration
func (c *Canvas) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "canvas-endpoint",
			Usage:       "Base URL of a remote canvas host. An in-memory canvas is used when empty",
			Destination: &c.Endpoint,
			Sources:     cli.EnvVars("RESLIDE_CANVAS_ENDPOINT"),
		},
		&cli.StringFlag{
			Name:        "canvas-token",
			Usage:       "Bearer token for the remote canvas host",
			Destination: &c.Token,
			Sources:     cli.EnvVars("RESLIDE_CANVAS_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "image-failure",
			Usage:       "What a failed image insertion does to the batch (skip, abort)",
			Value:       string(model.ImageFailureSkip),
			Destination: &c.ImagePolicy,
			Sources:     cli.EnvVars("RESLIDE_IMAGE_FAILURE"),
		},
	}
}

// Remote reports whether a remote canvas host is configured
func (c *Canvas) Remote() bool {
	return c.Endpoint != ""
}

// New creates the configured canvas. The memory canvas is returned as well
// so the caller can export its scene; it is nil for a remote canvas.
func (c *Canvas) New() (interfaces.Canvas, *memory.Canvas, error) {
	if !c.Remote() {
		m := memory.New()
		return m, m, nil
	}

	var opts []remote.Option
	if c.Token != "" {
		opts = append(opts, remote.WithToken(c.Token))
	}
	r, err := remote.New(c.Endpoint, opts...)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create remote canvas")
	}
	return r, nil, nil
}

// Engine creates a reconstruction engine with the configured image policy
func (c *Canvas) Engine() (*usecase.Engine, error) {
	policy, err := model.ParseImageFailurePolicy(c.ImagePolicy)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid image failure policy")
	}
	return usecase.NewEngine(usecase.WithImageFailurePolicy(policy)), nil
}
