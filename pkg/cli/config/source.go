package config

import (
	"github.com/m-mizutani/reslide/pkg/domain/types"
	"github.com/m-mizutani/reslide/pkg/infra/source"
	"github.com/urfave/cli/v3"
)

// Source holds package source configuration
type Source struct {
	CredentialsFile string
	GRPC            bool
	MaxSize         int64
}

// Flags returns CLI flags for package source configuration
func (c *Source) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gcs-credentials",
			Usage:       "Service account key file for gs:// inputs. Application default credentials are used when empty",
			Destination: &c.CredentialsFile,
			Sources:     cli.EnvVars("RESLIDE_GCS_CREDENTIALS"),
		},
		&cli.BoolFlag{
			Name:        "gcs-grpc",
			Usage:       "Read gs:// inputs over gRPC",
			Destination: &c.GRPC,
			Sources:     cli.EnvVars("RESLIDE_GCS_GRPC"),
		},
		&cli.Int64Flag{
			Name:        "max-package-size",
			Usage:       "Maximum package size in bytes",
			Value:       64 << 20,
			Destination: &c.MaxSize,
			Sources:     cli.EnvVars("RESLIDE_MAX_PACKAGE_SIZE"),
		},
	}
}

// New creates the configured package source
func (c *Source) New() *source.Source {
	opts := []source.Option{
		source.WithMaxSize(c.MaxSize),
		source.WithGRPC(c.GRPC),
		source.WithUserAgent("reslide/" + types.Version),
	}
	if c.CredentialsFile != "" {
		opts = append(opts, source.WithCredentialsFile(c.CredentialsFile))
	}
	return source.New(opts...)
}
