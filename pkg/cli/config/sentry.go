package config

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Sentry holds error reporting configuration
type Sentry struct {
	DSN         string `masq:"secret"`
	Environment string
}

// Flags returns CLI flags for Sentry configuration
func (c *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN. Error reporting is disabled when empty",
			Destination: &c.DSN,
			Sources:     cli.EnvVars("RESLIDE_SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment",
			Value:       "development",
			Destination: &c.Environment,
			Sources:     cli.EnvVars("RESLIDE_SENTRY_ENV"),
		},
	}
}

// Enabled reports whether a DSN is configured
func (c *Sentry) Enabled() bool {
	return c.DSN != ""
}

// Configure initializes the Sentry client when enabled
func (c *Sentry) Configure() error {
	if !c.Enabled() {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         c.DSN,
		Environment: c.Environment,
		Release:     types.Version,
	}); err != nil {
		return goerr.Wrap(err, "failed to initialize sentry")
	}
	return nil
}

// Report sends err to Sentry and waits for delivery
func (c *Sentry) Report(err error) {
	if !c.Enabled() || err == nil {
		return
	}
	sentry.CaptureException(err)
	sentry.Flush(2 * time.Second)
}
