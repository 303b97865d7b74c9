package types

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrTagFormat marks input that is not a valid compressed package
	ErrTagFormat = goerr.NewTag("format")
	// ErrTagNotFound marks a required entry or slide that is absent
	ErrTagNotFound = goerr.NewTag("not_found")
	// ErrTagCanvas marks a failure reported by the target canvas
	ErrTagCanvas = goerr.NewTag("canvas")
	// ErrTagInvalidInput marks malformed descriptors, fixtures or arguments
	ErrTagInvalidInput = goerr.NewTag("invalid_input")
)
