package main

import (
	"github.com/go-faster/errors"

	"orgmap/pkg/app"
	"orgmap/pkg/config"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitFailure    = 1
	exitUsage      = 2
	exitConfig     = 3
	exitParse      = 4
	exitMapping    = 5
	exitProcessing = 6
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

// classify attaches the exit code of a pipeline error's kind.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch app.Kind(err) {
	case "parse_error":
		return withCode(exitParse, err)
	case "incomplete_mapping", "mapping_suggestion_error":
		return withCode(exitMapping, err)
	case "processing_error":
		return withCode(exitProcessing, err)
	}
	if errors.Is(err, config.ErrInvalidConfig) {
		return withCode(exitConfig, err)
	}
	return err
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return exitFailure
}
