package model

import "errors"

var (
	// ErrConfiguration reports an invalid operator or registry setup.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidArgument reports a malformed call to a public entry point.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrExecution reports that the test harness itself failed to run.
	// Failing tests are never reported through this error.
	ErrExecution = errors.New("execution error")
	// ErrBaselineFailed reports that the unmutated suite does not pass.
	ErrBaselineFailed = errors.New("baseline test run failed")
)
