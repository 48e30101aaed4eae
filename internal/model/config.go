package model

import (
	"fmt"
	"time"
)

// RunnerConfig configures the test runner. Fields other than IndividualTests
// and Timeout are forwarded to the test executor untouched.
type RunnerConfig struct {
	IndividualTests bool
	Framework       Framework
	Timeout         time.Duration
	Command         []string
	Env             []string
}

// Validate checks a configuration that came from outside the process
// (config file, environment, flags).
func (c RunnerConfig) Validate() error {
	if !c.Framework.Valid() {
		return fmt.Errorf("%w: unsupported framework %q", ErrInvalidArgument, c.Framework)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout %s", ErrInvalidArgument, c.Timeout)
	}

	if c.Framework == FrameworkJasmine && len(c.Command) == 0 {
		return fmt.Errorf("%w: framework %q requires a test command", ErrInvalidArgument, c.Framework)
	}

	return nil
}
