package model

import "time"

// TestFile is one test artifact handed to a single test invocation.
type TestFile struct {
	Path     Path   `yaml:"path"`
	Name     string `yaml:"name"`
	Origin   Path   `yaml:"origin,omitempty"`
	Selector string `yaml:"selector,omitempty"`
}

// TestResult is the outcome of one test invocation, whole-file or single-unit.
// Failing tests and timeouts are recorded here rather than returned as errors.
type TestResult struct {
	SourceFiles []Path        `yaml:"source_files"`
	TestFiles   []TestFile    `yaml:"test_files"`
	Failures    int           `yaml:"failures"`
	Successes   int           `yaml:"successes"`
	TimedOut    bool          `yaml:"timed_out"`
	Duration    time.Duration `yaml:"duration"`
	Output      string        `yaml:"-"`
}

// NewTestResult builds a result, clamping negative counts to zero.
func NewTestResult(sources []Path, tests []TestFile, failures, successes int, timedOut bool, duration time.Duration) TestResult {
	return TestResult{
		SourceFiles: append([]Path(nil), sources...),
		TestFiles:   append([]TestFile(nil), tests...),
		Failures:    max(failures, 0),
		Successes:   max(successes, 0),
		TimedOut:    timedOut,
		Duration:    duration,
	}
}

// Failed reports whether at least one test failed.
func (r TestResult) Failed() bool {
	return r.Failures > 0
}

// Total returns the number of tests that reported an outcome.
func (r TestResult) Total() int {
	return r.Failures + r.Successes
}
