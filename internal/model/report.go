package model

import "time"

// TestStatus represents the status of a mutation test.
type TestStatus int

const (
	// Killed indicates the mutation was detected by tests.
	Killed TestStatus = iota
	// Survived indicates the mutation was not detected by tests.
	Survived
	// Skipped indicates no test ran against the mutation.
	Skipped
	// Error indicates the harness failed while testing the mutation.
	Error
	// Timeout indicates a test run was abandoned and nothing failed before it.
	Timeout
)

func (s TestStatus) String() string {
	switch s {
	case Killed:
		return "killed"
	case Survived:
		return "survived"
	case Skipped:
		return "skipped"
	case Error:
		return "error"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in reports.
func (s TestStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name written by MarshalText.
func (s *TestStatus) UnmarshalText(text []byte) error {
	for _, candidate := range []TestStatus{Killed, Survived, Skipped, Error, Timeout} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}

	*s = Error

	return nil
}

// KillingUnit identifies a test unit whose run failed against a mutant.
type KillingUnit struct {
	Index int    `yaml:"index"`
	Name  string `yaml:"name"`
	File  Path   `yaml:"file"`
}

// Verdict is the aggregated outcome of all unit runs against one mutant.
type Verdict struct {
	MutantID     string        `yaml:"mutant_id"`
	Source       Path          `yaml:"source"`
	Operator     string        `yaml:"operator"`
	Line         int           `yaml:"line"`
	Column       int           `yaml:"column"`
	Status       TestStatus    `yaml:"status"`
	Results      int           `yaml:"results"`
	KillingUnits []KillingUnit `yaml:"killing_units,omitempty"`
	TimedOut     []int         `yaml:"timed_out,omitempty"`
	Err          string        `yaml:"error,omitempty"`
}

// Report is the persisted outcome of one mutation run.
type Report struct {
	RunID     string    `yaml:"run_id"`
	CreatedAt time.Time `yaml:"created_at"`
	Score     float64   `yaml:"score"`
	Verdicts  []Verdict `yaml:"verdicts"`
}
