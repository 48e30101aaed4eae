// Package model defines the data structures shared by the mutation testing core.
package model

// Path represents a file system path.
type Path string

// Framework identifies the test framework a suite file is written for.
type Framework string

const (
	// FrameworkGo covers Go test files (TestXxx functions and t.Run subtests).
	FrameworkGo Framework = "go"
	// FrameworkJasmine covers describe/it style JavaScript spec files.
	FrameworkJasmine Framework = "jasmine"
)

// Valid reports whether the framework is one unitmut knows how to parse.
func (f Framework) Valid() bool {
	return f == FrameworkGo || f == FrameworkJasmine
}

// Span locates a fragment in a source file.
// Start and End are byte offsets; Line and Column are 1-based.
type Span struct {
	Start  int `yaml:"start"`
	End    int `yaml:"end"`
	Line   int `yaml:"line"`
	Column int `yaml:"column"`
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Contains reports whether other lies entirely inside s.
func (s Span) Contains(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}
