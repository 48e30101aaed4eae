package model

import "strings"

// SuiteNodeKind distinguishes grouping blocks from executable cases.
type SuiteNodeKind string

const (
	// SuiteGroup is a named block containing groups and/or cases (describe, TestXxx with subtests).
	SuiteGroup SuiteNodeKind = "group"
	// SuiteCase is a leaf test case (it, t.Run without nested runs).
	SuiteCase SuiteNodeKind = "case"
)

// SuiteNode is one node of a test-suite file's structural tree.
type SuiteNode struct {
	Kind     SuiteNodeKind
	Name     string
	Span     Span
	Children []*SuiteNode
}

// SuiteTree is the parsed structure of a single test-suite file.
type SuiteTree struct {
	File      Path
	Framework Framework
	Content   []byte
	Roots     []*SuiteNode
}

// TestUnit is an atomic test case extracted from a suite tree.
type TestUnit struct {
	// Index is the unit's position in document order within its file.
	// Names may collide; Index never does.
	Index     int
	Name      string
	Segments  []string
	File      Path
	Framework Framework
	// Artifact is the standalone file content for frameworks that isolate
	// units at file level. Empty when the framework selects units by filter.
	Artifact []byte
	// Selector is the framework filter that selects only this unit.
	Selector string
}

// QualifiedName joins ancestor group names and the case name with single spaces.
func QualifiedName(segments []string) string {
	return strings.Join(segments, " ")
}

// Leaf returns the unit's own case name.
func (u TestUnit) Leaf() string {
	if len(u.Segments) == 0 {
		return ""
	}

	return u.Segments[len(u.Segments)-1]
}

// Standalone reports whether the unit carries its own artifact content.
func (u TestUnit) Standalone() bool {
	return len(u.Artifact) > 0
}
