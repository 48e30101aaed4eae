package model

// Mutant is a single variant of a source file produced by applying one
// operator to one AST node. Mutants are values and are never modified after
// an operator creates them.
type Mutant struct {
	ID          string
	Source      Path
	Operator    string
	NodeKind    string
	Span        Span
	Original    string // fragment at Span in the original file
	Replacement string // fragment written in its place
	MutatedCode []byte // full file content with the replacement applied
	Diff        string // unified diff between original and mutated file
}
