// Package domain contains the mutation testing core: operator dispatch,
// test decomposition, the test runner and the mutation workflow.
package domain

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"strings"

	"gooze.dev/pkg/unitmut/internal/adapter"
	m "gooze.dev/pkg/unitmut/internal/model"
)

// ignoreDirective marks code that must not be mutated. Without arguments it
// ignores every operator, otherwise the comma separated operators only:
//
//	x := a + b //unitmut:ignore arithmetic
const ignoreDirective = "//unitmut:ignore"

// Mutagen generates the mutants of a source file.
type Mutagen interface {
	GenerateMutants(ctx context.Context, source m.Path) ([]m.Mutant, error)
}

type mutagen struct {
	adapter.GoFileAdapter
	adapter.SourceFSAdapter
	registry *Registry
}

// NewMutagen creates a Mutagen dispatching over registry.
func NewMutagen(registry *Registry, goFileAdapter adapter.GoFileAdapter, sourceFSAdapter adapter.SourceFSAdapter) Mutagen {
	return &mutagen{
		GoFileAdapter:   goFileAdapter,
		SourceFSAdapter: sourceFSAdapter,
		registry:        registry,
	}
}

func (mg *mutagen) GenerateMutants(ctx context.Context, source m.Path) ([]m.Mutant, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: missing source path", m.ErrInvalidArgument)
	}

	if mg.registry == nil || mg.GoFileAdapter == nil || mg.SourceFSAdapter == nil {
		return nil, fmt.Errorf("%w: mutagen is missing its registry or adapters", m.ErrConfiguration)
	}

	content, err := mg.ReadFile(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	fset := token.NewFileSet()

	file, err := mg.Parse(ctx, fset, string(source), content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}

	ignore := buildIgnoreIndex(file, fset, content)

	return mg.registry.MutateFile(string(source), content, fset, file, ignore.skips(fset))
}

// ignoreRule lists ignored operators; an empty rule ignores all of them.
type ignoreRule map[string]struct{}

func (r ignoreRule) ignores(operator string) bool {
	if len(r) == 0 {
		return true
	}

	_, ok := r[operator]

	return ok
}

type ignoredRange struct {
	start, end token.Pos
	rule       ignoreRule
}

type ignoreIndex struct {
	line   map[int]ignoreRule
	ranges []ignoredRange
}

// buildIgnoreIndex reads the ignore directives of a file. A directive on
// its own line applies to the line after its comment group and to the whole
// statement or declaration starting there, a trailing one to its own line,
// and one in a function's doc comment to the whole function.
func buildIgnoreIndex(file *ast.File, fset *token.FileSet, content []byte) ignoreIndex {
	index := ignoreIndex{line: map[int]ignoreRule{}}
	statements := statementsInOrder(file)

	for _, group := range file.Comments {
		for _, comment := range group.List {
			rule, ok := parseIgnore(comment.Text)
			if !ok {
				continue
			}

			pos := fset.Position(comment.Pos())
			if !ownLine(content, pos.Offset) {
				index.line[pos.Line] = rule
				continue
			}

			// The directive may sit above further comment lines.
			target := fset.Position(group.End()).Line + 1
			index.line[target] = rule

			next := nextStatement(statements, group.End())
			if next != nil && fset.Position(next.Pos()).Line == target {
				index.ranges = append(index.ranges, ignoredRange{start: next.Pos(), end: next.End(), rule: rule})
			}
		}
	}

	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Doc == nil {
			continue
		}

		for _, comment := range fd.Doc.List {
			if rule, ok := parseIgnore(comment.Text); ok {
				index.ranges = append(index.ranges, ignoredRange{start: fd.Pos(), end: fd.End(), rule: rule})
			}
		}
	}

	return index
}

// statementsInOrder lists the statements and declarations of file in
// pre-order, so positions never decrease and parents precede children.
func statementsInOrder(file *ast.File) []ast.Node {
	var nodes []ast.Node

	ast.Inspect(file, func(n ast.Node) bool {
		switch n.(type) {
		case ast.Stmt, ast.Decl:
			if _, block := n.(*ast.BlockStmt); !block {
				nodes = append(nodes, n)
			}
		}

		return true
	})

	return nodes
}

// nextStatement returns the outermost statement or declaration starting
// after pos.
func nextStatement(statements []ast.Node, pos token.Pos) ast.Node {
	for _, n := range statements {
		if n.Pos() > pos {
			return n
		}
	}

	return nil
}

// ownLine reports whether only whitespace precedes offset on its line.
func ownLine(content []byte, offset int) bool {
	for i := offset - 1; i >= 0 && i < len(content); i-- {
		switch content[i] {
		case '\n':
			return true
		case ' ', '\t':
		default:
			return false
		}
	}

	return true
}

func parseIgnore(text string) (ignoreRule, bool) {
	rest, ok := strings.CutPrefix(text, ignoreDirective)
	if !ok || (rest != "" && rest[0] != ' ') {
		return nil, false
	}

	rule := ignoreRule{}

	for _, name := range strings.Split(rest, ",") {
		if name = strings.TrimSpace(name); name != "" {
			rule[name] = struct{}{}
		}
	}

	return rule, true
}

func (idx ignoreIndex) skips(fset *token.FileSet) func(ast.Node, string) bool {
	return func(n ast.Node, operator string) bool {
		for _, r := range idx.ranges {
			if n.Pos() >= r.start && n.End() <= r.end && r.rule.ignores(operator) {
				return true
			}
		}

		rule, ok := idx.line[fset.Position(n.Pos()).Line]

		return ok && rule.ignores(operator)
	}
}
