package domain

import (
	"fmt"
	"go/ast"
	"go/token"

	"gooze.dev/pkg/unitmut/internal/domain/mutagens"
	m "gooze.dev/pkg/unitmut/internal/model"
)

// Registry holds the active operators and dispatches AST nodes to every
// operator that can mutate them.
type Registry struct {
	operators []mutagens.Operator
}

// NewRegistry builds a registry. Operator names must be unique.
func NewRegistry(ops ...mutagens.Operator) (*Registry, error) {
	seen := make(map[string]struct{}, len(ops))

	for _, op := range ops {
		if op == nil {
			return nil, fmt.Errorf("%w: nil operator", m.ErrConfiguration)
		}

		if _, ok := seen[op.Name()]; ok {
			return nil, fmt.Errorf("%w: duplicate operator %q", m.ErrConfiguration, op.Name())
		}

		seen[op.Name()] = struct{}{}
	}

	return &Registry{operators: append([]mutagens.Operator(nil), ops...)}, nil
}

// DefaultRegistry returns a registry with every built-in operator.
func DefaultRegistry() (*Registry, error) {
	arithmetic, err := mutagens.NewArithmetic()
	if err != nil {
		return nil, err
	}

	comparison, err := mutagens.NewComparison()
	if err != nil {
		return nil, err
	}

	boolean, err := mutagens.NewBoolean()
	if err != nil {
		return nil, err
	}

	logical, err := mutagens.NewLogical()
	if err != nil {
		return nil, err
	}

	branch, err := mutagens.NewBranch()
	if err != nil {
		return nil, err
	}

	return NewRegistry(arithmetic, comparison, boolean, logical, branch)
}

// Names lists the registered operator names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.operators))
	for _, op := range r.operators {
		names = append(names, op.Name())
	}

	return names
}

// Select returns a registry restricted to the named operators, keeping
// registration order. No names selects everything.
func (r *Registry) Select(names ...string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = false
	}

	var selected []mutagens.Operator

	for _, op := range r.operators {
		if _, ok := wanted[op.Name()]; ok {
			wanted[op.Name()] = true
			selected = append(selected, op)
		}
	}

	for _, name := range names {
		if !wanted[name] {
			return nil, fmt.Errorf("%w: unknown operator %q", m.ErrConfiguration, name)
		}
	}

	return &Registry{operators: selected}, nil
}

// Applicable returns every operator that can mutate node, in registration order.
func (r *Registry) Applicable(node mutagens.Node) []mutagens.Operator {
	if !node.Valid() {
		return nil
	}

	var applicable []mutagens.Operator

	for _, op := range r.operators {
		if op.CanMutate(node) {
			applicable = append(applicable, op)
		}
	}

	return applicable
}

// MutateFile visits every node of file in document order and collects the
// mutants of all applicable operators. skip, when set, filters out nodes
// per operator.
func (r *Registry) MutateFile(
	filename string,
	content []byte,
	fset *token.FileSet,
	file *ast.File,
	skip func(n ast.Node, operator string) bool,
) ([]m.Mutant, error) {
	mutants := make([]m.Mutant, 0)

	var applyErr error

	ast.Inspect(file, func(n ast.Node) bool {
		if n == nil || applyErr != nil {
			return false
		}

		node := mutagens.NewNode(n, fset)

		for _, op := range r.Applicable(node) {
			if skip != nil && skip(n, op.Name()) {
				continue
			}

			produced, err := op.ApplyMutation(filename, content, node, file)
			if err != nil {
				applyErr = fmt.Errorf("operator %s at %s: %w", op.Name(), fset.Position(n.Pos()), err)
				return false
			}

			mutants = append(mutants, produced...)
		}

		return true
	})

	if applyErr != nil {
		return nil, applyErr
	}

	return mutants, nil
}
