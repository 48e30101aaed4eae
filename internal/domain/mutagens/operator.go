// Package mutagens defines the mutation operator contract and the operators
// shipped with unitmut.
package mutagens

import (
	"fmt"
	"go/ast"
	"go/token"
	"reflect"
	"slices"

	m "gooze.dev/pkg/unitmut/internal/model"
)

// Operator is a named rule that recognizes applicable AST nodes and produces
// mutants from them. Operators are stateless and safe to share across files
// and goroutines.
type Operator interface {
	// Name returns the operator name, unique within a registry.
	Name() string
	// Types returns the node kinds the operator may inspect.
	Types() []string
	// CanMutate reports whether ApplyMutation may be called for node.
	// It returns false for every node whose kind is not in Types.
	CanMutate(node Node) bool
	// ApplyMutation produces zero or more mutants for node. Callers must
	// have checked CanMutate first. Inputs are never modified.
	ApplyMutation(filename string, originalCode []byte, node Node, file *ast.File) ([]m.Mutant, error)
}

// Node is an AST node together with the file set that positions it.
type Node struct {
	ast.Node
	Fset *token.FileSet
}

// NewNode wraps an AST node.
func NewNode(n ast.Node, fset *token.FileSet) Node {
	return Node{Node: n, Fset: fset}
}

// Valid reports whether the node can be inspected.
func (n Node) Valid() bool {
	if n.Node == nil || n.Fset == nil {
		return false
	}

	v := reflect.ValueOf(n.Node)

	return !(v.Kind() == reflect.Pointer && v.IsNil())
}

// Kind returns the node's kind tag, the go/ast type name (e.g. "BinaryExpr").
func (n Node) Kind() string {
	return KindOf(n.Node)
}

// KindOf returns the kind tag of an AST node, or "" for nil.
func KindOf(n ast.Node) string {
	if n == nil {
		return ""
	}

	t := reflect.TypeOf(n)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t.Name()
}

// Base holds the name and node kinds of an operator and provides the default
// behaviour: it accepts nothing and produces nothing. Concrete operators embed
// Base and override CanMutate and ApplyMutation.
type Base struct {
	name  string
	types []string
}

// NewBase validates and builds the shared part of an operator.
func NewBase(name string, types ...string) (Base, error) {
	if name == "" {
		return Base{}, fmt.Errorf("%w: operator name must not be empty", m.ErrConfiguration)
	}

	if len(types) == 0 {
		return Base{}, fmt.Errorf("%w: operator %q must declare at least one node type", m.ErrConfiguration, name)
	}

	for i, t := range types {
		if t == "" {
			return Base{}, fmt.Errorf("%w: operator %q has an empty node type at index %d", m.ErrConfiguration, name, i)
		}
	}

	return Base{name: name, types: slices.Clone(types)}, nil
}

// Name implements Operator.
func (b Base) Name() string {
	return b.name
}

// Types implements Operator. The returned slice is a copy.
func (b Base) Types() []string {
	return slices.Clone(b.types)
}

// Accepts reports whether the node is valid and of one of the declared kinds.
func (b Base) Accepts(node Node) bool {
	if !node.Valid() {
		return false
	}

	return slices.Contains(b.types, node.Kind())
}

// CanMutate implements Operator.
func (b Base) CanMutate(_ Node) bool {
	return false
}

// ApplyMutation implements Operator.
func (b Base) ApplyMutation(filename string, originalCode []byte, node Node, file *ast.File) ([]m.Mutant, error) {
	if err := b.CheckApply(filename, originalCode, node, file); err != nil {
		return nil, err
	}

	return nil, nil
}

// CheckApply validates ApplyMutation arguments before any work happens.
func (b Base) CheckApply(filename string, originalCode []byte, node Node, file *ast.File) error {
	switch {
	case filename == "":
		return fmt.Errorf("%w: %s: filename must not be empty", m.ErrInvalidArgument, b.name)
	case len(originalCode) == 0:
		return fmt.Errorf("%w: %s: original code must not be empty", m.ErrInvalidArgument, b.name)
	case !node.Valid():
		return fmt.Errorf("%w: %s: node must be a positioned AST node", m.ErrInvalidArgument, b.name)
	case file == nil:
		return fmt.Errorf("%w: %s: ast must not be nil", m.ErrInvalidArgument, b.name)
	}

	return nil
}
