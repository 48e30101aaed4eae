package mutagens

import (
	"go/ast"
	"go/token"

	m "gooze.dev/pkg/unitmut/internal/model"
)

// LogicalName is the registry name of the logical operator.
const LogicalName = "logical"

// Logical swaps && and ||.
type Logical struct {
	Base
}

// NewLogical constructs the logical operator.
func NewLogical() (*Logical, error) {
	base, err := NewBase(LogicalName, "BinaryExpr")
	if err != nil {
		return nil, err
	}

	return &Logical{Base: base}, nil
}

// CanMutate implements Operator.
func (l *Logical) CanMutate(node Node) bool {
	if !l.Accepts(node) {
		return false
	}

	binExpr, ok := node.Node.(*ast.BinaryExpr)

	return ok && (binExpr.Op == token.LAND || binExpr.Op == token.LOR)
}

// ApplyMutation implements Operator.
func (l *Logical) ApplyMutation(filename string, originalCode []byte, node Node, file *ast.File) ([]m.Mutant, error) {
	if err := l.CheckApply(filename, originalCode, node, file); err != nil {
		return nil, err
	}

	binExpr, ok := node.Node.(*ast.BinaryExpr)
	if !ok {
		return nil, nil
	}

	swapped := token.LAND
	if binExpr.Op == token.LAND {
		swapped = token.LOR
	}

	return tokenMutants(l.Name(), filename, originalCode, node, binExpr.OpPos, binExpr.Op, []token.Token{swapped}), nil
}
