package mutagens

import (
	"go/ast"
	"go/token"

	m "gooze.dev/pkg/unitmut/internal/model"
)

// ComparisonName is the registry name of the comparison operator.
const ComparisonName = "comparison"

var comparisonOps = []token.Token{token.LSS, token.GTR, token.LEQ, token.GEQ, token.EQL, token.NEQ}

// Comparison swaps relational and equality operators with each alternative.
type Comparison struct {
	Base
}

// NewComparison constructs the comparison operator.
func NewComparison() (*Comparison, error) {
	base, err := NewBase(ComparisonName, "BinaryExpr")
	if err != nil {
		return nil, err
	}

	return &Comparison{Base: base}, nil
}

// CanMutate implements Operator.
func (c *Comparison) CanMutate(node Node) bool {
	if !c.Accepts(node) {
		return false
	}

	binExpr, ok := node.Node.(*ast.BinaryExpr)

	return ok && isComparisonOp(binExpr.Op)
}

// ApplyMutation implements Operator.
func (c *Comparison) ApplyMutation(filename string, originalCode []byte, node Node, file *ast.File) ([]m.Mutant, error) {
	if err := c.CheckApply(filename, originalCode, node, file); err != nil {
		return nil, err
	}

	binExpr, ok := node.Node.(*ast.BinaryExpr)
	if !ok {
		return nil, nil
	}

	return tokenMutants(c.Name(), filename, originalCode, node, binExpr.OpPos, binExpr.Op, alternativesOf(binExpr.Op, comparisonOps)), nil
}

func isComparisonOp(op token.Token) bool {
	return op == token.LSS || op == token.GTR || op == token.LEQ ||
		op == token.GEQ || op == token.EQL || op == token.NEQ
}
