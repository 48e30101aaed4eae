package mutagens

import (
	"go/ast"
	"go/token"

	m "gooze.dev/pkg/unitmut/internal/model"
)

// ArithmeticName is the registry name of the arithmetic operator.
const ArithmeticName = "arithmetic"

var arithmeticOps = []token.Token{token.ADD, token.SUB, token.MUL, token.QUO, token.REM}

// Arithmetic swaps +, -, *, / and % with each other.
type Arithmetic struct {
	Base
}

// NewArithmetic constructs the arithmetic operator.
func NewArithmetic() (*Arithmetic, error) {
	base, err := NewBase(ArithmeticName, "BinaryExpr")
	if err != nil {
		return nil, err
	}

	return &Arithmetic{Base: base}, nil
}

// CanMutate implements Operator.
func (a *Arithmetic) CanMutate(node Node) bool {
	if !a.Accepts(node) {
		return false
	}

	binExpr, ok := node.Node.(*ast.BinaryExpr)

	return ok && isArithmeticOp(binExpr.Op) && !isStringConcat(binExpr)
}

// ApplyMutation implements Operator.
func (a *Arithmetic) ApplyMutation(filename string, originalCode []byte, node Node, file *ast.File) ([]m.Mutant, error) {
	if err := a.CheckApply(filename, originalCode, node, file); err != nil {
		return nil, err
	}

	binExpr, ok := node.Node.(*ast.BinaryExpr)
	if !ok {
		return nil, nil
	}

	return tokenMutants(a.Name(), filename, originalCode, node, binExpr.OpPos, binExpr.Op, alternativesOf(binExpr.Op, arithmeticOps)), nil
}

func isArithmeticOp(op token.Token) bool {
	return op == token.ADD || op == token.SUB || op == token.MUL || op == token.QUO || op == token.REM
}

// isStringConcat catches the obvious "a" + b case; without type information
// other string additions still produce mutants that fail to compile.
func isStringConcat(binExpr *ast.BinaryExpr) bool {
	if binExpr.Op != token.ADD {
		return false
	}

	for _, operand := range []ast.Expr{binExpr.X, binExpr.Y} {
		if lit, ok := operand.(*ast.BasicLit); ok && lit.Kind == token.STRING {
			return true
		}
	}

	return false
}
