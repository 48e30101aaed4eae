package mutagens

import (
	"go/ast"

	m "gooze.dev/pkg/unitmut/internal/model"
)

// BooleanName is the registry name of the boolean literal operator.
const BooleanName = "boolean"

const (
	trueStr  = "true"
	falseStr = "false"
)

// Boolean flips the predeclared true and false identifiers.
type Boolean struct {
	Base
}

// NewBoolean constructs the boolean operator.
func NewBoolean() (*Boolean, error) {
	base, err := NewBase(BooleanName, "Ident")
	if err != nil {
		return nil, err
	}

	return &Boolean{Base: base}, nil
}

// CanMutate implements Operator.
func (b *Boolean) CanMutate(node Node) bool {
	if !b.Accepts(node) {
		return false
	}

	ident, ok := node.Node.(*ast.Ident)

	return ok && isBooleanLiteral(ident)
}

// ApplyMutation implements Operator.
func (b *Boolean) ApplyMutation(filename string, originalCode []byte, node Node, file *ast.File) ([]m.Mutant, error) {
	if err := b.CheckApply(filename, originalCode, node, file); err != nil {
		return nil, err
	}

	ident, ok := node.Node.(*ast.Ident)
	if !ok {
		return nil, nil
	}

	start, ok := offsetForPos(node.Fset, ident.Pos())
	if !ok {
		return nil, nil
	}

	mutant, ok := newMutant(b.Name(), filename, originalCode, node, start, start+len(ident.Name), flipBoolean(ident.Name))
	if !ok {
		return nil, nil
	}

	return []m.Mutant{mutant}, nil
}

// isBooleanLiteral rejects identifiers that shadow or declare true/false.
func isBooleanLiteral(ident *ast.Ident) bool {
	if ident.Name != trueStr && ident.Name != falseStr {
		return false
	}

	return ident.Obj == nil
}

func flipBoolean(original string) string {
	if original == trueStr {
		return falseStr
	}

	return trueStr
}
