package mutagens

import (
	"go/ast"

	m "gooze.dev/pkg/unitmut/internal/model"
)

// BranchName is the registry name of the branch operator.
const BranchName = "branch"

// Branch forces if and for conditions to a constant and drops else blocks.
type Branch struct {
	Base
}

// NewBranch constructs the branch operator.
func NewBranch() (*Branch, error) {
	base, err := NewBase(BranchName, "IfStmt", "ForStmt")
	if err != nil {
		return nil, err
	}

	return &Branch{Base: base}, nil
}

// CanMutate implements Operator.
func (b *Branch) CanMutate(node Node) bool {
	if !b.Accepts(node) {
		return false
	}

	switch stmt := node.Node.(type) {
	case *ast.IfStmt:
		// a forced condition would leave an init variable unused
		return stmt.Init == nil || stmt.Else != nil
	case *ast.ForStmt:
		return stmt.Cond != nil
	default:
		return false
	}
}

// ApplyMutation implements Operator.
func (b *Branch) ApplyMutation(filename string, originalCode []byte, node Node, file *ast.File) ([]m.Mutant, error) {
	if err := b.CheckApply(filename, originalCode, node, file); err != nil {
		return nil, err
	}

	switch stmt := node.Node.(type) {
	case *ast.IfStmt:
		var mutants []m.Mutant

		if stmt.Init == nil {
			mutants = append(mutants, b.forceCondition(filename, originalCode, node, stmt.Cond, trueStr, falseStr)...)
		}

		if stmt.Else != nil {
			mutants = append(mutants, b.dropElse(filename, originalCode, node, stmt)...)
		}

		return mutants, nil
	case *ast.ForStmt:
		return b.forceCondition(filename, originalCode, node, stmt.Cond, falseStr), nil
	default:
		return nil, nil
	}
}

func (b *Branch) forceCondition(filename string, content []byte, node Node, cond ast.Expr, values ...string) []m.Mutant {
	if cond == nil {
		return nil
	}

	start, ok := offsetForPos(node.Fset, cond.Pos())
	if !ok {
		return nil
	}

	end, ok := offsetForPos(node.Fset, cond.End())
	if !ok {
		return nil
	}

	var mutants []m.Mutant

	for _, value := range values {
		if mutant, ok := newMutant(b.Name(), filename, content, node, start, end, value); ok {
			mutants = append(mutants, mutant)
		}
	}

	return mutants
}

// dropElse removes everything from the end of the if body to the end of the
// else branch, including chained else-if statements.
func (b *Branch) dropElse(filename string, content []byte, node Node, stmt *ast.IfStmt) []m.Mutant {
	start, ok := offsetForPos(node.Fset, stmt.Body.End())
	if !ok {
		return nil
	}

	end, ok := offsetForPos(node.Fset, stmt.Else.End())
	if !ok {
		return nil
	}

	mutant, ok := newMutant(b.Name(), filename, content, node, start, end, "")
	if !ok {
		return nil
	}

	return []m.Mutant{mutant}
}
