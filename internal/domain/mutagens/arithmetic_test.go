package mutagens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArithmetic_ApplyMutation(t *testing.T) {
	src := "package p\n\nfunc add(a, b int) int {\n\treturn a + b\n}\n"
	fset, file := parseSource(t, src)

	op, err := NewArithmetic()
	require.NoError(t, err)

	nodes := collectNodes(fset, file, "BinaryExpr")
	require.Len(t, nodes, 1)
	require.True(t, op.CanMutate(nodes[0]))

	mutants, err := op.ApplyMutation("test.go", []byte(src), nodes[0], file)
	require.NoError(t, err)
	require.Len(t, mutants, 4)

	replacements := make([]string, 0, len(mutants))
	for _, mutant := range mutants {
		replacements = append(replacements, mutant.Replacement)

		assert.Equal(t, "+", mutant.Original)
		assert.Equal(t, ArithmeticName, mutant.Operator)
		assert.Equal(t, "BinaryExpr", mutant.NodeKind)
		assert.Equal(t, 4, mutant.Span.Line)
		assert.Equal(t, 11, mutant.Span.Column)
		assert.Len(t, mutant.ID, 16)
		assert.Contains(t, string(mutant.MutatedCode), "return a "+mutant.Replacement+" b")
		assert.Contains(t, mutant.Diff, "+\treturn a "+mutant.Replacement+" b")
	}

	assert.Equal(t, []string{"-", "*", "/", "%"}, replacements)
}

func TestArithmetic_LeavesOriginalUntouched(t *testing.T) {
	src := "package p\n\nvar x = 3 * 4\n"
	fset, file := parseSource(t, src)

	op, err := NewArithmetic()
	require.NoError(t, err)

	code := []byte(src)
	node := collectNodes(fset, file, "BinaryExpr")[0]

	mutants, err := op.ApplyMutation("test.go", code, node, file)
	require.NoError(t, err)
	require.NotEmpty(t, mutants)

	assert.Equal(t, src, string(code))

	for _, mutant := range mutants {
		prefix := string(mutant.MutatedCode[:mutant.Span.Start])
		suffix := string(mutant.MutatedCode[mutant.Span.Start+len(mutant.Replacement):])
		assert.Equal(t, src[:mutant.Span.Start], prefix)
		assert.Equal(t, src[mutant.Span.End:], suffix)
	}
}

func TestArithmetic_SkipsStringConcatenation(t *testing.T) {
	src := "package p\n\nfunc greet(name string) string {\n\treturn \"hi \" + name\n}\n"
	fset, file := parseSource(t, src)

	op, err := NewArithmetic()
	require.NoError(t, err)

	for _, node := range collectNodes(fset, file, "BinaryExpr") {
		assert.False(t, op.CanMutate(node))
	}
}

func TestArithmetic_IgnoresComparisons(t *testing.T) {
	src := "package p\n\nvar ok = 1 < 2\n"
	fset, file := parseSource(t, src)

	op, err := NewArithmetic()
	require.NoError(t, err)

	nodes := collectNodes(fset, file, "BinaryExpr")
	require.Len(t, nodes, 1)
	assert.False(t, op.CanMutate(nodes[0]))
	assert.True(t, strings.Contains(src, "<"))
}
