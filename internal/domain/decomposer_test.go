package domain

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gooze.dev/pkg/unitmut/internal/adapter"
	m "gooze.dev/pkg/unitmut/internal/model"
)

func group(name string, children ...*m.SuiteNode) *m.SuiteNode {
	return &m.SuiteNode{Kind: m.SuiteGroup, Name: name, Children: children}
}

func testCase(name string) *m.SuiteNode {
	return &m.SuiteNode{Kind: m.SuiteCase, Name: name}
}

func unitNames(units []m.TestUnit) []string {
	names := make([]string, 0, len(units))
	for _, unit := range units {
		names = append(names, unit.Name)
	}

	return names
}

func TestDecompose_EmptyTree(t *testing.T) {
	units := Decompose(m.SuiteTree{File: "empty.spec.js", Framework: m.FrameworkJasmine})
	require.NotNil(t, units)
	assert.Empty(t, units)
}

func TestDecompose_GroupsWithoutCases(t *testing.T) {
	tree := m.SuiteTree{
		Framework: m.FrameworkGo,
		Roots:     []*m.SuiteNode{group("A", group("B")), group("C")},
	}

	assert.Empty(t, Decompose(tree))
}

func TestDecompose_NamesAndIndices(t *testing.T) {
	tree := m.SuiteTree{
		File:      "calc_test.go",
		Framework: m.FrameworkGo,
		Roots: []*m.SuiteNode{
			group("MyTest",
				group("should be ignored", testCase("x")),
				group("should pass", testCase("if everything is correct")),
				testCase("should pass"),
			),
			testCase("TestStandalone"),
		},
	}

	units := Decompose(tree)
	require.Len(t, units, 4)

	assert.Equal(t, []string{
		"MyTest should be ignored x",
		"MyTest should pass if everything is correct",
		"MyTest should pass",
		"TestStandalone",
	}, unitNames(units))

	for i, unit := range units {
		assert.Equal(t, i, unit.Index)
		assert.Equal(t, m.Path("calc_test.go"), unit.File)
		assert.Equal(t, m.FrameworkGo, unit.Framework)
		assert.False(t, unit.Standalone())
	}

	assert.Equal(t, []string{"MyTest", "should pass", "if everything is correct"}, units[1].Segments)
	assert.Equal(t, "if everything is correct", units[1].Leaf())
	assert.Equal(t, `^MyTest$/^should_pass$/^if_everything_is_correct$`, units[1].Selector)
}

func TestDecompose_DuplicateNamesStayDistinct(t *testing.T) {
	tree := m.SuiteTree{
		Framework: m.FrameworkGo,
		Roots:     []*m.SuiteNode{group("G", testCase("same"), testCase("same"))},
	}

	units := Decompose(tree)
	require.Len(t, units, 2)
	assert.Equal(t, units[0].Name, units[1].Name)
	assert.Equal(t, 0, units[0].Index)
	assert.Equal(t, 1, units[1].Index)
	assert.Equal(t, `^G$/^same$`, units[0].Selector)
	assert.Equal(t, `^G$/^same#01$`, units[1].Selector)
}

func TestDecompose_GoSelectorsFollowTestingNames(t *testing.T) {
	tree := m.SuiteTree{
		Framework: m.FrameworkGo,
		Roots: []*m.SuiteNode{
			group("TestX",
				testCase("dup"),
				group("dup", testCase("tab\tbed"), testCase("")),
				testCase("dup#01"),
				testCase("dup"),
				testCase(""),
				testCase("bell\a"),
			),
		},
	}

	var selectors []string
	for _, unit := range Decompose(tree) {
		selectors = append(selectors, unit.Selector)
	}

	assert.Equal(t, []string{
		`^TestX$/^dup$`,
		`^TestX$/^dup#01$/^tab_bed$`,
		`^TestX$/^dup#01$/^#00$`,
		`^TestX$/^dup#01#01$`,
		`^TestX$/^dup#02$`,
		`^TestX$/^#00$`,
		`^TestX$/^bell\\a$`,
	}, selectors)
}

func TestGoSubtestName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "adds", "adds"},
		{"spaces", "adds two numbers", "adds_two_numbers"},
		{"unicode space", "a\u00a0b", "a_b"},
		{"newline", "a\nb", "a_b"},
		{"unprintable", "a\x00b", `a\x00b`},
		{"printable unicode", "größer", "größer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, goSubtestName(tt.in))
		})
	}
}

func TestDecompose_DeepNesting(t *testing.T) {
	const depth = 1000

	leaf := testCase("leaf")
	node := leaf

	for i := 0; i < depth; i++ {
		node = group("g", node)
	}

	units := Decompose(m.SuiteTree{Framework: m.FrameworkGo, Roots: []*m.SuiteNode{node}})
	require.Len(t, units, 1)
	assert.Len(t, units[0].Segments, depth+1)
	assert.Equal(t, "leaf", units[0].Leaf())
}

func TestDecompose_AncestorPathsAreNotShared(t *testing.T) {
	tree := m.SuiteTree{
		Framework: m.FrameworkGo,
		Roots: []*m.SuiteNode{
			group("A", group("B", testCase("1")), group("C", testCase("2"), testCase("3"))),
		},
	}

	units := Decompose(tree)
	require.Len(t, units, 3)
	assert.Equal(t, []string{"A", "B", "1"}, units[0].Segments)
	assert.Equal(t, []string{"A", "C", "2"}, units[1].Segments)
	assert.Equal(t, []string{"A", "C", "3"}, units[2].Segments)
}

func TestDecompose_RoundTrip(t *testing.T) {
	tree, err := adapter.NewJasmineSuiteParser().Parse(context.Background(), "nine.spec.js", []byte(nineCases))
	require.NoError(t, err)

	var leaves []string

	for _, unit := range Decompose(tree) {
		leaves = append(leaves, unit.Leaf())
	}

	assert.Equal(t, []string{"o1", "o2", "o3", "a1", "a2", "a3", "b1", "b2", "b3"}, leaves)
}

func TestDecompose_JasmineArtifacts(t *testing.T) {
	tree, err := adapter.NewJasmineSuiteParser().Parse(context.Background(), "nine.spec.js", []byte(nineCases))
	require.NoError(t, err)

	units := Decompose(tree)
	require.Len(t, units, 9)

	a2 := units[4]
	assert.Equal(t, "Outer A a2", a2.Name)
	assert.True(t, a2.Standalone())
	assert.Equal(t, `^Outer A a2$`, a2.Selector)

	artifact := string(a2.Artifact)
	assert.Contains(t, artifact, "describe('Outer'")
	assert.Contains(t, artifact, "describe('A'")
	assert.Contains(t, artifact, "it('a2'")

	for _, sibling := range []string{"'o1'", "'o3'", "'a1'", "'a3'", "describe('B'", "'b1'"} {
		assert.NotContains(t, artifact, sibling)
	}

	o1 := string(units[0].Artifact)
	assert.Contains(t, o1, "it('o1'")
	assert.False(t, strings.Contains(o1, "describe('A'") || strings.Contains(o1, "it('o2'"))
}
