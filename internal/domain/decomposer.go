package domain

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode"

	m "gooze.dev/pkg/unitmut/internal/model"
)

// fileIsolated lists frameworks whose units run from a pruned copy of the
// suite file. Other frameworks select the unit with a filter only.
var fileIsolated = map[m.Framework]bool{
	m.FrameworkJasmine: true,
}

type decomposeFrame struct {
	node      *m.SuiteNode
	ancestors []*m.SuiteNode
	// runPath holds the go test names of the ancestors followed by the node.
	runPath []string
}

// Decompose flattens a suite tree into its atomic test units, in document
// order. Groups without cases contribute nothing and an empty tree yields an
// empty slice.
func Decompose(tree m.SuiteTree) []m.TestUnit {
	units := make([]m.TestUnit, 0)

	stack := make([]decomposeFrame, 0, len(tree.Roots))
	rootNames := goRunNames(tree.Roots)

	for i := len(tree.Roots) - 1; i >= 0; i-- {
		stack = append(stack, decomposeFrame{node: tree.Roots[i], runPath: rootNames[i : i+1]})
	}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if frame.node == nil {
			continue
		}

		if frame.node.Kind == m.SuiteCase {
			units = append(units, newTestUnit(tree, len(units), frame.ancestors, frame.node, frame.runPath))
			continue
		}

		ancestors := append(slices.Clip(frame.ancestors), frame.node)
		childNames := goRunNames(frame.node.Children)

		for i := len(frame.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, decomposeFrame{
				node:      frame.node.Children[i],
				ancestors: ancestors,
				runPath:   append(slices.Clip(frame.runPath), childNames[i]),
			})
		}
	}

	return units
}

func newTestUnit(tree m.SuiteTree, index int, ancestors []*m.SuiteNode, leaf *m.SuiteNode, runPath []string) m.TestUnit {
	segments := make([]string, 0, len(ancestors)+1)
	for _, group := range ancestors {
		segments = append(segments, group.Name)
	}

	segments = append(segments, leaf.Name)

	unit := m.TestUnit{
		Index:     index,
		Name:      m.QualifiedName(segments),
		Segments:  segments,
		File:      tree.File,
		Framework: tree.Framework,
		Selector:  selectorFor(tree.Framework, segments, runPath),
	}

	if fileIsolated[tree.Framework] {
		unit.Artifact = pruneSiblings(tree, append(slices.Clip(ancestors), leaf))
	}

	return unit
}

// pruneSiblings removes every test node that is not on path from the suite
// content. Statements that are not tests (hooks, helpers, imports) stay.
func pruneSiblings(tree m.SuiteTree, path []*m.SuiteNode) []byte {
	var removed []m.Span

	level := tree.Roots
	for _, onPath := range path {
		for _, sibling := range level {
			if sibling != onPath {
				removed = append(removed, sibling.Span)
			}
		}

		level = onPath.Children
	}

	sort.Slice(removed, func(i, j int) bool { return removed[i].Start < removed[j].Start })

	content := tree.Content
	artifact := make([]byte, 0, len(content))
	cursor := 0

	for _, span := range removed {
		if span.Start < cursor || span.End > len(content) {
			continue
		}

		artifact = append(artifact, content[cursor:span.Start]...)
		cursor = span.End
	}

	return append(artifact, content[cursor:]...)
}

// selectorFor builds the filter selecting one unit. Go selectors match the
// names go test reports, given in runPath.
func selectorFor(framework m.Framework, segments, runPath []string) string {
	switch framework {
	case m.FrameworkGo:
		parts := make([]string, 0, len(runPath))
		for _, name := range runPath {
			parts = append(parts, "^"+regexp.QuoteMeta(name)+"$")
		}

		return strings.Join(parts, "/")
	case m.FrameworkJasmine:
		return "^" + regexp.QuoteMeta(m.QualifiedName(segments)) + "$"
	default:
		return ""
	}
}

// goRunNames returns the names go test gives a list of sibling subtests:
// rewritten, with #NN appended to repeated names.
func goRunNames(siblings []*m.SuiteNode) []string {
	seen := make(map[string]int, len(siblings))
	names := make([]string, len(siblings))

	for i, node := range siblings {
		if node == nil {
			continue
		}

		names[i] = uniqueRunName(seen, goSubtestName(node.Name))
	}

	return names
}

// uniqueRunName follows the testing package: an empty or already used name
// gets a two-digit counter suffix, retried until it is free.
func uniqueRunName(seen map[string]int, name string) string {
	empty := name == ""

	for {
		next, exists := seen[name]
		if !empty && !exists {
			seen[name] = 1
			return name
		}

		seen[name] = next + 1
		name = fmt.Sprintf("%s#%02d", name, next)
		empty = false
	}
}

// goSubtestName mirrors the rewrite go test applies to subtest names: spaces
// become underscores and unprintable runes are escaped.
func goSubtestName(name string) string {
	var b strings.Builder

	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case !strconv.IsPrint(r):
			quoted := strconv.QuoteRune(r)
			b.WriteString(quoted[1 : len(quoted)-1])
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}
