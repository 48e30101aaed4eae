package mutagens

import (
	"crypto/sha256"
	"fmt"
	"go/token"

	"github.com/pmezard/go-difflib/difflib"
	m "gooze.dev/pkg/unitmut/internal/model"
)

func offsetForPos(fset *token.FileSet, pos token.Pos) (int, bool) {
	file := fset.File(pos)
	if file == nil {
		return 0, false
	}

	return file.Offset(pos), true
}

func replaceRange(content []byte, start, end int, replacement string) []byte {
	if start < 0 || end < start || end > len(content) {
		return content
	}

	mutated := make([]byte, 0, len(content)-(end-start)+len(replacement))
	mutated = append(mutated, content[:start]...)
	mutated = append(mutated, replacement...)
	mutated = append(mutated, content[end:]...)

	return mutated
}

func diffCode(filename string, original, mutated []byte) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(original)),
		B:        difflib.SplitLines(string(mutated)),
		FromFile: filename,
		ToFile:   filename,
		Context:  1,
	})
	if err != nil {
		return ""
	}

	return diff
}

func mutantID(filename, operator string, offset int, replacement string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s-%s-%d-%s", filename, operator, offset, replacement)))
	return fmt.Sprintf("%x", h)[:16]
}

// newMutant replaces [start, end) of content and records the result.
func newMutant(operator string, filename string, content []byte, node Node, start, end int, replacement string) (m.Mutant, bool) {
	if start < 0 || end < start || end > len(content) {
		return m.Mutant{}, false
	}

	original := string(content[start:end])
	if original == replacement {
		return m.Mutant{}, false
	}

	pos := node.Fset.Position(node.Fset.File(node.Pos()).Pos(start))
	mutated := replaceRange(content, start, end, replacement)

	return m.Mutant{
		ID:       mutantID(filename, operator, start, replacement),
		Source:   m.Path(filename),
		Operator: operator,
		NodeKind: node.Kind(),
		Span: m.Span{
			Start:  start,
			End:    end,
			Line:   pos.Line,
			Column: pos.Column,
		},
		Original:    original,
		Replacement: replacement,
		MutatedCode: mutated,
		Diff:        diffCode(filename, content, mutated),
	}, true
}

// tokenMutants swaps the operator token at opPos with every alternative.
func tokenMutants(operator, filename string, content []byte, node Node, opPos token.Pos, original token.Token, alternatives []token.Token) []m.Mutant {
	start, ok := offsetForPos(node.Fset, opPos)
	if !ok {
		return nil
	}

	end := start + len(original.String())

	var mutants []m.Mutant

	for _, alt := range alternatives {
		if mutant, ok := newMutant(operator, filename, content, node, start, end, alt.String()); ok {
			mutants = append(mutants, mutant)
		}
	}

	return mutants
}

func alternativesOf(original token.Token, all []token.Token) []token.Token {
	var alternatives []token.Token

	for _, op := range all {
		if op != original {
			alternatives = append(alternatives, op)
		}
	}

	return alternatives
}
