package adapter

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	m "gooze.dev/pkg/unitmut/internal/model"
)

// SuiteParser turns a test-suite file into its structural tree of groups and cases.
type SuiteParser interface {
	Parse(ctx context.Context, path m.Path, content []byte) (m.SuiteTree, error)
}

// NewSuiteParser returns the parser for the given framework.
func NewSuiteParser(framework m.Framework, goFiles GoFileAdapter) (SuiteParser, error) {
	switch framework {
	case m.FrameworkJasmine:
		return NewJasmineSuiteParser(), nil
	case m.FrameworkGo:
		return NewGoSuiteParser(goFiles), nil
	default:
		return nil, fmt.Errorf("%w: no suite parser for framework %q", m.ErrInvalidArgument, framework)
	}
}

var (
	jasmineGroupFuncs = map[string]struct{}{"describe": {}, "fdescribe": {}, "xdescribe": {}, "context": {}}
	jasmineCaseFuncs  = map[string]struct{}{"it": {}, "fit": {}, "xit": {}, "test": {}}
)

// JasmineSuiteParser reads describe/it spec files with tree-sitter.
type JasmineSuiteParser struct{}

// NewJasmineSuiteParser constructs a JasmineSuiteParser.
func NewJasmineSuiteParser() *JasmineSuiteParser {
	return &JasmineSuiteParser{}
}

// Parse implements SuiteParser.
func (p *JasmineSuiteParser) Parse(ctx context.Context, path m.Path, content []byte) (m.SuiteTree, error) {
	tree := m.SuiteTree{File: path, Framework: m.FrameworkJasmine, Content: content}

	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(javascript.GetLanguage())

	syntax, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return tree, fmt.Errorf("parse %s: %w", path, err)
	}
	defer syntax.Close()

	root := syntax.RootNode()
	if root.HasError() {
		return tree, fmt.Errorf("%w: %s is not valid JavaScript", m.ErrInvalidArgument, path)
	}

	holder := &m.SuiteNode{Kind: m.SuiteGroup}
	p.visit(root, holder, content)
	tree.Roots = holder.Children

	return tree, nil
}

func (p *JasmineSuiteParser) visit(node *sitter.Node, parent *m.SuiteNode, src []byte) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}

		if child.Type() == "call_expression" {
			if suiteNode, args, ok := p.suiteCall(child, src); ok {
				parent.Children = append(parent.Children, suiteNode)
				if suiteNode.Kind == m.SuiteGroup {
					p.visit(args, suiteNode, src)
				}

				continue
			}
		}

		p.visit(child, parent, src)
	}
}

// suiteCall recognizes describe(...) and it(...) calls with a string name.
func (p *JasmineSuiteParser) suiteCall(call *sitter.Node, src []byte) (*m.SuiteNode, *sitter.Node, bool) {
	callee := call.ChildByFieldName("function")
	args := call.ChildByFieldName("arguments")

	if callee == nil || args == nil || args.NamedChildCount() == 0 {
		return nil, nil, false
	}

	if callee.Type() == "member_expression" {
		callee = callee.ChildByFieldName("object")
		if callee == nil {
			return nil, nil, false
		}
	}

	if callee.Type() != "identifier" {
		return nil, nil, false
	}

	var kind m.SuiteNodeKind

	ident := callee.Content(src)
	if _, ok := jasmineGroupFuncs[ident]; ok {
		kind = m.SuiteGroup
	} else if _, ok := jasmineCaseFuncs[ident]; ok {
		kind = m.SuiteCase
	} else {
		return nil, nil, false
	}

	name, ok := jsStringValue(args.NamedChild(0), src)
	if !ok {
		return nil, nil, false
	}

	spanNode := call
	if parent := call.Parent(); parent != nil && parent.Type() == "expression_statement" {
		spanNode = parent
	}

	return &m.SuiteNode{
		Kind: kind,
		Name: name,
		Span: m.Span{
			Start:  int(spanNode.StartByte()),
			End:    int(spanNode.EndByte()),
			Line:   int(spanNode.StartPoint().Row) + 1,
			Column: int(spanNode.StartPoint().Column) + 1,
		},
	}, args, true
}

func jsStringValue(node *sitter.Node, src []byte) (string, bool) {
	if node == nil {
		return "", false
	}

	raw := node.Content(src)

	switch node.Type() {
	case "string":
	case "template_string":
		if strings.Contains(raw, "${") {
			return "", false
		}
	default:
		return "", false
	}

	if len(raw) < 2 {
		return "", false
	}

	return unescapeJS(raw[1 : len(raw)-1]), true
}

func unescapeJS(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder

	escaped := false

	for _, r := range s {
		if escaped {
			switch r {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case '\n':
				// line continuation
			default:
				b.WriteRune(r)
			}

			escaped = false

			continue
		}

		if r == '\\' {
			escaped = true
			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}

// GoSuiteParser reads Go test files. A TestXxx function whose subtests all
// have literal names is a group, everything else is a case run as a whole.
type GoSuiteParser struct {
	goFiles GoFileAdapter
}

// NewGoSuiteParser constructs a GoSuiteParser.
func NewGoSuiteParser(goFiles GoFileAdapter) *GoSuiteParser {
	if goFiles == nil {
		goFiles = NewLocalGoFileAdapter()
	}

	return &GoSuiteParser{goFiles: goFiles}
}

// Parse implements SuiteParser.
func (p *GoSuiteParser) Parse(ctx context.Context, path m.Path, content []byte) (m.SuiteTree, error) {
	tree := m.SuiteTree{File: path, Framework: m.FrameworkGo, Content: content}

	fset := token.NewFileSet()

	file, err := p.goFiles.Parse(ctx, fset, string(path), content)
	if err != nil {
		return tree, fmt.Errorf("parse %s: %w", path, err)
	}

	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv != nil || fd.Body == nil || !isTestFunc(fd) {
			continue
		}

		node := &m.SuiteNode{
			Kind:     m.SuiteCase,
			Name:     fd.Name.Name,
			Span:     goSpan(fset, fd),
			Children: subtests(fset, fd.Body),
		}
		if len(node.Children) > 0 {
			node.Kind = m.SuiteGroup
		}

		tree.Roots = append(tree.Roots, node)
	}

	return tree, nil
}

// isTestFunc follows the go test naming rule: Test followed by nothing or a
// non-lowercase rune, taking a single parameter.
func isTestFunc(fd *ast.FuncDecl) bool {
	name := fd.Name.Name
	if !strings.HasPrefix(name, "Test") || name == "TestMain" {
		return false
	}

	if rest := name[len("Test"):]; rest != "" {
		r, _ := utf8.DecodeRuneInString(rest)
		if unicode.IsLower(r) {
			return false
		}
	}

	return fd.Type.Params != nil && len(fd.Type.Params.List) == 1
}

// subtests returns the literal-named t.Run calls of body. When body also
// starts runs that cannot be addressed by name (computed names, runs inside
// loops) it returns nil, so the enclosing test runs as a whole.
func subtests(fset *token.FileSet, body ast.Node) []*m.SuiteNode {
	var nodes []*m.SuiteNode

	opaque := false

	ast.Inspect(body, func(n ast.Node) bool {
		if opaque {
			return false
		}

		switch stmt := n.(type) {
		case *ast.ForStmt:
			opaque = containsRun(stmt.Body)
			return !opaque
		case *ast.RangeStmt:
			opaque = containsRun(stmt.Body)
			return !opaque
		}

		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}

		if !isRunCall(call) {
			return true
		}

		name, fn, ok := runCall(call)
		if !ok {
			opaque = true
			return false
		}

		node := &m.SuiteNode{
			Kind:     m.SuiteCase,
			Name:     name,
			Span:     goSpan(fset, call),
			Children: subtests(fset, fn.Body),
		}
		if len(node.Children) > 0 {
			node.Kind = m.SuiteGroup
		}

		nodes = append(nodes, node)

		return false
	})

	if opaque {
		return nil
	}

	return nodes
}

// containsRun reports whether n starts any subtest.
func containsRun(n ast.Node) bool {
	found := false

	ast.Inspect(n, func(n ast.Node) bool {
		if call, ok := n.(*ast.CallExpr); ok && isRunCall(call) {
			found = true
		}

		return !found
	})

	return found
}

// isRunCall matches any x.Run(name, fn) call.
func isRunCall(call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)

	return ok && sel.Sel.Name == "Run" && len(call.Args) == 2
}

// runCall matches x.Run("literal", func(...) {...}).
func runCall(call *ast.CallExpr) (string, *ast.FuncLit, bool) {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Run" || len(call.Args) != 2 {
		return "", nil, false
	}

	lit, ok := call.Args[0].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", nil, false
	}

	fn, ok := call.Args[1].(*ast.FuncLit)
	if !ok {
		return "", nil, false
	}

	name, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", nil, false
	}

	return name, fn, true
}

func goSpan(fset *token.FileSet, n ast.Node) m.Span {
	start := fset.Position(n.Pos())
	end := fset.Position(n.End())

	return m.Span{
		Start:  start.Offset,
		End:    end.Offset,
		Line:   start.Line,
		Column: start.Column,
	}
}
