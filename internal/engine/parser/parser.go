package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"archcheck/internal/core/errors"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Parser extracts require/import dependencies from JavaScript and
// TypeScript sources with tree-sitter.
type Parser struct {
	loader *GrammarLoader
	engine *ExtractorEngine
}

func NewParser(loader *GrammarLoader) *Parser {
	if loader == nil {
		loader = NewGrammarLoader()
	}
	return &Parser{
		loader: loader,
		engine: NewExtractorEngine(map[string]NodeHandler{
			"import_statement": handleImportStatement,
			"export_statement": handleExportStatement,
			"call_expression":  handleCallExpression,
		}),
	}
}

func (p *Parser) Extract(path string, source []byte) ([]Import, error) {
	lang := DetectLanguage(path)
	grammar := p.loader.Grammar(lang)
	if grammar == nil {
		return nil, errors.New(errors.CodeNotSupported, fmt.Sprintf("grammar not loaded: %s", lang))
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(grammar); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "set language")
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, errors.New(errors.CodeInternal, "parse failed")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		slog.Debug("syntax errors in source, extracting what parsed", "path", path)
	}

	ctx := &ExtractionContext{Source: source, Path: path}
	p.engine.Walk(ctx, root)
	return ctx.Imports, nil
}

// import x from 'a' | import 'a' | import x = require('a')
func handleImportStatement(ctx *ExtractionContext, node *sitter.Node) bool {
	if src := node.ChildByFieldName("source"); src != nil {
		ctx.Add(node, stringLiteral(ctx, src), ImportStatic)
		return true
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Kind() != "import_require_clause" {
			continue
		}
		if src := child.ChildByFieldName("source"); src != nil {
			ctx.Add(node, stringLiteral(ctx, src), ImportRequire)
		}
	}
	return true
}

// export * from 'a' | export { b } from 'a'
func handleExportStatement(ctx *ExtractionContext, node *sitter.Node) bool {
	src := node.ChildByFieldName("source")
	if src == nil {
		return false
	}
	ctx.Add(node, stringLiteral(ctx, src), ImportStatic)
	return true
}

// require('a') | import('a')
func handleCallExpression(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return false
	}
	var kind ImportKind
	switch {
	case fn.Kind() == "import":
		kind = ImportStatic
	case fn.Kind() == "identifier" && ctx.Text(fn) == "require":
		kind = ImportRequire
	default:
		return false
	}
	args := node.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return false
	}
	ctx.Add(node, stringLiteral(ctx, args.NamedChild(0)), kind)
	return false
}

// stringLiteral returns the value of a string or substitution-free template
// literal, or "" for anything computed at runtime.
func stringLiteral(ctx *ExtractionContext, node *sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "string":
		return trimQuoted(ctx.Text(node))
	case "template_string":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if child := node.NamedChild(i); child != nil && child.Kind() == "template_substitution" {
				return ""
			}
		}
		return trimQuoted(ctx.Text(node))
	}
	return ""
}

func trimQuoted(value string) string {
	value = strings.TrimSpace(value)
	return strings.Trim(value, "\"'`")
}
