package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes a node. Returning true stops descent into its children.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// ExtractionContext carries shared state used by node handlers.
type ExtractionContext struct {
	Source  []byte
	Path    string
	Imports []Import
}

// ExtractorEngine walks the syntax tree and dispatches node handlers by kind.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}
	if handler, ok := e.handlers[node.Kind()]; ok {
		if handler(ctx, node) {
			return
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		e.Walk(ctx, node.Child(i))
	}
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start >= end || end > uint(len(c.Source)) {
		return ""
	}
	return string(c.Source[start:end])
}

func (c *ExtractionContext) Location(node *sitter.Node) Location {
	pos := node.StartPosition()
	return Location{
		File:   c.Path,
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
	}
}

func (c *ExtractionContext) Add(node *sitter.Node, path string, kind ImportKind) {
	if path == "" {
		return
	}
	c.Imports = append(c.Imports, Import{Path: path, Kind: kind, Location: c.Location(node)})
}
