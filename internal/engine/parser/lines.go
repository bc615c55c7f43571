package parser

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// LineStats holds physical and code line counts for a source file.
type LineStats struct {
	Total int
	Code  int
}

var (
	defaultLoaderOnce sync.Once
	defaultLoader     *GrammarLoader
)

func sharedLoader() *GrammarLoader {
	defaultLoaderOnce.Do(func() { defaultLoader = NewGrammarLoader() })
	return defaultLoader
}

// CountLines counts every line of source and the lines holding code: lines
// with at least one non-blank byte outside a comment node of the grammar
// detected from path. Sources that cannot be parsed count every non-blank
// line as code.
func CountLines(path string, source []byte) LineStats {
	return countLines(source, commentMask(sharedLoader(), path, source))
}

// CountLines counts lines with the parser's own grammars.
func (p *Parser) CountLines(path string, source []byte) LineStats {
	return countLines(source, commentMask(p.loader, path, source))
}

func countLines(source []byte, comment []bool) LineStats {
	var stats LineStats
	start := 0
	for start < len(source) {
		end := start
		for end < len(source) && source[end] != '\n' {
			end++
		}
		stats.Total++
		if lineHasCode(source, comment, start, end) {
			stats.Code++
		}
		start = end + 1
	}
	return stats
}

func lineHasCode(source []byte, comment []bool, start, end int) bool {
	for i := start; i < end; i++ {
		switch source[i] {
		case ' ', '\t', '\r', '\f', '\v':
			continue
		}
		if comment == nil || !comment[i] {
			return true
		}
	}
	return false
}

// commentMask marks the bytes of source covered by comment nodes. It
// returns nil when no syntax tree is available.
func commentMask(loader *GrammarLoader, path string, source []byte) []bool {
	if len(source) == 0 || loader == nil {
		return nil
	}
	grammar := loader.Grammar(DetectLanguage(path))
	if grammar == nil {
		return nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(grammar); err != nil {
		return nil
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	mask := make([]bool, len(source))
	stack := []*sitter.Node{tree.RootNode()}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch node.Kind() {
		case "comment", "html_comment":
			end := int(node.EndByte())
			if end > len(mask) {
				end = len(mask)
			}
			for i := int(node.StartByte()); i < end; i++ {
				mask[i] = true
			}
			continue
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			if child := node.Child(i); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return mask
}
