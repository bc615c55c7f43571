package parser

// ImportKind records which module syntax produced a dependency.
type ImportKind string

const (
	ImportRequire ImportKind = "require"
	ImportStatic  ImportKind = "import"
)

// Import is one raw dependency string found in a source file.
type Import struct {
	Path     string
	Kind     ImportKind
	Location Location
}

type Location struct {
	File   string
	Line   int
	Column int
}

// Extractor turns source text into the ordered list of raw imports it
// contains. A failure concerns only the file being extracted.
type Extractor interface {
	Extract(path string, source []byte) ([]Import, error)
}
