package resolver

// DependencyType classifies what a raw import string points at.
type DependencyType string

const (
	TypeUnknown       DependencyType = "unknown"
	TypeBuiltinModule DependencyType = "node-builtin-module"
	TypePackage       DependencyType = "node-package"
	TypeDevPackage    DependencyType = "node-dev-package"
	TypeValidPath     DependencyType = "valid-path"
	TypeInvalid       DependencyType = "invalid"
)

// ResolvedWith records the module syntax that produced a dependency.
type ResolvedWith string

const (
	WithRequire ResolvedWith = "require"
	WithImport  ResolvedWith = "import"
)

const SourceJavaScript = "javascript"

// Dependency is one import/require occurrence in a file. Name starts as the
// raw import string and becomes the absolute file path when a path-based
// strategy places it.
type Dependency struct {
	Name         string
	Raw          string
	Type         DependencyType
	ResolvedWith ResolvedWith
	ComesFrom    string
	Strategy     string
}

func NewDependency(raw string, with ResolvedWith) *Dependency {
	return &Dependency{
		Name:         raw,
		Raw:          raw,
		Type:         TypeUnknown,
		ResolvedWith: with,
		ComesFrom:    SourceJavaScript,
	}
}

// Resolve classifies the dependency against ctx. Every call starts from the
// raw import string, so resolving twice with the same context gives the same
// answer and a changed context reclassifies from scratch.
func (d *Dependency) Resolve(ctx Context) {
	out := Resolve(Input{Name: d.Raw, ResolvedWith: d.ResolvedWith}, ctx)
	d.Type = out.Type
	d.Name = out.Name
	d.Strategy = out.Strategy
}

func (d *Dependency) IsResolved() bool {
	return d.Type != TypeUnknown
}
