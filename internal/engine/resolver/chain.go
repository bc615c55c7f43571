package resolver

import (
	"log/slog"
	"path/filepath"
	"strings"
)

// Input is the immutable view of a dependency handed to each strategy.
type Input struct {
	Name         string
	ResolvedWith ResolvedWith
}

// Outcome is a strategy's answer. Unresolved outcomes carry no type.
type Outcome struct {
	Resolved bool
	Type     DependencyType
	Name     string
	Strategy string
}

func unresolved() Outcome { return Outcome{} }

func resolvedAs(t DependencyType, name string) Outcome {
	return Outcome{Resolved: true, Type: t, Name: name}
}

// Strategy attempts to classify one dependency.
type Strategy struct {
	Name    string
	Attempt func(in Input, ctx Context) Outcome
}

// DefaultChain lists the strategies in precedence order. The last one always
// resolves.
var DefaultChain = []Strategy{
	{Name: "builtin-module", Attempt: resolveBuiltin},
	{Name: "package", Attempt: resolvePackage},
	{Name: "dev-package", Attempt: resolveDevPackage},
	{Name: "module-alias", Attempt: resolveRequirePath},
	{Name: "typescript-paths", Attempt: resolveTypeScriptPath},
	{Name: "relative-path", Attempt: resolveRelativePath},
	{Name: "invalid", Attempt: resolveInvalid},
}

// Resolve runs the chain once and returns the first resolved outcome.
func Resolve(in Input, ctx Context) Outcome {
	return ResolveWith(DefaultChain, in, ctx)
}

func ResolveWith(chain []Strategy, in Input, ctx Context) Outcome {
	for _, s := range chain {
		out := s.Attempt(in, ctx)
		if out.Resolved {
			out.Strategy = s.Name
			return out
		}
	}
	out := resolveInvalid(in, ctx)
	out.Strategy = "invalid"
	return out
}

func resolveBuiltin(in Input, _ Context) Outcome {
	if IsBuiltinModule(in.Name) {
		return resolvedAs(TypeBuiltinModule, in.Name)
	}
	return unresolved()
}

func resolvePackage(in Input, ctx Context) Outcome {
	if ctx.Environment != nil && ctx.Manifest.HasDependency(in.Name) {
		return resolvedAs(TypePackage, in.Name)
	}
	return unresolved()
}

func resolveDevPackage(in Input, ctx Context) Outcome {
	if ctx.Environment != nil && ctx.Manifest.HasDevDependency(in.Name) {
		return resolvedAs(TypeDevPackage, in.Name)
	}
	return unresolved()
}

// resolveRequirePath applies require.resolve semantics (including module
// aliases) to dependencies loaded with require.
func resolveRequirePath(in Input, ctx Context) Outcome {
	if in.ResolvedWith != WithRequire || ctx.Environment == nil {
		return unresolved()
	}
	r := RequireResolver{RootDir: ctx.RootDir, Extensions: ctx.Extensions}
	if ctx.Manifest != nil {
		r.Aliases = ctx.Manifest.ModuleAliases
	}
	found, err := r.Resolve(in.Name, ctx.FileDir())
	if err != nil {
		slog.Debug("require resolution failed", "dependency", in.Name, "file", ctx.FilePath, "error", err)
		return unresolved()
	}
	if match, ok := ctx.Available.Match(found); ok {
		return resolvedAs(TypeValidPath, match)
	}
	return unresolved()
}

func resolveTypeScriptPath(in Input, ctx Context) Outcome {
	if ctx.Environment == nil || ctx.TSConfig == nil {
		return unresolved()
	}
	found, ok := ctx.TSConfig.Resolve(in.Name, ctx.FilePath)
	if !ok {
		return unresolved()
	}
	if match, ok := ctx.Available.Match(found); ok {
		return resolvedAs(TypeValidPath, match)
	}
	return unresolved()
}

// resolveRelativePath checks the bare name and then name+extension next to
// the importing file; the first candidate on disk must be in scope.
func resolveRelativePath(in Input, ctx Context) Outcome {
	if ctx.Environment == nil || in.Name == "" {
		return unresolved()
	}
	base := in.Name
	if !filepath.IsAbs(base) {
		base = filepath.Join(ctx.FileDir(), filepath.FromSlash(in.Name))
	}
	candidates := make([]string, 0, len(ctx.Extensions)+1)
	candidates = append(candidates, base)
	for _, ext := range ctx.Extensions {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			continue
		}
		candidates = append(candidates, base+ext)
	}
	for _, candidate := range candidates {
		if !isFile(candidate) {
			continue
		}
		if match, ok := ctx.Available.Match(candidate); ok {
			return resolvedAs(TypeValidPath, match)
		}
		return unresolved()
	}
	return unresolved()
}

func resolveInvalid(in Input, _ Context) Outcome {
	return resolvedAs(TypeInvalid, in.Name)
}
