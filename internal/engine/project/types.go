package project

import (
	"path/filepath"
	"strings"

	"archcheck/internal/engine/resolver"
)

// AnalysisType selects which File fields a project build populates.
type AnalysisType string

const (
	AnalysisDependencies AnalysisType = "dependencies"
	AnalysisLOC          AnalysisType = "loc"
	AnalysisName         AnalysisType = "name"
	AnalysisSize         AnalysisType = "size"
)

type FileType string

const (
	FilePlain      FileType = "plain"
	FileJavaScript FileType = "javascript"
	FileTypeScript FileType = "typescript"
)

// File is one in-scope file. Fields outside the build's analysis type keep
// their zero values.
type File struct {
	Name         string
	Path         string
	Type         FileType
	LOC          int
	TotalLines   int
	Size         int64
	Dependencies []*resolver.Dependency
}

// DetectFileType classifies a path by extension.
func DetectFileType(path string) FileType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return FileJavaScript
	case ".ts", ".tsx", ".mts", ".cts":
		return FileTypeScript
	default:
		return FilePlain
	}
}

// DependsOnPath reports whether f has a valid-path dependency on target.
func (f *File) DependsOnPath(target string) bool {
	for _, dep := range f.Dependencies {
		if dep.Type == resolver.TypeValidPath && dep.Name == target {
			return true
		}
	}
	return false
}
