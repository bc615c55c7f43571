package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"archcheck/internal/core/app"
	"archcheck/internal/core/config"
	"archcheck/internal/engine/project"
	"archcheck/internal/engine/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const archcheckTOML = `
version = 1

[project]
root_dir = "."
exclude = ["**/node_modules/**", "<rootDir>/dist/**"]

[[rules]]
name = "domain only depends on domain"
files = "src/domain/**"
kind = "only_depends_on"
patterns = ["**/domain/**"]

[[rules]]
name = "app is framework free"
files = "src/app/**"
mode = "should_not"
kind = "depends_on"
patterns = ["express"]

[[rules]]
name = "no cycles"
files = "src/**"
mode = "should_not"
kind = "have_cycles"

[[rules]]
name = "test naming"
files = "test/**"
kind = "have_name"
patterns = ["*.test.js"]

[history]
enabled = true
path = ".archcheck/history.db"
`

func createTestFiles(t *testing.T, root string) {
	files := map[string]string{
		"archcheck.toml": archcheckTOML,
		"package.json": `{
  "name": "todo-app",
  "dependencies": {"express": "^4.0.0"},
  "devDependencies": {"jest": "^29.0.0"},
  "_moduleAliases": {"@domain": "src/domain"}
}`,
		"tsconfig.json": `{
  // path mapping for the app layer
  "compilerOptions": {"baseUrl": ".", "paths": {"@app/*": ["src/app/*"]}},
}`,
		"src/domain/entities/Todo.js":               "module.exports = class Todo {};\n",
		"src/domain/repositories/TodoRepository.js": "const Todo = require('@domain/entities/Todo');\nmodule.exports = {};\n",
		"src/app/service.ts":                        "import Todo from '../domain/entities/Todo';\nexport const s = 1;\n",
		"src/app/index.ts":                          "import { s } from '@app/service';\nimport express from 'express';\n",
		"src/infra/server.js":                       "const path = require('path');\nconst app = require('../app/index');\n",
		"test/server.test.js":                       "const jest = require('jest');\n",
		"dist/bundle.js":                            "require('./missing');\n",
	}
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestFullPipelineIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFiles(t, tmpDir)

	cfg, err := config.Load(filepath.Join(tmpDir, "archcheck.toml"))
	require.NoError(t, err)

	appInstance, err := app.New(cfg)
	require.NoError(t, err)
	defer appInstance.Close()

	ctx := context.Background()
	run, err := appInstance.Check(ctx)
	require.NoError(t, err)
	require.Len(t, run.Outcomes, 4)
	assert.NotEmpty(t, run.ID)

	for i, o := range run.Outcomes {
		require.NoError(t, o.Err, "rule %d", i)
	}
	assert.True(t, run.Outcomes[0].Passed(), "domain rule: %v", run.Outcomes[0].Failure())
	assert.True(t, run.Outcomes[2].Passed(), "cycle rule: %v", run.Outcomes[2].Failure())
	assert.True(t, run.Outcomes[3].Passed(), "naming rule: %v", run.Outcomes[3].Failure())

	framework := run.Outcomes[1]
	require.False(t, framework.Passed())
	require.Len(t, framework.Result.Violations, 1)
	assert.True(t, strings.HasSuffix(framework.Result.Violations[0].Path, "/src/app/index.ts"))
	assert.Contains(t, framework.Failure().Error(), "[app is framework free] files in 'src/app/**' should not depend on 'express'")

	points, err := appInstance.Trend(ctx, 10)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 1, points[0].FailedRules)
	assert.Equal(t, 1, points[0].Violations)
}

func TestResolutionChainIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFiles(t, tmpDir)

	cfg, err := config.Load(filepath.Join(tmpDir, "archcheck.toml"))
	require.NoError(t, err)

	p, err := project.Create(context.Background(), project.Options{
		Analysis:   project.AnalysisDependencies,
		RootDir:    cfg.Project.RootDir,
		Include:    cfg.Project.Include,
		Exclude:    cfg.Project.Exclude,
		Extensions: cfg.Project.Extensions,
	})
	require.NoError(t, err)

	types := map[string]map[string]resolver.DependencyType{}
	for _, f := range p.Files() {
		rel := strings.TrimPrefix(f.Path, filepath.ToSlash(cfg.Project.RootDir)+"/")
		types[rel] = map[string]resolver.DependencyType{}
		for _, dep := range f.Dependencies {
			types[rel][dep.Raw] = dep.Type
		}
	}

	assert.NotContains(t, types, "dist/bundle.js", "excluded files are not part of the project")
	assert.Equal(t, resolver.TypeValidPath, types["src/domain/repositories/TodoRepository.js"]["@domain/entities/Todo"])
	assert.Equal(t, resolver.TypeValidPath, types["src/app/service.ts"]["../domain/entities/Todo"])
	assert.Equal(t, resolver.TypeValidPath, types["src/app/index.ts"]["@app/service"])
	assert.Equal(t, resolver.TypePackage, types["src/app/index.ts"]["express"])
	assert.Equal(t, resolver.TypeBuiltinModule, types["src/infra/server.js"]["path"])
	assert.Equal(t, resolver.TypeValidPath, types["src/infra/server.js"]["../app/index"])
	assert.Equal(t, resolver.TypeDevPackage, types["test/server.test.js"]["jest"])
}

func TestTraceAndImpactIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFiles(t, tmpDir)

	cfg, err := config.Load(filepath.Join(tmpDir, "archcheck.toml"))
	require.NoError(t, err)
	cfg.History.Enabled = false

	appInstance, err := app.New(cfg)
	require.NoError(t, err)
	defer appInstance.Close()

	ctx := context.Background()
	chain, err := appInstance.TraceImportChain(ctx, "src/infra/server.js", "src/domain/entities/Todo.js")
	require.NoError(t, err)
	require.Len(t, chain, 4)
	assert.True(t, strings.HasSuffix(chain[1], "/src/app/index.ts"))
	assert.True(t, strings.HasSuffix(chain[2], "/src/app/service.ts"))

	impact, err := appInstance.AnalyzeImpact(ctx, "src/domain/entities/Todo.js")
	require.NoError(t, err)
	assert.Len(t, impact.DirectImporters, 2)
	assert.Len(t, impact.TransitiveImporters, 2)
}
