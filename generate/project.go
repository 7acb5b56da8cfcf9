package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docfoundry/docfoundry/core"
)

// Project produces a multi-file code project scaffold: a blueprint JSON
// artifact plus the materialized files next to it (README, design notes and
// a task list derived from the domain recommendations).
type Project struct {
	outputDir string
}

// NewProject creates the code-project strategy.
func NewProject(optFns ...func(o *Options)) *Project {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Project{outputDir: opts.OutputDir}
}

// DocumentType implements core.Generator.
func (g *Project) DocumentType() core.DocumentType { return core.DocumentTypeProject }

type blueprintFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type blueprint struct {
	ProjectName string          `json:"project_name"`
	Files       []blueprintFile `json:"files"`
}

// Generate implements core.Generator.
func (g *Project) Generate(ctx context.Context, query string, results map[core.DomainTag]core.DomainResult) (core.Generated, error) {
	if err := ctx.Err(); err != nil {
		return core.Generated{}, err
	}
	base, err := stem(g.outputDir, query)
	if err != nil {
		return core.Generated{}, err
	}

	bp := blueprint{ProjectName: slugify(query)}
	bp.Files = append(bp.Files, blueprintFile{
		Path:    "README.md",
		Content: fmt.Sprintf("# %s\n\nScaffold generated from a multi-domain engineering analysis.\n", query),
	})

	var design, tasks string
	for _, res := range orderedResults(results) {
		design += fmt.Sprintf("## %s\n\n", titleCase(string(res.Domain)))
		if !res.Success {
			design += "Analysis unavailable.\n\n"
			continue
		}
		for _, f := range res.KeyFindings {
			design += fmt.Sprintf("- %s\n", f)
		}
		design += "\n"
		for _, r := range res.Recommendations {
			tasks += fmt.Sprintf("- [ ] %s (%s)\n", r, res.Domain)
		}
	}
	bp.Files = append(bp.Files,
		blueprintFile{Path: "docs/design.md", Content: "# Design Notes\n\n" + design},
		blueprintFile{Path: "TASKS.md", Content: "# Tasks\n\n" + tasks},
	)

	projectDir := base + "_project"
	for _, f := range bp.Files {
		full := filepath.Join(projectDir, f.Path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return core.Generated{}, fmt.Errorf("create project dir: %w", err)
		}
		if err := os.WriteFile(full, []byte(f.Content), 0o644); err != nil {
			return core.Generated{}, fmt.Errorf("write project file: %w", err)
		}
	}

	data, err := json.MarshalIndent(bp, "", "  ")
	if err != nil {
		return core.Generated{}, fmt.Errorf("marshal blueprint: %w", err)
	}
	artifact := base + "_blueprint.json"
	if err := os.WriteFile(artifact, data, 0o644); err != nil {
		return core.Generated{}, fmt.Errorf("write blueprint: %w", err)
	}

	preview := base + "_project.png"
	if err := writePreview(preview, query, len(bp.Files)+2); err != nil {
		return core.Generated{}, err
	}

	return core.Generated{ArtifactPath: artifact, PreviewPaths: []string{preview}}, nil
}
