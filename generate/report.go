package generate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/docfoundry/docfoundry/core"
)

// Report produces a multi-section engineering report in Markdown with one
// section per domain analysis.
type Report struct {
	outputDir string
}

// NewReport creates the report strategy.
func NewReport(optFns ...func(o *Options)) *Report {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Report{outputDir: opts.OutputDir}
}

// DocumentType implements core.Generator.
func (g *Report) DocumentType() core.DocumentType { return core.DocumentTypeReport }

// Generate implements core.Generator.
func (g *Report) Generate(ctx context.Context, query string, results map[core.DomainTag]core.DomainResult) (core.Generated, error) {
	if err := ctx.Err(); err != nil {
		return core.Generated{}, err
	}
	base, err := stem(g.outputDir, query)
	if err != nil {
		return core.Generated{}, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Engineering Report\n\n")
	fmt.Fprintf(&sb, "## Request\n\n%s\n\n", query)
	lineCount := 4
	for _, res := range orderedResults(results) {
		fmt.Fprintf(&sb, "## %s Analysis\n\n", titleCase(string(res.Domain)))
		if !res.Success {
			fmt.Fprintf(&sb, "_Analysis unavailable: %s_\n\n", res.RawText)
			lineCount++
			continue
		}
		sb.WriteString("### Key Findings\n\n")
		for _, f := range res.KeyFindings {
			fmt.Fprintf(&sb, "- %s\n", f)
			lineCount++
		}
		sb.WriteString("\n### Recommendations\n\n")
		for _, r := range res.Recommendations {
			fmt.Fprintf(&sb, "- %s\n", r)
			lineCount++
		}
		sb.WriteString("\n")
	}

	artifact := base + "_report.md"
	if err := os.WriteFile(artifact, []byte(sb.String()), 0o644); err != nil {
		return core.Generated{}, fmt.Errorf("write report: %w", err)
	}

	preview := base + "_report.png"
	if err := writePreview(preview, query, lineCount); err != nil {
		return core.Generated{}, err
	}

	return core.Generated{ArtifactPath: artifact, PreviewPaths: []string{preview}}, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
