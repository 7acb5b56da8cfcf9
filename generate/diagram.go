package generate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/docfoundry/docfoundry/core"
)

// Diagram produces a pipeline diagram as a Graphviz DOT file: one stage node
// per domain feeding an integration node, so the deliverable renders with
// any dot-compatible tool.
type Diagram struct {
	outputDir string
}

// NewDiagram creates the diagram strategy.
func NewDiagram(optFns ...func(o *Options)) *Diagram {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Diagram{outputDir: opts.OutputDir}
}

// DocumentType implements core.Generator.
func (g *Diagram) DocumentType() core.DocumentType { return core.DocumentTypeDiagram }

// Generate implements core.Generator.
func (g *Diagram) Generate(ctx context.Context, query string, results map[core.DomainTag]core.DomainResult) (core.Generated, error) {
	if err := ctx.Err(); err != nil {
		return core.Generated{}, err
	}
	base, err := stem(g.outputDir, query)
	if err != nil {
		return core.Generated{}, err
	}

	var sb strings.Builder
	sb.WriteString("digraph pipeline {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, style=rounded];\n")
	fmt.Fprintf(&sb, "  request [label=%q];\n", truncateLabel(query, 40))
	nodes := 1
	for _, res := range orderedResults(results) {
		name := string(res.Domain)
		label := name
		if res.Success && len(res.KeyFindings) > 0 {
			label = fmt.Sprintf("%s\\n%s", name, truncateLabel(res.KeyFindings[0], 32))
		}
		// quoted ids keep the graph valid for domain tags with spaces or
		// punctuation
		fmt.Fprintf(&sb, "  %q [label=%q];\n", name, label)
		fmt.Fprintf(&sb, "  request -> %q;\n", name)
		fmt.Fprintf(&sb, "  %q -> integration;\n", name)
		nodes++
	}
	sb.WriteString("  integration [label=\"integrated design\"];\n")
	sb.WriteString("}\n")

	artifact := base + "_pipeline.dot"
	if err := os.WriteFile(artifact, []byte(sb.String()), 0o644); err != nil {
		return core.Generated{}, fmt.Errorf("write diagram: %w", err)
	}

	preview := base + "_pipeline.png"
	if err := writePreview(preview, query, nodes+2); err != nil {
		return core.Generated{}, err
	}

	return core.Generated{ArtifactPath: artifact, PreviewPaths: []string{preview}}, nil
}

func truncateLabel(s string, n int) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
	if len(s) > n {
		return s[:n] + "…"
	}
	return s
}
