// Package generate contains the five document generation strategies the
// dispatcher selects between: report, diagram, slides, document and project.
// Every strategy fulfils the core.Generator contract: it writes a
// deliverable file of its kind under the configured output directory plus at
// least one raster preview, and reports failures through the error return.
// Byte-level format richness is deliberately modest; the pipeline cares
// about the artifact contract, not typography.
package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docfoundry/docfoundry/core"
)

// Options configure all strategies in this package.
type Options struct {
	// OutputDir is where artifacts and previews are written. Created on
	// demand.
	OutputDir string
}

func defaultOptions() Options {
	return Options{OutputDir: "data"}
}

// All returns one instance of every strategy, ready for registry
// construction.
func All(optFns ...func(o *Options)) []core.Generator {
	return []core.Generator{
		NewReport(optFns...),
		NewDiagram(optFns...),
		NewSlides(optFns...),
		NewDocument(optFns...),
		NewProject(optFns...),
	}
}

// slugify turns a query into a filesystem-friendly name stem.
func slugify(query string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(query)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			sb.WriteByte('_')
		}
	}
	s := strings.Trim(sb.String(), "_")
	if s == "" {
		s = "deliverable"
	}
	if len(s) > 48 {
		s = s[:48]
	}
	return s
}

// stem builds a unique per-run file name stem and ensures the output
// directory exists.
func stem(outputDir, query string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return filepath.Join(outputDir, fmt.Sprintf("%s_%s", slugify(query), core.NewID()[:8])), nil
}

// orderedResults returns the domain results in stable order: the default
// domains first, then any extras.
func orderedResults(results map[core.DomainTag]core.DomainResult) []core.DomainResult {
	out := make([]core.DomainResult, 0, len(results))
	seen := map[core.DomainTag]bool{}
	for _, d := range core.DefaultDomains() {
		if res, ok := results[d]; ok {
			out = append(out, res)
			seen[d] = true
		}
	}
	for d, res := range results {
		if !seen[d] {
			out = append(out, res)
		}
	}
	return out
}
