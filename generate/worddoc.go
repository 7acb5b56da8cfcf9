package generate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/docfoundry/docfoundry/core"
)

// Document produces a word-processor deliverable as a minimal RTF file,
// which any word processor opens natively.
type Document struct {
	outputDir string
}

// NewDocument creates the word-document strategy.
func NewDocument(optFns ...func(o *Options)) *Document {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Document{outputDir: opts.OutputDir}
}

// DocumentType implements core.Generator.
func (g *Document) DocumentType() core.DocumentType { return core.DocumentTypeDocument }

// Generate implements core.Generator.
func (g *Document) Generate(ctx context.Context, query string, results map[core.DomainTag]core.DomainResult) (core.Generated, error) {
	if err := ctx.Err(); err != nil {
		return core.Generated{}, err
	}
	base, err := stem(g.outputDir, query)
	if err != nil {
		return core.Generated{}, err
	}

	var sb strings.Builder
	sb.WriteString(`{\rtf1\ansi\deff0` + "\n")
	fmt.Fprintf(&sb, `{\b\fs32 %s}\par\par`+"\n", escapeRTF(query))
	lines := 2
	for _, res := range orderedResults(results) {
		fmt.Fprintf(&sb, `{\b\fs24 %s Analysis}\par`+"\n", escapeRTF(titleCase(string(res.Domain))))
		if !res.Success {
			fmt.Fprintf(&sb, `{\i Analysis unavailable: %s}\par\par`+"\n", escapeRTF(res.RawText))
			lines += 2
			continue
		}
		sb.WriteString(`{\b Key findings}\par` + "\n")
		for _, f := range res.KeyFindings {
			fmt.Fprintf(&sb, `\bullet  %s\par`+"\n", escapeRTF(f))
			lines++
		}
		sb.WriteString(`{\b Recommendations}\par` + "\n")
		for _, r := range res.Recommendations {
			fmt.Fprintf(&sb, `\bullet  %s\par`+"\n", escapeRTF(r))
			lines++
		}
		sb.WriteString(`\par` + "\n")
	}
	sb.WriteString("}\n")

	artifact := base + "_document.rtf"
	if err := os.WriteFile(artifact, []byte(sb.String()), 0o644); err != nil {
		return core.Generated{}, fmt.Errorf("write document: %w", err)
	}

	preview := base + "_document.png"
	if err := writePreview(preview, query, lines); err != nil {
		return core.Generated{}, err
	}

	return core.Generated{ArtifactPath: artifact, PreviewPaths: []string{preview}}, nil
}

func escapeRTF(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "{", `\{`)
	s = strings.ReplaceAll(s, "}", `\}`)
	return s
}
