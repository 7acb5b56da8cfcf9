package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/docfoundry/docfoundry/core"
)

// Slides produces a slide deck as a self-describing JSON document (title
// slide, one slide per domain, closing recommendations slide) with one
// preview image per slide.
type Slides struct {
	outputDir string
}

// NewSlides creates the slide deck strategy.
func NewSlides(optFns ...func(o *Options)) *Slides {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Slides{outputDir: opts.OutputDir}
}

// DocumentType implements core.Generator.
func (g *Slides) DocumentType() core.DocumentType { return core.DocumentTypeSlides }

type slide struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
}

type deck struct {
	Title  string  `json:"title"`
	Slides []slide `json:"slides"`
}

// Generate implements core.Generator.
func (g *Slides) Generate(ctx context.Context, query string, results map[core.DomainTag]core.DomainResult) (core.Generated, error) {
	if err := ctx.Err(); err != nil {
		return core.Generated{}, err
	}
	base, err := stem(g.outputDir, query)
	if err != nil {
		return core.Generated{}, err
	}

	d := deck{Title: query}
	d.Slides = append(d.Slides, slide{Title: query, Bullets: []string{"Multi-domain engineering analysis"}})

	var closing []string
	for _, res := range orderedResults(results) {
		s := slide{Title: titleCase(string(res.Domain)) + " Perspective"}
		if res.Success {
			s.Bullets = res.KeyFindings
			closing = append(closing, res.Recommendations...)
		} else {
			s.Bullets = []string{"Analysis unavailable"}
		}
		d.Slides = append(d.Slides, s)
	}
	if len(closing) > 0 {
		d.Slides = append(d.Slides, slide{Title: "Recommendations", Bullets: closing})
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return core.Generated{}, fmt.Errorf("marshal deck: %w", err)
	}
	artifact := base + "_deck.json"
	if err := os.WriteFile(artifact, data, 0o644); err != nil {
		return core.Generated{}, fmt.Errorf("write deck: %w", err)
	}

	previews := make([]string, 0, len(d.Slides))
	for i, s := range d.Slides {
		p := fmt.Sprintf("%s_slide_%02d.png", base, i+1)
		if err := writePreview(p, s.Title, len(s.Bullets)+1); err != nil {
			return core.Generated{}, err
		}
		previews = append(previews, p)
	}

	return core.Generated{ArtifactPath: artifact, PreviewPaths: previews}, nil
}
