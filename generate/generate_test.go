package generate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfoundry/docfoundry/core"
)

func sampleResults() map[core.DomainTag]core.DomainResult {
	return map[core.DomainTag]core.DomainResult{
		core.DomainMechanical: {
			Domain:          core.DomainMechanical,
			KeyFindings:     []string{"valves need pressure regulation"},
			Recommendations: []string{"use brass fittings"},
			Success:         true,
		},
		core.DomainElectrical: {
			Domain:  core.DomainElectrical,
			RawText: "analysis failed: backend down",
			Success: false,
		},
		core.DomainProgramming: {
			Domain:          core.DomainProgramming,
			KeyFindings:     []string{"schedule loop is the core abstraction"},
			Recommendations: []string{"persist schedules in sqlite"},
			Success:         true,
		},
	}
}

func TestAllStrategiesWriteArtifactAndPreview(t *testing.T) {
	dir := t.TempDir()
	withDir := func(o *Options) { o.OutputDir = dir }

	strategies := All(withDir)
	require.Len(t, strategies, 5)

	seen := map[core.DocumentType]bool{}
	for _, s := range strategies {
		seen[s.DocumentType()] = true

		out, err := s.Generate(context.Background(), "Design a smart irrigation system", sampleResults())
		require.NoError(t, err, "strategy %s", s.DocumentType())

		info, err := os.Stat(out.ArtifactPath)
		require.NoError(t, err, "artifact missing for %s", s.DocumentType())
		assert.Positive(t, info.Size())

		require.NotEmpty(t, out.PreviewPaths, "strategy %s must produce previews", s.DocumentType())
		for _, p := range out.PreviewPaths {
			assert.Equal(t, ".png", filepath.Ext(p))
			_, err := os.Stat(p)
			assert.NoError(t, err, "preview missing: %s", p)
		}
	}
	assert.Len(t, seen, 5, "each strategy covers a distinct document type")
}

func TestReport_ContainsDomainSections(t *testing.T) {
	dir := t.TempDir()
	g := NewReport(func(o *Options) { o.OutputDir = dir })

	out, err := g.Generate(context.Background(), "irrigation", sampleResults())
	require.NoError(t, err)

	data, err := os.ReadFile(out.ArtifactPath)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Mechanical Analysis")
	assert.Contains(t, text, "valves need pressure regulation")
	assert.Contains(t, text, "Analysis unavailable")
}

func TestSlides_OnePreviewPerSlide(t *testing.T) {
	dir := t.TempDir()
	g := NewSlides(func(o *Options) { o.OutputDir = dir })

	out, err := g.Generate(context.Background(), "irrigation", sampleResults())
	require.NoError(t, err)

	// Title + three domains + recommendations.
	assert.Len(t, out.PreviewPaths, 5)
}

func TestDiagram_EmitsValidDot(t *testing.T) {
	dir := t.TempDir()
	g := NewDiagram(func(o *Options) { o.OutputDir = dir })

	out, err := g.Generate(context.Background(), "irrigation", sampleResults())
	require.NoError(t, err)

	data, err := os.ReadFile(out.ArtifactPath)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "digraph pipeline {"))
	assert.Contains(t, text, "mechanical")
	assert.Contains(t, text, "-> integration;")
}

func TestDiagram_QuotesNonIdentifierDomainTags(t *testing.T) {
	dir := t.TempDir()
	g := NewDiagram(func(o *Options) { o.OutputDir = dir })

	results := map[core.DomainTag]core.DomainResult{
		"systems-engineering": {
			Domain:      "systems-engineering",
			KeyFindings: []string{"decompose into subsystems"},
			Success:     true,
		},
		"human factors": {
			Domain:  "human factors",
			Success: true,
		},
	}

	out, err := g.Generate(context.Background(), "irrigation", results)
	require.NoError(t, err)

	data, err := os.ReadFile(out.ArtifactPath)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `"systems-engineering" [label=`)
	assert.Contains(t, text, `request -> "systems-engineering";`)
	assert.Contains(t, text, `"human factors" -> integration;`)
	assert.NotContains(t, text, "request -> systems-engineering;")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "design_a_smart_irrigation_system", slugify("Design a Smart Irrigation System"))
	assert.Equal(t, "deliverable", slugify("???"))
}
