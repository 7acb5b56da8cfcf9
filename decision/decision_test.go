package decision

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfoundry/docfoundry/core"
	"github.com/docfoundry/docfoundry/inference"
)

func okResult(domain core.DomainTag) core.DomainResult {
	return core.DomainResult{
		Domain:          domain,
		RawText:         "analysis text",
		KeyFindings:     []string{"finding"},
		Recommendations: []string{"recommendation"},
		Success:         true,
	}
}

func failedResult(domain core.DomainTag) core.DomainResult {
	return core.DomainResult{Domain: domain, RawText: "analysis failed", Success: false}
}

func allResults(fn func(core.DomainTag) core.DomainResult) map[core.DomainTag]core.DomainResult {
	out := map[core.DomainTag]core.DomainResult{}
	for _, d := range core.DefaultDomains() {
		out[d] = fn(d)
	}
	return out
}

func TestStage_DecideMatchesCanonicalType(t *testing.T) {
	mock := inference.NewMockClient()
	mock.AddResponse("deliverable", "slides")

	s := NewStage(mock)
	d := s.Decide(context.Background(), "pitch deck for the irrigation system", allResults(okResult))

	assert.Equal(t, core.DocumentTypeSlides, d.DocumentType)
	assert.False(t, d.UsedFallback)
	assert.Equal(t, 1, mock.Calls())
}

func TestStage_DecideUngrammaticalResponseFallsBack(t *testing.T) {
	mock := inference.NewMockClient()
	mock.AddResponse("deliverable", "maybe a report??")

	s := NewStage(mock)
	d := s.Decide(context.Background(), "q", allResults(okResult))

	assert.True(t, d.UsedFallback)
	assert.Equal(t, core.DefaultDocumentType, d.DocumentType)
	assert.Contains(t, d.Rationale, "maybe a report??")
}

func TestStage_DecideAmbiguousResponseFallsBack(t *testing.T) {
	mock := inference.NewMockClient()
	mock.AddResponse("deliverable", "either report or slides would work")

	s := NewStage(mock)
	d := s.Decide(context.Background(), "q", allResults(okResult))

	assert.True(t, d.UsedFallback)
	assert.Equal(t, core.DefaultDocumentType, d.DocumentType)
}

func TestStage_DecideAllDomainsFailedSkipsModel(t *testing.T) {
	mock := inference.NewMockClient()

	s := NewStage(mock)
	d := s.Decide(context.Background(), "q", allResults(failedResult))

	assert.True(t, d.UsedFallback)
	assert.Equal(t, core.DefaultDocumentType, d.DocumentType)
	assert.Zero(t, mock.Calls(), "model must not be consulted when every domain failed")
}

func TestStage_DecideBackendErrorFallsBack(t *testing.T) {
	mock := inference.NewMockClient()
	mock.FailNext(inference.ErrBackendTimeout)

	s := NewStage(mock)
	d := s.Decide(context.Background(), "q", allResults(okResult))

	assert.True(t, d.UsedFallback)
	assert.Equal(t, core.DefaultDocumentType, d.DocumentType)
}

func TestStage_PromptUsesOnlySuccessfulDomains(t *testing.T) {
	mock := inference.NewMockClient()
	mock.AddResponse("deliverable", "report")

	results := allResults(okResult)
	results[core.DomainElectrical] = failedResult(core.DomainElectrical)

	s := NewStage(mock)
	d := s.Decide(context.Background(), "q", results)

	require.False(t, d.UsedFallback)
	prompts := mock.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "MECHANICAL ANALYSIS")
	assert.Contains(t, prompts[0], "PROGRAMMING ANALYSIS")
	assert.NotContains(t, prompts[0], "ELECTRICAL ANALYSIS")
}

func TestBuildPrompt_ExtraDomainsDeterministic(t *testing.T) {
	results := allResults(okResult)
	results["thermal"] = okResult("thermal")
	results["acoustics"] = okResult("acoustics")
	results["hydraulics"] = okResult("hydraulics")

	first, ok := buildPrompt("q", results)
	require.True(t, ok)
	for i := 0; i < 20; i++ {
		prompt, _ := buildPrompt("q", results)
		require.Equal(t, first, prompt)
	}

	// Non-default domains follow the defaults in sorted order.
	acoustics := strings.Index(first, "ACOUSTICS ANALYSIS")
	hydraulics := strings.Index(first, "HYDRAULICS ANALYSIS")
	thermal := strings.Index(first, "THERMAL ANALYSIS")
	programming := strings.Index(first, "PROGRAMMING ANALYSIS")
	require.NotEqual(t, -1, acoustics)
	require.NotEqual(t, -1, hydraulics)
	require.NotEqual(t, -1, thermal)
	assert.Less(t, programming, acoustics)
	assert.Less(t, acoustics, hydraulics)
	assert.Less(t, hydraulics, thermal)
}
