package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfoundry/docfoundry/core"
)

// fakeGenerator counts invocations and fails a configurable number of times
// before succeeding.
type fakeGenerator struct {
	docType   core.DocumentType
	failTimes int

	mu    sync.Mutex
	calls int
}

func (f *fakeGenerator) DocumentType() core.DocumentType { return f.docType }

func (f *fakeGenerator) Generate(_ context.Context, _ string, _ map[core.DomainTag]core.DomainResult) (core.Generated, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failTimes {
		return core.Generated{}, errors.New("strategy blew up")
	}
	return core.Generated{
		ArtifactPath: "out/artifact.md",
		PreviewPaths: []string{"out/preview.png"},
	}, nil
}

func (f *fakeGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestRegistry(t *testing.T, gens ...core.Generator) *Registry {
	t.Helper()
	r, err := NewRegistry(gens...)
	require.NoError(t, err)
	return r
}

func decisionFor(dt core.DocumentType) core.WorkflowDecision {
	return core.WorkflowDecision{DocumentType: dt}
}

func TestDispatcher_SuccessFirstAttempt(t *testing.T) {
	gen := &fakeGenerator{docType: core.DocumentTypeReport}
	d := NewDispatcher(newTestRegistry(t, gen))

	res, err := d.Dispatch(context.Background(), "q", decisionFor(core.DocumentTypeReport), nil)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "out/artifact.md", res.ArtifactPath)
	assert.Equal(t, StateSucceeded, d.State())
	assert.Equal(t, 1, gen.Calls())
}

func TestDispatcher_RetriesOnceThenSucceeds(t *testing.T) {
	gen := &fakeGenerator{docType: core.DocumentTypeSlides, failTimes: 1}
	d := NewDispatcher(newTestRegistry(t, gen))

	res, err := d.Dispatch(context.Background(), "q", decisionFor(core.DocumentTypeSlides), nil)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, gen.Calls(), "exactly two invocation attempts expected")
	assert.Equal(t, StateSucceeded, d.State())
}

func TestDispatcher_TwoFailuresSettleFailed(t *testing.T) {
	gen := &fakeGenerator{docType: core.DocumentTypeProject, failTimes: 2}
	d := NewDispatcher(newTestRegistry(t, gen))

	res, err := d.Dispatch(context.Background(), "q", decisionFor(core.DocumentTypeProject), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.False(t, res.Success)
	assert.Empty(t, res.ArtifactPath, "no artifact path on failure")
	assert.Equal(t, StateFailed, d.State())
	assert.Equal(t, 2, gen.Calls())
}

func TestDispatcher_NoCrossStrategyFallback(t *testing.T) {
	failing := &fakeGenerator{docType: core.DocumentTypeDiagram, failTimes: 2}
	other := &fakeGenerator{docType: core.DocumentTypeReport}
	d := NewDispatcher(newTestRegistry(t, failing, other))

	_, err := d.Dispatch(context.Background(), "q", decisionFor(core.DocumentTypeDiagram), nil)

	require.Error(t, err)
	assert.Zero(t, other.Calls(), "a failed strategy must not fall back to another")
}

func TestDispatcher_SecondDispatchReturnsStoredResult(t *testing.T) {
	gen := &fakeGenerator{docType: core.DocumentTypeReport}
	d := NewDispatcher(newTestRegistry(t, gen))

	first, err := d.Dispatch(context.Background(), "q", decisionFor(core.DocumentTypeReport), nil)
	require.NoError(t, err)

	second, err := d.Dispatch(context.Background(), "q", decisionFor(core.DocumentTypeReport), nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, gen.Calls(), "strategy must not run again")
}

func TestDispatcher_UnknownTypeFails(t *testing.T) {
	d := NewDispatcher(newTestRegistry(t, &fakeGenerator{docType: core.DocumentTypeReport}))

	_, err := d.Dispatch(context.Background(), "q", decisionFor(core.DocumentTypeSlides), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoStrategy)
	assert.Equal(t, StateFailed, d.State())
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		&fakeGenerator{docType: core.DocumentTypeReport},
		&fakeGenerator{docType: core.DocumentTypeReport},
	)
	assert.Error(t, err)
}
