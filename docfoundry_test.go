package docfoundry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docfoundry/docfoundry/core"
	"github.com/docfoundry/docfoundry/dispatch"
	"github.com/docfoundry/docfoundry/generate"
	"github.com/docfoundry/docfoundry/inference"
)

func newTestFoundry(t *testing.T) *Foundry {
	t.Helper()
	client := inference.NewMockClient()
	client.AddResponse("deliverable", "slides")
	client.AddResponse("", "KEY FINDINGS:\n- fits the budget\n\nRECOMMENDATIONS:\n- prototype first")

	registry, err := dispatch.NewRegistry(generate.All(func(o *generate.Options) {
		o.OutputDir = t.TempDir()
	})...)
	require.NoError(t, err)

	f := New(client, func(o *Options) {
		o.Registry = registry
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = f.Shutdown(ctx)
	})
	return f
}

func TestSubmitAndWait(t *testing.T) {
	f := newTestFoundry(t)

	id, events, summary, err := f.SubmitAndWait(context.Background(),
		"deck for the quarterly hardware review")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NotEmpty(t, events)
	for i, ev := range events {
		require.Equal(t, i+1, ev.Seq)
	}

	require.True(t, summary.Success)
	require.Equal(t, core.DocumentTypeSlides, summary.DocumentType)
	require.NotEmpty(t, summary.ArtifactPath)
}

func TestAsyncSubmitThenEvents(t *testing.T) {
	f := newTestFoundry(t)

	ctx := context.Background()
	id, err := f.Submit(ctx, "deck for the sensor roadmap")
	require.NoError(t, err)

	ch, err := f.Events(ctx, id)
	require.NoError(t, err)

	var last core.ProgressEvent
	for ev := range ch {
		last = ev
	}
	require.Equal(t, core.StepPipeline, last.Step)
	require.Equal(t, core.StatusCompleted, last.Status)

	conv, err := f.Conversation(id)
	require.NoError(t, err)
	require.Equal(t, core.StageCompleted, conv.Stage)
}

func TestSummaryUnknown(t *testing.T) {
	f := newTestFoundry(t)
	_, err := f.Summary("missing")
	require.ErrorIs(t, err, core.ErrUnknownConversation)
}
