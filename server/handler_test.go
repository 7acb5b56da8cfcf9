package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/docfoundry/docfoundry/core"
	"github.com/docfoundry/docfoundry/dispatch"
	"github.com/docfoundry/docfoundry/generate"
	"github.com/docfoundry/docfoundry/inference"
	"github.com/docfoundry/docfoundry/orchestrator"
)

func newTestServer(t *testing.T) (*echo.Echo, *orchestrator.Orchestrator) {
	t.Helper()
	client := inference.NewMockClient()
	client.AddResponse("deliverable", "report")
	client.AddResponse("", "KEY FINDINGS:\n- ok\n\nRECOMMENDATIONS:\n- ship it")

	registry, err := dispatch.NewRegistry(generate.All(func(o *generate.Options) {
		o.OutputDir = t.TempDir()
	})...)
	require.NoError(t, err)

	orch := orchestrator.New(client, func(o *orchestrator.Options) {
		o.Registry = registry
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = orch.Shutdown(ctx)
	})

	e := echo.New()
	NewHandler(orch, nil).RegisterRoutes(e)
	return e, orch
}

func TestSubmitAccepted(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/conversations",
		strings.NewReader(`{"query":"design a robot arm"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ConversationID)
}

func TestSubmitRejectsEmptyQuery(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/conversations", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryNotFound(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/missing/summary", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummaryAfterCompletion(t *testing.T) {
	e, orch := newTestServer(t)

	ctx := context.Background()
	id, err := orch.Submit(ctx, "write a test report", "")
	require.NoError(t, err)
	require.NoError(t, orch.Wait(ctx, id))

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/"+id+"/summary", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var summary core.GenerationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.True(t, summary.Success)
	require.Equal(t, core.DocumentTypeReport, summary.DocumentType)
}

func TestEventsStreamsFullHistory(t *testing.T) {
	e, orch := newTestServer(t)

	ctx := context.Background()
	id, err := orch.Submit(ctx, "stream me", "")
	require.NoError(t, err)
	require.NoError(t, orch.Wait(ctx, id))

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/"+id+"/events", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var events []core.ProgressEvent
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev core.ProgressEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}

	require.NotEmpty(t, events)
	for i, ev := range events {
		require.Equal(t, i+1, ev.Seq)
	}
	last := events[len(events)-1]
	require.Equal(t, core.StepPipeline, last.Step)
	require.Equal(t, core.StatusCompleted, last.Status)
}

func TestEventsUnknownConversation(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/missing/events", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
