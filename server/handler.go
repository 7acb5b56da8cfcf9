package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/docfoundry/docfoundry/core"
	"github.com/docfoundry/docfoundry/logging"
	"github.com/docfoundry/docfoundry/orchestrator"
)

// Handler exposes the pipeline over HTTP. It is a thin shell: every route
// delegates to the orchestrator and shapes the response.
type Handler struct {
	orch   *orchestrator.Orchestrator
	logger logging.Logger
}

// NewHandler wires the orchestrator into an HTTP handler.
func NewHandler(orch *orchestrator.Orchestrator, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Handler{orch: orch, logger: logger}
}

// RegisterRoutes mounts all pipeline routes on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/conversations", h.Submit)
	e.GET("/v1/conversations/:id/events", h.Events)
	e.GET("/v1/conversations/:id/summary", h.Summary)
	e.GET("/healthz", h.Health)
}

// SubmitRequest is the body of POST /v1/conversations.
type SubmitRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// SubmitResponse acknowledges an accepted submission.
type SubmitResponse struct {
	ConversationID string `json:"conversation_id"`
}

// Submit accepts a query and starts the pipeline.
// POST /v1/conversations
func (h *Handler) Submit(c echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	id, err := h.orch.Submit(c.Request().Context(), req.Query, req.ConversationID)
	if err != nil {
		h.logger.Error("submit failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "submission failed"})
	}
	return c.JSON(http.StatusAccepted, SubmitResponse{ConversationID: id})
}

// Events streams the conversation's progress events via SSE: the full
// history first, then live events until the conversation finishes or the
// client disconnects.
// GET /v1/conversations/:id/events
func (h *Handler) Events(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	ch, err := h.orch.Subscribe(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrUnknownConversation) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
		}
		h.logger.Error("subscribe failed", "conversation_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "subscribe failed"})
	}

	resp := c.Response()
	resp.Header().Set("Content-Type", "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.Header().Set("X-Accel-Buffering", "no")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := writeSSE(resp, ev); err != nil {
				return err
			}
		}
	}
}

func writeSSE(resp *echo.Response, ev core.ProgressEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(resp, "id: %d\nevent: progress\ndata: %s\n\n", ev.Seq, data); err != nil {
		return err
	}
	resp.Flush()
	return nil
}

// Summary returns the conversation's terminal generation result.
// GET /v1/conversations/:id/summary
func (h *Handler) Summary(c echo.Context) error {
	id := c.Param("id")

	summary, err := h.orch.Summary(id)
	switch {
	case errors.Is(err, core.ErrUnknownConversation):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
	case errors.Is(err, orchestrator.ErrNotFinished):
		conv, cerr := h.orch.Conversation(id)
		if cerr != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": conv.Stage.String()})
	case err != nil:
		h.logger.Error("summary failed", "conversation_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "summary failed"})
	}
	return c.JSON(http.StatusOK, summary)
}

// Health reports liveness.
// GET /healthz
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
