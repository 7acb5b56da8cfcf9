package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/docfoundry/docfoundry/core"
)

// pipeline runs every stage for one conversation. It never returns an
// error: failures are recorded on the conversation, published as events and
// end in StageFailed.
func (o *Orchestrator) pipeline(ctx context.Context, r *run, conversationID, query string) {
	log := o.logger
	start := time.Now()
	defer o.events.Close(conversationID)

	o.event(conversationID, core.StepRequest, "", core.StatusStarted, "query received")
	o.snapshotRequest(conversationID, query)
	o.event(conversationID, core.StepRequest, "", core.StatusCompleted, "request accepted")

	// Analysis stage: one concurrent expert per domain, all results kept.
	if !o.advanceStage(conversationID, core.StageAnalyzing) {
		return
	}
	for _, d := range o.domains {
		o.event(conversationID, core.StepAnalysis, d, core.StatusStarted, "analysis started")
	}
	results := o.experts.AnalyzeAll(ctx, o.domains, query, func(res core.DomainResult) {
		o.recordDomainResult(conversationID, res)
	})

	if o.stop(ctx, r, conversationID, "analysis") {
		return
	}

	// Decision stage.
	if !o.advanceStage(conversationID, core.StageDeciding) {
		return
	}
	o.event(conversationID, core.StepDecision, "", core.StatusStarted, "choosing document type")
	dec := o.decider.Decide(ctx, query, results)
	if err := o.store.Advance(conversationID, func(c *core.Conversation) error {
		c.SetDecision(dec)
		return nil
	}); err != nil {
		o.fail(conversationID, fmt.Sprintf("record decision: %v", err))
		return
	}
	o.snapshotDecision(conversationID, dec)
	detail := "document type: " + string(dec.DocumentType)
	if dec.UsedFallback {
		detail += " (fallback)"
	}
	o.event(conversationID, core.StepDecision, "", core.StatusCompleted, detail)

	if o.stop(ctx, r, conversationID, "decision") {
		return
	}

	// Generation stage.
	if !o.advanceStage(conversationID, core.StageGenerating) {
		return
	}
	o.event(conversationID, core.StepGeneration, "", core.StatusStarted,
		"generating "+string(dec.DocumentType))
	genRes, genErr := r.dispatcher.Dispatch(ctx, query, dec, results)
	if err := o.store.Advance(conversationID, func(c *core.Conversation) error {
		c.SetGeneration(genRes)
		return nil
	}); err != nil {
		o.fail(conversationID, fmt.Sprintf("record generation: %v", err))
		return
	}

	if genErr != nil {
		o.event(conversationID, core.StepGeneration, "", core.StatusError, genErr.Error())
		o.snapshotSummary(conversationID, results, dec, genRes)
		o.fail(conversationID, genErr.Error())
		return
	}

	o.event(conversationID, core.StepGeneration, "", core.StatusCompleted,
		"artifact: "+genRes.ArtifactPath)
	o.snapshotSummary(conversationID, results, dec, genRes)

	if err := o.store.Advance(conversationID, func(c *core.Conversation) error {
		return c.AdvanceStage(core.StageCompleted)
	}); err != nil {
		o.fail(conversationID, fmt.Sprintf("complete conversation: %v", err))
		return
	}
	o.event(conversationID, core.StepPipeline, "", core.StatusCompleted, "pipeline completed")
	log.Info("pipeline completed",
		"conversation_id", conversationID,
		"document_type", dec.DocumentType,
		"duration", time.Since(start))
}

// event appends a progress event and publishes it inside the same Advance
// critical section, which keeps delivery order identical to sequence order
// even when several goroutines race to record events.
func (o *Orchestrator) event(conversationID, step string, domain core.DomainTag, status core.EventStatus, detail string) {
	err := o.store.Advance(conversationID, func(c *core.Conversation) error {
		o.events.Publish(c.NextEvent(step, domain, status, detail))
		return nil
	})
	if err != nil {
		o.logger.Warn("record event failed",
			"conversation_id", conversationID, "step", step, "error", err)
	}
}

// advanceStage moves the conversation forward, turning a rejected transition
// into a terminal failure.
func (o *Orchestrator) advanceStage(conversationID string, next core.Stage) bool {
	err := o.store.Advance(conversationID, func(c *core.Conversation) error {
		return c.AdvanceStage(next)
	})
	if err != nil {
		o.fail(conversationID, fmt.Sprintf("advance to %s: %v", next, err))
		return false
	}
	return true
}

// recordDomainResult stores one expert outcome, publishes its event and
// writes the analysis snapshot. Invoked concurrently from the fan-out
// workers; Advance serializes the session mutation.
func (o *Orchestrator) recordDomainResult(conversationID string, res core.DomainResult) {
	err := o.store.Advance(conversationID, func(c *core.Conversation) error {
		c.SetDomainResult(res)
		status := core.StatusCompleted
		detail := fmt.Sprintf("%d findings, %d recommendations",
			len(res.KeyFindings), len(res.Recommendations))
		if !res.Success {
			status = core.StatusError
			detail = res.RawText
		}
		o.events.Publish(c.NextEvent(core.StepAnalysis, res.Domain, status, detail))
		return nil
	})
	if err != nil {
		o.logger.Warn("record domain result failed",
			"conversation_id", conversationID, "domain", res.Domain, "error", err)
	}
	o.snapshotAnalysis(conversationID, res)
}

// stop checks for cancellation and abandonment between stages. The check is
// cooperative: a stage that already started always finishes and records its
// outcome before the pipeline winds down.
func (o *Orchestrator) stop(ctx context.Context, r *run, conversationID, after string) bool {
	if err := ctx.Err(); err != nil {
		o.fail(conversationID, fmt.Sprintf("pipeline cancelled after %s: %v", after, err))
		return true
	}
	if r.abandoned() {
		o.logger.Info("pipeline abandoned, no subscriber attached",
			"conversation_id", conversationID, "after", after)
		o.fail(conversationID, fmt.Sprintf("abandoned after %s: no subscriber attached", after))
		return true
	}
	return false
}

// fail records the terminal error, moves the conversation to StageFailed
// and publishes the closing pipeline event.
func (o *Orchestrator) fail(conversationID, msg string) {
	err := o.store.Advance(conversationID, func(c *core.Conversation) error {
		c.SetError(msg)
		if err := c.AdvanceStage(core.StageFailed); err != nil {
			return err
		}
		o.events.Publish(c.NextEvent(core.StepPipeline, "", core.StatusError, msg))
		return nil
	})
	if err != nil {
		o.logger.Error("mark conversation failed",
			"conversation_id", conversationID, "error", err)
	}
}
