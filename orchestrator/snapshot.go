package orchestrator

import (
	"encoding/json"
	"time"

	"github.com/docfoundry/docfoundry/core"
)

// Per-stage snapshot records written to the artifact store. Self-describing
// JSON keyed by conversation id; the only compatibility requirement is that
// this system can read them back.

type requestRecord struct {
	ConversationID string    `json:"conversation_id"`
	Query          string    `json:"query"`
	ReceivedAt     time.Time `json:"received_at"`
}

type analysisRecord struct {
	ConversationID  string         `json:"conversation_id"`
	Domain          core.DomainTag `json:"domain"`
	Success         bool           `json:"success"`
	KeyFindings     []string       `json:"key_findings"`
	Recommendations []string       `json:"recommendations"`
	RawText         string         `json:"raw_text"`
	RecordedAt      time.Time      `json:"recorded_at"`
}

type decisionRecord struct {
	ConversationID string            `json:"conversation_id"`
	DocumentType   core.DocumentType `json:"document_type"`
	Rationale      string            `json:"rationale"`
	UsedFallback   bool              `json:"used_fallback"`
	RecordedAt     time.Time         `json:"recorded_at"`
}

type domainCounts struct {
	Findings        int `json:"findings"`
	Recommendations int `json:"recommendations"`
}

type summaryRecord struct {
	ConversationID string                  `json:"conversation_id"`
	DocumentType   core.DocumentType       `json:"document_type"`
	Success        bool                    `json:"success"`
	ArtifactPath   string                  `json:"artifact_path,omitempty"`
	PreviewPaths   []string                `json:"preview_paths,omitempty"`
	Error          string                  `json:"error,omitempty"`
	Domains        map[string]domainCounts `json:"domains"`
	RecordedAt     time.Time               `json:"recorded_at"`
}

func (o *Orchestrator) snapshotRequest(conversationID, query string) {
	o.saveSnapshot(conversationID, "request.json", requestRecord{
		ConversationID: conversationID,
		Query:          query,
		ReceivedAt:     time.Now().UTC(),
	})
}

func (o *Orchestrator) snapshotAnalysis(conversationID string, res core.DomainResult) {
	o.saveSnapshot(conversationID, "analysis_"+string(res.Domain)+".json", analysisRecord{
		ConversationID:  conversationID,
		Domain:          res.Domain,
		Success:         res.Success,
		KeyFindings:     res.KeyFindings,
		Recommendations: res.Recommendations,
		RawText:         res.RawText,
		RecordedAt:      time.Now().UTC(),
	})
}

func (o *Orchestrator) snapshotDecision(conversationID string, dec core.WorkflowDecision) {
	o.saveSnapshot(conversationID, "decision.json", decisionRecord{
		ConversationID: conversationID,
		DocumentType:   dec.DocumentType,
		Rationale:      dec.Rationale,
		UsedFallback:   dec.UsedFallback,
		RecordedAt:     time.Now().UTC(),
	})
}

func (o *Orchestrator) snapshotSummary(
	conversationID string,
	results map[core.DomainTag]core.DomainResult,
	dec core.WorkflowDecision,
	gen core.GenerationResult,
) {
	counts := make(map[string]domainCounts, len(results))
	for tag, res := range results {
		counts[string(tag)] = domainCounts{
			Findings:        len(res.KeyFindings),
			Recommendations: len(res.Recommendations),
		}
	}
	o.saveSnapshot(conversationID, "summary.json", summaryRecord{
		ConversationID: conversationID,
		DocumentType:   dec.DocumentType,
		Success:        gen.Success,
		ArtifactPath:   gen.ArtifactPath,
		PreviewPaths:   gen.PreviewPaths,
		Error:          gen.Error,
		Domains:        counts,
		RecordedAt:     time.Now().UTC(),
	})
}

// saveSnapshot marshals and stores a record. Snapshot persistence is best
// effort: a failed write degrades observability, not the pipeline.
func (o *Orchestrator) saveSnapshot(conversationID, name string, record any) {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		o.logger.Warn("marshal snapshot failed",
			"conversation_id", conversationID, "name", name, "error", err)
		return
	}
	if err := o.artifacts.Save(conversationID, name, data); err != nil {
		o.logger.Warn("save snapshot failed",
			"conversation_id", conversationID, "name", name, "error", err)
	}
}
