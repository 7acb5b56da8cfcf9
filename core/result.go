package core

// DomainResult is the immutable outcome of one domain expert analysis.
// A failed analysis still yields a result: Success is false, the findings
// and recommendations are empty and RawText carries the failure reason. The
// orchestrator treats a failed domain as a degraded-but-continuing signal.
type DomainResult struct {
	Domain          DomainTag `json:"domain"`
	RawText         string    `json:"raw_text"`
	KeyFindings     []string  `json:"key_findings"`
	Recommendations []string  `json:"recommendations"`
	Success         bool      `json:"success"`
}

// WorkflowDecision records the document type chosen for a conversation.
// Immutable once produced; a conversation is decided at most once.
type WorkflowDecision struct {
	DocumentType DocumentType `json:"document_type"`
	Rationale    string       `json:"rationale"`
	UsedFallback bool         `json:"used_fallback"`
}

// Generated is the raw output contract of a generation strategy: the
// deliverable file plus one preview image per page/slide.
type Generated struct {
	ArtifactPath string   `json:"artifact_path"`
	PreviewPaths []string `json:"preview_paths"`
}

// GenerationResult is the immutable terminal record of the generation stage.
// Produced at most once per conversation.
type GenerationResult struct {
	DocumentType DocumentType `json:"document_type"`
	ArtifactPath string       `json:"artifact_path,omitempty"`
	PreviewPaths []string     `json:"preview_paths,omitempty"`
	Success      bool         `json:"success"`
	Error        string       `json:"error,omitempty"`
}
