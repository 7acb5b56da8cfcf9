package core

import "time"

// EventStatus is the lifecycle status carried by a progress event.
type EventStatus string

const (
	// StatusStarted marks the beginning of a pipeline step.
	StatusStarted EventStatus = "started"
	// StatusCompleted marks the successful end of a pipeline step.
	StatusCompleted EventStatus = "completed"
	// StatusError marks a failed pipeline step.
	StatusError EventStatus = "error"
)

// Step names used by the orchestrator. They are part of the event contract
// consumed by transports and persisted snapshots.
const (
	StepRequest    = "request"
	StepAnalysis   = "domain_analysis"
	StepDecision   = "workflow_decision"
	StepGeneration = "generation"
	StepPipeline   = "pipeline"
)

// ProgressEvent is one step-transition record in a conversation's ordered
// history. After publication it is immutable; the bus never mutates or
// removes a published event.
//
// Seq is assigned by the owning conversation: per conversation it starts at
// 1 and is strictly increasing with no gaps.
type ProgressEvent struct {
	ConversationID string      `json:"conversation_id"`
	Seq            int         `json:"seq"`
	Step           string      `json:"step"`
	Domain         DomainTag   `json:"domain,omitempty"`
	Status         EventStatus `json:"status"`
	Detail         string      `json:"detail"`
	Timestamp      time.Time   `json:"timestamp"`
}

// IsError reports whether the event records a failure.
func (e ProgressEvent) IsError() bool { return e.Status == StatusError }
