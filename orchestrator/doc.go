// Package orchestrator drives the full document pipeline for a query:
// concurrent domain analyses, the workflow decision, generation dispatch,
// progress event publication and per-stage artifact snapshots.
//
// The orchestrator owns the lifecycle of each conversation. Submission is
// asynchronous: Submit returns the conversation id immediately and the
// pipeline advances in a background goroutine, publishing ordered progress
// events that Subscribe replays and streams. All state mutation funnels
// through the session store's Advance critical section.
package orchestrator
