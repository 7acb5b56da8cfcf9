// Package artifact contains concrete implementations of core.ArtifactStore.
//
// The canonical ArtifactStore interface lives in the core package to avoid
// dependency cycles and keep domain contracts central. Implementation
// packages like this one (in-memory, filesystem, object stores) provide
// storage backends that can be swapped without touching calling code.
//
// Stored records are per-stage pipeline snapshots: the request, one analysis
// record per domain, the workflow decision, and the final summary. Records
// are self-describing JSON keyed by conversation id; callers should depend
// on the core interface rather than concrete types so they can substitute
// alternative persistence layers in tests or production.
package artifact
