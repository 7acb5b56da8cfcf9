// Package session contains concrete implementations of core.SessionStore.
//
// The canonical interface lives in the core package to keep domain contracts
// central. InMemoryStore is the volatile default suited to tests and single
// process deployments; SQLiteStore persists conversations across restarts.
// Both serialize mutation per conversation through Advance, the pipeline's
// single mutation point.
package session
