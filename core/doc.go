// Package core defines the shared domain model of the docfoundry pipeline:
// conversations and their stages, progress events, domain analysis results,
// workflow decisions, generation results and the store contracts that
// implementation packages (session, artifact) fulfil.
//
// The canonical interfaces live here to avoid dependency cycles and keep
// domain contracts central. Callers should depend on these interfaces rather
// than concrete types so stores can be substituted in tests or production.
package core
