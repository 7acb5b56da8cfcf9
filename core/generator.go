package core

import "context"

// Generator is the fixed contract of a document generation strategy.
// Implementations produce a deliverable artifact plus at least one raster
// preview and report failures through the error return; the dispatcher owns
// retries and state bookkeeping.
type Generator interface {
	// DocumentType identifies the single deliverable kind this strategy
	// produces.
	DocumentType() DocumentType

	// Generate builds the deliverable for the query, informed by the domain
	// analyses. Failed domains appear in results with Success=false.
	Generate(ctx context.Context, query string, results map[DomainTag]DomainResult) (Generated, error)
}
