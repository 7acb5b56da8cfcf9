package core

import (
	"strings"

	"github.com/google/uuid"
)

// DomainTag identifies one of the fixed analytical perspectives applied to a
// user query. The set of recognized tags is injected at startup via
// configuration; the constants below are the defaults.
type DomainTag string

const (
	// DomainMechanical covers mechanical engineering analysis.
	DomainMechanical DomainTag = "mechanical"
	// DomainElectrical covers electrical engineering analysis.
	DomainElectrical DomainTag = "electrical"
	// DomainProgramming covers software engineering analysis.
	DomainProgramming DomainTag = "programming"
)

// DefaultDomains returns the default set of domain tags in stable order.
func DefaultDomains() []DomainTag {
	return []DomainTag{DomainMechanical, DomainElectrical, DomainProgramming}
}

// DocumentType is the closed set of deliverable kinds a conversation can
// resolve to. Exactly one generation strategy exists per type.
type DocumentType string

const (
	// DocumentTypeReport is a multi-section PDF-style report. It is also the
	// deterministic fallback when the decision stage cannot parse a type.
	DocumentTypeReport DocumentType = "report"
	// DocumentTypeDiagram is a pipeline / architecture diagram.
	DocumentTypeDiagram DocumentType = "diagram"
	// DocumentTypeSlides is a slide deck.
	DocumentTypeSlides DocumentType = "slides"
	// DocumentTypeDocument is a word-processor document.
	DocumentTypeDocument DocumentType = "document"
	// DocumentTypeProject is a multi-file code project.
	DocumentTypeProject DocumentType = "project"
)

// DefaultDocumentType is the fallback chosen when the decision stage cannot
// uniquely match a canonical type name.
const DefaultDocumentType = DocumentTypeReport

// DocumentTypes returns all canonical document types in stable order.
func DocumentTypes() []DocumentType {
	return []DocumentType{
		DocumentTypeReport,
		DocumentTypeDiagram,
		DocumentTypeSlides,
		DocumentTypeDocument,
		DocumentTypeProject,
	}
}

// MatchDocumentType scans a free-text model response for canonical document
// type names. A whitespace-separated field must equal a canonical name
// exactly (case-insensitive); punctuation glued to a word disqualifies it,
// which is what makes an ungrammatical answer like "maybe a report??" fall
// through to the caller's fallback. The match succeeds only when exactly one
// distinct type name is present.
func MatchDocumentType(response string) (DocumentType, bool) {
	found := map[DocumentType]bool{}
	var first DocumentType
	for _, field := range strings.Fields(response) {
		for _, dt := range DocumentTypes() {
			if strings.EqualFold(field, string(dt)) {
				if len(found) == 0 {
					first = dt
				}
				found[dt] = true
			}
		}
	}
	if len(found) != 1 {
		return "", false
	}
	return first, true
}

// NewID generates an opaque unique identifier for conversations and events.
func NewID() string { return uuid.NewString() }
