package core

import "testing"

func TestMatchDocumentType(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     DocumentType
		ok       bool
	}{
		{"exact", "report", DocumentTypeReport, true},
		{"exact upper", "SLIDES", DocumentTypeSlides, true},
		{"embedded in sentence", "I would choose diagram here", DocumentTypeDiagram, true},
		{"punctuation glued", "maybe a report??", "", false},
		{"empty", "", "", false},
		{"two types", "report or slides", "", false},
		{"repeated single type", "project project project", DocumentTypeProject, true},
		{"unrelated", "a lengthy essay about nothing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchDocumentType(tt.response)
			if ok != tt.ok {
				t.Fatalf("MatchDocumentType(%q) ok = %v, want %v", tt.response, ok, tt.ok)
			}
			if got != tt.want {
				t.Fatalf("MatchDocumentType(%q) = %q, want %q", tt.response, got, tt.want)
			}
		})
	}
}

func TestNewIDUnique(t *testing.T) {
	a, b := NewID(), NewID()
	if a == "" || a == b {
		t.Fatalf("ids should be unique and non-empty: %q %q", a, b)
	}
}
