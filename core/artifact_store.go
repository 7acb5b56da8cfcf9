package core

// ArtifactStore persists per-stage snapshot records keyed by conversation
// identifier. Records are self-describing structured payloads (JSON); no
// binary compatibility is required beyond being re-parseable by this system.
type ArtifactStore interface {
	Save(conversationID, name string, data []byte) error
	Get(conversationID, name string) ([]byte, error)
	List(conversationID string) ([]string, error)
	Delete(conversationID, name string) error
}
