package artifact

import "fmt"

var (
	// ErrNotFound is returned when a record for the given conversation / name
	// pair does not exist in the underlying store.
	ErrNotFound = fmt.Errorf("artifact not found")
)
