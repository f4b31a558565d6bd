package catalog

import "fmt"

// ValidationError reports a record that cannot be used.
type ValidationError struct {
	Index int    // position in the source array
	ID    string // empty when the id itself is the problem
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("record %d (id %s): %s: %s", e.Index, e.ID, e.Field, e.Msg)
	}
	return fmt.Sprintf("record %d: %s: %s", e.Index, e.Field, e.Msg)
}
