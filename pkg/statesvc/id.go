package statesvc

import "github.com/oklog/ulid/v2"

// newID returns a new unique, lexically sortable identifier.
func newID() string {
	return ulid.Make().String()
}
