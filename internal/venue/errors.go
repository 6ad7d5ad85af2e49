package venue

import (
	"errors"
	"strings"
)

// ErrVenueNotFound is returned when the catalog has no venue with the
// requested id.  Handlers translate it into HTTP 404.
var ErrVenueNotFound = errors.New("venue not found")

// ValidationError reports structurally invalid venue data.  Every problem
// found is listed so that a broken import can be fixed in one pass.  It is
// fatal for the load: no partially valid Index is ever returned.
type ValidationError struct {
	VenueID  string
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid venue " + quote(e.VenueID) + ": " + strings.Join(e.Problems, "; ")
}

func quote(s string) string {
	return `"` + s + `"`
}
