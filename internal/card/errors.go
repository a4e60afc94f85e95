package card

import "fmt"

// RootPath names the document itself in a MalformedInputError.
const RootPath = "(root)"

// MalformedInputError reports a structurally invalid source document. Path
// is the dotted key path of the offending value.
type MalformedInputError struct {
	Path   string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("card: malformed input at %s: %s", e.Path, e.Reason)
}
