package parser

import (
	"errors"
	"fmt"
)

// Fatal conditions. Everything else the parser encounters is downgraded to a
// collected warning so that one bad block cannot abort a whole run.
var (
	// ErrMissingEnd marks a code block that reached end-of-file without a
	// closing dedent. Fatal only in strict mode.
	ErrMissingEnd = errors.New("unterminated code block")

	// ErrUnreadableRoot marks a source root that cannot be traversed.
	ErrUnreadableRoot = errors.New("unreadable source path")
)

// TargetConflictError reports a block annotated with a script marker while
// inside a distro region: the two grouping mechanisms disagree about the
// block's target.
type TargetConflictError struct {
	Doc    string
	Line   int
	Marker string
	Region string
}

func (e *TargetConflictError) Error() string {
	return fmt.Sprintf("%s:%d: conflicting target annotations: script marker %q inside only-region %q",
		e.Doc, e.Line, e.Marker, e.Region)
}
