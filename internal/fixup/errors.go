package fixup

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/ishaan812/fastfixup/internal/git"
)

var (
	// ErrNotRepository is returned when the working directory is not a repository.
	ErrNotRepository = git.ErrNotRepository
	// ErrNoChanges is returned when the working tree matches HEAD.
	ErrNoChanges = errors.New("no changes to analyze")
	// ErrNoTargets is returned when analysis surfaces nothing to fix up.
	ErrNoTargets = errors.New("no fixup targets found")
)

// ResolutionError records a line whose origin could not be resolved. The line
// is downgraded to an unattributed change and the run continues.
type ResolutionError struct {
	Path   string
	Line   int
	Commit string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Commit != "" {
		return fmt.Sprintf("cannot load commit %s: %v", git.ShortHash(e.Commit), e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("cannot resolve origin of %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("cannot resolve origin of %s: %v", e.Path, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
