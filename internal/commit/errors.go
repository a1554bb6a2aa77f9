package commit

import (
	"fmt"

	"github.com/ishaan812/fastfixup/internal/git"
)

// PreconditionError is returned when a commit cannot be resquashed. Nothing
// in the repository is changed.
type PreconditionError struct {
	Commit string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cannot resquash %s: %s", git.ShortHash(e.Commit), e.Reason)
}

// TargetNotFoundError is returned when the commit a fixup points at cannot be
// identified.
type TargetNotFoundError struct {
	Subject string
	// Matches is the number of candidate commits; more than one means the
	// subject is ambiguous.
	Matches int
}

func (e *TargetNotFoundError) Error() string {
	if e.Matches > 1 {
		return fmt.Sprintf("target %q is ambiguous: %d commits match", e.Subject, e.Matches)
	}
	return fmt.Sprintf("no ancestor commit matches %q", e.Subject)
}

// MutationError reports a creation run where at least one target failed.
// Commits created before or after the failure are kept.
type MutationError struct {
	Report *Report
	Err    error
}

func (e *MutationError) Error() string {
	failed := len(e.Report.Failed())
	return fmt.Sprintf("%d of %d fixup commits failed: %v", failed, len(e.Report.Results), e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}
