package cli

import (
	"github.com/cockroachdb/errors"

	"github.com/ishaan812/fastfixup/internal/backup"
	"github.com/ishaan812/fastfixup/internal/commit"
	"github.com/ishaan812/fastfixup/internal/fixup"
	"github.com/ishaan812/fastfixup/internal/git"
	"github.com/ishaan812/fastfixup/internal/selection"
)

// Process exit codes.
const (
	ExitOK             = 0
	ExitError          = 1
	ExitNoTargets      = 2
	ExitInvalidRef     = 3
	ExitPrecondition   = 4
	ExitCancelled      = 5
	ExitBackupFailed   = 6
	ExitTargetNotFound = 7
	ExitPartialFailure = 8
	ExitNotRepository  = 9
)

// ExitCode maps an error returned by Execute to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		backupErr   *backup.BackupError
		precondErr  *commit.PreconditionError
		notFoundErr *commit.TargetNotFoundError
		mutationErr *commit.MutationError
	)
	switch {
	case errors.As(err, &backupErr):
		return ExitBackupFailed
	case errors.As(err, &mutationErr):
		return ExitPartialFailure
	case errors.As(err, &precondErr):
		return ExitPrecondition
	case errors.As(err, &notFoundErr):
		return ExitTargetNotFound
	case errors.Is(err, selection.ErrCancelled), errors.Is(err, backup.ErrConfirmationDeclined):
		return ExitCancelled
	case errors.Is(err, git.ErrNotRepository):
		return ExitNotRepository
	case errors.Is(err, git.ErrInvalidReference):
		return ExitInvalidRef
	case errors.Is(err, fixup.ErrNoTargets), errors.Is(err, fixup.ErrNoChanges):
		return ExitNoTargets
	}
	return ExitError
}
