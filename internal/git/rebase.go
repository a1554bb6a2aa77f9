package git

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// RebaseState describes a rebase in progress, if any.
type RebaseState struct {
	InProgress  bool
	Interactive bool
	// StoppedAt is the commit an interactive rebase is currently stopped at,
	// when git recorded one.
	StoppedAt string
}

// RebaseState inspects the git directory for rebase bookkeeping.
func (r *Repository) RebaseState(ctx context.Context) (RebaseState, error) {
	gitDir, err := r.GitDir(ctx)
	if err != nil {
		return RebaseState{}, err
	}

	mergeDir := filepath.Join(gitDir, "rebase-merge")
	if _, err := os.Stat(mergeDir); err == nil {
		state := RebaseState{InProgress: true}
		if _, err := os.Stat(filepath.Join(mergeDir, "interactive")); err == nil {
			state.Interactive = true
		}
		if data, err := os.ReadFile(filepath.Join(mergeDir, "stopped-sha")); err == nil {
			stopped := strings.TrimSpace(string(data))
			if full, err := r.Resolve(ctx, stopped); err == nil {
				stopped = full
			}
			state.StoppedAt = stopped
		}
		return state, nil
	}

	if _, err := os.Stat(filepath.Join(gitDir, "rebase-apply")); err == nil {
		return RebaseState{InProgress: true}, nil
	}
	return RebaseState{}, nil
}
