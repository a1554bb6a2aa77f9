package git

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

// WorkingTreeDiff returns the staged and unstaged changes against HEAD as a
// zero-context unified diff with renames detected.
func (r *Repository) WorkingTreeDiff(ctx context.Context) (string, error) {
	out, err := r.run(ctx, nil,
		"diff", "HEAD",
		"--no-color", "--no-ext-diff", "--unified=0", "-M",
		"--src-prefix=a/", "--dst-prefix=b/")
	if err != nil {
		return "", errors.Wrap(err, "failed to diff working tree")
	}
	return out, nil
}

// ResetIndex unstages everything, leaving the working tree alone.
func (r *Repository) ResetIndex(ctx context.Context) error {
	if _, err := r.run(ctx, nil, "reset", "-q"); err != nil {
		return errors.Wrap(err, "failed to reset index")
	}
	return nil
}

// ApplyToIndex applies a zero-context patch to the index only.
func (r *Repository) ApplyToIndex(ctx context.Context, patch string) error {
	_, err := r.run(ctx, strings.NewReader(patch),
		"apply", "--cached", "--unidiff-zero", "--whitespace=nowarn", "-")
	if err != nil {
		return errors.Wrap(err, "failed to stage patch")
	}
	return nil
}

// StageFiles adds paths to the index with their working-tree content.
func (r *Repository) StageFiles(ctx context.Context, paths []string) error {
	args := append([]string{"add", "--"}, paths...)
	if _, err := r.run(ctx, nil, args...); err != nil {
		return errors.Wrap(err, "failed to stage files")
	}
	return nil
}

// CreateCommit commits the index with message, bypassing hooks, and returns
// the new HEAD.
func (r *Repository) CreateCommit(ctx context.Context, message string) (string, error) {
	if _, err := r.run(ctx, nil, "commit", "--no-verify", "--quiet", "-m", message); err != nil {
		return "", errors.Wrap(err, "failed to create commit")
	}
	return r.revParse(ctx, "HEAD")
}

// AmendMessage rewrites the message of HEAD without touching its tree.
func (r *Repository) AmendMessage(ctx context.Context, message string) (string, error) {
	_, err := r.run(ctx, nil,
		"commit", "--amend", "--only", "--no-verify", "--allow-empty", "--quiet", "-m", message)
	if err != nil {
		return "", errors.Wrap(err, "failed to amend commit message")
	}
	return r.revParse(ctx, "HEAD")
}

// GitDir returns the absolute path of the repository's git directory.
func (r *Repository) GitDir(ctx context.Context) (string, error) {
	return r.revParse(ctx, "--absolute-git-dir")
}

func (r *Repository) revParse(ctx context.Context, arg string) (string, error) {
	out, err := r.run(ctx, nil, "rev-parse", arg)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
