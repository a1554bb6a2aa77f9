package commit_test

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishaan812/fastfixup/internal/commit"
	"github.com/ishaan812/fastfixup/internal/fixup/fixuptest"
	"github.com/ishaan812/fastfixup/internal/git"
)

func editTo(text string, seen *string) commit.Editor {
	return func(_ context.Context, initial string) (string, error) {
		if seen != nil {
			*seen = initial
		}
		return text, nil
	}
}

func TestResquashHead(t *testing.T) {
	repo := fixuptest.NewRepo()
	repo.AddCommit("Initial", "dev@example.com")
	target := repo.AddCommit("Add parser\n\nHandles the header.", "dev@example.com")
	repo.AddCommit("Unrelated", "dev@example.com")
	repo.AddCommit("fixup! Add parser", "dev@example.com")

	var initial string
	res, err := commit.NewConverter(repo, nil).Resquash(context.Background(), "HEAD", editTo("Add parser\n\nHandles headers and footers.", &initial))
	require.NoError(t, err)

	assert.Equal(t, "Add parser\n\nHandles the header.", initial)
	assert.Equal(t, target.Hash, res.Target.Hash)
	assert.Equal(t, "squash! Add parser\n\nHandles headers and footers.", res.Message)
	assert.Equal(t, res.Message, repo.HeadCommit().Message)
	assert.Equal(t, res.Commit, repo.HeadCommit().Hash)
	assert.Len(t, repo.History, 4)
}

func TestResquashRequiresFixupPrefix(t *testing.T) {
	repo := fixuptest.NewRepo()
	repo.AddCommit("Add parser", "dev@example.com")
	repo.AddCommit("Tweak parser", "dev@example.com")
	before := repo.HeadCommit().Hash

	_, err := commit.NewConverter(repo, nil).Resquash(context.Background(), "HEAD", editTo("x", nil))
	var pe *commit.PreconditionError
	require.True(t, errors.As(err, &pe))
	assert.Empty(t, repo.Mutations())
	assert.Equal(t, before, repo.HeadCommit().Hash)
}

func TestResquashRequiresRewritablePosition(t *testing.T) {
	repo := fixuptest.NewRepo()
	repo.AddCommit("Add parser", "dev@example.com")
	fx := repo.AddCommit("fixup! Add parser", "dev@example.com")
	repo.AddCommit("Later work", "dev@example.com")

	_, err := commit.NewConverter(repo, nil).Resquash(context.Background(), fx.Hash, editTo("x", nil))
	var pe *commit.PreconditionError
	require.True(t, errors.As(err, &pe))
	assert.Empty(t, repo.Mutations())

	// A rebase stopped elsewhere does not help.
	repo.Rebase = git.RebaseState{InProgress: true, Interactive: true, StoppedAt: "0000"}
	_, err = commit.NewConverter(repo, nil).Resquash(context.Background(), fx.Hash, editTo("x", nil))
	assert.True(t, errors.As(err, &pe))
}

func TestResquashDuringInteractiveRebase(t *testing.T) {
	repo := fixuptest.NewRepo()
	repo.AddCommit("Add parser", "dev@example.com")
	fx := repo.AddCommit("fixup! Add parser", "dev@example.com")
	// The rebase replayed the fixup; HEAD is the copy.
	repo.AddCommit("fixup! Add parser", "dev@example.com")
	repo.Rebase = git.RebaseState{InProgress: true, Interactive: true, StoppedAt: fx.Hash}

	res, err := commit.NewConverter(repo, nil).Resquash(context.Background(), fx.Hash, editTo("", nil))
	require.NoError(t, err)
	// An empty edit keeps the original message.
	assert.Equal(t, "squash! Add parser", res.Message)
	assert.Equal(t, []string{"amend squash! Add parser"}, repo.Mutations())
}

func TestResquashTargetByHash(t *testing.T) {
	repo := fixuptest.NewRepo()
	target := repo.AddCommit("Add parser", "dev@example.com")
	repo.AddCommit("fixup! "+target.Short(), "dev@example.com")

	res, err := commit.NewConverter(repo, nil).Resquash(context.Background(), "HEAD", editTo("Better", nil))
	require.NoError(t, err)
	assert.Equal(t, target.Hash, res.Target.Hash)
}

func TestResquashTargetNotFound(t *testing.T) {
	repo := fixuptest.NewRepo()
	repo.AddCommit("Add parser", "dev@example.com")
	repo.AddCommit("fixup! Add lexer", "dev@example.com")

	_, err := commit.NewConverter(repo, nil).Resquash(context.Background(), "HEAD", editTo("x", nil))
	var nf *commit.TargetNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Add lexer", nf.Subject)
	assert.Empty(t, repo.Mutations())
}

func TestResquashAmbiguousTarget(t *testing.T) {
	repo := fixuptest.NewRepo()
	repo.AddCommit("Add parser", "dev@example.com")
	repo.AddCommit("Add parser", "dev@example.com")
	repo.AddCommit("fixup! Add parser", "dev@example.com")

	_, err := commit.NewConverter(repo, nil).Resquash(context.Background(), "HEAD", editTo("x", nil))
	var nf *commit.TargetNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, 2, nf.Matches)
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestResquashLimitNarrowsSubjectSearch(t *testing.T) {
	repo := fixuptest.NewRepo()
	repo.AddCommit("Add parser", "dev@example.com")
	base := repo.AddCommit("Release 1.0", "dev@example.com")
	target := repo.AddCommit("Add parser", "dev@example.com")
	repo.AddCommit("fixup! Add parser", "dev@example.com")

	conv := commit.NewConverter(repo, nil)
	conv.Limit = base.Hash
	res, err := conv.Resquash(context.Background(), "HEAD", editTo("Add parser v2", nil))
	require.NoError(t, err)
	assert.Equal(t, target.Hash, res.Target.Hash)
	assert.Equal(t, "squash! Add parser v2", repo.HeadCommit().Message)
}

func TestResquashInvalidReference(t *testing.T) {
	repo := fixuptest.NewRepo()
	repo.AddCommit("Add parser", "dev@example.com")
	_, err := commit.NewConverter(repo, nil).Resquash(context.Background(), "deadbeef", editTo("x", nil))
	assert.True(t, errors.Is(err, git.ErrInvalidReference))
}
