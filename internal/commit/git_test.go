package commit_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishaan812/fastfixup/internal/backup"
	"github.com/ishaan812/fastfixup/internal/commit"
	"github.com/ishaan812/fastfixup/internal/fixup"
	"github.com/ishaan812/fastfixup/internal/git"
	"github.com/ishaan812/fastfixup/internal/git/gittest"
	"github.com/ishaan812/fastfixup/internal/selection"
)

func subjects(s *gittest.Sandbox, rev string) []string {
	return strings.Split(s.Git("log", "--format=%s", rev), "\n")
}

func TestCreateAndAutosquashWithGit(t *testing.T) {
	ctx := context.Background()
	s := gittest.New(t)
	lines := gittest.Numbered(20)
	s.Write("README", "readme\n")
	s.Commit("Initial")
	s.Write("main.go", gittest.Lines(lines[:10]...))
	s.Commit("Add first half")
	s.Write("main.go", gittest.Lines(lines...))
	s.Commit("Add second half")

	lines[2] = "line 3!"
	lines[15] = "line 16!"
	s.Write("main.go", gittest.Lines(lines...))
	s.Write("notes.txt", "scratch\n")
	s.Git("add", "notes.txt")

	repo, err := git.OpenRepo(s.Dir, nil)
	require.NoError(t, err)
	res, err := fixup.NewAnalyzer(repo, nil, 2).Analyze(ctx, fixup.Options{})
	require.NoError(t, err)
	require.Len(t, res.Targets, 2)
	assert.Equal(t, "Add second half", res.Targets[0].Subject())

	m := backup.NewManager(repo, "", nil)
	rep, err := commit.NewCreator(repo, m, nil).Create(ctx, res.Diff, selection.Auto(res.Targets), commit.Options{})
	require.NoError(t, err)
	require.NotNil(t, rep.Backup)
	assert.Equal(t, "git rebase -i --autosquash HEAD~4", rep.RebaseCommand())

	assert.Equal(t, []string{"fixup! Add first half", "fixup! Add second half", "Add second half", "Add first half", "Initial"},
		subjects(s, "HEAD"))
	assert.Contains(t, s.Git("show", "HEAD:main.go"), "line 3!")
	assert.NotContains(t, s.Git("show", "HEAD~1:main.go"), "line 3!")
	assert.Contains(t, s.Git("show", "HEAD~1:main.go"), "line 16!")
	// The new file was not part of any target and stays staged.
	assert.Equal(t, "notes.txt", s.Git("diff", "--cached", "--name-only"))

	s.Git("stash")
	s.GitEnv([]string{"GIT_SEQUENCE_EDITOR=true"}, "rebase", "-i", "--autosquash", fmt.Sprintf("HEAD~%d", rep.RebaseCount))
	assert.Equal(t, []string{"Add second half", "Add first half", "Initial"}, subjects(s, "HEAD"))
	assert.Contains(t, s.Git("show", "HEAD~1:main.go"), "line 3!")
	assert.Contains(t, s.Git("show", "HEAD:main.go"), "line 16!")

	_, err = m.Restore(ctx, rep.Backup.Name, func(string) (bool, error) { return true, nil })
	require.NoError(t, err)
	assert.Equal(t, rep.Backup.Commit, s.Git("rev-parse", "HEAD"))
}

func TestResquashStoppedRebaseWithGit(t *testing.T) {
	ctx := context.Background()
	s := gittest.New(t)
	s.Write("a.txt", "base\n")
	s.Commit("Initial")
	s.Write("parser.go", "parse\n")
	s.Commit("Add parser\n\nHandles the header.")
	s.Write("parser.go", "parse!\n")
	fx := s.Commit("fixup! Add parser")
	s.Write("a.txt", "later\n")
	s.Commit("Later work")

	repo, err := git.OpenRepo(s.Dir, nil)
	require.NoError(t, err)
	conv := commit.NewConverter(repo, nil)

	_, err = conv.Resquash(ctx, fx, editTo("x", nil))
	var pe *commit.PreconditionError
	require.True(t, errors.As(err, &pe))

	s.GitEnv([]string{"GIT_SEQUENCE_EDITOR=sed -i.bak -e '/fixup! Add parser/s/^pick/edit/'"},
		"rebase", "-i", "--no-autosquash", "--no-ff", "HEAD~3")
	replay := s.Git("rev-parse", "HEAD")
	require.NotEqual(t, fx, replay)

	var initial string
	res, err := conv.Resquash(ctx, fx, editTo("Add parser\n\nHandles headers and footers.", &initial))
	require.NoError(t, err)
	assert.Equal(t, "Add parser\n\nHandles the header.", initial)
	assert.Equal(t, "Add parser", res.Target.Subject())
	assert.Equal(t, "squash! Add parser\n\nHandles headers and footers.", s.Git("log", "-1", "--format=%B"))

	s.Git("rebase", "--continue")
	assert.Equal(t, []string{"Later work", "squash! Add parser", "Add parser", "Initial"}, subjects(s, "HEAD"))
	assert.Equal(t, "parse!", s.Git("show", "HEAD~1:parser.go"))
}
