// Package commit turns a finished selection into fixup! and squash! commits
// and converts existing fixup! commits into squash! commits.
package commit

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/ishaan812/fastfixup/internal/backup"
	"github.com/ishaan812/fastfixup/internal/diff"
	"github.com/ishaan812/fastfixup/internal/fixup"
	"github.com/ishaan812/fastfixup/internal/git"
	"github.com/ishaan812/fastfixup/internal/selection"
)

// Repository is what commit creation and resquash need from the repository.
type Repository interface {
	Head(ctx context.Context) (string, error)
	Resolve(ctx context.Context, rev string) (string, error)
	Commit(ctx context.Context, rev string) (*git.Commit, error)
	IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error)
	Distance(ctx context.Context, rev, ancestor string) (int, error)
	Log(ctx context.Context, rev string, opts git.LogOptions) ([]*git.Commit, error)
	ResetIndex(ctx context.Context) error
	ApplyToIndex(ctx context.Context, patch string) error
	StageFiles(ctx context.Context, paths []string) error
	CreateCommit(ctx context.Context, message string) (string, error)
	AmendMessage(ctx context.Context, message string) (string, error)
	RebaseState(ctx context.Context) (git.RebaseState, error)
}

// Backups creates the safety backup taken before the first mutation.
type Backups interface {
	NewName(ctx context.Context) (string, error)
	Create(ctx context.Context) (*backup.Record, error)
}

type Options struct {
	DryRun   bool
	NoBackup bool
}

// Result is the outcome for one target.
type Result struct {
	Target  *fixup.Target
	Mode    selection.Mode
	Message string
	Files   []string
	Lines   int
	// Commit is the created commit; empty for dry runs and failures.
	Commit string
	Err    error
}

// Report describes a creation run.
type Report struct {
	DryRun  bool
	Backup  *backup.Record
	Steps   []string
	Results []Result
	// RebaseCount is N in "git rebase -i --autosquash HEAD~N": the commits
	// from HEAD back through the oldest target's parent.
	RebaseCount int
	// RootTarget is set when the oldest target has no parent, so the rebase
	// needs --root.
	RootTarget bool
}

func (r *Report) Succeeded() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err == nil {
			out = append(out, res)
		}
	}
	return out
}

func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// RebaseCommand is the autosquash rebase that folds the new commits in, or
// empty when nothing was (or would be) created.
func (r *Report) RebaseCommand() string {
	switch {
	case r.RootTarget:
		return "git rebase -i --autosquash --root"
	case r.RebaseCount > 0:
		return fmt.Sprintf("git rebase -i --autosquash HEAD~%d", r.RebaseCount)
	}
	return ""
}

// Message builds the commit message for a target selection.
func Message(ts *selection.TargetState) string {
	if ts.Mode == selection.Squash {
		body := strings.TrimSpace(ts.Message)
		if body == "" {
			body = strings.TrimSpace(ts.Target.Message)
		}
		return selection.Squash.Prefix() + body
	}
	return selection.Fixup.Prefix() + ts.Target.Subject()
}

type Creator struct {
	repo    Repository
	backups Backups
	log     *zap.Logger
}

func NewCreator(repo Repository, backups Backups, log *zap.Logger) *Creator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Creator{repo: repo, backups: backups, log: log}
}

// Create stages and commits each selected target in selection order. d must be
// the diff the selection was made from.
//
// A backup failure aborts before anything changes. A failing target is
// recorded, the index is reset and the run continues; the returned error is
// then a *MutationError alongside the full report.
func (c *Creator) Create(ctx context.Context, d *diff.Diff, s *selection.State, opts Options) (*Report, error) {
	if err := s.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid selection")
	}
	head, err := c.repo.Head(ctx)
	if err != nil {
		return nil, err
	}

	rep := &Report{DryRun: opts.DryRun}
	if !opts.NoBackup {
		if opts.DryRun {
			name, err := c.backups.NewName(ctx)
			if err != nil {
				return nil, &backup.BackupError{Err: err}
			}
			rep.Steps = append(rep.Steps, fmt.Sprintf("git tag %s %s", name, git.ShortHash(head)))
		} else {
			rec, err := c.backups.Create(ctx)
			if err != nil {
				return nil, err
			}
			rep.Backup = rec
			rep.Steps = append(rep.Steps, fmt.Sprintf("git tag %s %s", rec.Name, git.ShortHash(head)))
		}
	}

	rep.Steps = append(rep.Steps, "git reset -q")
	if !opts.DryRun {
		if err := c.repo.ResetIndex(ctx); err != nil {
			return rep, &MutationError{Report: rep, Err: err}
		}
	}

	applied := make(map[string][]diff.ChangedLine)
	var failures *multierror.Error
	for _, ts := range s.Order {
		res := Result{
			Target:  ts.Target,
			Mode:    ts.Mode,
			Message: Message(ts),
			Files:   ts.Files(),
			Lines:   ts.LineCount(),
		}

		hash, err := c.commitTarget(ctx, d, ts, applied, res.Message, rep, opts.DryRun)
		if err != nil {
			res.Err = err
			failures = multierror.Append(failures, errors.Wrapf(err, "target %s", ts.Target.Short()))
			c.log.Warn("fixup commit failed", zap.String("target", ts.Target.Short()), zap.Error(err))
			if !opts.DryRun {
				if rerr := c.repo.ResetIndex(ctx); rerr != nil {
					c.log.Warn("failed to reset index", zap.Error(rerr))
				}
			}
		} else {
			res.Commit = hash
			for _, path := range res.Files {
				applied[path] = append(applied[path], ts.ChangedLines(path)...)
			}
		}
		rep.Results = append(rep.Results, res)
	}

	c.restageNewFiles(ctx, d, applied, rep, opts.DryRun)

	if err := c.rebaseRange(ctx, head, rep); err != nil {
		c.log.Warn("failed to compute rebase range", zap.Error(err))
	}

	if err := failures.ErrorOrNil(); err != nil {
		return rep, &MutationError{Report: rep, Err: err}
	}
	return rep, nil
}

func (c *Creator) commitTarget(ctx context.Context, d *diff.Diff, ts *selection.TargetState,
	applied map[string][]diff.ChangedLine, message string, rep *Report, dryRun bool) (string, error) {
	staged := 0
	for _, path := range ts.Files() {
		f := d.File(path)
		if f == nil {
			return "", errors.Newf("%s is not part of the diff", path)
		}
		lines := ts.ChangedLines(path)
		patch := diff.BuildPatch(f, applied[path], lines)
		if patch == "" {
			continue
		}
		rep.Steps = append(rep.Steps, fmt.Sprintf("git apply --cached --unidiff-zero -  # %s %s", path, lineList(lines)))
		if !dryRun {
			if err := c.repo.ApplyToIndex(ctx, patch); err != nil {
				return "", err
			}
		}
		staged++
	}
	if staged == 0 {
		return "", errors.New("selected lines produce no change")
	}

	rep.Steps = append(rep.Steps, "git commit --no-verify -m "+strconv.Quote(message))
	if dryRun {
		return "", nil
	}
	hash, err := c.repo.CreateCommit(ctx, message)
	if err != nil {
		return "", err
	}
	c.log.Debug("created commit",
		zap.String("target", ts.Target.Short()),
		zap.String("commit", git.ShortHash(hash)))
	return hash, nil
}

// restageNewFiles adds back the new files the index reset unstaged and no
// commit took, so they stay tracked.
func (c *Creator) restageNewFiles(ctx context.Context, d *diff.Diff, applied map[string][]diff.ChangedLine, rep *Report, dryRun bool) {
	var paths []string
	for _, f := range d.Files {
		if f.New && len(applied[f.Path]) == 0 {
			paths = append(paths, f.Path)
		}
	}
	if len(paths) == 0 {
		return
	}
	rep.Steps = append(rep.Steps, "git add -- "+strings.Join(paths, " "))
	if dryRun {
		return
	}
	if err := c.repo.StageFiles(ctx, paths); err != nil {
		c.log.Warn("failed to re-stage new files", zap.Strings("paths", paths), zap.Error(err))
	}
}

// rebaseRange finds the oldest successful target and counts the commits an
// autosquash rebase has to cover.
func (c *Creator) rebaseRange(ctx context.Context, before string, rep *Report) error {
	ok := rep.Succeeded()
	if len(ok) == 0 {
		return nil
	}

	head := before
	extra := len(ok)
	if !rep.DryRun {
		h, err := c.repo.Head(ctx)
		if err != nil {
			return err
		}
		head, extra = h, 0
	}

	best := -1
	var oldest *fixup.Target
	for _, res := range ok {
		n, err := c.repo.Distance(ctx, head, res.Target.Hash)
		if err != nil {
			return err
		}
		if n > best {
			best, oldest = n, res.Target
		}
	}

	target, err := c.repo.Commit(ctx, oldest.Hash)
	if err != nil {
		return err
	}
	rep.RebaseCount = best + 1 + extra
	rep.RootTarget = len(target.Parents) == 0
	return nil
}

func lineList(lines []diff.ChangedLine) string {
	nums := make([]string, 0, len(lines))
	for _, l := range lines {
		nums = append(nums, l.Op.Symbol()+strconv.Itoa(l.Line))
	}
	return strings.Join(nums, ",")
}
