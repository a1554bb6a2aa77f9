package commit

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/ishaan812/fastfixup/internal/git"
	"github.com/ishaan812/fastfixup/internal/selection"
)

// Editor lets the operator edit text, starting from initial.
type Editor func(ctx context.Context, initial string) (string, error)

// ResquashResult describes a converted commit.
type ResquashResult struct {
	Fixup   *git.Commit
	Target  *git.Commit
	Message string
	Commit  string
}

type Converter struct {
	repo Repository
	log  *zap.Logger

	// Limit, when set, keeps the subject search to commits newer than this
	// revision.
	Limit string
}

func NewConverter(repo Repository, log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{repo: repo, log: log}
}

// Resquash rewrites the fixup! commit ref into a squash! commit whose message
// is the operator's edit of the target's message. The commit must be HEAD or
// the commit an interactive rebase is stopped at. Only the message changes.
func (c *Converter) Resquash(ctx context.Context, ref string, edit Editor) (*ResquashResult, error) {
	fx, err := c.repo.Commit(ctx, ref)
	if err != nil {
		return nil, err
	}

	fixupPrefix := selection.Fixup.Prefix()
	if !strings.HasPrefix(fx.Message, fixupPrefix) {
		return nil, &PreconditionError{Commit: fx.Hash, Reason: "message does not start with " + quoted(fixupPrefix)}
	}
	if err := c.checkRewritable(ctx, fx); err != nil {
		return nil, err
	}

	target, err := c.findTarget(ctx, fx)
	if err != nil {
		return nil, err
	}

	edited, err := edit(ctx, strings.TrimSpace(target.Message))
	if err != nil {
		return nil, errors.Wrap(err, "failed to edit message")
	}
	edited = strings.TrimSpace(edited)
	if edited == "" {
		edited = strings.TrimSpace(target.Message)
	}

	message := selection.Squash.Prefix() + edited
	hash, err := c.repo.AmendMessage(ctx, message)
	if err != nil {
		return nil, err
	}
	c.log.Info("resquashed commit",
		zap.String("fixup", fx.Short()),
		zap.String("target", target.Short()),
		zap.String("commit", git.ShortHash(hash)))
	return &ResquashResult{Fixup: fx, Target: target, Message: message, Commit: hash}, nil
}

// checkRewritable accepts HEAD, or the commit an interactive rebase stopped
// at while HEAD is that commit's replay.
func (c *Converter) checkRewritable(ctx context.Context, fx *git.Commit) error {
	head, err := c.repo.Commit(ctx, "HEAD")
	if err != nil {
		return err
	}
	if head.Hash == fx.Hash {
		return nil
	}

	state, err := c.repo.RebaseState(ctx)
	if err != nil {
		return err
	}
	if state.Interactive && state.StoppedAt == fx.Hash && head.Message == fx.Message {
		return nil
	}
	return &PreconditionError{
		Commit: fx.Hash,
		Reason: "commit is not HEAD and no interactive rebase is stopped at it",
	}
}

// findTarget resolves the commit named after the fixup! prefix, first as an
// abbreviated hash and then as a unique ancestor subject.
func (c *Converter) findTarget(ctx context.Context, fx *git.Commit) (*git.Commit, error) {
	subject := fx.Subject()
	for {
		rest, ok := strings.CutPrefix(subject, selection.Fixup.Prefix())
		if !ok {
			break
		}
		subject = strings.TrimSpace(rest)
	}
	if subject == "" || len(fx.Parents) == 0 {
		return nil, &TargetNotFoundError{Subject: subject}
	}
	parent := fx.Parents[0]

	if looksLikeHash(subject) {
		if t, err := c.repo.Commit(ctx, subject); err == nil {
			ok, err := c.repo.IsAncestor(ctx, t.Hash, parent)
			if err == nil && ok {
				return t, nil
			}
		}
	}

	var stopAt string
	if c.Limit != "" {
		limit, err := c.repo.Commit(ctx, c.Limit)
		if err != nil {
			return nil, err
		}
		stopAt = limit.Hash
	}

	matches, err := c.repo.Log(ctx, parent, git.LogOptions{
		StopAt: stopAt,
		Max:    2,
		Match: func(cm *git.Commit) bool {
			s := cm.Subject()
			return s == subject &&
				!strings.HasPrefix(s, selection.Fixup.Prefix()) &&
				!strings.HasPrefix(s, selection.Squash.Prefix())
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to search history")
	}
	if len(matches) != 1 {
		return nil, &TargetNotFoundError{Subject: subject, Matches: len(matches)}
	}
	return matches[0], nil
}

func looksLikeHash(s string) bool {
	if len(s) < 4 || len(s) > 40 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func quoted(s string) string {
	return "'" + strings.TrimSpace(s) + "'"
}
