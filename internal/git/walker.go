package git

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var errStop = errors.New("stop")

// LogOptions bounds a history walk.
type LogOptions struct {
	// StopAt ends the walk before this commit.
	StopAt string
	// Max caps the number of commits returned; zero means no cap.
	Max int
	// Match, when set, keeps only commits it returns true for. Max counts
	// matches, not visited commits.
	Match func(*Commit) bool
}

// Log walks history reachable from rev in committer-time order, newest first.
func (r *Repository) Log(ctx context.Context, rev string, opts LogOptions) ([]*Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	from, err := r.resolveLocked(rev)
	if err != nil {
		return nil, err
	}
	iter, err := r.repo.Log(&git.LogOptions{
		From:  from.Hash,
		Order: git.LogOrderCommitterTime,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create log iterator")
	}
	defer iter.Close()

	var commits []*Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if opts.StopAt != "" && c.Hash.String() == opts.StopAt {
			return errStop
		}
		info := toCommit(c)
		if opts.Match != nil && !opts.Match(info) {
			return nil
		}
		commits = append(commits, info)
		if opts.Max > 0 && len(commits) >= opts.Max {
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, errors.Wrap(err, "failed to iterate commits")
	}
	return commits, nil
}

// Distance counts first-parent steps from rev back to ancestor. It fails when
// ancestor is not on rev's first-parent chain.
func (r *Repository) Distance(ctx context.Context, rev, ancestor string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.resolveLocked(rev)
	if err != nil {
		return 0, err
	}
	target, err := r.resolveLocked(ancestor)
	if err != nil {
		return 0, err
	}

	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if c.Hash == target.Hash {
			return n, nil
		}
		if c.NumParents() == 0 {
			return 0, errors.Newf("%s is not a first-parent ancestor of %s",
				ShortHash(ancestor), ShortHash(rev))
		}
		c, err = c.Parent(0)
		if err != nil {
			return 0, errors.Wrap(err, "failed to load parent commit")
		}
	}
}
