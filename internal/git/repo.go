package git

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"
)

var (
	// ErrNotRepository is returned when the path is not inside a git work tree.
	ErrNotRepository = errors.New("not a git repository")
	// ErrInvalidReference is returned when a revision cannot be resolved.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrNoHead is returned for a repository without any commit.
	ErrNoHead = errors.New("repository has no commits")
)

// Commit is the subset of commit metadata the tool works with.
type Commit struct {
	Hash        string
	Message     string
	AuthorName  string
	AuthorEmail string
	When        time.Time
	Parents     []string
}

// Subject returns the first line of the commit message.
func (c *Commit) Subject() string {
	subject, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	return strings.TrimSpace(subject)
}

// Short returns the abbreviated hash.
func (c *Commit) Short() string {
	return ShortHash(c.Hash)
}

// ShortHash abbreviates a full hash to eight characters.
func ShortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}

// Repository gives access to one repository. Object and reference work goes
// through go-git; diff, blame, index and commit operations shell out to git
// so hooks, attributes and the user's identity behave as on the command line.
type Repository struct {
	repo *git.Repository
	path string
	log  *zap.Logger

	// go-git's object storage is not safe for concurrent readers.
	mu sync.Mutex
}

// OpenRepo opens the repository containing path.
func OpenRepo(path string, log *zap.Logger) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve path")
	}

	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to open git repository at %s", absPath), ErrNotRepository)
	}

	root := absPath
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Repository{
		repo: repo,
		path: root,
		log:  log,
	}, nil
}

// Head returns the full hash HEAD points at.
func (r *Repository) Head(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", errors.Mark(errors.Wrap(err, "failed to get HEAD"), ErrNoHead)
		}
		return "", errors.Wrap(err, "failed to get HEAD")
	}
	return head.Hash().String(), nil
}

// Resolve turns any revision (hash, abbreviated hash, ref, HEAD~2) into a
// full commit hash.
func (r *Repository) Resolve(ctx context.Context, rev string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.resolveLocked(rev)
	if err != nil {
		return "", err
	}
	return c.Hash.String(), nil
}

// Commit looks up a commit by any revision.
func (r *Repository) Commit(ctx context.Context, rev string) (*Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.resolveLocked(rev)
	if err != nil {
		return nil, err
	}
	return toCommit(c), nil
}

// IsAncestor reports whether ancestor is reachable from descendant. A commit
// counts as its own ancestor.
func (r *Repository) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	if ancestor == descendant {
		return true, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, err := r.resolveLocked(ancestor)
	if err != nil {
		return false, err
	}
	d, err := r.resolveLocked(descendant)
	if err != nil {
		return false, err
	}
	if a.Hash == d.Hash {
		return true, nil
	}
	ok, err := a.IsAncestor(d)
	if err != nil {
		return false, errors.Wrapf(err, "failed to check ancestry of %s", ShortHash(ancestor))
	}
	return ok, nil
}

func (r *Repository) resolveLocked(rev string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "cannot resolve %q", rev), ErrInvalidReference)
	}
	c, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "%q is not a commit", rev), ErrInvalidReference)
	}
	return c, nil
}

// lineCount returns the number of lines of path at rev, or -1 when the file
// does not exist there.
func (r *Repository) lineCount(rev, path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.resolveLocked(rev)
	if err != nil {
		return -1
	}
	f, err := c.File(path)
	if err != nil {
		return -1
	}
	lines, err := f.Lines()
	if err != nil {
		return -1
	}
	return len(lines)
}

func toCommit(c *object.Commit) *Commit {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return &Commit{
		Hash:        c.Hash.String(),
		Message:     c.Message,
		AuthorName:  c.Author.Name,
		AuthorEmail: c.Author.Email,
		When:        c.Committer.When,
		Parents:     parents,
	}
}
