// Package fixuptest provides an in-memory repository for exercising analysis
// and mutation code without git.
package fixuptest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/ishaan812/fastfixup/internal/git"
)

// Base is the commit time of the first commit; each later commit is an hour
// newer.
var Base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// Repo is a linear history plus a working-tree diff. Mutations are recorded in
// Calls in the order they happen.
type Repo struct {
	mu sync.Mutex

	History []*git.Commit
	Diff    string
	Blames  map[string]map[int]git.BlameLine

	BlameErr map[string]error
	// FailCommit, when set, is consulted before every commit.
	FailCommit func(message string) error
	FailTag    error
	FailApply  error
	Rebase     git.RebaseState

	TagList []git.Tag
	Staged  []string
	// Patches keeps every patch applied, across commits.
	Patches []string
	Calls   []string
	// BlameCalls counts Blame invocations per path.
	BlameCalls map[string]int
}

func NewRepo() *Repo {
	return &Repo{
		Blames:     make(map[string]map[int]git.BlameLine),
		BlameErr:   make(map[string]error),
		BlameCalls: make(map[string]int),
	}
}

// AddCommit appends a commit on top of the current history.
func (r *Repo) AddCommit(message, email string) *git.Commit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLocked(message, email)
}

func (r *Repo) addLocked(message, email string) *git.Commit {
	n := len(r.History)
	sum := sha1.Sum([]byte(fmt.Sprintf("%d:%d:%s", n, len(r.Calls), message)))
	c := &git.Commit{
		Hash:        hex.EncodeToString(sum[:]),
		Message:     message,
		AuthorName:  strings.Split(email, "@")[0],
		AuthorEmail: email,
		When:        Base.Add(time.Duration(n) * time.Hour),
	}
	if n > 0 {
		c.Parents = []string{r.History[n-1].Hash}
	}
	r.History = append(r.History, c)
	return c
}

// BlameRange attributes lines from..to of path to c.
func (r *Repo) BlameRange(path string, c *git.Commit, from, to int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Blames[path] == nil {
		r.Blames[path] = make(map[int]git.BlameLine)
	}
	for n := from; n <= to; n++ {
		r.Blames[path][n] = git.BlameLine{
			Commit:      c.Hash,
			AuthorName:  c.AuthorName,
			AuthorEmail: c.AuthorEmail,
			When:        c.When,
			OrigLine:    n,
			Summary:     c.Subject(),
		}
	}
}

// HeadCommit returns the newest commit.
func (r *Repo) HeadCommit() *git.Commit {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.History) == 0 {
		return nil
	}
	return r.History[len(r.History)-1]
}

// Mutations returns the recorded calls.
func (r *Repo) Mutations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Calls...)
}

func (r *Repo) Head(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.History) == 0 {
		return "", git.ErrNoHead
	}
	return r.History[len(r.History)-1].Hash, nil
}

func (r *Repo) Resolve(ctx context.Context, rev string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, err := r.indexLocked(rev)
	if err != nil {
		return "", err
	}
	return r.History[i].Hash, nil
}

func (r *Repo) Commit(ctx context.Context, rev string) (*git.Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, err := r.indexLocked(rev)
	if err != nil {
		return nil, err
	}
	c := *r.History[i]
	return &c, nil
}

func (r *Repo) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, err := r.indexLocked(ancestor)
	if err != nil {
		return false, err
	}
	d, err := r.indexLocked(descendant)
	if err != nil {
		return false, err
	}
	return a <= d, nil
}

func (r *Repo) Distance(ctx context.Context, rev, ancestor string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, err := r.indexLocked(rev)
	if err != nil {
		return 0, err
	}
	a, err := r.indexLocked(ancestor)
	if err != nil {
		return 0, err
	}
	if a > d {
		return 0, errors.Newf("%s is not an ancestor of %s", git.ShortHash(ancestor), git.ShortHash(rev))
	}
	return d - a, nil
}

func (r *Repo) Log(ctx context.Context, rev string, opts git.LogOptions) ([]*git.Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	from, err := r.indexLocked(rev)
	if err != nil {
		return nil, err
	}
	var out []*git.Commit
	for i := from; i >= 0; i-- {
		c := r.History[i]
		if opts.StopAt != "" && c.Hash == opts.StopAt {
			break
		}
		if opts.Match != nil && !opts.Match(c) {
			continue
		}
		cp := *c
		out = append(out, &cp)
		if opts.Max > 0 && len(out) >= opts.Max {
			break
		}
	}
	return out, nil
}

func (r *Repo) WorkingTreeDiff(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Diff, nil
}

func (r *Repo) Blame(ctx context.Context, path string, ranges []git.LineRange, rev string) (map[int]git.BlameLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.BlameCalls[path]++
	if err := r.BlameErr[path]; err != nil {
		return nil, err
	}
	lines, ok := r.Blames[path]
	if !ok {
		return nil, errors.Newf("no such path %s", path)
	}
	out := make(map[int]git.BlameLine)
	for _, lr := range ranges {
		for n := lr.Start; n <= lr.End; n++ {
			if b, ok := lines[n]; ok {
				out[n] = b
			}
		}
	}
	return out, nil
}

func (r *Repo) ResetIndex(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Staged = nil
	r.Calls = append(r.Calls, "reset")
	return nil
}

func (r *Repo) ApplyToIndex(ctx context.Context, patch string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailApply != nil {
		return r.FailApply
	}
	r.Staged = append(r.Staged, patch)
	r.Patches = append(r.Patches, patch)
	r.Calls = append(r.Calls, "apply")
	return nil
}

func (r *Repo) StageFiles(ctx context.Context, paths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Staged = append(r.Staged, paths...)
	r.Calls = append(r.Calls, "add "+strings.Join(paths, " "))
	return nil
}

func (r *Repo) CreateCommit(ctx context.Context, message string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCommit != nil {
		if err := r.FailCommit(message); err != nil {
			return "", err
		}
	}
	if len(r.Staged) == 0 {
		return "", errors.New("nothing to commit")
	}
	c := r.addLocked(message, "dev@example.com")
	r.Staged = nil
	r.Calls = append(r.Calls, "commit "+message)
	return c.Hash, nil
}

func (r *Repo) AmendMessage(ctx context.Context, message string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.History) == 0 {
		return "", git.ErrNoHead
	}
	old := r.History[len(r.History)-1]
	sum := sha1.Sum([]byte("amend:" + old.Hash + message))
	c := *old
	c.Hash = hex.EncodeToString(sum[:])
	c.Message = message
	r.History[len(r.History)-1] = &c
	r.Calls = append(r.Calls, "amend "+message)
	return c.Hash, nil
}

func (r *Repo) RebaseState(ctx context.Context) (git.RebaseState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Rebase, nil
}

func (r *Repo) CreateTag(ctx context.Context, name, commit string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailTag != nil {
		return r.FailTag
	}
	for _, t := range r.TagList {
		if t.Name == name {
			return errors.Mark(errors.Newf("tag %s exists", name), git.ErrTagExists)
		}
	}
	i, err := r.indexLocked(commit)
	if err != nil {
		return err
	}
	r.TagList = append(r.TagList, git.Tag{Name: name, Commit: commit, When: r.History[i].When})
	r.Calls = append(r.Calls, "tag "+name)
	return nil
}

func (r *Repo) Tags(ctx context.Context, prefix string) ([]git.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []git.Tag
	for _, t := range r.TagList {
		if strings.HasPrefix(t.Name, prefix) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

func (r *Repo) TagExists(ctx context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.TagList {
		if t.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repo) ResetHard(ctx context.Context, rev string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, err := r.indexLocked(rev)
	if err != nil {
		return err
	}
	r.History = r.History[:i+1]
	r.Diff = ""
	r.Staged = nil
	r.Calls = append(r.Calls, "reset --hard "+r.History[i].Hash)
	return nil
}

// indexLocked resolves HEAD, HEAD~n, tags, full hashes and unique prefixes.
func (r *Repo) indexLocked(rev string) (int, error) {
	invalid := func() (int, error) {
		return -1, errors.Mark(errors.Newf("cannot resolve %q", rev), git.ErrInvalidReference)
	}
	if len(r.History) == 0 {
		return invalid()
	}
	if rev == "HEAD" {
		return len(r.History) - 1, nil
	}
	if rest, ok := strings.CutPrefix(rev, "HEAD~"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n > len(r.History)-1 {
			return invalid()
		}
		return len(r.History) - 1 - n, nil
	}
	for _, t := range r.TagList {
		if t.Name == rev {
			rev = t.Commit
		}
	}
	found := -1
	for i, c := range r.History {
		if c.Hash == rev {
			return i, nil
		}
		if len(rev) >= 4 && strings.HasPrefix(c.Hash, rev) {
			if found >= 0 {
				return invalid()
			}
			found = i
		}
	}
	if found < 0 {
		return invalid()
	}
	return found, nil
}
