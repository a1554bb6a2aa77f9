package git

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"
)

// ErrTagExists is returned when creating a tag whose name is taken.
var ErrTagExists = errors.New("tag already exists")

// Tag is a tag reference resolved to the commit it points at.
type Tag struct {
	Name   string
	Commit string
	// When is the tagger time for annotated tags and the commit time
	// otherwise.
	When time.Time
}

// CreateTag creates a lightweight tag at commit.
func (r *Repository) CreateTag(ctx context.Context, name, commit string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.repo.CreateTag(name, plumbing.NewHash(commit), nil)
	if err != nil {
		if errors.Is(err, git.ErrTagExists) {
			return errors.Mark(errors.Wrapf(err, "failed to create tag %s", name), ErrTagExists)
		}
		return errors.Wrapf(err, "failed to create tag %s", name)
	}
	r.log.Debug("created tag", zap.String("name", name), zap.String("commit", ShortHash(commit)))
	return nil
}

// Tags lists tags whose name starts with prefix, newest first.
func (r *Repository) Tags(ctx context.Context, prefix string) ([]Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	iter, err := r.repo.Tags()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tags")
	}
	defer iter.Close()

	var tags []Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if !strings.HasPrefix(name, prefix) {
			return nil
		}
		tag := Tag{Name: name, Commit: ref.Hash().String()}
		if obj, err := r.repo.TagObject(ref.Hash()); err == nil {
			tag.When = obj.Tagger.When
			if c, err := obj.Commit(); err == nil {
				tag.Commit = c.Hash.String()
			}
		} else if c, err := r.repo.CommitObject(ref.Hash()); err == nil {
			tag.When = c.Committer.When
		}
		tags = append(tags, tag)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to iterate tags")
	}

	// Names embed a sortable timestamp, which is the creation time for
	// lightweight tags.
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name > tags[j].Name })
	return tags, nil
}

// TagExists reports whether a tag with that name exists.
func (r *Repository) TagExists(ctx context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.repo.Tag(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, git.ErrTagNotFound) {
		return false, nil
	}
	return false, errors.Wrapf(err, "failed to look up tag %s", name)
}

// ResetHard moves HEAD, the index and the working tree to rev.
func (r *Repository) ResetHard(ctx context.Context, rev string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.resolveLocked(rev)
	if err != nil {
		return err
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return errors.Wrap(err, "failed to open worktree")
	}
	if err := wt.Reset(&git.ResetOptions{Commit: c.Hash, Mode: git.HardReset}); err != nil {
		return errors.Wrapf(err, "failed to reset to %s", ShortHash(c.Hash.String()))
	}
	r.log.Debug("hard reset", zap.String("commit", c.Hash.String()))
	return nil
}
