// Package backup keeps safety tags pointing at HEAD from before a mutation,
// so a run can be undone with a hard reset.
package backup

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ishaan812/fastfixup/internal/git"
)

// DefaultPrefix starts every backup tag name.
const DefaultPrefix = "fastfixup_backup_"

const stampLayout = "20060102_150405"

var (
	// ErrConfirmationDeclined is returned when the operator refuses a restore.
	ErrConfirmationDeclined = errors.New("restore declined")
	// ErrNotFound is returned when no backup matches.
	ErrNotFound = errors.New("backup not found")
)

// BackupError wraps a failure to create the backup a mutation depends on.
type BackupError struct {
	Err error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("failed to create backup: %v", e.Err)
}

func (e *BackupError) Unwrap() error {
	return e.Err
}

// Repository is what backups need from the repository.
type Repository interface {
	Head(ctx context.Context) (string, error)
	CreateTag(ctx context.Context, name, commit string) error
	Tags(ctx context.Context, prefix string) ([]git.Tag, error)
	TagExists(ctx context.Context, name string) (bool, error)
	ResetHard(ctx context.Context, rev string) error
}

// Record is one backup tag.
type Record struct {
	Name    string
	Commit  string
	Created time.Time
}

// Confirm asks the operator to approve a destructive step.
type Confirm func(prompt string) (bool, error)

type Manager struct {
	repo   Repository
	prefix string
	log    *zap.Logger

	// Now is the clock used for names; tests replace it.
	Now func() time.Time
}

func NewManager(repo Repository, prefix string, log *zap.Logger) *Manager {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{repo: repo, prefix: prefix, log: log, Now: time.Now}
}

func (m *Manager) Prefix() string {
	return m.prefix
}

// NewName returns an unused backup name for the current time.
func (m *Manager) NewName(ctx context.Context) (string, error) {
	name := m.prefix + m.Now().Format(stampLayout)
	exists, err := m.repo.TagExists(ctx, name)
	if err != nil {
		return "", err
	}
	if exists {
		name = uniqueName(name)
	}
	return name, nil
}

func uniqueName(name string) string {
	return name + "_" + uuid.NewString()[:8]
}

// Create tags the current HEAD. Any failure comes back as *BackupError.
func (m *Manager) Create(ctx context.Context) (*Record, error) {
	head, err := m.repo.Head(ctx)
	if err != nil {
		return nil, &BackupError{Err: err}
	}
	name, err := m.NewName(ctx)
	if err != nil {
		return nil, &BackupError{Err: err}
	}

	err = m.repo.CreateTag(ctx, name, head)
	if errors.Is(err, git.ErrTagExists) {
		name = uniqueName(name)
		err = m.repo.CreateTag(ctx, name, head)
	}
	if err != nil {
		return nil, &BackupError{Err: err}
	}

	m.log.Info("created backup", zap.String("name", name), zap.String("commit", git.ShortHash(head)))
	return &Record{Name: name, Commit: head, Created: m.created(name, time.Time{})}, nil
}

// List returns every backup, newest first.
func (m *Manager) List(ctx context.Context) ([]Record, error) {
	tags, err := m.repo.Tags(ctx, m.prefix)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(tags))
	for _, t := range tags {
		records = append(records, Record{
			Name:    t.Name,
			Commit:  t.Commit,
			Created: m.created(t.Name, t.When),
		})
	}
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Created.Equal(records[j].Created) {
			return records[i].Created.After(records[j].Created)
		}
		return records[i].Name > records[j].Name
	})
	return records, nil
}

// Find returns the backup called name, or the newest one when name is empty.
func (m *Manager) Find(ctx context.Context, name string) (*Record, error) {
	records, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.Mark(errors.New("no backups found"), ErrNotFound)
	}
	if name == "" {
		return &records[0], nil
	}
	for i := range records {
		if records[i].Name == name {
			return &records[i], nil
		}
	}
	return nil, errors.Mark(errors.Newf("backup %q not found", name), ErrNotFound)
}

// Restore hard-resets HEAD, index and working tree to a backup after confirm
// approves. Uncommitted changes are lost. The backup itself is kept.
func (m *Manager) Restore(ctx context.Context, name string, confirm Confirm) (*Record, error) {
	rec, err := m.Find(ctx, name)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("Reset HEAD, index and working tree to %s (%s)? Uncommitted changes will be lost",
		rec.Name, git.ShortHash(rec.Commit))
	ok, err := confirm(prompt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConfirmationDeclined
	}

	if err := m.repo.ResetHard(ctx, rec.Commit); err != nil {
		return nil, errors.Wrapf(err, "failed to restore %s", rec.Name)
	}
	m.log.Info("restored backup", zap.String("name", rec.Name))
	return rec, nil
}

// created reads the timestamp embedded in a backup name, falling back to when.
func (m *Manager) created(name string, when time.Time) time.Time {
	stamp := strings.TrimPrefix(name, m.prefix)
	if len(stamp) >= len(stampLayout) {
		if t, err := time.ParseInLocation(stampLayout, stamp[:len(stampLayout)], time.Local); err == nil {
			return t
		}
	}
	return when
}
