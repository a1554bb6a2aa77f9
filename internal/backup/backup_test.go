package backup_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishaan812/fastfixup/internal/backup"
	"github.com/ishaan812/fastfixup/internal/fixup/fixuptest"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func yes(string) (bool, error) { return true, nil }
func no(string) (bool, error)  { return false, nil }

func TestCreateTagsHead(t *testing.T) {
	repo := fixuptest.NewRepo()
	head := repo.AddCommit("init", "dev@example.com")

	m := backup.NewManager(repo, "", nil)
	m.Now = fixedClock(time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local))

	rec, err := m.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fastfixup_backup_20240501_103000", rec.Name)
	assert.Equal(t, head.Hash, rec.Commit)
	assert.Equal(t, []string{"tag fastfixup_backup_20240501_103000"}, repo.Mutations())
}

func TestCreateAvoidsCollisions(t *testing.T) {
	repo := fixuptest.NewRepo()
	repo.AddCommit("init", "dev@example.com")
	m := backup.NewManager(repo, "bk_", nil)
	m.Now = fixedClock(time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local))

	first, err := m.Create(context.Background())
	require.NoError(t, err)
	second, err := m.Create(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.Name, second.Name)
	assert.True(t, strings.HasPrefix(second.Name, first.Name+"_"))
	assert.Len(t, second.Name, len(first.Name)+9)
}

func TestCreateFailure(t *testing.T) {
	repo := fixuptest.NewRepo()
	repo.AddCommit("init", "dev@example.com")
	repo.FailTag = errors.New("refs locked")

	_, err := backup.NewManager(repo, "", nil).Create(context.Background())
	var be *backup.BackupError
	require.True(t, errors.As(err, &be))
	assert.Contains(t, err.Error(), "refs locked")

	empty := fixuptest.NewRepo()
	_, err = backup.NewManager(empty, "", nil).Create(context.Background())
	assert.True(t, errors.As(err, &be))
}

func TestListNewestFirst(t *testing.T) {
	repo := fixuptest.NewRepo()
	repo.AddCommit("init", "dev@example.com")
	m := backup.NewManager(repo, "", nil)

	for _, ts := range []time.Time{
		time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local),
		time.Date(2024, 5, 3, 9, 0, 0, 0, time.Local),
		time.Date(2024, 5, 2, 9, 0, 0, 0, time.Local),
	} {
		m.Now = fixedClock(ts)
		_, err := m.Create(context.Background())
		require.NoError(t, err)
	}
	// Other tags are ignored.
	require.NoError(t, repo.CreateTag(context.Background(), "v1.0.0", repo.HeadCommit().Hash))

	records, err := m.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "fastfixup_backup_20240503_090000", records[0].Name)
	assert.Equal(t, "fastfixup_backup_20240502_090000", records[1].Name)
	assert.Equal(t, "fastfixup_backup_20240501_090000", records[2].Name)
}

func TestRestore(t *testing.T) {
	repo := fixuptest.NewRepo()
	base := repo.AddCommit("init", "dev@example.com")
	m := backup.NewManager(repo, "", nil)
	rec, err := m.Create(context.Background())
	require.NoError(t, err)

	repo.AddCommit("fixup! init", "dev@example.com")

	_, err = m.Restore(context.Background(), "", no)
	assert.True(t, errors.Is(err, backup.ErrConfirmationDeclined))
	assert.Len(t, repo.History, 2)

	restored, err := m.Restore(context.Background(), rec.Name, yes)
	require.NoError(t, err)
	assert.Equal(t, rec.Name, restored.Name)
	assert.Equal(t, base.Hash, repo.HeadCommit().Hash)

	// Backups outlive a restore.
	records, err := m.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = m.Restore(context.Background(), "missing", yes)
	assert.True(t, errors.Is(err, backup.ErrNotFound))
}

func TestRestoreWithoutBackups(t *testing.T) {
	repo := fixuptest.NewRepo()
	repo.AddCommit("init", "dev@example.com")
	_, err := backup.NewManager(repo, "", nil).Restore(context.Background(), "", yes)
	assert.True(t, errors.Is(err, backup.ErrNotFound))
}
