// Package gittest builds throwaway git repositories for tests that need the
// real git binary.
package gittest

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Base is the commit date of the first sandbox commit; each later commit is a
// minute newer.
var Base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// Sandbox is a repository in a temporary directory with its own git config.
type Sandbox struct {
	t       *testing.T
	Dir     string
	commits int
}

// New initialises a repository. Tests are skipped when git is not installed.
// The process environment is pointed at a private global config, so the
// sandbox cannot be used from parallel tests.
func New(t *testing.T) *Sandbox {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	home := t.TempDir()
	global := filepath.Join(home, "gitconfig")
	require.NoError(t, os.WriteFile(global, []byte(`[user]
	name = Dev
	email = dev@example.com
[commit]
	gpgsign = false
[tag]
	gpgsign = false
[init]
	defaultBranch = main
[advice]
	detachedHead = false
`), 0o644))
	t.Setenv("HOME", home)
	t.Setenv("GIT_CONFIG_GLOBAL", global)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_EDITOR", "true")

	s := &Sandbox{t: t, Dir: t.TempDir()}
	s.Git("init", "-q")
	return s
}

// Git runs git in the sandbox and returns its trimmed output.
func (s *Sandbox) Git(args ...string) string {
	s.t.Helper()
	return s.GitEnv(nil, args...)
}

// GitEnv runs git with extra environment variables.
func (s *Sandbox) GitEnv(env []string, args ...string) string {
	s.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = s.Dir
	cmd.Env = append(os.Environ(), env...)
	out, err := cmd.CombinedOutput()
	require.NoError(s.t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

// Write replaces the content of path, creating directories as needed.
func (s *Sandbox) Write(path, content string) {
	s.t.Helper()
	full := filepath.Join(s.Dir, path)
	require.NoError(s.t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(s.t, os.WriteFile(full, []byte(content), 0o644))
}

// Read returns the working-tree content of path.
func (s *Sandbox) Read(path string) string {
	s.t.Helper()
	data, err := os.ReadFile(filepath.Join(s.Dir, path))
	require.NoError(s.t, err)
	return string(data)
}

// Commit stages everything and commits it with a deterministic date,
// returning the new hash.
func (s *Sandbox) Commit(message string) string {
	s.t.Helper()
	date := Base.Add(time.Duration(s.commits) * time.Minute).Format(time.RFC3339)
	s.commits++
	s.Git("add", "-A")
	s.GitEnv([]string{"GIT_AUTHOR_DATE=" + date, "GIT_COMMITTER_DATE=" + date},
		"commit", "-q", "--allow-empty", "-m", message)
	return s.Git("rev-parse", "HEAD")
}

// Lines joins lines with a trailing newline.
func Lines(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// Numbered returns n lines "line 1" .. "line n".
func Numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("line %d", i+1)
	}
	return out
}
