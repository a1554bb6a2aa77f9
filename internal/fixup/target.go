// Package fixup attributes working-tree edits to the commits that introduced
// the edited lines and groups them into fixup targets.
package fixup

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ishaan812/fastfixup/internal/classify"
	"github.com/ishaan812/fastfixup/internal/diff"
	"github.com/ishaan812/fastfixup/internal/git"
)

// Repository is the part of the repository analysis reads from.
type Repository interface {
	Head(ctx context.Context) (string, error)
	Resolve(ctx context.Context, rev string) (string, error)
	Commit(ctx context.Context, rev string) (*git.Commit, error)
	IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error)
	WorkingTreeDiff(ctx context.Context) (string, error)
	Blame(ctx context.Context, path string, ranges []git.LineRange, rev string) (map[int]git.BlameLine, error)
}

// FilterMode decides which classifications surface in targets.
type FilterMode int

const (
	SmartDefault FilterMode = iota
	FixupsOnly
	IncludeAll
)

func (m FilterMode) String() string {
	switch m {
	case SmartDefault:
		return "smart"
	case FixupsOnly:
		return "fixups-only"
	case IncludeAll:
		return "include-all"
	}
	return "unknown"
}

// Allows reports whether lines of class c are kept under this mode.
func (m FilterMode) Allows(c classify.Classification) bool {
	switch m {
	case FixupsOnly:
		return c == classify.LikelyFixup
	case IncludeAll:
		return true
	default:
		return c != classify.NewFile && c != classify.UnlikelyFixup
	}
}

// Origin is the blame attribution of a changed line.
type Origin struct {
	Commit      string
	AuthorName  string
	AuthorEmail string
	When        time.Time
	OrigLine    int
}

// Entry is a classified changed line. Origin is nil for lines that cannot be
// attributed to any eligible commit.
type Entry struct {
	Line   diff.ChangedLine
	Class  classify.Classification
	Origin *Origin
}

// Target is a commit together with the working-tree changes attributed to it.
type Target struct {
	Hash        string
	Message     string
	AuthorName  string
	AuthorEmail string
	When        time.Time
	Entries     []Entry
}

func (t *Target) Subject() string {
	subject, _, _ := strings.Cut(strings.TrimSpace(t.Message), "\n")
	return strings.TrimSpace(subject)
}

func (t *Target) Short() string {
	return git.ShortHash(t.Hash)
}

// Files returns the touched paths in ascending order.
func (t *Target) Files() []string {
	seen := make(map[string]bool)
	var files []string
	for _, e := range t.Entries {
		if !seen[e.Line.Path] {
			seen[e.Line.Path] = true
			files = append(files, e.Line.Path)
		}
	}
	sort.Strings(files)
	return files
}

// EntriesFor returns the entries of one file, in line order.
func (t *Target) EntriesFor(path string) []Entry {
	var out []Entry
	for _, e := range t.Entries {
		if e.Line.Path == path {
			out = append(out, e)
		}
	}
	return out
}

func (t *Target) FileCount() int {
	return len(t.Files())
}

func (t *Target) LineCount() int {
	return len(t.Entries)
}

// Counts tallies the entries per classification.
func (t *Target) Counts() map[classify.Classification]int {
	out := make(map[classify.Classification]int)
	for _, e := range t.Entries {
		out[e.Class]++
	}
	return out
}
