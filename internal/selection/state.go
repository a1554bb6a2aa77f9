// Package selection turns user choices into the set of lines to commit for
// each fixup target. The textual Engine and the visual Assignment both
// produce the same State.
package selection

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/ishaan812/fastfixup/internal/diff"
	"github.com/ishaan812/fastfixup/internal/fixup"
)

// Mode is how a target's lines are committed.
type Mode int

const (
	Fixup Mode = iota
	Squash
)

func (m Mode) String() string {
	if m == Squash {
		return "squash"
	}
	return "fixup"
}

// Prefix is the autosquash marker for the mode.
func (m Mode) Prefix() string {
	return m.String() + "! "
}

// TargetState is the selection for one target.
type TargetState struct {
	Target *fixup.Target
	// Lines maps a path to the selected indexes into Target.Entries.
	Lines map[string][]int
	Mode  Mode
	// Message is the edited squash message without prefix. Empty means the
	// target's own message.
	Message string
}

func newTargetState(t *fixup.Target) *TargetState {
	return &TargetState{Target: t, Lines: make(map[string][]int)}
}

// Entries returns the selected entries in target order.
func (ts *TargetState) Entries() []fixup.Entry {
	var idx []int
	for _, l := range ts.Lines {
		idx = append(idx, l...)
	}
	sort.Ints(idx)
	out := make([]fixup.Entry, 0, len(idx))
	for _, i := range idx {
		out = append(out, ts.Target.Entries[i])
	}
	return out
}

// ChangedLines returns the selected lines of one file.
func (ts *TargetState) ChangedLines(path string) []diff.ChangedLine {
	idx := append([]int(nil), ts.Lines[path]...)
	sort.Ints(idx)
	out := make([]diff.ChangedLine, 0, len(idx))
	for _, i := range idx {
		out = append(out, ts.Target.Entries[i].Line)
	}
	return out
}

// Files returns the paths with at least one selected line, sorted.
func (ts *TargetState) Files() []string {
	var files []string
	for p, l := range ts.Lines {
		if len(l) > 0 {
			files = append(files, p)
		}
	}
	sort.Strings(files)
	return files
}

func (ts *TargetState) LineCount() int {
	n := 0
	for _, l := range ts.Lines {
		n += len(l)
	}
	return n
}

func (ts *TargetState) setFile(path string, idx []int) {
	if len(idx) == 0 {
		delete(ts.Lines, path)
		return
	}
	sorted := append([]int(nil), idx...)
	sort.Ints(sorted)
	ts.Lines[path] = sorted
}

// State is a finished selection, in commit order.
type State struct {
	Order []*TargetState
}

// LineCount totals the selected lines across targets.
func (s *State) LineCount() int {
	n := 0
	for _, ts := range s.Order {
		n += ts.LineCount()
	}
	return n
}

// Validate checks that every selected line exists on its target, that no line
// is selected twice and that every target has something to commit.
func (s *State) Validate() error {
	if len(s.Order) == 0 {
		return errors.New("no targets selected")
	}
	seenTarget := make(map[string]bool)
	seenLine := make(map[diff.Key]string)
	for _, ts := range s.Order {
		if ts.Target == nil {
			return errors.New("selection without target")
		}
		if seenTarget[ts.Target.Hash] {
			return errors.Newf("target %s selected twice", ts.Target.Short())
		}
		seenTarget[ts.Target.Hash] = true
		if ts.LineCount() == 0 {
			return errors.Newf("target %s has no selected lines", ts.Target.Short())
		}
		if ts.Mode != Fixup && ts.Mode != Squash {
			return errors.Newf("target %s has invalid mode %d", ts.Target.Short(), ts.Mode)
		}
		for path, idx := range ts.Lines {
			for _, i := range idx {
				if i < 0 || i >= len(ts.Target.Entries) {
					return errors.Newf("line index %d out of range for %s", i, ts.Target.Short())
				}
				e := ts.Target.Entries[i]
				if e.Line.Path != path {
					return errors.Newf("line %d of %s filed under %s", e.Line.Line, e.Line.Path, path)
				}
				if other, dup := seenLine[e.Line.Key()]; dup {
					return errors.Newf("%s:%d selected for both %s and %s",
						path, e.Line.Line, other, ts.Target.Short())
				}
				seenLine[e.Line.Key()] = ts.Target.Short()
			}
		}
	}
	return nil
}

// Auto selects every target with the classifier's recommended lines and
// fixup mode. Targets left without lines are skipped.
func Auto(targets []*fixup.Target) *State {
	s := &State{}
	for _, t := range targets {
		ts := newTargetState(t)
		for _, path := range t.Files() {
			ts.setFile(path, autoLines(t, path))
		}
		if ts.LineCount() > 0 {
			s.Order = append(s.Order, ts)
		}
	}
	return s
}

// fileIndexes returns the indexes into t.Entries of the entries of path.
func fileIndexes(t *fixup.Target, path string) []int {
	var out []int
	for i, e := range t.Entries {
		if e.Line.Path == path {
			out = append(out, i)
		}
	}
	return out
}

func autoLines(t *fixup.Target, path string) []int {
	var out []int
	for _, i := range fileIndexes(t, path) {
		if t.Entries[i].Class.Recommended() {
			out = append(out, i)
		}
	}
	return out
}
