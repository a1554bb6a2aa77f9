package diff

import (
	"os"
	"strconv"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/cockroachdb/errors"
)

// Op is the kind of edit a ChangedLine records.
type Op int

const (
	OpDeleted Op = iota
	OpModified
	OpAdded
)

func (o Op) String() string {
	switch o {
	case OpAdded:
		return "added"
	case OpModified:
		return "modified"
	case OpDeleted:
		return "deleted"
	}
	return "unknown"
}

// Symbol returns the one-character marker used when listing changes.
func (o Op) Symbol() string {
	switch o {
	case OpAdded:
		return "+"
	case OpModified:
		return "~"
	case OpDeleted:
		return "-"
	}
	return "?"
}

// Hunk is one zero-context hunk of a file diff.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Removed  []string
	Added    []string

	// OldNoEOL and NewNoEOL record a "\ No newline at end of file" marker
	// after the last removed or added line.
	OldNoEOL bool
	NewNoEOL bool
}

// FileDiff is the change set of a single path.
type FileDiff struct {
	Path    string
	OldPath string
	OldMode string
	NewMode string
	New     bool
	Deleted bool
	Renamed bool
	Binary  bool
	Hunks   []Hunk
}

// Diff is a parsed working-tree diff.
type Diff struct {
	Files []FileDiff
}

// File returns the diff for path, or nil.
func (d *Diff) File(path string) *FileDiff {
	for i := range d.Files {
		if d.Files[i].Path == path {
			return &d.Files[i]
		}
	}
	return nil
}

// Empty reports whether the diff carries no textual changes.
func (d *Diff) Empty() bool {
	for _, f := range d.Files {
		if !f.Binary && len(f.Hunks) > 0 {
			return false
		}
	}
	return true
}

// Parse reads the output of `git diff --unified=0`. Fragments carrying
// context are split into one zero-context hunk per run of changes, so a diff
// produced with context also parses.
func Parse(raw string) (*Diff, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse diff")
	}

	d := &Diff{Files: make([]FileDiff, 0, len(files))}
	for _, f := range files {
		fd := FileDiff{
			Path:    f.NewName,
			OldPath: f.OldName,
			OldMode: modeString(f.OldMode),
			NewMode: modeString(f.NewMode),
			New:     f.IsNew,
			Deleted: f.IsDelete,
			Renamed: f.IsRename,
			Binary:  f.IsBinary,
		}
		if fd.OldPath == "" {
			fd.OldPath = fd.Path
		}
		if fd.Path == "" {
			fd.Path = fd.OldPath
		}
		// An "index" line carries a single mode for both sides.
		if fd.NewMode == "" && !fd.Deleted {
			fd.NewMode = fd.OldMode
		}
		if !fd.Binary {
			for _, frag := range f.TextFragments {
				fd.Hunks = append(fd.Hunks, splitFragment(frag)...)
			}
		}
		d.Files = append(d.Files, fd)
	}
	return d, nil
}

// splitFragment turns a fragment into zero-context hunks, numbered the way
// `git diff --unified=0` numbers them: an empty side starts at the line
// before the change.
func splitFragment(frag *gitdiff.TextFragment) []Hunk {
	nextOld := int(frag.OldPosition)
	if frag.OldLines == 0 {
		nextOld++
	}
	nextNew := int(frag.NewPosition)
	if frag.NewLines == 0 {
		nextNew++
	}

	var hunks []Hunk
	var cur *Hunk
	flush := func() {
		if cur == nil {
			return
		}
		cur.OldCount = len(cur.Removed)
		cur.NewCount = len(cur.Added)
		if cur.OldCount == 0 {
			cur.OldStart--
		}
		if cur.NewCount == 0 {
			cur.NewStart--
		}
		hunks = append(hunks, *cur)
		cur = nil
	}

	for _, l := range frag.Lines {
		if l.Op == gitdiff.OpContext {
			flush()
			nextOld++
			nextNew++
			continue
		}
		if cur == nil {
			cur = &Hunk{OldStart: nextOld, NewStart: nextNew}
		}
		text, eol := strings.CutSuffix(l.Line, "\n")
		switch l.Op {
		case gitdiff.OpDelete:
			cur.Removed = append(cur.Removed, text)
			cur.OldNoEOL = !eol
			nextOld++
		case gitdiff.OpAdd:
			cur.Added = append(cur.Added, text)
			cur.NewNoEOL = !eol
			nextNew++
		}
	}
	flush()
	return hunks
}

// modeString renders a file mode the way git headers print it.
func modeString(m os.FileMode) string {
	if m == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(m), 8)
}
