package diff

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	// pairDistance is how far apart (in lines) a deletion and an addition
	// may be and still be read as one modified line.
	pairDistance = 5
	// pairRatio is the minimum similarity for such a pairing.
	pairRatio = 0.6
)

// ChangedLine is one edited line of the working tree.
//
// Line is the post-edit line number for additions and the pre-edit line
// number for deletions and modifications. Hunk, OldIndex and NewIndex locate
// the line inside its FileDiff so a subset of lines can be turned back into a
// patch.
type ChangedLine struct {
	Path       string
	Line       int
	Op         Op
	Content    string
	Previous   string
	Whitespace bool

	Hunk     int
	OldIndex int
	NewIndex int
}

// Key identifies a changed line within one analysis run.
type Key struct {
	Path     string
	Hunk     int
	OldIndex int
	NewIndex int
}

func (c ChangedLine) Key() Key {
	return Key{Path: c.Path, Hunk: c.Hunk, OldIndex: c.OldIndex, NewIndex: c.NewIndex}
}

// ChangedLines flattens the diff into changed-line records ordered by path and
// then by line number. Binary files contribute nothing.
func (d *Diff) ChangedLines() []ChangedLine {
	files := make([]FileDiff, len(d.Files))
	copy(files, d.Files)
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	var out []ChangedLine
	for _, f := range files {
		if f.Binary {
			continue
		}
		var lines []ChangedLine
		for hi, h := range f.Hunks {
			lines = append(lines, hunkLines(f.Path, hi, h)...)
		}
		sort.SliceStable(lines, func(i, j int) bool {
			if lines[i].Line != lines[j].Line {
				return lines[i].Line < lines[j].Line
			}
			return lines[i].Op < lines[j].Op
		})
		out = append(out, lines...)
	}
	return out
}

// hunkLines pairs similar deletions and additions of one hunk into
// modifications. Pairs never cross, so the new side order is kept when the
// lines are written back out as a patch.
func hunkLines(path string, hi int, h Hunk) []ChangedLine {
	pairedNew := make(map[int]int, len(h.Removed))
	usedNew := make(map[int]bool, len(h.Added))
	lastNew := -1

	for oi, old := range h.Removed {
		oldLine := h.OldStart + oi
		best, bestRatio := -1, 0.0
		for ni := lastNew + 1; ni < len(h.Added); ni++ {
			newLine := h.NewStart + ni
			if abs(newLine-oldLine) > pairDistance {
				continue
			}
			r := similarity(old, h.Added[ni])
			if r > pairRatio && r > bestRatio {
				best, bestRatio = ni, r
			}
		}
		if best >= 0 {
			pairedNew[oi] = best
			usedNew[best] = true
			lastNew = best
		}
	}

	var out []ChangedLine
	for oi, old := range h.Removed {
		if ni, ok := pairedNew[oi]; ok {
			out = append(out, ChangedLine{
				Path:       path,
				Line:       h.OldStart + oi,
				Op:         OpModified,
				Content:    h.Added[ni],
				Previous:   old,
				Whitespace: sameIgnoringSpace(old, h.Added[ni]),
				Hunk:       hi,
				OldIndex:   oi,
				NewIndex:   ni,
			})
			continue
		}
		out = append(out, ChangedLine{
			Path:       path,
			Line:       h.OldStart + oi,
			Op:         OpDeleted,
			Content:    old,
			Previous:   old,
			Whitespace: strings.TrimSpace(old) == "",
			Hunk:       hi,
			OldIndex:   oi,
			NewIndex:   -1,
		})
	}
	for ni, added := range h.Added {
		if usedNew[ni] {
			continue
		}
		out = append(out, ChangedLine{
			Path:       path,
			Line:       h.NewStart + ni,
			Op:         OpAdded,
			Content:    added,
			Whitespace: strings.TrimSpace(added) == "",
			Hunk:       hi,
			OldIndex:   -1,
			NewIndex:   ni,
		})
	}
	return out
}

func similarity(a, b string) float64 {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0
	}
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

func sameIgnoringSpace(a, b string) bool {
	return strings.Join(strings.Fields(a), "") == strings.Join(strings.Fields(b), "")
}

// AnchorLines returns the unchanged pre-edit lines immediately before and
// after the hunk, used to attribute pure additions. A value of zero means
// there is no such line.
func (h Hunk) AnchorLines() (before, after int) {
	if h.OldCount == 0 {
		// "-s,0" inserts after line s.
		return h.OldStart, h.OldStart + 1
	}
	return h.OldStart - 1, h.OldStart + h.OldCount
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
