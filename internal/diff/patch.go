package diff

import (
	"fmt"
	"strings"
)

// BuildPatch renders a zero-context patch that moves the index copy of f from
// "applied lines already staged" to "applied plus selected lines staged".
// Both sets are subsets of f's changed lines; applied is empty for the first
// patch written against a file. An empty string means the selection changes
// nothing.
func BuildPatch(f *FileDiff, applied, selected []ChangedLine) string {
	if f == nil || f.Binary || len(selected) == 0 {
		return ""
	}

	before := groupByHunk(f, applied)
	after := groupByHunk(f, applied)
	touched := false
	for _, c := range selected {
		if c.Path != f.Path || c.Hunk < 0 || c.Hunk >= len(f.Hunks) {
			continue
		}
		after[c.Hunk] = append(after[c.Hunk], c)
		touched = true
	}
	if !touched {
		return ""
	}

	var body strings.Builder
	shift, offset := 0, 0
	empty := true
	for hi, h := range f.Hunks {
		baseLines, baseNoEOL := mergeHunk(h, before[hi])
		newLines, newNoEOL := mergeHunk(h, after[hi])
		if len(newLines) > 0 {
			empty = false
		}

		start := h.OldStart
		if h.OldCount == 0 {
			start = h.OldStart + 1
		}
		curStart := start + shift
		shift += len(baseLines) - h.OldCount

		if equalLines(baseLines, newLines) && baseNoEOL == newNoEOL {
			continue
		}

		oldHdr := curStart
		if len(baseLines) == 0 {
			oldHdr = curStart - 1
		}
		newHdr := curStart + offset
		if len(newLines) == 0 {
			newHdr = curStart + offset - 1
		}
		offset += len(newLines) - len(baseLines)

		fmt.Fprintf(&body, "@@ -%d,%d +%d,%d @@\n", oldHdr, len(baseLines), newHdr, len(newLines))
		writeSide(&body, "-", baseLines, baseNoEOL)
		writeSide(&body, "+", newLines, newNoEOL)
	}
	if body.Len() == 0 {
		return ""
	}

	oldPath := f.OldPath
	if len(applied) > 0 {
		// The first patch for this file already carried a rename or creation.
		oldPath = f.Path
	}

	var hdr strings.Builder
	fmt.Fprintf(&hdr, "diff --git a/%s b/%s\n", oldPath, f.Path)
	switch {
	case f.Deleted && empty && coversAll(f, after):
		fmt.Fprintf(&hdr, "deleted file mode %s\n", modeOr(f.OldMode))
		fmt.Fprintf(&hdr, "--- a/%s\n+++ /dev/null\n", oldPath)
		return hdr.String() + body.String()
	case f.New && len(applied) == 0:
		fmt.Fprintf(&hdr, "new file mode %s\n", modeOr(f.NewMode))
		fmt.Fprintf(&hdr, "--- /dev/null\n+++ b/%s\n", f.Path)
	default:
		if f.Renamed && oldPath != f.Path {
			fmt.Fprintf(&hdr, "rename from %s\nrename to %s\n", oldPath, f.Path)
		}
		fmt.Fprintf(&hdr, "--- a/%s\n+++ b/%s\n", oldPath, f.Path)
	}
	return hdr.String() + body.String()
}

func writeSide(b *strings.Builder, marker string, lines []string, noEOL bool) {
	for _, l := range lines {
		b.WriteString(marker + l + "\n")
	}
	if noEOL && len(lines) > 0 {
		b.WriteString("\\ No newline at end of file\n")
	}
}

func groupByHunk(f *FileDiff, lines []ChangedLine) map[int][]ChangedLine {
	out := make(map[int][]ChangedLine)
	for _, c := range lines {
		if c.Path != f.Path || c.Hunk < 0 || c.Hunk >= len(f.Hunks) {
			continue
		}
		out[c.Hunk] = append(out[c.Hunk], c)
	}
	return out
}

// mergeHunk computes the content of hunk h's region when only the given lines
// are applied. Unselected deletions survive, unselected additions are dropped
// and unselected modifications keep their old content. The bool reports
// whether the region ends without a trailing newline.
func mergeHunk(h Hunk, selected []ChangedLine) ([]string, bool) {
	oldSel := make(map[int]bool)
	newSel := make(map[int]bool)
	for _, c := range selected {
		if c.OldIndex >= 0 {
			oldSel[c.OldIndex] = true
		}
		if c.NewIndex >= 0 {
			newSel[c.NewIndex] = true
		}
	}
	pairs := hunkPairs(h)
	pairedNew := make(map[int]bool, len(pairs))
	for _, ni := range pairs {
		pairedNew[ni] = true
	}

	var out []string
	lastOld, lastNew := false, false
	next := 0
	emitAdded := func(upto int) {
		for ; next < upto && next < len(h.Added); next++ {
			if pairedNew[next] || !newSel[next] {
				continue
			}
			out = append(out, h.Added[next])
			lastOld, lastNew = false, next == len(h.Added)-1
		}
	}
	for oi, old := range h.Removed {
		if ni, ok := pairs[oi]; ok {
			emitAdded(ni)
			if oldSel[oi] {
				out = append(out, h.Added[ni])
				lastOld, lastNew = false, ni == len(h.Added)-1
			} else {
				out = append(out, old)
				lastOld, lastNew = oi == len(h.Removed)-1, false
			}
			next = ni + 1
			continue
		}
		if !oldSel[oi] {
			out = append(out, old)
			lastOld, lastNew = oi == len(h.Removed)-1, false
		}
	}
	emitAdded(len(h.Added))

	if len(selected) == 0 {
		return out, h.OldNoEOL
	}
	return out, (lastOld && h.OldNoEOL) || (lastNew && h.NewNoEOL)
}

func hunkPairs(h Hunk) map[int]int {
	pairs := make(map[int]int)
	for _, c := range hunkLines("", 0, h) {
		if c.Op == OpModified {
			pairs[c.OldIndex] = c.NewIndex
		}
	}
	return pairs
}

func coversAll(f *FileDiff, byHunk map[int][]ChangedLine) bool {
	for hi, h := range f.Hunks {
		sel := make(map[int]bool)
		for _, c := range byHunk[hi] {
			if c.OldIndex >= 0 {
				sel[c.OldIndex] = true
			}
		}
		if len(sel) < len(h.Removed) {
			return false
		}
	}
	return true
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func modeOr(m string) string {
	if m == "" {
		return "100644"
	}
	return m
}
