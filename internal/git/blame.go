package git

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// LineRange is an inclusive 1-based range of lines.
type LineRange struct {
	Start int
	End   int
}

// BlameLine is the attribution of one line at the blamed revision.
type BlameLine struct {
	Commit      string
	AuthorName  string
	AuthorEmail string
	When        time.Time
	OrigLine    int
	Content     string
	Summary     string
}

// Blame attributes the given line ranges of path as it exists at rev. All
// ranges go into a single git invocation. Ranges reaching past the end of the
// file are clamped; the result is keyed by line number at rev.
func (r *Repository) Blame(ctx context.Context, path string, ranges []LineRange, rev string) (map[int]BlameLine, error) {
	total := r.lineCount(rev, path)
	if total < 0 {
		return nil, errors.Newf("%s does not exist at %s", path, ShortHash(rev))
	}

	args := []string{"blame", "--porcelain"}
	n := 0
	for _, lr := range ranges {
		start, end := lr.Start, lr.End
		if start < 1 {
			start = 1
		}
		if end > total {
			end = total
		}
		if start > end {
			continue
		}
		args = append(args, "-L", fmt.Sprintf("%d,%d", start, end))
		n++
	}
	if n == 0 {
		return map[int]BlameLine{}, nil
	}
	args = append(args, rev, "--", path)

	out, err := r.run(ctx, nil, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to blame %s", path)
	}
	lines := parsePorcelainBlame(out)
	r.log.Debug("blamed file",
		zap.String("path", path),
		zap.Int("ranges", n),
		zap.Int("lines", len(lines)))
	return lines, nil
}

type blameMeta struct {
	author  string
	email   string
	when    time.Time
	summary string
}

// parsePorcelainBlame parses git blame --porcelain output.
//
//	<40-byte SHA> <orig-line> <final-line> [<num-lines>]
//	header lines (only the first time a commit appears)
//	\t<content>
func parsePorcelainBlame(out string) map[int]BlameLine {
	entries := make(map[int]BlameLine)
	meta := make(map[string]*blameMeta)

	type pending struct {
		sha         string
		orig, final int
	}
	var cur *pending

	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()

		if strings.HasPrefix(line, "\t") {
			if cur != nil && cur.final > 0 {
				entries[cur.final] = BlameLine{
					Commit:   cur.sha,
					OrigLine: cur.orig,
					Content:  line[1:],
				}
			}
			cur = nil
			continue
		}

		fields := strings.Fields(line)
		if len(fields) >= 3 && isHash(fields[0]) {
			orig, _ := strconv.Atoi(fields[1])
			final, _ := strconv.Atoi(fields[2])
			cur = &pending{sha: fields[0], orig: orig, final: final}
			if meta[cur.sha] == nil {
				meta[cur.sha] = &blameMeta{}
			}
			continue
		}
		if cur == nil {
			continue
		}

		m := meta[cur.sha]
		key, value, _ := strings.Cut(line, " ")
		switch key {
		case "author":
			m.author = value
		case "author-mail":
			m.email = strings.Trim(value, "<>")
		case "committer-time":
			if sec, err := strconv.ParseInt(value, 10, 64); err == nil {
				m.when = time.Unix(sec, 0)
			}
		case "summary":
			m.summary = value
		}
	}

	for n, e := range entries {
		if m := meta[e.Commit]; m != nil {
			e.AuthorName = m.author
			e.AuthorEmail = m.email
			e.When = m.when
			e.Summary = m.summary
		}
		entries[n] = e
	}
	return entries
}

func isHash(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// IsZeroHash reports whether h is the all-zero hash blame uses for lines not
// yet committed.
func IsZeroHash(h string) bool {
	return h != "" && strings.TrimLeft(h, "0") == ""
}
