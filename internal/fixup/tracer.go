package fixup

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ishaan812/fastfixup/internal/diff"
	"github.com/ishaan812/fastfixup/internal/git"
)

// Tracer resolves the commit each changed line originates from. Blame runs
// once per file; files are traced concurrently.
type Tracer struct {
	repo    Repository
	log     *zap.Logger
	workers int
}

func NewTracer(repo Repository, log *zap.Logger, workers int) *Tracer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracer{repo: repo, log: log, workers: workers}
}

// fileWork is the blame request for one file.
type fileWork struct {
	file  *diff.FileDiff
	lines []diff.ChangedLine
}

// Trace attributes lines against rev. Lines without an origin are absent
// from the result; failures are returned as ResolutionErrors and never abort
// the trace.
func (t *Tracer) Trace(ctx context.Context, d *diff.Diff, lines []diff.ChangedLine, rev string) (map[diff.Key]*Origin, []*ResolutionError, error) {
	var work []fileWork
	byPath := make(map[string]int)
	for _, l := range lines {
		f := d.File(l.Path)
		if f == nil || f.Binary || f.New {
			continue
		}
		i, ok := byPath[l.Path]
		if !ok {
			i = len(work)
			byPath[l.Path] = i
			work = append(work, fileWork{file: f})
		}
		work[i].lines = append(work[i].lines, l)
	}

	var (
		mu       sync.Mutex
		origins  = make(map[diff.Key]*Origin)
		failures []*ResolutionError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for _, w := range work {
		g.Go(func() error {
			found, err := t.traceFile(gctx, w, rev)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				t.log.Debug("blame failed", zap.String("path", w.file.Path), zap.Error(err))
				failures = append(failures, &ResolutionError{Path: w.file.Path, Err: err})
				return nil
			}
			for k, o := range found {
				origins[k] = o
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sort.Slice(failures, func(i, j int) bool { return failures[i].Path < failures[j].Path })
	return origins, failures, nil
}

func (t *Tracer) traceFile(ctx context.Context, w fileWork, rev string) (map[diff.Key]*Origin, error) {
	want := make(map[int]bool)
	for _, l := range w.lines {
		if l.Op != diff.OpAdded {
			want[l.Line] = true
			continue
		}
		before, after := w.file.Hunks[l.Hunk].AnchorLines()
		if before >= 1 {
			want[before] = true
		}
		if after >= 1 {
			want[after] = true
		}
	}
	if len(want) == 0 {
		return nil, nil
	}

	blamed, err := t.repo.Blame(ctx, w.file.OldPath, toRanges(want), rev)
	if err != nil {
		return nil, err
	}

	found := make(map[diff.Key]*Origin)
	for _, l := range w.lines {
		var (
			b  git.BlameLine
			ok bool
		)
		if l.Op == diff.OpAdded {
			before, after := w.file.Hunks[l.Hunk].AnchorLines()
			if b, ok = blamed[before]; !ok || !usable(b) {
				b, ok = blamed[after]
			}
		} else {
			b, ok = blamed[l.Line]
		}
		if !ok || !usable(b) {
			continue
		}
		found[l.Key()] = &Origin{
			Commit:      b.Commit,
			AuthorName:  b.AuthorName,
			AuthorEmail: b.AuthorEmail,
			When:        b.When,
			OrigLine:    b.OrigLine,
		}
	}
	t.log.Debug("traced file",
		zap.String("path", w.file.Path),
		zap.Int("lines", len(w.lines)),
		zap.Int("attributed", len(found)))
	return found, nil
}

func usable(b git.BlameLine) bool {
	return b.Commit != "" && !git.IsZeroHash(b.Commit)
}

// toRanges collapses a set of line numbers into sorted contiguous ranges.
func toRanges(lines map[int]bool) []git.LineRange {
	nums := make([]int, 0, len(lines))
	for n := range lines {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var out []git.LineRange
	for _, n := range nums {
		if len(out) > 0 && out[len(out)-1].End+1 == n {
			out[len(out)-1].End = n
			continue
		}
		out = append(out, git.LineRange{Start: n, End: n})
	}
	return out
}
