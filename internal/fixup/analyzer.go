package fixup

import (
	"context"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/ishaan812/fastfixup/internal/classify"
	"github.com/ishaan812/fastfixup/internal/diff"
	"github.com/ishaan812/fastfixup/internal/git"
)

// Options tune a single analysis run.
type Options struct {
	Mode FilterMode
	// Limit excludes its commit and every ancestor of it from being a target.
	Limit string
	// OrgEmail is matched case-insensitively against target author emails.
	OrgEmail string
	// Exclude holds doublestar globs of paths to leave out.
	Exclude []string
	// Policy defaults to classify.DefaultRules().
	Policy classify.Policy
}

// Analysis is the outcome of one run. It is never cached; a new run recomputes
// everything from the repository.
type Analysis struct {
	Head  string
	Limit string
	Diff  *diff.Diff
	// Entries holds every classified line in diff order, filtered or not.
	Entries    []Entry
	Targets    []*Target
	Unassigned []Entry
	// Filtered holds attributed entries the filter mode or the org email
	// left out.
	Filtered []Entry
	Failures []*ResolutionError
}

// Analyzer runs the diff, blame, classify and group pipeline.
type Analyzer struct {
	repo   Repository
	tracer *Tracer
	log    *zap.Logger
}

func NewAnalyzer(repo Repository, log *zap.Logger, workers int) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{
		repo:   repo,
		tracer: NewTracer(repo, log, workers),
		log:    log,
	}
}

func (a *Analyzer) Analyze(ctx context.Context, opts Options) (*Analysis, error) {
	policy := opts.Policy
	if policy == nil {
		policy = classify.DefaultRules()
	}
	orgEmail, err := CompileOrgEmail(opts.OrgEmail)
	if err != nil {
		return nil, err
	}
	for _, p := range opts.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Newf("invalid exclude pattern %q", p)
		}
	}

	head, err := a.repo.Head(ctx)
	if err != nil {
		return nil, err
	}
	res := &Analysis{Head: head}

	if opts.Limit != "" {
		limit, err := a.repo.Resolve(ctx, opts.Limit)
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve --limit")
		}
		res.Limit = limit
	}

	raw, err := a.repo.WorkingTreeDiff(ctx)
	if err != nil {
		return nil, err
	}
	d, err := diff.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse working tree diff")
	}
	res.Diff = d

	lines := excludePaths(d.ChangedLines(), opts.Exclude)
	if len(lines) == 0 {
		return nil, ErrNoChanges
	}

	origins, failures, err := a.tracer.Trace(ctx, d, lines, head)
	if err != nil {
		return nil, err
	}
	res.Failures = failures

	commits, failures := a.resolveOrigins(ctx, origins, res.Limit)
	res.Failures = append(res.Failures, failures...)

	for _, l := range lines {
		origin := origins[l.Key()]
		if origin != nil && commits[origin.Commit] == nil {
			origin = nil
		}
		h := d.File(l.Path).Hunks[l.Hunk]
		e := Entry{
			Line:   l,
			Origin: origin,
			Class: policy.Classify(classify.Input{
				Line:        l,
				Attributed:  origin != nil,
				HunkAdded:   len(h.Added),
				HunkRemoved: len(h.Removed),
			}),
		}
		res.Entries = append(res.Entries, e)
	}

	g := Grouper{Mode: opts.Mode, OrgEmail: orgEmail}
	res.Targets, res.Unassigned, res.Filtered = g.Group(res.Entries, commits)

	a.log.Debug("analysis complete",
		zap.Int("lines", len(res.Entries)),
		zap.Int("targets", len(res.Targets)),
		zap.Int("unassigned", len(res.Unassigned)),
		zap.Int("filtered", len(res.Filtered)),
		zap.Int("failures", len(res.Failures)))
	return res, nil
}

// resolveOrigins loads each distinct origin commit, dropping commits at or
// behind the limit. Commits missing from the result are not eligible.
func (a *Analyzer) resolveOrigins(ctx context.Context, origins map[diff.Key]*Origin, limit string) (map[string]*git.Commit, []*ResolutionError) {
	hashes := make(map[string]bool)
	for _, o := range origins {
		hashes[o.Commit] = true
	}
	sorted := make([]string, 0, len(hashes))
	for h := range hashes {
		sorted = append(sorted, h)
	}
	sort.Strings(sorted)

	commits := make(map[string]*git.Commit, len(sorted))
	var failures []*ResolutionError
	for _, h := range sorted {
		if limit != "" {
			behind, err := a.repo.IsAncestor(ctx, h, limit)
			if err != nil {
				failures = append(failures, &ResolutionError{Commit: h, Err: err})
				continue
			}
			if behind {
				a.log.Debug("origin behind limit", zap.String("commit", git.ShortHash(h)))
				continue
			}
		}
		c, err := a.repo.Commit(ctx, h)
		if err != nil {
			failures = append(failures, &ResolutionError{Commit: h, Err: err})
			continue
		}
		commits[h] = c
	}
	return commits, failures
}

func excludePaths(lines []diff.ChangedLine, patterns []string) []diff.ChangedLine {
	if len(patterns) == 0 {
		return lines
	}
	out := lines[:0:0]
	for _, l := range lines {
		if !excluded(l.Path, patterns) {
			out = append(out, l)
		}
	}
	return out
}

func excluded(path string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}
