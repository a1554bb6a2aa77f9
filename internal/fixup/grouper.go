package fixup

import (
	"regexp"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/ishaan812/fastfixup/internal/git"
)

// Grouper turns classified entries into fixup targets.
type Grouper struct {
	Mode     FilterMode
	OrgEmail *regexp.Regexp
}

// CompileOrgEmail compiles the organization filter. Matching ignores case and
// an empty pattern matches every address.
func CompileOrgEmail(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		pattern = ".*"
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid org email pattern %q", pattern)
	}
	return re, nil
}

// Group aggregates entries by origin commit. Entries without an origin come
// back as unassigned; attributed entries the filter mode or the org email
// leaves out come back as filtered. commits must hold every origin commit
// referenced.
func (g Grouper) Group(entries []Entry, commits map[string]*git.Commit) (targets []*Target, unassigned, filtered []Entry) {
	byHash := make(map[string]*Target)
	for _, e := range entries {
		if e.Origin == nil {
			unassigned = append(unassigned, e)
			continue
		}
		if !g.Mode.Allows(e.Class) {
			filtered = append(filtered, e)
			continue
		}
		t, ok := byHash[e.Origin.Commit]
		if !ok {
			c := commits[e.Origin.Commit]
			if c == nil {
				unassigned = append(unassigned, e)
				continue
			}
			t = &Target{
				Hash:        c.Hash,
				Message:     c.Message,
				AuthorName:  c.AuthorName,
				AuthorEmail: c.AuthorEmail,
				When:        c.When,
			}
			byHash[e.Origin.Commit] = t
		}
		t.Entries = append(t.Entries, e)
	}

	for _, t := range byHash {
		if g.OrgEmail != nil && !g.OrgEmail.MatchString(t.AuthorEmail) {
			filtered = append(filtered, t.Entries...)
			continue
		}
		targets = append(targets, t)
	}
	SortTargets(targets)
	return targets, unassigned, filtered
}

// SortTargets orders targets newest first, ties broken by hash.
func SortTargets(targets []*Target) {
	sort.SliceStable(targets, func(i, j int) bool {
		if !targets[i].When.Equal(targets[j].When) {
			return targets[i].When.After(targets[j].When)
		}
		return targets[i].Hash < targets[j].Hash
	})
}
