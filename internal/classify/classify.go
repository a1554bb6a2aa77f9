// Package classify decides how likely an edited line is a correction of the
// commit it is attributed to, as opposed to new work.
package classify

import (
	"regexp"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/ishaan812/fastfixup/internal/diff"
)

// Classification is the confidence category of one changed line.
type Classification int

const (
	LikelyFixup Classification = iota
	PossibleFixup
	UnlikelyFixup
	NewFile
)

// All lists every classification in display order.
var All = []Classification{LikelyFixup, PossibleFixup, UnlikelyFixup, NewFile}

func (c Classification) String() string {
	switch c {
	case LikelyFixup:
		return "likely_fixup"
	case PossibleFixup:
		return "possible_fixup"
	case UnlikelyFixup:
		return "unlikely_fixup"
	case NewFile:
		return "new_file"
	}
	return "unknown"
}

// Label is the short human form used in listings.
func (c Classification) Label() string {
	switch c {
	case LikelyFixup:
		return "likely"
	case PossibleFixup:
		return "possible"
	case UnlikelyFixup:
		return "unlikely"
	case NewFile:
		return "new"
	}
	return "?"
}

// Recommended reports whether automatic line review includes this category.
func (c Classification) Recommended() bool {
	return c == LikelyFixup || c == PossibleFixup
}

// Input is everything a Policy may look at.
type Input struct {
	Line diff.ChangedLine
	// Attributed is false when the line has no usable origin commit: the file
	// has no history, blame failed, or the origin lies outside the range limit.
	Attributed bool
	// HunkAdded and HunkRemoved are the sizes of the line's hunk.
	HunkAdded   int
	HunkRemoved int
}

// Policy maps a changed line to a classification. Implementations must be
// deterministic.
type Policy interface {
	Classify(in Input) Classification
}

// Rules is the default rule set. Rules are evaluated in order and the first
// match wins:
//
//  1. no origin                       -> NewFile
//  2. whitespace-only edit             -> NewFile
//  3. comment-only line, literal-only line, or a modification within
//     MaxDelta characters (or MaxDeltaRatio of the longer side) -> LikelyFixup
//  4. added top-level definition, import or decorator, an added line longer
//     than LongLine, or part of a pure insertion of at least LargeInsertion
//     lines                             -> UnlikelyFixup
//  5. anything else                     -> PossibleFixup
type Rules struct {
	MaxDelta       int
	MaxDeltaRatio  float64
	LargeInsertion int
	LongLine       int
}

// DefaultRules returns the thresholds used when nothing else is configured.
func DefaultRules() Rules {
	return Rules{
		MaxDelta:       6,
		MaxDeltaRatio:  0.2,
		LargeInsertion: 5,
		LongLine:       100,
	}
}

var (
	commentRe = regexp.MustCompile(`^(//|#|/\*|\*|\*/|--|;|<!--|"""|''')`)
	literalRe = regexp.MustCompile(`^(["'` + "`" + `]).*(["'` + "`" + `])[\s,;)\]}]*$`)
	numberRe  = regexp.MustCompile(`^[-+]?(0[xX][0-9a-fA-F_]+|[0-9][0-9_]*(\.[0-9_]+)?([eE][-+]?[0-9]+)?)[\s,;)\]}]*$`)
	symbolRe  = regexp.MustCompile(`^[^\p{L}\p{N}]+$`)
	keywordRe = regexp.MustCompile(`^(true|false|nil|null|None|True|False|undefined)[\s,;)\]}]*$`)

	definitionRe = regexp.MustCompile(`^(func|type|class|def|struct|interface|enum|trait|impl|fn|pub\s+fn|pub\s+struct|module|namespace|package)\b`)
	jsDefRe      = regexp.MustCompile(`^(export\s+)?(default\s+)?(async\s+)?(function|class|const|let|var|interface|type)\s+\w+`)
	importRe     = regexp.MustCompile(`^\s*(import\b|from\s+\S+\s+import\b|#include\b|using\s+[\w.]+;|require\(|use\s+[\w:]+)`)
	decoratorRe  = regexp.MustCompile(`^\s*@\w+`)
)

// Classify implements Policy.
func (r Rules) Classify(in Input) Classification {
	l := in.Line
	if !in.Attributed {
		return NewFile
	}
	if l.Whitespace {
		return NewFile
	}

	text := strings.TrimSpace(l.Content)
	if isComment(text) || isLiteral(text) {
		return LikelyFixup
	}
	if l.Op == diff.OpModified && r.smallDelta(l.Previous, l.Content) {
		return LikelyFixup
	}

	if l.Op == diff.OpAdded {
		if definitionRe.MatchString(l.Content) || jsDefRe.MatchString(l.Content) {
			return UnlikelyFixup
		}
		if importRe.MatchString(l.Content) || decoratorRe.MatchString(l.Content) {
			return UnlikelyFixup
		}
		if r.LongLine > 0 && len(text) > r.LongLine {
			return UnlikelyFixup
		}
		if r.LargeInsertion > 0 && in.HunkRemoved == 0 && in.HunkAdded >= r.LargeInsertion {
			return UnlikelyFixup
		}
	}
	return PossibleFixup
}

func isComment(text string) bool {
	return text != "" && commentRe.MatchString(text)
}

func isLiteral(text string) bool {
	if text == "" {
		return false
	}
	return literalRe.MatchString(text) || numberRe.MatchString(text) ||
		keywordRe.MatchString(text) || symbolRe.MatchString(text)
}

func (r Rules) smallDelta(before, after string) bool {
	before, after = strings.TrimSpace(before), strings.TrimSpace(after)
	dmp := diffmatchpatch.New()
	delta := dmp.DiffLevenshtein(dmp.DiffMain(before, after, false))
	if delta <= r.MaxDelta {
		return true
	}
	longer := len([]rune(before))
	if n := len([]rune(after)); n > longer {
		longer = n
	}
	return longer > 0 && float64(delta) <= r.MaxDeltaRatio*float64(longer)
}
