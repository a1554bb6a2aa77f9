package selection

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// CommandKind enumerates the textual inputs the engine understands.
type CommandKind int

const (
	CmdIndices CommandKind = iota
	CmdAll
	CmdNone
	CmdAuto
	CmdInfo
	CmdDone
)

// Command is a parsed line of user input. Indices are 0-based and keep the
// order they were typed in, without duplicates.
type Command struct {
	Kind    CommandKind
	Indices []int
}

// ErrEmptyInput is returned for blank input, which callers usually ignore.
var ErrEmptyInput = errors.New("empty input")

// ParseCommand parses user input against a list of n items. Accepted forms:
// "1,3", "1-3", "2 4", "all", "none", "auto", "info N" and "done".
func ParseCommand(input string, n int) (Command, error) {
	text := strings.ToLower(strings.TrimSpace(input))
	switch text {
	case "":
		return Command{}, ErrEmptyInput
	case "all", "a":
		return Command{Kind: CmdAll}, nil
	case "none", "n":
		return Command{Kind: CmdNone}, nil
	case "auto":
		return Command{Kind: CmdAuto}, nil
	case "done", "d":
		return Command{Kind: CmdDone}, nil
	}

	if rest, ok := strings.CutPrefix(text, "info"); ok {
		rest = strings.TrimSpace(rest)
		i, err := strconv.Atoi(rest)
		if err != nil {
			return Command{}, errors.New("usage: info <number>")
		}
		if i < 1 || i > n {
			return Command{}, errors.Newf("invalid index: %d", i)
		}
		return Command{Kind: CmdInfo, Indices: []int{i - 1}}, nil
	}

	indices, err := ParseIndices(text, n)
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: CmdIndices, Indices: indices}, nil
}

// ParseIndices parses 1-based numbers and ranges separated by commas or
// spaces into 0-based indices.
func ParseIndices(text string, n int) ([]int, error) {
	parts := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(parts) == 0 {
		return nil, ErrEmptyInput
	}

	seen := make(map[int]bool)
	var out []int
	add := func(i int) {
		if !seen[i] {
			seen[i] = true
			out = append(out, i-1)
		}
	}
	for _, part := range parts {
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err1 := strconv.Atoi(lo)
			end, err2 := strconv.Atoi(hi)
			if err1 != nil || err2 != nil {
				return nil, errors.Newf("invalid range format: %s", part)
			}
			if start < 1 || end > n || start > end {
				return nil, errors.Newf("invalid range: %s", part)
			}
			for i := start; i <= end; i++ {
				add(i)
			}
			continue
		}
		i, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Newf("invalid number: %s", part)
		}
		if i < 1 || i > n {
			return nil, errors.Newf("invalid index: %d", i)
		}
		add(i)
	}
	return out, nil
}
