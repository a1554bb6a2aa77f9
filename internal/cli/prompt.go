package cli

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/manifoldco/promptui"

	"github.com/ishaan812/fastfixup/internal/selection"
)

// Prompter asks the operator for input. Interrupts come back as
// selection.ErrCancelled.
type Prompter interface {
	Input(label string) (string, error)
	Choose(label string, items []string) (int, error)
	Confirm(label string) (bool, error)
}

type terminalPrompter struct{}

func (terminalPrompter) Input(label string) (string, error) {
	prompt := promptui.Prompt{Label: label}
	text, err := prompt.Run()
	if err != nil {
		return "", promptError(err)
	}
	return text, nil
}

func (terminalPrompter) Choose(label string, items []string) (int, error) {
	sel := promptui.Select{
		Label: label,
		Items: items,
		Size:  10,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "▸ {{ . | cyan }}",
			Inactive: "  {{ . }}",
			Selected: "✓ {{ . | green }}",
		},
	}
	i, _, err := sel.Run()
	if err != nil {
		return -1, promptError(err)
	}
	return i, nil
}

func (terminalPrompter) Confirm(label string) (bool, error) {
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := prompt.Run()
	if errors.Is(err, promptui.ErrAbort) {
		return false, nil
	}
	if err != nil {
		return false, promptError(err)
	}
	return true, nil
}

func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return selection.ErrCancelled
	}
	return errors.Wrap(err, "prompt failed")
}

// scriptedPrompter answers from a fixed list of inputs; used when stdin is not
// a terminal and in tests.
type scriptedPrompter struct {
	inputs []string
	asked  []string
}

func readScript(r io.Reader) (*scriptedPrompter, error) {
	s := &scriptedPrompter{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s.inputs = append(s.inputs, sc.Text())
	}
	return s, errors.Wrap(sc.Err(), "failed to read answers")
}

// newPrompter prompts on a terminal and otherwise reads one answer per line
// from stdin.
func newPrompter() (Prompter, error) {
	if isTerminal(os.Stdin) {
		return terminalPrompter{}, nil
	}
	return readScript(os.Stdin)
}

func (s *scriptedPrompter) next(label string) (string, error) {
	s.asked = append(s.asked, label)
	if len(s.inputs) == 0 {
		return "", selection.ErrCancelled
	}
	in := s.inputs[0]
	s.inputs = s.inputs[1:]
	return in, nil
}

func (s *scriptedPrompter) Input(label string) (string, error) {
	return s.next(label)
}

// Choose accepts a 1-based number or the start of an item.
func (s *scriptedPrompter) Choose(label string, items []string) (int, error) {
	in, err := s.next(label)
	if err != nil {
		return -1, err
	}
	in = strings.TrimSpace(in)
	if idx, err := selection.ParseIndices(in, len(items)); err == nil && len(idx) == 1 {
		return idx[0], nil
	}
	for i, item := range items {
		if strings.HasPrefix(strings.ToLower(item), strings.ToLower(in)) {
			return i, nil
		}
	}
	return -1, errors.Newf("no choice matches %q", in)
}

func (s *scriptedPrompter) Confirm(label string) (bool, error) {
	in, err := s.next(label)
	if err != nil {
		return false, err
	}
	in = strings.ToLower(strings.TrimSpace(in))
	return in == "y" || in == "yes", nil
}
