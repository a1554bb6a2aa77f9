package selection

import (
	"github.com/cockroachdb/errors"

	"github.com/ishaan812/fastfixup/internal/fixup"
)

// Assignment builds a State from direct assign and unassign operations on
// individual changes. Targets are committed in the order they first received
// a change.
type Assignment struct {
	targets []*fixup.Target
	states  []*TargetState
	order   []int
}

func NewAssignment(targets []*fixup.Target) *Assignment {
	a := &Assignment{targets: targets, states: make([]*TargetState, len(targets))}
	for i, t := range targets {
		a.states[i] = newTargetState(t)
	}
	return a
}

func (a *Assignment) Targets() []*fixup.Target {
	return a.targets
}

func (a *Assignment) check(target, entry int) error {
	if target < 0 || target >= len(a.targets) {
		return errors.Newf("invalid target %d", target+1)
	}
	if entry < 0 || entry >= len(a.targets[target].Entries) {
		return errors.Newf("invalid change %d for target %s", entry+1, a.targets[target].Short())
	}
	return nil
}

// Assigned reports whether entry of target is assigned.
func (a *Assignment) Assigned(target, entry int) bool {
	if a.check(target, entry) != nil {
		return false
	}
	ts := a.states[target]
	for _, i := range ts.Lines[a.targets[target].Entries[entry].Line.Path] {
		if i == entry {
			return true
		}
	}
	return false
}

// Assign adds a change to its target.
func (a *Assignment) Assign(target, entry int) error {
	if err := a.check(target, entry); err != nil {
		return err
	}
	if a.Assigned(target, entry) {
		return nil
	}
	ts := a.states[target]
	path := a.targets[target].Entries[entry].Line.Path
	ts.setFile(path, append(ts.Lines[path], entry))
	a.touch(target)
	return nil
}

// Unassign removes a change from its target.
func (a *Assignment) Unassign(target, entry int) error {
	if err := a.check(target, entry); err != nil {
		return err
	}
	ts := a.states[target]
	path := a.targets[target].Entries[entry].Line.Path
	var keep []int
	for _, i := range ts.Lines[path] {
		if i != entry {
			keep = append(keep, i)
		}
	}
	ts.setFile(path, keep)
	return nil
}

// Toggle flips a change and reports whether it is now assigned.
func (a *Assignment) Toggle(target, entry int) (bool, error) {
	if a.Assigned(target, entry) {
		return false, a.Unassign(target, entry)
	}
	return true, a.Assign(target, entry)
}

// AssignAuto assigns the recommended changes of every target.
func (a *Assignment) AssignAuto() {
	for ti, t := range a.targets {
		for i, e := range t.Entries {
			if e.Class.Recommended() {
				_ = a.Assign(ti, i)
			}
		}
	}
}

// SetMode sets how a target is committed.
func (a *Assignment) SetMode(target int, mode Mode, message string) error {
	if target < 0 || target >= len(a.targets) {
		return errors.Newf("invalid target %d", target+1)
	}
	a.states[target].Mode = mode
	a.states[target].Message = message
	return nil
}

// Mode returns the mode currently set for a target.
func (a *Assignment) Mode(target int) Mode {
	if target < 0 || target >= len(a.targets) {
		return Fixup
	}
	return a.states[target].Mode
}

// AssignedCount returns how many changes of a target are assigned.
func (a *Assignment) AssignedCount(target int) int {
	if target < 0 || target >= len(a.targets) {
		return 0
	}
	return a.states[target].LineCount()
}

func (a *Assignment) touch(target int) {
	for _, i := range a.order {
		if i == target {
			return
		}
	}
	a.order = append(a.order, target)
}

// Finalize returns the State for every target with at least one change.
func (a *Assignment) Finalize() (*State, error) {
	s := &State{}
	for _, i := range a.order {
		if a.states[i].LineCount() > 0 {
			s.Order = append(s.Order, a.states[i])
		}
	}
	if len(s.Order) == 0 {
		return nil, ErrNothingSelected
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
