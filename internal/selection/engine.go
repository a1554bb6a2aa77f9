package selection

import (
	"github.com/cockroachdb/errors"

	"github.com/ishaan812/fastfixup/internal/fixup"
)

// Stage is a step of the selection session.
type Stage int

const (
	TargetSelection Stage = iota
	LineReview
	ModeDecision
	Confirmed
	Cancelled
)

func (s Stage) String() string {
	switch s {
	case TargetSelection:
		return "target-selection"
	case LineReview:
		return "line-review"
	case ModeDecision:
		return "mode-decision"
	case Confirmed:
		return "confirmed"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

var (
	// ErrCancelled is returned when the operator abandons the session.
	ErrCancelled = errors.New("selection cancelled")
	// ErrNothingSelected is returned by Done before any target is chosen.
	ErrNothingSelected = errors.New("no targets selected, select at least one target")
	// ErrWrongStage is returned when an operation does not fit the stage.
	ErrWrongStage = errors.New("operation not valid at this stage")
)

// Review is the file currently under line review.
type Review struct {
	Target  *fixup.Target
	Path    string
	Entries []fixup.Entry
	// TargetIndex and FileIndex locate the review within the session,
	// both 0-based.
	TargetIndex int
	FileIndex   int
}

// Engine drives a textual selection session:
//
//	TargetSelection -> LineReview (per target, per file) -> ModeDecision
//	(per target with lines) -> Confirmed
//
// Cancel moves to Cancelled from any stage.
type Engine struct {
	targets []*fixup.Target
	stage   Stage

	picked []int
	order  []*TargetState

	cur  int
	file int
}

func NewEngine(targets []*fixup.Target) *Engine {
	return &Engine{targets: targets}
}

func (e *Engine) Stage() Stage {
	return e.stage
}

func (e *Engine) Targets() []*fixup.Target {
	return e.targets
}

// Picked returns the chosen targets in selection order.
func (e *Engine) Picked() []*fixup.Target {
	out := make([]*fixup.Target, 0, len(e.picked))
	for _, i := range e.picked {
		out = append(out, e.targets[i])
	}
	return out
}

// IsPicked reports whether target i (0-based) is chosen.
func (e *Engine) IsPicked(i int) bool {
	for _, p := range e.picked {
		if p == i {
			return true
		}
	}
	return false
}

// Target returns target i (0-based) for inspection.
func (e *Engine) Target(i int) (*fixup.Target, error) {
	if i < 0 || i >= len(e.targets) {
		return nil, errors.Newf("invalid index: %d", i+1)
	}
	return e.targets[i], nil
}

// Select adds targets to the selection, keeping first-selected order.
func (e *Engine) Select(indices []int) error {
	if e.stage != TargetSelection {
		return ErrWrongStage
	}
	for _, i := range indices {
		if i < 0 || i >= len(e.targets) {
			return errors.Newf("invalid index: %d", i+1)
		}
	}
	for _, i := range indices {
		if !e.IsPicked(i) {
			e.picked = append(e.picked, i)
		}
	}
	return nil
}

func (e *Engine) SelectAll() error {
	all := make([]int, len(e.targets))
	for i := range all {
		all[i] = i
	}
	return e.Select(all)
}

// Done locks the chosen targets and starts line review.
func (e *Engine) Done() error {
	if e.stage != TargetSelection {
		return ErrWrongStage
	}
	if len(e.picked) == 0 {
		return ErrNothingSelected
	}
	e.order = make([]*TargetState, 0, len(e.picked))
	for _, i := range e.picked {
		e.order = append(e.order, newTargetState(e.targets[i]))
	}
	e.stage = LineReview
	e.cur, e.file = 0, 0
	e.skipEmptyFiles()
	return nil
}

// Current returns the file under review.
func (e *Engine) Current() (Review, error) {
	if e.stage != LineReview {
		return Review{}, ErrWrongStage
	}
	ts := e.order[e.cur]
	path := ts.Target.Files()[e.file]
	return Review{
		Target:      ts.Target,
		Path:        path,
		Entries:     ts.Target.EntriesFor(path),
		TargetIndex: e.cur,
		FileIndex:   e.file,
	}, nil
}

// ReviewLines keeps the given lines (0-based, within the current file).
func (e *Engine) ReviewLines(indices []int) error {
	if e.stage != LineReview {
		return ErrWrongStage
	}
	ts := e.order[e.cur]
	path := ts.Target.Files()[e.file]
	all := fileIndexes(ts.Target, path)
	keep := make([]int, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(all) {
			return errors.Newf("invalid index: %d", i+1)
		}
		keep = append(keep, all[i])
	}
	ts.setFile(path, keep)
	e.advance()
	return nil
}

// ReviewAll keeps every line of the current file.
func (e *Engine) ReviewAll() error {
	return e.reviewWith(fileIndexes)
}

// ReviewNone excludes the current file.
func (e *Engine) ReviewNone() error {
	return e.reviewWith(func(*fixup.Target, string) []int { return nil })
}

// ReviewAuto keeps the lines the classifier recommends.
func (e *Engine) ReviewAuto() error {
	return e.reviewWith(autoLines)
}

func (e *Engine) reviewWith(pick func(*fixup.Target, string) []int) error {
	if e.stage != LineReview {
		return ErrWrongStage
	}
	ts := e.order[e.cur]
	path := ts.Target.Files()[e.file]
	ts.setFile(path, pick(ts.Target, path))
	e.advance()
	return nil
}

// advance moves to the next file, the next target, or mode decision.
func (e *Engine) advance() {
	e.file++
	e.skipEmptyFiles()
}

func (e *Engine) skipEmptyFiles() {
	for e.cur < len(e.order) && e.file >= len(e.order[e.cur].Target.Files()) {
		e.cur++
		e.file = 0
	}
	if e.cur < len(e.order) {
		return
	}

	kept := e.order[:0]
	for _, ts := range e.order {
		if ts.LineCount() > 0 {
			kept = append(kept, ts)
		}
	}
	e.order = kept
	e.cur = 0
	if len(e.order) == 0 {
		e.stage = Cancelled
		return
	}
	e.stage = ModeDecision
}

// Deciding returns the target awaiting a mode decision.
func (e *Engine) Deciding() (*TargetState, error) {
	if e.stage != ModeDecision {
		return nil, ErrWrongStage
	}
	return e.order[e.cur], nil
}

// ChooseMode settles the current target's mode. message is the edited squash
// message and is ignored for fixups.
func (e *Engine) ChooseMode(mode Mode, message string) error {
	if e.stage != ModeDecision {
		return ErrWrongStage
	}
	ts := e.order[e.cur]
	ts.Mode = mode
	if mode == Squash {
		ts.Message = message
	} else {
		ts.Message = ""
	}
	e.cur++
	if e.cur >= len(e.order) {
		e.stage = Confirmed
	}
	return nil
}

// Cancel abandons the session.
func (e *Engine) Cancel() {
	e.stage = Cancelled
}

// Handle applies a parsed command to the current stage. Info commands do not
// change state and are left to the caller to display.
func (e *Engine) Handle(cmd Command) error {
	switch e.stage {
	case TargetSelection:
		switch cmd.Kind {
		case CmdIndices:
			return e.Select(cmd.Indices)
		case CmdAll:
			return e.SelectAll()
		case CmdNone:
			e.Cancel()
			return nil
		case CmdDone:
			return e.Done()
		case CmdInfo:
			_, err := e.Target(cmd.Indices[0])
			return err
		}
	case LineReview:
		switch cmd.Kind {
		case CmdIndices:
			return e.ReviewLines(cmd.Indices)
		case CmdAll:
			return e.ReviewAll()
		case CmdNone:
			return e.ReviewNone()
		case CmdAuto:
			return e.ReviewAuto()
		}
	case Confirmed, Cancelled:
		return ErrWrongStage
	}
	return errors.Newf("command not accepted during %s", e.stage)
}

// State returns the finished selection. It fails with ErrCancelled for a
// cancelled session.
func (e *Engine) State() (*State, error) {
	switch e.stage {
	case Cancelled:
		return nil, ErrCancelled
	case Confirmed:
		s := &State{Order: e.order}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, ErrWrongStage
}
