package selection

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishaan812/fastfixup/internal/classify"
	"github.com/ishaan812/fastfixup/internal/diff"
	"github.com/ishaan812/fastfixup/internal/fixup"
)

type line struct {
	path  string
	n     int
	class classify.Classification
}

func target(hash string, lines ...line) *fixup.Target {
	t := &fixup.Target{Hash: hash, Message: "Commit " + hash + "\n\nBody"}
	for _, l := range lines {
		t.Entries = append(t.Entries, fixup.Entry{
			Line: diff.ChangedLine{
				Path:     l.path,
				Line:     l.n,
				Op:       diff.OpModified,
				Content:  fmt.Sprintf("line %d", l.n),
				OldIndex: l.n,
				NewIndex: l.n,
			},
			Class:  l.class,
			Origin: &fixup.Origin{Commit: hash},
		})
	}
	return t
}

func threeTargets() []*fixup.Target {
	return []*fixup.Target{
		target("aaaaaaaa01", line{"a.go", 1, classify.LikelyFixup}, line{"a.go", 2, classify.UnlikelyFixup}, line{"b.go", 3, classify.PossibleFixup}),
		target("bbbbbbbb02", line{"c.go", 4, classify.LikelyFixup}),
		target("cccccccc03", line{"d.go", 5, classify.PossibleFixup}, line{"d.go", 6, classify.NewFile}),
	}
}

func run(t *testing.T, e *Engine, inputs ...string) {
	t.Helper()
	for _, in := range inputs {
		n := len(e.Targets())
		if e.Stage() == LineReview {
			r, err := e.Current()
			require.NoError(t, err)
			n = len(r.Entries)
		}
		cmd, err := ParseCommand(in, n)
		require.NoError(t, err, in)
		require.NoError(t, e.Handle(cmd), in)
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"1,3", Command{Kind: CmdIndices, Indices: []int{0, 2}}},
		{"3,1", Command{Kind: CmdIndices, Indices: []int{2, 0}}},
		{"1-3", Command{Kind: CmdIndices, Indices: []int{0, 1, 2}}},
		{"2 3,2", Command{Kind: CmdIndices, Indices: []int{1, 2}}},
		{"ALL", Command{Kind: CmdAll}},
		{"none", Command{Kind: CmdNone}},
		{"auto", Command{Kind: CmdAuto}},
		{"done", Command{Kind: CmdDone}},
		{"info 2", Command{Kind: CmdInfo, Indices: []int{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCommand(tt.in, 3)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"4", "0", "x", "3-1", "1-9", "info", "info 7"} {
		_, err := ParseCommand(bad, 3)
		assert.Error(t, err, bad)
	}
	_, err := ParseCommand("  ", 3)
	assert.True(t, errors.Is(err, ErrEmptyInput))
}

func TestEngineSelectionKeepsOrder(t *testing.T) {
	targets := threeTargets()
	e := NewEngine(targets)

	run(t, e, "1,3", "info 2", "done")
	assert.Equal(t, LineReview, e.Stage())
	assert.Equal(t, []*fixup.Target{targets[0], targets[2]}, e.Picked())

	var reviewed []string
	for e.Stage() == LineReview {
		r, err := e.Current()
		require.NoError(t, err)
		reviewed = append(reviewed, r.Target.Hash+":"+r.Path)
		require.NoError(t, e.ReviewAll())
	}
	assert.Equal(t, []string{"aaaaaaaa01:a.go", "aaaaaaaa01:b.go", "cccccccc03:d.go"}, reviewed)
	assert.Equal(t, ModeDecision, e.Stage())
}

func TestEngineSelectionOrderFollowsInput(t *testing.T) {
	targets := threeTargets()
	e := NewEngine(targets)
	run(t, e, "3", "1", "done")
	assert.Equal(t, []*fixup.Target{targets[2], targets[0]}, e.Picked())
}

func TestEngineNoneCancels(t *testing.T) {
	e := NewEngine(threeTargets())
	run(t, e, "none")
	assert.Equal(t, Cancelled, e.Stage())
	_, err := e.State()
	assert.True(t, errors.Is(err, ErrCancelled))
}

func TestEngineDoneNeedsSelection(t *testing.T) {
	e := NewEngine(threeTargets())
	assert.True(t, errors.Is(e.Done(), ErrNothingSelected))
	assert.Equal(t, TargetSelection, e.Stage())
}

func TestEngineFullSession(t *testing.T) {
	targets := threeTargets()
	e := NewEngine(targets)

	// a.go: keep the first line only; b.go: none; c.go and d.go: auto.
	run(t, e, "all", "done", "1", "none", "auto", "auto")
	require.Equal(t, ModeDecision, e.Stage())

	ts, err := e.Deciding()
	require.NoError(t, err)
	assert.Equal(t, targets[0], ts.Target)
	require.NoError(t, e.ChooseMode(Squash, "Reworded"))
	require.NoError(t, e.ChooseMode(Fixup, "ignored"))
	// d.go auto dropped the NEW_FILE line.
	require.NoError(t, e.ChooseMode(Fixup, ""))
	assert.Equal(t, Confirmed, e.Stage())

	s, err := e.State()
	require.NoError(t, err)
	require.Len(t, s.Order, 3)

	first := s.Order[0]
	assert.Equal(t, Squash, first.Mode)
	assert.Equal(t, "Reworded", first.Message)
	assert.Equal(t, []string{"a.go"}, first.Files())
	require.Len(t, first.Entries(), 1)
	assert.Equal(t, 1, first.Entries()[0].Line.Line)

	assert.Equal(t, "", s.Order[1].Message)
	assert.Equal(t, 1, s.Order[2].LineCount())
	assert.Equal(t, 5, s.Order[2].ChangedLines("d.go")[0].Line)
}

func TestEngineAllFilesNoneCancels(t *testing.T) {
	e := NewEngine(threeTargets())
	run(t, e, "2", "done", "none")
	assert.Equal(t, Cancelled, e.Stage())
}

func TestEngineRejectsWrongStage(t *testing.T) {
	e := NewEngine(threeTargets())
	assert.Error(t, e.Handle(Command{Kind: CmdAuto}))
	assert.True(t, errors.Is(e.ReviewAll(), ErrWrongStage))
	assert.True(t, errors.Is(e.ChooseMode(Fixup, ""), ErrWrongStage))
	assert.Error(t, e.Select([]int{5}))
}

func TestAuto(t *testing.T) {
	s := Auto(threeTargets())
	require.Len(t, s.Order, 3)
	assert.Equal(t, 2, s.Order[0].LineCount())
	assert.Equal(t, 1, s.Order[2].LineCount())
	for _, ts := range s.Order {
		assert.Equal(t, Fixup, ts.Mode)
	}
	assert.NoError(t, s.Validate())

	assert.Empty(t, Auto([]*fixup.Target{target("dddd", line{"x.go", 1, classify.UnlikelyFixup})}).Order)
}

func TestAssignmentConvergesOnEngineState(t *testing.T) {
	targets := threeTargets()

	e := NewEngine(targets)
	run(t, e, "1", "done", "1", "all")
	require.NoError(t, e.ChooseMode(Fixup, ""))
	fromEngine, err := e.State()
	require.NoError(t, err)

	a := NewAssignment(targets)
	require.NoError(t, a.Assign(0, 0))
	require.NoError(t, a.Assign(0, 1))
	require.NoError(t, a.Unassign(0, 1))
	on, err := a.Toggle(0, 2)
	require.NoError(t, err)
	assert.True(t, on)
	fromVisual, err := a.Finalize()
	require.NoError(t, err)

	assert.Equal(t, fromEngine, fromVisual)
}

func TestAssignmentOrderAndModes(t *testing.T) {
	targets := threeTargets()
	a := NewAssignment(targets)

	_, err := a.Finalize()
	assert.True(t, errors.Is(err, ErrNothingSelected))

	require.NoError(t, a.Assign(2, 0))
	a.AssignAuto()
	require.NoError(t, a.SetMode(1, Squash, "msg"))
	assert.Equal(t, Squash, a.Mode(1))
	assert.Equal(t, 2, a.AssignedCount(0))

	s, err := a.Finalize()
	require.NoError(t, err)
	require.Len(t, s.Order, 3)
	assert.Equal(t, targets[2], s.Order[0].Target)
	assert.Equal(t, targets[0], s.Order[1].Target)
	assert.Equal(t, "msg", s.Order[2].Message)

	assert.Error(t, a.Assign(9, 0))
	assert.Error(t, a.Assign(0, 9))
}

func TestValidateRejectsDuplicates(t *testing.T) {
	t1 := target("aaaa", line{"a.go", 1, classify.LikelyFixup})
	t2 := target("bbbb", line{"a.go", 1, classify.LikelyFixup})
	s := &State{Order: []*TargetState{
		{Target: t1, Lines: map[string][]int{"a.go": {0}}},
		{Target: t2, Lines: map[string][]int{"a.go": {0}}},
	}}
	assert.Error(t, s.Validate())

	s = &State{Order: []*TargetState{{Target: t1, Lines: map[string][]int{"b.go": {0}}}}}
	assert.Error(t, s.Validate())
}

func TestModePrefix(t *testing.T) {
	assert.Equal(t, "fixup! ", Fixup.Prefix())
	assert.Equal(t, "squash! ", Squash.Prefix())
}
