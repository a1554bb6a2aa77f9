package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishaan812/fastfixup/internal/classify"
	"github.com/ishaan812/fastfixup/internal/diff"
	"github.com/ishaan812/fastfixup/internal/fixup"
	"github.com/ishaan812/fastfixup/internal/selection"
)

func entry(path string, line int, class classify.Classification) fixup.Entry {
	return fixup.Entry{
		Line: diff.ChangedLine{
			Path: path, Line: line, Op: diff.OpModified, Content: "x := 5",
			Hunk: line,
		},
		Class: class,
	}
}

func testTargets() []*fixup.Target {
	return []*fixup.Target{
		{Hash: "aaaaaaaaaaaa", Message: "Add parser", Entries: []fixup.Entry{
			entry("parse.go", 3, classify.LikelyFixup),
			entry("parse.go", 9, classify.UnlikelyFixup),
		}},
		{Hash: "bbbbbbbbbbbb", Message: "Add lexer", Entries: []fixup.Entry{
			entry("lex.go", 12, classify.PossibleFixup),
		}},
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m AssignModel, msgs ...tea.Msg) AssignModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(AssignModel)
	}
	return m
}

func TestAssignStartsWithRecommendation(t *testing.T) {
	m := NewAssignModel(testTargets())
	a := m.Assignment()
	assert.True(t, a.Assigned(0, 0))
	assert.False(t, a.Assigned(0, 1))
	assert.True(t, a.Assigned(1, 0))
}

func TestAssignToggleAndConfirm(t *testing.T) {
	m := NewAssignModel(testTargets())
	// Rows: header A, A:3, A:9, header B, B:12.
	m = press(t, m,
		runes("j"), runes("j"), tea.KeyMsg{Type: tea.KeySpace}, // assign parse.go:9
		runes("j"), tea.KeyMsg{Type: tea.KeySpace}, // header B: unassign all of B
		runes("k"), runes("s"), // squash A
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	require.True(t, m.Done())
	require.False(t, m.Cancelled())

	s, err := m.Assignment().Finalize()
	require.NoError(t, err)
	require.Len(t, s.Order, 1)
	assert.Equal(t, "aaaaaaaaaaaa", s.Order[0].Target.Hash)
	assert.Equal(t, selection.Squash, s.Order[0].Mode)
	assert.Equal(t, 2, s.Order[0].LineCount())
}

func TestAssignRefusesEmptyConfirm(t *testing.T) {
	m := NewAssignModel(testTargets())
	m = press(t, m,
		tea.KeyMsg{Type: tea.KeySpace}, // header A: all assigned? no, so assign all
		tea.KeyMsg{Type: tea.KeySpace}, // now all assigned, unassign all
		runes("j"), runes("j"), runes("j"), tea.KeyMsg{Type: tea.KeySpace},
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	assert.False(t, m.Done())
	assert.Contains(t, m.View(), "no targets selected")

	m = press(t, m, runes("a"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.Done())
}

func TestAssignCancel(t *testing.T) {
	m := press(t, NewAssignModel(testTargets()), runes("q"))
	assert.True(t, m.Done())
	assert.True(t, m.Cancelled())
}

func TestAssignViewListsChanges(t *testing.T) {
	m := press(t, NewAssignModel(testTargets()), tea.WindowSizeMsg{Width: 120, Height: 40})
	view := m.View()
	assert.Contains(t, view, "aaaaaaaa")
	assert.Contains(t, view, "Add lexer")
	assert.Contains(t, view, "parse.go:~9")
	assert.Contains(t, view, "unlikely")
}
