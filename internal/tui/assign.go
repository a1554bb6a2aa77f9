package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ishaan812/fastfixup/internal/fixup"
	"github.com/ishaan812/fastfixup/internal/selection"
)

// row is one line of the list: a target header (entry < 0) or one change.
type row struct {
	target int
	entry  int
}

// AssignModel lets the operator assign individual changes to their targets
// and pick fixup or squash per target.
type AssignModel struct {
	assign *selection.Assignment
	rows   []row
	cursor int

	viewport viewport.Model
	ready    bool
	width    int

	message   string
	cancelled bool
	done      bool
}

// NewAssignModel starts with the recommended changes assigned.
func NewAssignModel(targets []*fixup.Target) AssignModel {
	a := selection.NewAssignment(targets)
	a.AssignAuto()

	var rows []row
	for ti, t := range targets {
		rows = append(rows, row{target: ti, entry: -1})
		for ei := range t.Entries {
			rows = append(rows, row{target: ti, entry: ei})
		}
	}
	return AssignModel{assign: a, rows: rows, width: 80}
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Fixup  key.Binding
	Squash key.Binding
	Auto   key.Binding
	Enter  key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "move down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "assign/unassign"),
	),
	Fixup: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "fixup"),
	),
	Squash: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "squash"),
	),
	Auto: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "auto"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q/esc", "cancel"),
	),
}

func (m AssignModel) Init() tea.Cmd {
	return nil
}

func (m AssignModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		height := msg.Height - 6
		if height < 3 {
			height = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		return m, nil

	case tea.KeyMsg:
		m.message = ""
		switch {
		case key.Matches(msg, keys.Quit):
			m.cancelled = true
			m.done = true
			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}

		case key.Matches(msg, keys.Toggle):
			m.toggle()

		case key.Matches(msg, keys.Fixup):
			_ = m.assign.SetMode(m.rows[m.cursor].target, selection.Fixup, "")

		case key.Matches(msg, keys.Squash):
			_ = m.assign.SetMode(m.rows[m.cursor].target, selection.Squash, "")

		case key.Matches(msg, keys.Auto):
			m.assign.AssignAuto()

		case key.Matches(msg, keys.Enter):
			if _, err := m.assign.Finalize(); err != nil {
				m.message = err.Error()
				return m, nil
			}
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// toggle flips one change, or every change of a target on its header row.
func (m *AssignModel) toggle() {
	if len(m.rows) == 0 {
		return
	}
	r := m.rows[m.cursor]
	if r.entry >= 0 {
		_, _ = m.assign.Toggle(r.target, r.entry)
		return
	}

	entries := m.assign.Targets()[r.target].Entries
	all := m.assign.AssignedCount(r.target) == len(entries)
	for i := range entries {
		if all {
			_ = m.assign.Unassign(r.target, i)
		} else {
			_ = m.assign.Assign(r.target, i)
		}
	}
}

func (m AssignModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Assign changes to fixup targets"))
	b.WriteString("\n")

	body := m.body()
	if m.ready {
		m.viewport.SetContent(body)
		m.scrollToCursor()
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(body)
	}
	b.WriteString("\n")

	if m.message != "" {
		b.WriteString(subtitleStyle.Render(errorStyle.Render(m.message)))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓: navigate • space: assign/unassign • f/s: fixup/squash • a: auto • enter: confirm • q: cancel"))
	return b.String()
}

// scrollToCursor keeps the cursor row on screen. Header rows add a blank
// line before every target but the first.
func (m *AssignModel) scrollToCursor() {
	line := m.cursor
	for i := 1; i <= m.cursor; i++ {
		if m.rows[i].entry < 0 {
			line++
		}
	}
	switch {
	case line < m.viewport.YOffset:
		m.viewport.SetYOffset(line)
	case line >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(line - m.viewport.Height + 1)
	}
}

func (m AssignModel) body() string {
	var b strings.Builder
	targets := m.assign.Targets()
	for i, r := range m.rows {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("▸ ")
		}
		t := targets[r.target]

		if r.entry < 0 {
			if i > 0 {
				b.WriteString("\n")
			}
			mode := dimStyle.Render("fixup")
			if m.assign.Mode(r.target) == selection.Squash {
				mode = squashStyle.Render("squash")
			}
			fmt.Fprintf(&b, "%s%s %s  %s %s\n", cursor,
				hashStyle.Render(t.Short()),
				targetStyle.Render(truncate(t.Subject(), m.width-40)),
				mode,
				dimStyle.Render(fmt.Sprintf("%d/%d", m.assign.AssignedCount(r.target), len(t.Entries))))
			continue
		}

		e := t.Entries[r.entry]
		box := uncheckedStyle.Render("[ ]")
		if m.assign.Assigned(r.target, r.entry) {
			box = checkedStyle.Render("[✓]")
		}
		label := e.Class.Label()
		class := classStyles[label].Render(label)
		location := fmt.Sprintf("%s:%s%d", e.Line.Path, e.Line.Op.Symbol(), e.Line.Line)
		fmt.Fprintf(&b, "%s  %s %s %s %s\n", cursor, box,
			dimStyle.Render(location),
			truncate(strings.TrimSpace(e.Line.Content), m.width-len(location)-24),
			class)
	}
	return b.String()
}

func truncate(s string, max int) string {
	if max < 10 {
		max = 10
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// Assignment exposes the assignment being edited.
func (m AssignModel) Assignment() *selection.Assignment {
	return m.assign
}

func (m AssignModel) Cancelled() bool {
	return m.cancelled
}

// Done returns whether the session is over.
func (m AssignModel) Done() bool {
	return m.done
}

// RunAssignment runs the visual assignment TUI. Squash targets come back with
// an empty message for the caller to fill in.
func RunAssignment(targets []*fixup.Target) (*selection.State, error) {
	p := tea.NewProgram(NewAssignModel(targets), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	m := finalModel.(AssignModel)
	if m.Cancelled() {
		return nil, selection.ErrCancelled
	}
	return m.Assignment().Finalize()
}
