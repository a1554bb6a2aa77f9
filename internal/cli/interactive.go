package cli

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/ishaan812/fastfixup/internal/commit"
	"github.com/ishaan812/fastfixup/internal/fixup"
	"github.com/ishaan812/fastfixup/internal/selection"
)

const (
	targetPrompt = "Targets (e.g. 1,3 or 2-4, all, none, info N, done)"
	linePrompt   = "Lines (e.g. 1,3 or 2-4, all, none, auto)"
)

var modeChoices = []string{
	"fixup  (keep the target's message)",
	"squash (edit the target's message)",
}

// runTextual drives a selection session from typed commands. It returns
// selection.ErrCancelled when the operator backs out.
func runTextual(ctx context.Context, p *Printer, in Prompter, edit commit.Editor, targets []*fixup.Target) (*selection.State, error) {
	e := selection.NewEngine(targets)
	showList := true

	for {
		switch e.Stage() {
		case selection.TargetSelection:
			if showList {
				p.Title("Fixup targets")
				p.Targets(e.Targets(), e.IsPicked)
				p.Blank()
				showList = false
			}
			text, err := in.Input(targetPrompt)
			if err != nil {
				if !errors.Is(err, selection.ErrCancelled) {
					return nil, err
				}
				e.Cancel()
				continue
			}
			cmd, err := selection.ParseCommand(text, len(targets))
			if err != nil {
				if !errors.Is(err, selection.ErrEmptyInput) {
					p.Warn("%v", err)
				}
				continue
			}
			if err := e.Handle(cmd); err != nil {
				p.Warn("%v", err)
				continue
			}
			switch cmd.Kind {
			case selection.CmdInfo:
				t, _ := e.Target(cmd.Indices[0])
				p.Info(t)
			case selection.CmdIndices, selection.CmdAll:
				showList = true
			}

		case selection.LineReview:
			r, err := e.Current()
			if err != nil {
				return nil, err
			}
			p.Review(r, len(e.Picked()))
			text, err := in.Input(linePrompt)
			if err != nil {
				if !errors.Is(err, selection.ErrCancelled) {
					return nil, err
				}
				e.Cancel()
				continue
			}
			cmd, err := selection.ParseCommand(text, len(r.Entries))
			if err == nil && (cmd.Kind == selection.CmdInfo || cmd.Kind == selection.CmdDone) {
				err = errors.New("expected line numbers, all, none or auto")
			}
			if err == nil {
				err = e.Handle(cmd)
			}
			if err != nil && !errors.Is(err, selection.ErrEmptyInput) {
				p.Warn("%v", err)
			}

		case selection.ModeDecision:
			ts, err := e.Deciding()
			if err != nil {
				return nil, err
			}
			p.Blank()
			p.Dim("%s %s: %s selected", ts.Target.Short(), ts.Target.Subject(), plural(ts.LineCount(), "line"))
			choice, err := in.Choose("Commit as", modeChoices)
			if err != nil {
				if !errors.Is(err, selection.ErrCancelled) {
					return nil, err
				}
				e.Cancel()
				continue
			}
			mode, message := selection.Fixup, ""
			if choice == 1 {
				mode = selection.Squash
				message, err = edit(ctx, ts.Target.Message)
				if err != nil {
					return nil, err
				}
			}
			if err := e.ChooseMode(mode, message); err != nil {
				return nil, err
			}

		default:
			return e.State()
		}
	}
}
