package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"github.com/ishaan812/fastfixup/internal/classify"
	"github.com/ishaan812/fastfixup/internal/commit"
	"github.com/ishaan812/fastfixup/internal/diff"
	"github.com/ishaan812/fastfixup/internal/fixup"
	"github.com/ishaan812/fastfixup/internal/git"
	"github.com/ishaan812/fastfixup/internal/selection"
)

// detailLines is how many changes per file the detailed views show.
const detailLines = 5

// Printer renders user-facing output. Each command builds its own instead of
// sharing package-level colors.
type Printer struct {
	w     io.Writer
	width int
	// styled turns on glamour's terminal styles for rendered markdown.
	styled bool
	// compact lists targets on one line each.
	compact bool

	title   *color.Color
	success *color.Color
	info    *color.Color
	dim     *color.Color
	warn    *color.Color
	errc    *color.Color
	prompt  *color.Color
}

func NewPrinter(w io.Writer, width int, styled bool) *Printer {
	if width <= 0 {
		width = 80
	}
	return &Printer{
		w:       w,
		width:   width,
		styled:  styled,
		title:   color.New(color.FgHiCyan, color.Bold),
		success: color.New(color.FgHiGreen),
		info:    color.New(color.FgHiWhite),
		dim:     color.New(color.FgHiBlack),
		warn:    color.New(color.FgHiYellow),
		errc:    color.New(color.FgHiRed, color.Bold),
		prompt:  color.New(color.FgYellow),
	}
}

func (p *Printer) Title(text string) {
	fmt.Fprintln(p.w)
	p.title.Fprintf(p.w, "  %s\n", text)
	p.dim.Fprintln(p.w, "  "+strings.Repeat("─", 40))
	fmt.Fprintln(p.w)
}

func (p *Printer) Success(format string, args ...interface{}) {
	p.success.Fprintf(p.w, "  "+format+"\n", args...)
}

func (p *Printer) Warn(format string, args ...interface{}) {
	p.warn.Fprintf(p.w, "  "+format+"\n", args...)
}

func (p *Printer) Dim(format string, args ...interface{}) {
	p.dim.Fprintf(p.w, "  "+format+"\n", args...)
}

func (p *Printer) Blank() {
	fmt.Fprintln(p.w)
}

// PrintError writes a failure the way every command reports it.
func PrintError(w io.Writer, err error) {
	color.New(color.FgHiRed, color.Bold).Fprint(w, "Error: ")
	fmt.Fprintln(w, err.Error())
}

func (p *Printer) truncate(s string, max int) string {
	if max < 4 {
		max = 4
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func summary(t *fixup.Target) string {
	counts := t.Counts()
	var parts []string
	for _, c := range classify.All {
		if n := counts[c]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, c.Label()))
		}
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Targets prints the numbered target list. picked, when set, marks chosen
// targets.
func (p *Printer) Targets(targets []*fixup.Target, picked func(int) bool) {
	for i, t := range targets {
		mark := ""
		if picked != nil {
			mark = "[ ] "
			if picked(i) {
				mark = "[x] "
			}
		}
		fmt.Fprintf(p.w, "  %s%2d. ", mark, i+1)
		p.success.Fprint(p.w, t.Short())
		fmt.Fprint(p.w, " ")
		if p.compact {
			fmt.Fprint(p.w, p.truncate(t.Subject(), p.width-40))
			p.dim.Fprintf(p.w, "  %d/%d  [%s]\n", t.FileCount(), t.LineCount(), summary(t))
			continue
		}
		p.info.Fprintln(p.w, p.truncate(t.Subject(), p.width-20))
		p.dim.Fprintf(p.w, "        %s <%s>, %s, %s  [%s]\n",
			t.AuthorName, t.AuthorEmail, plural(t.FileCount(), "file"), plural(t.LineCount(), "line"), summary(t))
	}
}

// Oneline prints one row per target: hash, subject, files, lines.
func (p *Printer) Oneline(targets []*fixup.Target) {
	msgWidth := p.width - 30
	if msgWidth < 20 {
		msgWidth = 20
	}
	p.dim.Fprintf(p.w, "  %-8s  %-*s  %5s  %5s\n", "COMMIT", msgWidth, "MESSAGE", "FILES", "LINES")
	for _, t := range targets {
		fmt.Fprintf(p.w, "  %-8s  %-*s  %5d  %5d\n",
			t.Short(), msgWidth, p.truncate(t.Subject(), msgWidth), t.FileCount(), t.LineCount())
	}
}

// Detailed prints each target with up to detailLines changes per file, each
// followed by the removed and added text.
func (p *Printer) Detailed(targets []*fixup.Target) {
	for i, t := range targets {
		fmt.Fprintf(p.w, "  %d. ", i+1)
		p.success.Fprint(p.w, t.Short())
		fmt.Fprint(p.w, " ")
		p.info.Fprintln(p.w, t.Subject())
		p.dim.Fprintf(p.w, "     %s <%s>, %s\n", t.AuthorName, t.AuthorEmail, t.When.Format("2006-01-02 15:04"))
		for _, path := range t.Files() {
			entries := t.EntriesFor(path)
			fmt.Fprintf(p.w, "     %s (%s)\n", path, plural(len(entries), "change"))
			p.diffLines(entries, detailLines, "       ")
		}
		fmt.Fprintln(p.w)
	}
}

// Entries prints changes as "~12 content (likely)". A limit of 0 prints all;
// numbered prefixes each line with its 1-based position for line review.
func (p *Printer) Entries(entries []fixup.Entry, limit int, indent string, numbered bool) {
	for i, e := range entries {
		if limit > 0 && i >= limit {
			p.dim.Fprintf(p.w, "%s... %d more\n", indent, len(entries)-limit)
			return
		}
		num := ""
		if numbered {
			num = fmt.Sprintf("%3d) ", i+1)
		}
		content := strings.TrimSpace(e.Line.Content)
		if content == "" && e.Line.Previous != "" {
			content = strings.TrimSpace(e.Line.Previous)
		}
		fmt.Fprintf(p.w, "%s%s%s%-5d ", indent, num, e.Line.Op.Symbol(), e.Line.Line)
		fmt.Fprint(p.w, p.truncate(content, p.width-len(indent)-30))
		p.classColor(e.Class).Fprintf(p.w, "  (%s)\n", e.Class.Label())
	}
}

func (p *Printer) diffLines(entries []fixup.Entry, limit int, indent string) {
	for i, e := range entries {
		if limit > 0 && i >= limit {
			p.dim.Fprintf(p.w, "%s... %d more\n", indent, len(entries)-limit)
			return
		}
		fmt.Fprintf(p.w, "%s%s%d", indent, e.Line.Op.Symbol(), e.Line.Line)
		p.classColor(e.Class).Fprintf(p.w, "  (%s)\n", e.Class.Label())
		width := p.width - len(indent) - 4
		if e.Line.Op != diff.OpAdded {
			p.errc.Fprintf(p.w, "%s  - %s\n", indent, p.truncate(strings.TrimSpace(e.Line.Previous), width))
		}
		if e.Line.Op != diff.OpDeleted {
			p.success.Fprintf(p.w, "%s  + %s\n", indent, p.truncate(strings.TrimSpace(e.Line.Content), width))
		}
	}
}

func (p *Printer) classColor(c classify.Classification) *color.Color {
	switch c {
	case classify.LikelyFixup:
		return p.success
	case classify.PossibleFixup:
		return p.warn
	}
	return p.dim
}

// Info renders a target's message, author and first changes per file.
func (p *Printer) Info(t *fixup.Target) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", t.Short(), t.Subject())
	fmt.Fprintf(&b, "**Author:** %s (%s)  \n**Date:** %s\n\n", t.AuthorName, t.AuthorEmail, t.When.Format("2006-01-02 15:04"))
	if _, body, ok := strings.Cut(strings.TrimSpace(t.Message), "\n"); ok && strings.TrimSpace(body) != "" {
		b.WriteString(strings.TrimSpace(body) + "\n\n")
	}
	for _, path := range t.Files() {
		entries := t.EntriesFor(path)
		fmt.Fprintf(&b, "## %s\n\n```\n", path)
		for i, e := range entries {
			if i >= detailLines {
				fmt.Fprintf(&b, "... %d more\n", len(entries)-detailLines)
				break
			}
			fmt.Fprintf(&b, "%s%d %s\n", e.Line.Op.Symbol(), e.Line.Line, strings.TrimSpace(e.Line.Content))
		}
		b.WriteString("```\n\n")
	}
	p.Markdown(b.String())
}

// Markdown renders text with glamour, falling back to the raw text.
func (p *Printer) Markdown(text string) {
	style := glamour.WithStandardStyle("notty")
	if p.styled {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(p.width))
	if err == nil {
		if rendered, err := r.Render(text); err == nil {
			fmt.Fprint(p.w, rendered)
			return
		}
	}
	fmt.Fprintln(p.w, text)
}

// Review prints the file under line review.
func (p *Printer) Review(r selection.Review, total int) {
	fmt.Fprintln(p.w)
	p.title.Fprintf(p.w, "  [%d/%d] %s %s\n", r.TargetIndex+1, total, r.Target.Short(), r.Target.Subject())
	p.info.Fprintf(p.w, "  %s\n", r.Path)
	p.Entries(r.Entries, 0, "    ", true)
}

// Plan prints the numbered git operations of a creation run.
func (p *Printer) Plan(rep *commit.Report) {
	if rep.DryRun {
		p.title.Fprintln(p.w, "  Git operations that would be executed:")
	} else {
		p.title.Fprintln(p.w, "  Git operations executed:")
	}
	for i, step := range rep.Steps {
		fmt.Fprintf(p.w, "  %2d. %s\n", i+1, step)
	}
	fmt.Fprintln(p.w)
}

// Report prints per-target outcomes and the follow-up commands.
func (p *Printer) Report(rep *commit.Report) {
	for _, res := range rep.Results {
		switch {
		case res.Err != nil:
			p.errc.Fprint(p.w, "  ✗ ")
			fmt.Fprintf(p.w, "%s %s: %v\n", res.Target.Short(), res.Target.Subject(), res.Err)
		case rep.DryRun:
			p.dim.Fprint(p.w, "  • ")
			fmt.Fprintf(p.w, "%s (%s)\n", firstLine(res.Message), plural(res.Lines, "line"))
		default:
			p.success.Fprint(p.w, "  ✓ ")
			fmt.Fprintf(p.w, "%s %s (%s)\n", git.ShortHash(res.Commit), firstLine(res.Message), plural(res.Lines, "line"))
		}
	}
	fmt.Fprintln(p.w)

	if rep.Backup != nil {
		p.Dim("Backup: %s (restore with 'fastfixup restore --backup-name %s')", rep.Backup.Name, rep.Backup.Name)
	}
	if cmd := rep.RebaseCommand(); cmd != "" {
		p.info.Fprintln(p.w, "  Fold the commits in with:")
		p.success.Fprintf(p.w, "    %s\n", cmd)
		if len(rep.Succeeded()) > 0 && !rep.DryRun {
			p.Dim("Tip: 'fastfixup resquash <commit>' turns a fixup! into a squash! to reword its target.")
		}
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
