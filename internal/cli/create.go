package cli

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ishaan812/fastfixup/internal/commit"
	"github.com/ishaan812/fastfixup/internal/fixup"
	"github.com/ishaan812/fastfixup/internal/selection"
	"github.com/ishaan812/fastfixup/internal/tui"
)

var (
	createFixupsOnly  bool
	createIncludeAll  bool
	createDryRun      bool
	createInteractive bool
	createVisual      bool
	createNoBackup    bool
	createOneline     bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create fixup! commits for the working-tree changes",
	Long: `Create one fixup! (or squash!) commit per target, staging only the lines
attributed to that target.

Without -i or --visual every target is committed with the recommended lines.
A backup tag of HEAD is created first unless --no-backup is given.

Examples:
  fastfixup create --dry-run
  fastfixup create -i
  fastfixup create --visual --limit origin/main`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().BoolVar(&createFixupsOnly, "fixups-only", false, "Only consider likely fixups")
	createCmd.Flags().BoolVar(&createIncludeAll, "include-all", false, "Consider every change, including new code")
	createCmd.Flags().BoolVar(&createDryRun, "dry-run", false, "Print the git operations without running them")
	createCmd.Flags().BoolVarP(&createInteractive, "interactive", "i", false, "Choose targets and lines by typing commands")
	createCmd.Flags().BoolVar(&createVisual, "visual", false, "Choose changes in a full-screen view")
	createCmd.Flags().BoolVar(&createNoBackup, "no-backup", false, "Skip the backup tag")
	createCmd.Flags().BoolVar(&createOneline, "oneline", false, "List targets one per line when choosing with -i")
	createCmd.MarkFlagsMutuallyExclusive("fixups-only", "include-all")
	createCmd.MarkFlagsMutuallyExclusive("interactive", "visual")
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	repo, err := openRepo()
	if err != nil {
		return err
	}
	res, err := analyze(ctx, repo, filterMode(createFixupsOnly, createIncludeAll))
	if err != nil {
		return err
	}

	p := NewPrinter(stdout, terminalWidth(), isTerminal(os.Stdout))
	p.compact = createOneline
	if len(res.Targets) == 0 {
		p.Warn("No fixup targets found.")
		printLeftovers(p, res)
		return fixup.ErrNoTargets
	}

	edit := newEditor(cfg.Editor)
	var state *selection.State
	switch {
	case createInteractive:
		in, err := newPrompter()
		if err != nil {
			return err
		}
		state, err = runTextual(ctx, p, in, edit, res.Targets)
		if err != nil {
			return err
		}
	case createVisual:
		if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
			return errors.New("--visual needs a terminal")
		}
		state, err = tui.RunAssignment(res.Targets)
		if err != nil {
			return err
		}
		if err := editSquashMessages(ctx, state, edit); err != nil {
			return err
		}
	default:
		state = selection.Auto(res.Targets)
		if len(state.Order) == 0 {
			p.Warn("No recommended lines to commit; use -i to pick them.")
			return fixup.ErrNoTargets
		}
	}

	return createCommits(ctx, p, commit.NewCreator(repo, backupManager(repo), log), res, state)
}

// editSquashMessages asks for the message of every squash target that has
// none yet.
func editSquashMessages(ctx context.Context, state *selection.State, edit commit.Editor) error {
	for _, ts := range state.Order {
		if ts.Mode != selection.Squash || ts.Message != "" {
			continue
		}
		msg, err := edit(ctx, ts.Target.Message)
		if err != nil {
			return err
		}
		ts.Message = msg
	}
	return nil
}

func createCommits(ctx context.Context, p *Printer, creator *commit.Creator, res *fixup.Analysis, state *selection.State) error {
	rep, err := creator.Create(ctx, res.Diff, state, commit.Options{
		DryRun:   createDryRun,
		NoBackup: createNoBackup,
	})
	if rep != nil {
		p.Blank()
		p.Plan(rep)
		p.Report(rep)
		p.Blank()
	}
	return err
}
