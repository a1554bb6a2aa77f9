package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/ishaan812/fastfixup/internal/fixup"
)

var (
	statusOneline    bool
	statusDetailed   bool
	statusFixupsOnly bool
	statusIncludeAll bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which commits the working-tree changes belong to",
	Long: `Trace every changed line back to the commit that last touched it and
list the resulting fixup targets, newest first.

By default new definitions and lines without history are left out; use
--fixups-only to see only likely fixups or --include-all to see everything.

Examples:
  fastfixup status
  fastfixup status --oneline
  fastfixup status --detailed --limit origin/main`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusOneline, "oneline", false, "One row per target")
	statusCmd.Flags().BoolVar(&statusDetailed, "detailed", false, "Show the changes of every target")
	statusCmd.Flags().BoolVar(&statusFixupsOnly, "fixups-only", false, "Only show likely fixups")
	statusCmd.Flags().BoolVar(&statusIncludeAll, "include-all", false, "Show every change, including new code")
	statusCmd.MarkFlagsMutuallyExclusive("oneline", "detailed")
	statusCmd.MarkFlagsMutuallyExclusive("fixups-only", "include-all")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	repo, err := openRepo()
	if err != nil {
		return err
	}
	res, err := analyze(ctx, repo, filterMode(statusFixupsOnly, statusIncludeAll))
	if err != nil {
		return err
	}

	p := NewPrinter(stdout, terminalWidth(), isTerminal(os.Stdout))
	return printStatus(p, res)
}

func printStatus(p *Printer, res *fixup.Analysis) error {
	if len(res.Targets) == 0 {
		p.Blank()
		p.Warn("No fixup targets found.")
		printLeftovers(p, res)
		p.Blank()
		return fixup.ErrNoTargets
	}

	switch {
	case statusOneline:
		p.Blank()
		p.Oneline(res.Targets)
	case statusDetailed:
		p.Title("Fixup targets")
		p.Detailed(res.Targets)
	default:
		p.Title("Fixup targets")
		p.Targets(res.Targets, nil)
	}

	p.Blank()
	printLeftovers(p, res)
	p.Dim("Run 'fastfixup create' to commit them, or 'fastfixup create -i' to choose.")
	p.Blank()
	return nil
}

// printLeftovers accounts for the changed lines that did not make it into a
// target.
func printLeftovers(p *Printer, res *fixup.Analysis) {
	if n := len(res.Unassigned); n > 0 {
		p.Dim("%s without a target (new code or unattributable).", plural(n, "changed line"))
	}
	if n := len(res.Filtered); n > 0 {
		p.Dim("%s left out by the filters; see --include-all and --org-email.", plural(n, "changed line"))
	}
}
