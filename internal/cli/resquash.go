package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/ishaan812/fastfixup/internal/commit"
)

var resquashCmd = &cobra.Command{
	Use:   "resquash <commit>",
	Short: "Turn a fixup! commit into a squash! commit with an edited message",
	Long: `Rewrite the message of a fixup! commit into squash! plus an edited copy of
its target's message. The tree is left untouched.

The commit must be HEAD, or the commit an interactive rebase is stopped at.
With --limit the target is only searched among commits newer than it.

Examples:
  fastfixup resquash HEAD
  git rebase -i --autosquash HEAD~5   # mark the fixup as "edit", then
  fastfixup resquash <fixup-hash>`,
	Args: cobra.ExactArgs(1),
	RunE: runResquash,
}

func init() {
	rootCmd.AddCommand(resquashCmd)
}

func runResquash(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	repo, err := openRepo()
	if err != nil {
		return err
	}
	conv := commit.NewConverter(repo, log)
	conv.Limit = limitRef
	res, err := conv.Resquash(ctx, args[0], newEditor(cfg.Editor))
	if err != nil {
		return err
	}

	p := NewPrinter(stdout, terminalWidth(), isTerminal(os.Stdout))
	p.Blank()
	p.Success("Converted %s into %s", res.Fixup.Short(), firstLine(res.Message))
	p.Dim("Target: %s %s", res.Target.Short(), res.Target.Subject())
	p.Blank()
	return nil
}
