package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ishaan812/fastfixup/internal/backup"
	"github.com/ishaan812/fastfixup/internal/git"
)

var (
	restoreBackupName string
	restoreYes        bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Reset the repository to a backup taken by create",
	Long: `Hard-reset HEAD, the index and the working tree to a backup tag.
Uncommitted changes are lost; the backup tag itself is kept.

Without --backup-name you pick from the backups on a terminal, or get the
newest one otherwise. You are asked to confirm unless --yes is given.

Examples:
  fastfixup restore
  fastfixup restore --backup-name fastfixup_backup_20240301_101500`,
	Args: cobra.NoArgs,
	RunE: runRestore,
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List backups, newest first",
	Args:  cobra.NoArgs,
	RunE:  runBackups,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(backupsCmd)
	restoreCmd.Flags().StringVar(&restoreBackupName, "backup-name", "", "Backup to restore")
	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "Do not ask for confirmation")
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	repo, err := openRepo()
	if err != nil {
		return err
	}
	var in Prompter = terminalPrompter{}
	if !isTerminal(os.Stdin) {
		if in, err = newPrompter(); err != nil {
			return err
		}
	}

	p := NewPrinter(stdout, terminalWidth(), isTerminal(os.Stdout))
	rec, err := restoreBackup(ctx, p, backupManager(repo), in, restoreBackupName, restoreYes, isTerminal(os.Stdin))
	if err != nil {
		return err
	}
	p.Blank()
	p.Success("Restored %s (%s)", rec.Name, git.ShortHash(rec.Commit))
	p.Blank()
	return nil
}

func restoreBackup(ctx context.Context, p *Printer, m *backup.Manager, in Prompter, name string, yes, pick bool) (*backup.Record, error) {
	if name == "" && pick {
		records, err := m.List(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) > 1 {
			items := make([]string, len(records))
			for i, r := range records {
				items[i] = fmt.Sprintf("%s  %s", r.Name, git.ShortHash(r.Commit))
			}
			i, err := in.Choose("Backup to restore", items)
			if err != nil {
				return nil, err
			}
			name = records[i].Name
		}
	}

	confirm := func(prompt string) (bool, error) {
		if yes {
			return true, nil
		}
		p.Warn("%s", prompt)
		return in.Confirm("Restore")
	}
	return m.Restore(ctx, name, confirm)
}

func runBackups(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	repo, err := openRepo()
	if err != nil {
		return err
	}
	p := NewPrinter(stdout, terminalWidth(), isTerminal(os.Stdout))
	return listBackups(ctx, p, backupManager(repo))
}

func listBackups(ctx context.Context, p *Printer, m *backup.Manager) error {
	records, err := m.List(ctx)
	if err != nil {
		return err
	}
	p.Title("Backups")
	if len(records) == 0 {
		p.Dim("No backups yet. 'fastfixup create' makes one before every run.")
		p.Blank()
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(p.w, "  %s  ", r.Name)
		p.success.Fprint(p.w, git.ShortHash(r.Commit))
		p.dim.Fprintf(p.w, "  %s\n", r.Created.Format("2006-01-02 15:04:05"))
	}
	p.Blank()
	return nil
}
