package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ishaan812/fastfixup/internal/config"
	"github.com/ishaan812/fastfixup/internal/logger"
)

var (
	repoPath     string
	limitRef     string
	orgEmailFlag string
	verbose      bool

	// Set up by PersistentPreRunE for every subcommand.
	cfg    *config.Config
	log    *zap.Logger = zap.NewNop()
	stdout io.Writer   = os.Stdout
)

var rootCmd = &cobra.Command{
	Use:   "fastfixup",
	Short: "Attribute working-tree changes to the commits they fix",
	Long: `fastfixup finds which existing commits your uncommitted changes belong to
and turns them into fixup! or squash! commits ready for
'git rebase -i --autosquash'.

Use 'fastfixup status' to see candidate targets and 'fastfixup create' to
commit them. Every create run leaves a backup tag that 'fastfixup restore'
can return to.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logger.New(verbose)

		v := config.New()
		if err := v.BindPFlag(config.KeyOrgEmail, cmd.Root().PersistentFlags().Lookup("org-email")); err != nil {
			return err
		}
		loaded, err := config.Load(v)
		if err != nil {
			return err
		}
		cfg = loaded
		VerboseLog("config: org_email=%q backup_prefix=%q blame_workers=%d exclude=%v",
			cfg.OrgEmail, cfg.BackupPrefix, cfg.BlameWorkers, cfg.Exclude)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

// Execute runs the command line and returns the error for ExitCode.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		PrintError(os.Stderr, err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&repoPath, "repo", ".", "Path to the git repository")
	rootCmd.PersistentFlags().StringVar(&limitRef, "limit", "", "Only consider commits newer than this reference")
	rootCmd.PersistentFlags().StringVar(&orgEmailFlag, "org-email", "", "Only consider targets whose author email matches this regex")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}
