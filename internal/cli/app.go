package cli

import (
	"context"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/ishaan812/fastfixup/internal/backup"
	"github.com/ishaan812/fastfixup/internal/fixup"
	"github.com/ishaan812/fastfixup/internal/git"
)

func openRepo() (*git.Repository, error) {
	VerboseLog("opening repository at %s", repoPath)
	return git.OpenRepo(repoPath, log)
}

func backupManager(repo backup.Repository) *backup.Manager {
	return backup.NewManager(repo, cfg.BackupPrefix, log)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth falls back to 80 columns off a terminal.
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// withSpinner shows progress on stderr while fn runs, but only on a terminal.
func withSpinner(suffix string, fn func() error) error {
	if !isTerminal(os.Stderr) || verbose {
		return fn()
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + suffix
	_ = s.Color("cyan")
	s.Start()
	defer s.Stop()
	return fn()
}

// analyze runs the attribution pipeline with the command line and config
// settings applied.
func analyze(ctx context.Context, repo fixup.Repository, mode fixup.FilterMode) (*fixup.Analysis, error) {
	var res *fixup.Analysis
	err := withSpinner("Tracing changes to their commits...", func() error {
		var err error
		res, err = fixup.NewAnalyzer(repo, log, cfg.BlameWorkers).Analyze(ctx, fixup.Options{
			Mode:     mode,
			Limit:    limitRef,
			OrgEmail: cfg.OrgEmail,
			Exclude:  cfg.Exclude,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, f := range res.Failures {
		log.Debug("unresolved line", zap.Error(f))
	}
	VerboseLog("analyzed %d changed lines into %d targets (%d unassigned)",
		len(res.Entries), len(res.Targets), len(res.Unassigned))
	return res, nil
}

func filterMode(fixupsOnly, includeAll bool) fixup.FilterMode {
	switch {
	case includeAll:
		return fixup.IncludeAll
	case fixupsOnly:
		return fixup.FixupsOnly
	}
	return fixup.SmartDefault
}
