package cli

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ishaan812/fastfixup/internal/commit"
)

const editorHelp = `
# Edit the squash message above. Lines starting with '#' are ignored and an
# empty message keeps the original one.
`

// newEditor returns a message editor that opens command on a temporary file,
// like git does for commit messages. command may carry arguments.
func newEditor(command string) commit.Editor {
	return func(ctx context.Context, initial string) (string, error) {
		f, err := os.CreateTemp("", "fastfixup-msg-*.txt")
		if err != nil {
			return "", errors.Wrap(err, "failed to create message file")
		}
		path := f.Name()
		defer os.Remove(path)

		if _, err := f.WriteString(strings.TrimSpace(initial) + "\n" + editorHelp); err != nil {
			f.Close()
			return "", errors.Wrap(err, "failed to write message file")
		}
		if err := f.Close(); err != nil {
			return "", errors.Wrap(err, "failed to write message file")
		}

		cmd := exec.CommandContext(ctx, "sh", "-c", command+` "$@"`, command, path)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		VerboseLog("running editor: %s %s", command, path)
		if err := cmd.Run(); err != nil {
			return "", errors.Wrapf(err, "editor %q failed", command)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return "", errors.Wrap(err, "failed to read message file")
		}
		return stripComments(string(data)), nil
	}
}

func stripComments(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t\r"))
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
