package main

import (
	"os"

	"github.com/ishaan812/fastfixup/internal/cli"
)

func main() {
	os.Exit(cli.ExitCode(cli.Execute()))
}
