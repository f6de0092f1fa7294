// Command resourcectl reads and writes resources of a kind-tagged JSON API.
package main

import (
	"bufio"
	"os"

	"github.com/mitchellh/cli"

	"github.com/kbukum/resourcekit/internal/command"
)

func main() {
	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}
	os.Exit(command.Main(os.Args, &command.Meta{UI: ui, LogWriter: os.Stderr}))
}
