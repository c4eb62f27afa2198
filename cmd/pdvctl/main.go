// Command pdvctl runs one-off maintenance tasks against the PDV database.
package main

import (
	"fmt"
	"os"

	"github.com/GTDGit/pdv_api/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
