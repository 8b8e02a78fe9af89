// Command postbot publishes random unposted texts from a CSV corpus.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/postbot/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// ExitErrors were already reported by the command. Anything else
		// comes from cobra's flag and argument parsing.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(cli.ExitCommandError)
		}
		os.Exit(exitErr.Code)
	}
}
