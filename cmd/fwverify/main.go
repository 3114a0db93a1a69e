package main

import (
	"fmt"
	"os"

	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
