// Package main is the CLI command itself.
package main

import (
	"fmt"
	"os"

	"go.viam.com/fibermos/cli"
	"go.viam.com/fibermos/logging"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		//nolint:errcheck
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		//nolint:errcheck
		logging.Global().Sync()
		os.Exit(1)
	}
}
