// Command poshtools analyzes PowerShell scripts: syntax checking with
// colored diagnostics, token dumps, and outline/brace inspection. It
// also hosts the hidden parser-server subcommand that the analysis
// engine spawns as its out-of-process richer parser.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
