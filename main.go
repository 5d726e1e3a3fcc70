// Package main is the entry point for running Argus standalone.
package main

import (
	"fmt"
	"os"

	"argus/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
