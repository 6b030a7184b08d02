// Package main is the entry point for the framepeek frame decoder.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/framepeek/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
