// Package main provides the entry point for cachesweep.
// cachesweep runs parameter sweeps over an external cache simulator and
// plots the collected statistics.
//
// For the full CLI, use: go run ./cmd/sweep
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("cachesweep - cache simulator parameter sweeps")
	fmt.Println("")
	fmt.Println("Usage: sweep [flags] <command> [args]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  run <experiment>   Run a sweep and plot it")
	fmt.Println("  list               List known experiments")
	fmt.Println("  show <experiment>  Print an experiment definition")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/sweep --help' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/sweep' instead.")
	}
}
