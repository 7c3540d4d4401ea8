// Package main provides the entry point for cachehit.
// cachehit estimates the cache hit ratio of annotated program regions.
//
// For the full CLI, use: go run ./cmd/cachehit
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("cachehit - region cache hit-ratio profiler")
	fmt.Println("")
	fmt.Println("Usage: cachehit <command> [options]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  run <trace>       Replay a trace and write the site report")
	fmt.Println("  bench             Run the synthetic workloads")
	fmt.Println("  inspect <binary>  List the annotation entry points of a binary")
	fmt.Println("  config            Print the effective configuration")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/cachehit' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/cachehit' instead.")
	}
}
