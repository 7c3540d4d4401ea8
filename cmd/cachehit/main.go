// Package main provides the cachehit command line tool.
// cachehit replays instrumentation traces through simulated caches and
// reports a hit ratio for every annotated region.
package main

func main() {
	Execute()
}
