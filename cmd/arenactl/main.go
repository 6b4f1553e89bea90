// Command arenactl drives a tagged-region arena registry from the command
// line: it loads a region layout, runs the built-in workloads against it and
// reports what the regions hold.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
