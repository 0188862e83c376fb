package main

import (
	"fmt"
	"os"

	"github.com/zintix-labs/tablelab/sdk/perf"
)

// makefile runner
func main() {
	bindVar()
	path, err := perf.Run(perf.DefaultDir, cfg.pprofmode, executeSimulator)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if path != "" {
		fmt.Fprintln(os.Stderr, "profile written:", path)
	}
}
