//go:build !testcoverage

package main

import (
	"fmt"
	"os"
)

func main() {
	cfg := DefaultConfig()
	err := run(os.Args, cfg)
	if err != nil {
		fmt.Fprintf(cfg.Stderr, "testhelper: %v\n", err)
	}
	os.Exit(exitCode(err))
}
