// Package main is the entry point for the cfctl operator tool.
package main

import (
	"context"
	"fmt"
	"os"

	"customfields/internal/cli"
)

func main() {
	if err := cli.RootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
