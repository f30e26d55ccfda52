package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/bookgrep/bookgrep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, cmd.ErrNoMatches) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
}
