package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// Interrupted runs already reported what they were doing.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "stemset:", err)
		}
		os.Exit(1)
	}
}
