package main

import (
	"os"

	"ai-ghostwriter-be/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
