// Package main provides the gohire command: the bulk operation API server and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

var version = "dev"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
