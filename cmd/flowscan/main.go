package main

import (
	"os"

	"github.com/wonny/flowscan/cmd/flowscan/commands"
)

// main is the entry point for the flowscan CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/flowscan [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
