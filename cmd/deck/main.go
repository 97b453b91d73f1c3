// Package main is the entry point for the deck CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/runoshun/agentdeck/internal/app"
	"github.com/runoshun/agentdeck/internal/cli"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	home, err := app.ResolveHome()
	if err != nil {
		return err
	}

	// Create dependency injection container
	container, err := app.New(context.Background(), home)
	if err != nil {
		// Allow help and version to work with a broken home or config
		if canRunWithoutContainer(os.Args[1:]) {
			return cli.NewRootCommand(nil, version).Execute()
		}
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() { _ = container.Close() }()

	// Create and execute root command
	rootCmd := cli.NewRootCommand(container, version)
	return rootCmd.Execute()
}

func canRunWithoutContainer(args []string) bool {
	if len(args) > 0 && args[0] == "help" {
		return true
	}
	for _, arg := range args {
		if arg == "--version" || arg == "-v" || arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}
