package main

import (
	"context"
	"os"

	"myfiance/internal/cli"
	"myfiance/internal/commands"
	"myfiance/internal/config"
	"myfiance/internal/log"
)

func main() {
	cli.LoadEnvFile()

	// Diagnostics go to stderr so that command output stays clean.
	logCfg := log.DefaultConfig()
	logCfg.Level = log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if os.Getenv("LOG_LEVEL") == "" {
		logCfg.Level = log.ParseLevel("warn")
	}
	logCfg.Output = os.Stderr
	logCfg.Component = log.ComponentCLI
	logger := log.New(logCfg)

	rootCmd := commands.NewRootCommand(config.Load(), logger)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
