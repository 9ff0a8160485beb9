// Package main is the entry point for the questsync CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"questsync/internal/config"
	"questsync/internal/logging"
)

// Version, Commit, and Date are set at build time.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

func main() {
	// Initialize logging from config
	initLogging()

	rootCmd := &cobra.Command{
		Use:   "questsync",
		Short: "Reconcile origin tasks with their gamified mirrors",
		Long: `Questsync keeps two task systems aligned. The origin system holds the
authoritative list of tasks due today; the mirror system reflects each
of them as a gamified todo.

Every reconciliation cycle mirrors new due-today tasks, propagates
completions in both directions, and removes mirrors of tasks that are
no longer due.`,
	}

	// Add subcommands
	rootCmd.AddCommand(
		newRunCmd(),
		newDaemonCmd(),
		newWatchCmd(),
		newStatusCmd(),
		newCheckCmd(),
		newStateCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initLogging initializes the logger from config.
func initLogging() {
	cfg, err := config.Get()
	if err != nil {
		// If config fails, use defaults (console output)
		_ = logging.Init(nil)
		return
	}

	lc := logging.LoggingConfig{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		JSON:       cfg.Logging.JSON,
		Console:    cfg.Logging.Console,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	}

	if err := logging.InitFromLogConfig(lc); err != nil {
		// Fall back to defaults on error
		_ = logging.Init(nil)
	}
}
