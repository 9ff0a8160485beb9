package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"questsync/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Manage questsync configuration files.`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  `Display the current configuration values from all sources.`,
		RunE:  runConfigShow,
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create example configuration file",
		Long: `Create an example configuration file at ~/.config/questsync/config.yaml.

The generated file contains all available options with their default values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config file")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Long:  `Display the paths where configuration files are searched.`,
		RunE:  runConfigPath,
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Get()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("Current configuration:")
	fmt.Println()
	fmt.Printf("  origin_url:    %s\n", cfg.OriginURL)
	fmt.Printf("  origin_token:  %s\n", maskSecret(cfg.OriginToken))
	fmt.Printf("  mirror_url:    %s\n", cfg.MirrorURL)
	fmt.Printf("  mirror_user:   %s\n", maskSecret(cfg.MirrorUser))
	fmt.Printf("  mirror_token:  %s\n", maskSecret(cfg.MirrorToken))
	fmt.Printf("  timezone:      %s\n", cfg.Timezone)
	fmt.Printf("  state_backend: %s\n", cfg.StateBackend)
	fmt.Printf("  state_path:    %s\n", valueOrDefault(cfg.StatePath, config.DefaultStatePath()))
	fmt.Printf("  redis_url:     %s\n", cfg.RedisURL)
	fmt.Printf("  interval:      %s\n", cfg.Interval.Std())
	fmt.Printf("  http_addr:     %s\n", valueOrDefault(cfg.HTTPAddr, "(disabled)"))
	fmt.Printf("  notify:        %t\n", cfg.Notify)
	fmt.Println()
	fmt.Println("  Logging:")
	fmt.Printf("    level:   %s\n", valueOrDefault(cfg.Logging.Level, "info"))
	fmt.Printf("    file:    %s\n", valueOrDefault(cfg.Logging.FilePath, "(none)"))
	fmt.Printf("    json:    %t\n", cfg.Logging.JSON)
	fmt.Printf("    console: %t\n", cfg.Logging.Console)

	return nil
}

func runConfigInit(force bool) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".config", "questsync", "config.yaml")

	// Check if file exists
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	if err := config.WriteExample(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created config file at: %s\n", configPath)
	fmt.Println()
	fmt.Println("Edit this file to add your API credentials.")
	fmt.Println("Run 'questsync config show' to see current values.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	fmt.Println("Configuration file search paths (in priority order):")
	fmt.Println()

	paths := config.ConfigPaths()
	for i, p := range paths {
		exists := "not found"
		if _, err := os.Stat(p); err == nil {
			exists = "found"
		}
		fmt.Printf("  %d. %s (%s)\n", i+1, p, exists)
	}

	fmt.Println()
	fmt.Println("Environment variables can override file settings.")
	fmt.Println("Supported env vars:")
	fmt.Println("  QUESTSYNC_ORIGIN_URL")
	fmt.Println("  QUESTSYNC_ORIGIN_TOKEN")
	fmt.Println("  QUESTSYNC_MIRROR_URL")
	fmt.Println("  QUESTSYNC_MIRROR_USER")
	fmt.Println("  QUESTSYNC_MIRROR_TOKEN")
	fmt.Println("  QUESTSYNC_TIMEZONE")
	fmt.Println("  QUESTSYNC_STATE_BACKEND")
	fmt.Println("  QUESTSYNC_STATE_PATH")
	fmt.Println("  QUESTSYNC_REDIS_URL (or REDIS_URL)")
	fmt.Println("  QUESTSYNC_INTERVAL")
	fmt.Println("  QUESTSYNC_HTTP_ADDR")
	fmt.Println("  QUESTSYNC_NOTIFY")
	fmt.Println("  QUESTSYNC_LOG_LEVEL")
	fmt.Println("  QUESTSYNC_LOG_FILE")

	return nil
}

func valueOrDefault(val, def string) string {
	if val == "" {
		return def
	}
	return val
}

func maskSecret(val string) string {
	if val == "" {
		return "(not set)"
	}
	if len(val) <= 8 {
		return "***"
	}
	return val[:4] + "..." + val[len(val)-4:]
}
