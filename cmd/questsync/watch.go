package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"questsync/internal/config"
	"questsync/internal/tui"
)

func newWatchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Launch the live dashboard",
		Long: `Launch a full-screen dashboard that runs reconciliation cycles on an
interval and shows each cycle's counters and actions.

Press r to trigger a cycle immediately, q to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Cycle interval (defaults to the configured value)")

	return cmd
}

func runWatch(interval time.Duration) error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	if interval <= 0 {
		interval = svc.cfg.Interval.Std()
	}
	if interval <= 0 {
		interval = config.DefaultInterval
	}

	model := tui.NewModel(svc.runner, interval, Version)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running dashboard: %w", err)
	}

	return nil
}
