package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"questsync/internal/engine"
)

func newRunCmd() *cobra.Command {
	var showEvents bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single reconciliation cycle",
		Long: `Run one reconciliation cycle and print its summary.

The command exits non-zero when the cycle is degraded: a snapshot
failed, an action failed, or state could not be saved. Failed actions
are retried on the next run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, showEvents)
		},
	}

	cmd.Flags().BoolVar(&showEvents, "events", false, "List every action the cycle took")

	return cmd
}

func runOnce(cmd *cobra.Command, showEvents bool) error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	outcome, err := svc.runner.RunCycle(cmd.Context())
	if err != nil {
		return err
	}

	printOutcome(outcome, showEvents)

	if !outcome.Success {
		return fmt.Errorf("cycle %s finished degraded", outcome.CycleID)
	}

	return nil
}

func printOutcome(outcome *engine.Outcome, showEvents bool) {
	status := "success"
	if !outcome.Success {
		status = "degraded"
	}

	fmt.Printf("Cycle %s: %s in %s\n\n", outcome.CycleID, status,
		outcome.Duration.Round(time.Millisecond))

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Counter", "Value"})
	t.AppendRow(table.Row{"origin tasks due", outcome.OriginTasks})
	t.AppendRow(table.Row{"mirror todos", outcome.MirrorTasks})
	t.AppendRow(table.Row{"created", outcome.Created})
	t.AppendRow(table.Row{"completed", outcome.Completed})
	t.AppendRow(table.Row{"closed", outcome.Closed})
	t.AppendRow(table.Row{"deleted", outcome.Deleted})
	t.AppendRow(table.Row{"failed", outcome.Failed})
	t.AppendRow(table.Row{"skipped", outcome.Skipped})
	t.Render()

	if showEvents && len(outcome.Events) > 0 {
		fmt.Println()
		et := table.NewWriter()
		et.SetOutputMirror(os.Stdout)
		et.AppendHeader(table.Row{"Action", "Origin", "Mirror", "Text", "Error"})
		for _, ev := range outcome.Events {
			et.AppendRow(table.Row{ev.Action, ev.OriginID, ev.MirrorID, ev.Text, ev.Error})
		}
		et.Render()
	}
}
