package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"questsync/internal/task"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show both systems and their links without changing anything",
		Long: `Snapshot both systems and show each due-today origin task with the
mirror it is linked to. Nothing is mutated; this is the read-only view
of what the next cycle would work with.`,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()

	originTasks, err := svc.origin.FetchDueToday(ctx)
	if err != nil {
		return fmt.Errorf("origin snapshot failed: %w", err)
	}

	mirrorTasks, err := svc.mirror.FetchTodos(ctx)
	if err != nil {
		return fmt.Errorf("mirror snapshot failed: %w", err)
	}

	state, err := svc.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("state load failed: %w", err)
	}

	// Index mirrors by their embedded origin tag.
	mirrored := make(map[string]task.MirrorTask)
	for _, m := range mirrorTasks {
		if !m.IsTodo() {
			continue
		}
		if tid, ok := m.OriginID(); ok {
			mirrored[tid] = m
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Origin ID", "Content", "Mirror", "State"})
	for _, ot := range originTasks {
		mirrorCol := "-"
		stateCol := "pending"
		if m, ok := mirrored[ot.ID]; ok {
			mirrorCol = m.ID
			stateCol = "linked"
			if m.Completed {
				stateCol = "mirror completed"
			}
		}
		if state.OriginProcessed(ot.ID) {
			stateCol = "processed"
		}
		t.AppendRow(table.Row{ot.ID, truncate(ot.Content, 40), mirrorCol, stateCol})
	}
	t.Render()

	due := make(map[string]struct{}, len(originTasks))
	for _, ot := range originTasks {
		due[ot.ID] = struct{}{}
	}
	orphans := 0
	for tid := range mirrored {
		if _, ok := due[tid]; !ok {
			orphans++
		}
	}

	fmt.Println()
	fmt.Printf("%d origin tasks due today, %d mirror todos (%d tagged, %d without a due origin task)\n",
		len(originTasks), len(mirrorTasks), len(mirrored), orphans)
	fmt.Printf("processed: %d origin, %d mirror\n",
		len(state.ProcessedOrigin), len(state.ProcessedMirror))

	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
