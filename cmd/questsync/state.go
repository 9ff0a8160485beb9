package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or clear persisted reconciliation state",
		Long:  `Inspect or clear the processed-task sets the engine persists between cycles.`,
	}

	cmd.AddCommand(newStateShowCmd())
	cmd.AddCommand(newStateClearCmd())

	return cmd
}

func newStateShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List the processed origin and mirror task IDs",
		RunE:  runStateShow,
	}
}

func runStateShow(cmd *cobra.Command, args []string) error {
	st, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	state, err := st.Load(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("State backend: %s\n\n", cfg.StateBackend)

	if len(state.ProcessedOrigin) == 0 && len(state.ProcessedMirror) == 0 {
		fmt.Println("State is empty.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Side", "Task ID"})
	for _, id := range sortedIDs(state.ProcessedOrigin) {
		t.AppendRow(table.Row{"origin", id})
	}
	for _, id := range sortedIDs(state.ProcessedMirror) {
		t.AppendRow(table.Row{"mirror", id})
	}
	t.Render()

	fmt.Printf("\n%d origin, %d mirror\n",
		len(state.ProcessedOrigin), len(state.ProcessedMirror))

	return nil
}

func newStateClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all processed-task state",
		Long: `Delete the processed sets. The next cycle rebuilds links from mirror
tags as usual, but completions processed before the clear may be
credited a second time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStateClear(cmd, yes)
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	return cmd
}

func runStateClear(cmd *cobra.Command, yes bool) error {
	if !yes {
		fmt.Print("Clear all processed-task state? [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Clear(cmd.Context()); err != nil {
		return err
	}

	fmt.Println("State cleared.")
	return nil
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
