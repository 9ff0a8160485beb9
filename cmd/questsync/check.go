package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"questsync/internal/task"
)

func newCheckCmd() *cobra.Command {
	var uncomplete, unlink bool

	cmd := &cobra.Command{
		Use:   "check <mirror-task-id>",
		Short: "Inspect a mirror task and optionally repair it",
		Long: `Inspect a single mirror task: its embedded origin tag, completion
state, and whether either side is already recorded as processed.

Repair flags:
  --uncomplete  reopen the task (score it down)
  --unlink      detach the task from its challenge`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], uncomplete, unlink)
		},
	}

	cmd.Flags().BoolVar(&uncomplete, "uncomplete", false, "Reopen the task")
	cmd.Flags().BoolVar(&unlink, "unlink", false, "Detach the task from its challenge")
	cmd.MarkFlagsMutuallyExclusive("uncomplete", "unlink")

	return cmd
}

func runCheck(cmd *cobra.Command, id string, uncomplete, unlink bool) error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()

	m, err := svc.mirror.Get(ctx, id)
	if err != nil {
		return err
	}

	state, err := svc.store.Load(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Mirror task %s\n", m.ID)
	fmt.Printf("  text:             %s\n", m.Text)
	fmt.Printf("  type:             %s\n", m.Type)
	fmt.Printf("  completed:        %t\n", m.Completed)

	tid, ok := task.ParseTag(m.Notes)
	switch {
	case ok:
		fmt.Printf("  origin tag:       %s\n", tid)
		fmt.Printf("  origin processed: %t\n", state.OriginProcessed(tid))
	case task.HasTagPrefix(m.Notes):
		fmt.Println("  origin tag:       malformed (prefix present, no closing bracket)")
	default:
		fmt.Println("  origin tag:       none")
	}
	fmt.Printf("  mirror processed: %t\n", state.MirrorProcessed(m.ID))

	switch {
	case uncomplete:
		if err := svc.mirror.Uncomplete(ctx, id); err != nil {
			return fmt.Errorf("uncomplete failed: %w", err)
		}
		fmt.Println("\nReopened.")
	case unlink:
		if err := svc.mirror.Unlink(ctx, id); err != nil {
			return fmt.Errorf("unlink failed: %w", err)
		}
		fmt.Println("\nDetached from challenge.")
	}

	return nil
}
