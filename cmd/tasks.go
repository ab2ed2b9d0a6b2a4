package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect and manage generation tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, active ones first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		var list any
		if courseID, _ := cmd.Flags().GetString("course"); courseID != "" {
			list, err = a.Services.Tasks.ListByCourse(cmd.Context(), courseID)
		} else {
			list, err = a.Services.Tasks.List(cmd.Context(), limit)
		}
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	},
}

var tasksPauseCmd = &cobra.Command{
	Use:   "pause <task-id>",
	Short: "Pause a pending or running task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		t, err := a.Services.Tasks.Pause(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "task %s %s\n", t.ID, t.Status)
		return nil
	},
}

var tasksResumeCmd = &cobra.Command{
	Use:   "resume <task-id>",
	Short: "Resume a paused task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		t, err := a.Services.Tasks.Resume(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "task %s %s\n", t.ID, t.Status)
		return nil
	},
}

var tasksClearFailedCmd = &cobra.Command{
	Use:   "clear-failed",
	Short: "Delete every failed task",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		n, err := a.Services.Tasks.ClearFailed(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleared %d failed tasks\n", n)
		return nil
	},
}

func init() {
	tasksListCmd.Flags().Int("limit", 100, "maximum number of tasks")
	tasksListCmd.Flags().String("course", "", "only tasks of this course")
	tasksCmd.AddCommand(tasksListCmd, tasksPauseCmd, tasksResumeCmd, tasksClearFailedCmd)
}
