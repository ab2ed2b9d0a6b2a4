package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/knowledgemap-backend/internal/app"
	"github.com/yungbote/knowledgemap-backend/internal/domain/jobs"
	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring"
)

var generateCmd = &cobra.Command{
	Use:   "generate <keyword>",
	Short: "Generate a course outline and optionally build it to completion",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().String("difficulty", "", "target difficulty")
	generateCmd.Flags().String("style", "", "writing style")
	generateCmd.Flags().String("requirements", "", "extra requirements for the outline")
	generateCmd.Flags().Bool("build", false, "run the build task in-process until it finishes")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	difficulty, _ := cmd.Flags().GetString("difficulty")
	style, _ := cmd.Flags().GetString("style")
	requirements, _ := cmd.Flags().GetString("requirements")
	c, err := a.Services.Courses.Generate(ctx, authoring.CourseRequest{
		Keyword:      args[0],
		Difficulty:   difficulty,
		Style:        style,
		Requirements: requirements,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "course %s: %s (%d nodes)\n", c.CourseID, c.CourseName, len(c.Nodes))

	build, _ := cmd.Flags().GetBool("build")
	if !build {
		return nil
	}
	task, _, err := a.Services.Tasks.AutoGenerate(ctx, c.CourseID)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return err
	}
	final, err := waitForTask(ctx, a, task.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "task %s %s: %s\n", final.ID, final.Status, final.Message)
	if final.Status == jobs.StatusFailed {
		return fmt.Errorf("build failed: %s", final.Error)
	}
	return nil
}

func waitForTask(ctx context.Context, a *app.App, taskID string) (*jobs.CourseTask, error) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	lastProgress := -1
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
		t, err := a.Services.Tasks.Get(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if t.Progress != lastProgress {
			lastProgress = t.Progress
			a.Log.Info("Build progress", "task_id", t.ID, "progress", t.Progress, "message", t.Message)
		}
		if t.Terminal() {
			return t, nil
		}
	}
}
