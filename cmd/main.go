package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/knowledgemap-backend/internal/app"
)

var rootCmd = &cobra.Command{
	Use:   "knowledgemap",
	Short: "Course authoring backend",
	Long: `knowledgemap serves the course authoring API and runs the background
task worker that expands course outlines and writes section content.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "optional YAML config file; environment variables take precedence")
	rootCmd.AddCommand(serveCmd, generateCmd, tasksCmd)
}

// newApp loads configuration and wires the application.
func newApp(cmd *cobra.Command) (*app.App, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := app.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
