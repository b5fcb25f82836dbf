package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/studyrag/internal/cli"
	"github.com/cloo-solutions/studyrag/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "studyrag",
		Short: "StudyRAG CLI - question answering over your study material",
		Long: `StudyRAG CLI ingests study documents, answers questions about them
and generates practice exercises.

Environment variables:
  STUDYRAG_API_TOKEN   API token for the server
  STUDYRAG_API_URL     API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-token", "", "API token (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.IngestCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.ChatCmd())
	rootCmd.AddCommand(client.HistoryCmd())
	rootCmd.AddCommand(client.ExercisesCmd())
	rootCmd.AddCommand(client.SplitCmd())
	rootCmd.AddCommand(client.DocsCmd())
	rootCmd.AddCommand(client.StatsCmd())
	rootCmd.AddCommand(client.ClearCmd())
	rootCmd.AddCommand(client.TrainingCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
