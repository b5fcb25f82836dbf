package client

import (
	"fmt"

	"github.com/cloo-solutions/studyrag/internal/cli"
	"github.com/spf13/cobra"
)

func TrainingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "training",
		Short: "Manage collected question/answer pairs",
	}
	cmd.AddCommand(trainingStatsCmd(), trainingExportCmd(), trainingListCmd(), trainingLoadCmd())
	return cmd
}

func trainingStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show collected pair statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			stats, err := api.TrainingStats()
			if err != nil {
				return fmt.Errorf("training stats failed: %w", err)
			}
			if outputJSON {
				return printJSON(stats)
			}
			fmt.Printf("Pairs:               %d\n", stats.TotalPairs)
			fmt.Printf("Avg context length:  %.1f\n", stats.AvgContextLength)
			fmt.Printf("Avg question length: %.1f\n", stats.AvgQuestionLength)
			fmt.Printf("Avg answer length:   %.1f\n", stats.AvgAnswerLength)
			return nil
		},
	}
}

func trainingExportCmd() *cobra.Command {
	var format, name string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export pairs to the object store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			export, err := api.TrainingExport(format, name)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			if outputJSON {
				return printJSON(export)
			}
			fmt.Printf("Exported %d pairs as %s to %s\n", export.Pairs, export.Format, export.Key)
			if export.DownloadURL != "" {
				fmt.Printf("Download: %s\n", export.DownloadURL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Export format")
	cmd.Flags().StringVar(&name, "name", "", "Object name (default: timestamped)")
	cli.SetFlagEnum(cmd, "format", "json", "chatml")
	return cmd
}

func trainingListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored exports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			exports, err := api.TrainingExports()
			if err != nil {
				return fmt.Errorf("listing exports failed: %w", err)
			}
			if outputJSON {
				return printJSON(exports)
			}
			if len(exports) == 0 {
				fmt.Println("No exports yet.")
				return nil
			}
			for _, e := range exports {
				fmt.Printf("%s  %8d bytes  %s\n", e.ModifiedAt.Local().Format("2006-01-02 15:04"), e.Size, e.Key)
			}
			return nil
		},
	}
}

func trainingLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <key>",
		Short: "Load pairs from a previous JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			result, err := api.TrainingLoad(args[0])
			if err != nil {
				return fmt.Errorf("load failed: %w", err)
			}
			if outputJSON {
				return printJSON(result)
			}
			fmt.Printf("Loaded %d pairs from %s\n", result.Loaded, result.Key)
			return nil
		},
	}
}
