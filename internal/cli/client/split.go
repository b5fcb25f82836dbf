package client

import (
	"fmt"

	"github.com/cloo-solutions/studyrag/internal/cli"
	"github.com/spf13/cobra"
)

// SplitCmd previews how a document would be chunked for an intent.
func SplitCmd() *cobra.Command {
	var (
		intent string
		info   bool
	)

	cmd := &cobra.Command{
		Use:   "split <file>",
		Short: "Preview chunking of a document",
		Long:  "Extracts the text of a local document and shows the chunks the server would index for the given intent. Nothing is stored.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			text, err := readLocalText(args[0])
			if err != nil {
				return err
			}
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			if info {
				return runSplitInfo(api, text, resolveIntent(intent), outputJSON)
			}
			return runSplit(api, text, resolveIntent(intent), outputJSON)
		},
	}

	cmd.Flags().StringVarP(&intent, "intent", "i", "", "Intent to chunk for")
	cmd.Flags().BoolVar(&info, "info", false, "Show the text features and strategy adjustment")
	cli.SetFlagEnum(cmd, "intent", intentNames()...)

	return cmd
}

func runSplit(api *APIClient, text, intent string, outputJSON bool) error {
	result, err := api.Chunk(text, intent)
	if err != nil {
		return fmt.Errorf("split failed: %w", err)
	}
	if outputJSON {
		return printJSON(result)
	}

	fmt.Printf("%d chunks for intent %s\n\n", len(result.Chunks), result.Intent)
	for _, c := range result.Chunks {
		fmt.Printf("#%d [%d-%d] %s\n", c.Index, c.Start, c.End, oneLine(c.Content, 100))
	}
	return nil
}

func runSplitInfo(api *APIClient, text, intent string, outputJSON bool) error {
	info, err := api.SplitInfo(text, intent)
	if err != nil {
		return fmt.Errorf("split failed: %w", err)
	}
	if outputJSON {
		return printJSON(info)
	}

	f := info.TextFeatures
	orig, adj := info.OriginalStrategy, info.AdjustedStrategy
	fmt.Printf("Intent: %s\n", info.Intent)
	fmt.Printf("Sentences: mean %.1f, max %d\n", f.Sentences.Mean, f.Sentences.Max)
	fmt.Printf("Paragraphs: mean %.1f, max %d\n", f.Paragraphs.Mean, f.Paragraphs.Max)
	fmt.Printf("Technical density: %.3f (%d terms)\n", f.TechnicalDensity, f.TechnicalTerms)
	if f.HasCode {
		fmt.Printf("Code: %d blocks, ratio %.2f\n", f.CodeBlocks, f.CodeRatio)
	}
	fmt.Printf("Strategy: size %d -> %d, overlap %d -> %d, %s -> %s\n",
		orig.TargetSize, adj.TargetSize, orig.Overlap, adj.Overlap, orig.Granularity, adj.Granularity)
	fmt.Printf("Chunks: %d (avg %.1f chars)\n", info.ChunksCount, info.AvgChunkSize)
	return nil
}
