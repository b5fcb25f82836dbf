package client

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func DocsCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:     "docs",
		Aliases: []string{"documents"},
		Short:   "List ingested documents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			page, err := api.Documents(cursor, limit)
			if err != nil {
				return fmt.Errorf("list failed: %w", err)
			}
			if outputJSON {
				return printJSON(page)
			}

			if len(page.Items) == 0 {
				fmt.Println("No documents found.")
				return nil
			}
			fmt.Printf("Found %d documents:\n\n", len(page.Items))
			for i, doc := range page.Items {
				fmt.Printf("%d. %s [%s, %s]\n", i+1, doc.Name, doc.Format, doc.Intent)
				fmt.Printf("   Chunks: %d, Characters: %d\n", doc.ChunkCount, doc.CharCount)
				fmt.Printf("   ID: %s\n", doc.ID)
			}
			if page.HasMore && page.Cursor != "" {
				fmt.Printf("\nMore results available. Use --cursor %s\n", page.Cursor)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")
	return cmd
}

func StatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge base statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			stats, err := api.Stats()
			if err != nil {
				return fmt.Errorf("stats failed: %w", err)
			}
			if outputJSON {
				return printJSON(stats)
			}
			fmt.Printf("Status:    %s\n", stats.Status)
			fmt.Printf("Documents: %d\n", stats.Documents)
			fmt.Printf("Vectors:   %d\n", stats.Vectors)
			return nil
		},
	}
}

func ClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every document and vector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			if !yes {
				if outputJSON {
					return fmt.Errorf("refusing to clear without --yes")
				}
				fmt.Print("Delete the whole knowledge base? [y/N]: ")
				answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Println("Aborted.")
					return nil
				}
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			if err := api.ClearIndex(); err != nil {
				return fmt.Errorf("clear failed: %w", err)
			}
			if outputJSON {
				return printJSON(map[string]bool{"success": true})
			}
			fmt.Println("Knowledge base cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
