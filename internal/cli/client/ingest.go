package client

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cloo-solutions/studyrag/internal/cli"
	"github.com/spf13/cobra"
)

// IngestCmd uploads local files, or with --server asks the server to
// read the paths from its own filesystem.
func IngestCmd() *cobra.Command {
	var (
		intent string
		server bool
	)

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Add documents to the knowledge base",
		Long: `Uploads txt, md, pdf, html and docx files and indexes them.

With --server the paths are queued for the server's ingest worker instead
of being uploaded; they must be readable by the server process.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			if server {
				return runEnqueue(api, args, resolveIntent(intent), outputJSON)
			}
			return runIngest(api, args, resolveIntent(intent), outputJSON)
		},
	}

	cmd.Flags().StringVarP(&intent, "intent", "i", "", "Intent the documents are prepared for")
	cmd.Flags().BoolVar(&server, "server", false, "Queue server-side paths instead of uploading")
	cli.SetFlagEnum(cmd, "intent", intentNames()...)

	cmd.AddCommand(jobsCmd())
	return cmd
}

func runIngest(api *APIClient, paths []string, intent string, outputJSON bool) error {
	var failed []string
	results := make([]interface{}, 0, len(paths))

	for _, path := range paths {
		out, err := api.AddDocument(path, intent)
		if err != nil {
			failed = append(failed, path)
			if outputJSON {
				results = append(results, map[string]string{"path": path, "error": err.Error()})
			} else {
				fmt.Printf("✗ %s: %v\n", filepath.Base(path), err)
			}
			continue
		}
		if outputJSON {
			results = append(results, out)
			continue
		}
		name := filepath.Base(path)
		if out.Document != nil {
			name = out.Document.Name
		}
		fmt.Printf("✓ %s: %d chunks\n", name, out.ChunksCreated)
	}

	if outputJSON {
		if err := printJSON(results); err != nil {
			return err
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed: %s", len(failed), len(paths), strings.Join(failed, ", "))
	}
	return nil
}

func runEnqueue(api *APIClient, paths []string, intent string, outputJSON bool) error {
	results := make([]interface{}, 0, len(paths))
	for _, path := range paths {
		job, err := api.EnqueueJob(path, intent)
		if err != nil {
			return fmt.Errorf("enqueue %s: %w", path, err)
		}
		if outputJSON {
			results = append(results, job)
			continue
		}
		fmt.Printf("Queued %s as job %s\n", job.Path, job.ID)
	}
	if outputJSON {
		return printJSON(results)
	}
	return nil
}

func jobsCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List server-side ingest jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			page, err := api.Jobs(cursor, limit)
			if err != nil {
				return fmt.Errorf("list jobs failed: %w", err)
			}
			if outputJSON {
				return printJSON(page)
			}

			if len(page.Items) == 0 {
				fmt.Println("No jobs found.")
				return nil
			}
			for _, job := range page.Items {
				fmt.Printf("%s  %-10s  %s", job.ID, job.Status, job.Path)
				if job.Error != "" {
					fmt.Printf("  (%s)", job.Error)
				}
				fmt.Println()
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
