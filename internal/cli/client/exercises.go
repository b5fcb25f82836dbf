package client

import (
	"fmt"
	"os"
	"strings"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/loader"
	"github.com/spf13/cobra"
)

func ExercisesCmd() *cobra.Command {
	var (
		content string
		file    string
		docIDs  []string
	)

	cmd := &cobra.Command{
		Use:   "exercises",
		Short: "Generate practice exercises",
		Long: `Generates practice exercises from study material.

The material comes from --content, a local --file, or the stored text of
ingested documents (--doc, or every document when nothing is given).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			if file != "" {
				text, err := readLocalText(file)
				if err != nil {
					return err
				}
				content = text
			}
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runExercises(api, content, docIDs, outputJSON)
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "Study material text")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read study material from a local document")
	cmd.Flags().StringSliceVar(&docIDs, "doc", nil, "Use the stored text of these document ids")
	cmd.MarkFlagsMutuallyExclusive("content", "file", "doc")

	return cmd
}

func runExercises(api *APIClient, content string, docIDs []string, outputJSON bool) error {
	result, err := api.Exercises(content, docIDs)
	if err != nil {
		return fmt.Errorf("exercise generation failed: %w", err)
	}
	if outputJSON {
		return printJSON(result)
	}

	fmt.Printf("Material: %s\n\n", oneLine(result.Preview, 120))
	for i, ex := range result.Exercises {
		printExercise(i+1, ex)
	}
	return nil
}

func printExercise(n int, ex domain.Exercise) {
	fmt.Printf("%d. [%s] %s\n", n, ex.Type, ex.Question)
	for i, opt := range ex.Options {
		fmt.Printf("   %c) %s\n", 'A'+rune(i), opt)
	}
	fmt.Printf("   Answer: %s\n", ex.Answer)
	fmt.Printf("   Explanation: %s\n\n", ex.Explanation)
}

// readLocalText extracts the text of a local document with the same
// loader the server uses.
func readLocalText(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	records, err := loader.New().Load(path)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(records))
	for _, rec := range records {
		parts = append(parts, rec.Text)
	}
	return strings.Join(parts, "\n\n"), nil
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return s
}
