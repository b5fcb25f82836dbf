package admin

import (
	"fmt"
	"os"
	"sort"

	"github.com/cloo-solutions/studyrag/internal/config"
	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/spf13/cobra"
)

func TablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Inspect chunking strategies and answer prompts",
		Long:  "Dump the effective per-intent tables or validate an override file",
	}

	cmd.AddCommand(TablesDumpCmd())
	cmd.AddCommand(TablesCheckCmd())

	return cmd
}

func TablesDumpCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "dump <path>",
		Short: "Write the effective tables as YAML",
		Long:  "Write the default tables, with any overrides from --from applied, to a YAML file that can be edited and passed back via STUDYRAG_TABLES_FILE.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := config.LoadTables(from)
			if err != nil {
				return err
			}
			strategies, prompts, err := tables.Build()
			if err != nil {
				return err
			}

			out := &config.Tables{Strategies: strategies.Entries(), Prompts: prompts.Entries()}
			if err := config.SaveTables(args[0], out); err != nil {
				return fmt.Errorf("failed to write tables: %w", err)
			}
			fmt.Printf("Tables written to %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Existing overrides file to merge into the defaults")

	return cmd
}

func TablesCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <path>",
		Short: "Validate a tables override file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return err
			}
			tables, err := config.LoadTables(args[0])
			if err != nil {
				return err
			}
			strategies, _, err := tables.Build()
			if err != nil {
				return fmt.Errorf("invalid tables: %w", err)
			}

			intents := make([]domain.Intent, 0, len(tables.Strategies))
			for intent := range tables.Strategies {
				intents = append(intents, intent)
			}
			sort.Slice(intents, func(i, j int) bool { return intents[i] < intents[j] })

			fmt.Printf("%s is valid (%d strategy and %d prompt overrides)\n", args[0], len(tables.Strategies), len(tables.Prompts))
			for _, intent := range intents {
				p := strategies.Policy(intent)
				fmt.Printf("  %-12s target=%d overlap=%d granularity=%s\n", intent, p.TargetSize, p.Overlap, p.Granularity)
			}
			return nil
		},
	}
}
