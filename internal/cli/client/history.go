package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

func HistoryCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear conversation history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			id, err := sessionOrLast(sessionID)
			if err != nil {
				return err
			}
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			session, err := api.Session(id)
			if err != nil {
				return fmt.Errorf("history failed: %w", err)
			}
			if outputJSON {
				return printJSON(session)
			}
			if len(session.History) == 0 {
				fmt.Println("No history.")
				return nil
			}
			for _, msg := range session.History {
				fmt.Printf("[%s] %s\n\n", msg.Role, msg.Content)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&sessionID, "session", "s", "", "Session id (default: last session)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the conversation history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			id, err := sessionOrLast(sessionID)
			if err != nil {
				return err
			}
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			if err := api.ClearSession(id); err != nil {
				return fmt.Errorf("clear history failed: %w", err)
			}
			if sessionID == "" {
				forgetLastSession()
			}
			if outputJSON {
				return printJSON(map[string]interface{}{"success": true, "session_id": id})
			}
			fmt.Println("History cleared.")
			return nil
		},
	}
	cmd.AddCommand(clearCmd)

	return cmd
}

func sessionOrLast(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	if last := LoadLastSession(); last != "" {
		return last, nil
	}
	return "", fmt.Errorf("no session: ask a question first or pass --session")
}
