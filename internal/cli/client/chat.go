package client

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cloo-solutions/studyrag/internal/cli"
	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/tui"
)

// chatPort adapts APIClient to the chat screen.
type chatPort struct {
	api *APIClient
}

func (p chatPort) Ask(question, intent, sessionID string) (string, *domain.Answer, error) {
	result, err := p.api.Ask(question, intent, sessionID)
	if err != nil {
		return sessionID, nil, err
	}
	return result.SessionID, &result.Answer, nil
}

func (p chatPort) ClearSession(sessionID string) error {
	return p.api.ClearSession(sessionID)
}

func ChatCmd() *cobra.Command {
	var (
		intent    string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive question answering",
		Long:  "Opens a terminal chat over the knowledge base. Type /help inside for commands.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			if err := api.Health(); err != nil {
				return fmt.Errorf("server unreachable: %w", err)
			}

			model := tui.New(chatPort{api: api}, domain.Intent(resolveIntent(intent)), sessionID)
			final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
			if err != nil {
				return err
			}
			if m, ok := final.(tui.Model); ok && m.SessionID() != "" {
				_ = SaveLastSession(m.SessionID())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&intent, "intent", "i", "", "Initial question intent")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Continue a session")
	cli.SetFlagEnum(cmd, "intent", intentNames()...)

	return cmd
}
