package client

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloo-solutions/studyrag/internal/cli"
	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/spf13/cobra"
)

const sessionFile = "session"

func AskCmd() *cobra.Command {
	var (
		intent     string
		sessionID  string
		newSession bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the ingested material",
		Long: `Answers a question from the indexed documents.

Follow-up questions reuse the last session unless --new or --session is
given, so the server keeps the conversation history.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			if sessionID == "" && !newSession {
				sessionID = LoadLastSession()
			}
			return runAsk(api, strings.Join(args, " "), resolveIntent(intent), sessionID, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&intent, "intent", "i", "", "Question intent")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Continue a specific session")
	cmd.Flags().BoolVar(&newSession, "new", false, "Start a new session")
	cli.SetFlagEnum(cmd, "intent", intentNames()...)

	return cmd
}

func runAsk(api *APIClient, question, intent, sessionID string, outputJSON bool) error {
	result, err := api.Ask(question, intent, sessionID)

	// A remembered session may have expired on the server.
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound && sessionID != "" {
		result, err = api.Ask(question, intent, "")
	}
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	_ = SaveLastSession(result.SessionID)

	if outputJSON {
		return printJSON(result)
	}
	printAnswer(&result.Answer)
	if result.Status == domain.AnswerStatusError {
		return fmt.Errorf("%s", result.Message)
	}
	return nil
}

func printAnswer(answer *domain.Answer) {
	if answer.Status == domain.AnswerStatusError {
		fmt.Printf("Error: %s\n", answer.Message)
		return
	}
	fmt.Println(answer.Text)
	if len(answer.Sources) == 0 {
		return
	}
	fmt.Printf("\nSources:\n")
	for i, src := range answer.Sources {
		label := src.Metadata["source"]
		if label == "" {
			label = src.Metadata["document_id"]
		}
		if src.Score != nil {
			fmt.Printf("  %d. %s (%.2f)\n", i+1, label, *src.Score)
		} else {
			fmt.Printf("  %d. %s\n", i+1, label)
		}
	}
}

// LoadLastSession returns the session id saved by the previous ask, or
// an empty string.
func LoadLastSession() string {
	dir, err := GetConfigDir()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(dir, sessionFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func SaveLastSession(id string) error {
	dir, err := GetConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, sessionFile), []byte(id+"\n"), 0600)
}

func forgetLastSession() {
	dir, err := GetConfigDir()
	if err != nil {
		return
	}
	_ = os.Remove(filepath.Join(dir, sessionFile))
}
