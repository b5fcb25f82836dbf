package client

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/cloo-solutions/studyrag/internal/cli"
	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/spf13/cobra"
)

func InitCmd() *cobra.Command {
	var (
		apiToken string
		apiURL   string
		intent   string
		skipPing bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Save connection settings",
		Long:  "Writes the server URL, token and default intent to the user config and checks the server is reachable.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runInit(apiToken, apiURL, intent, skipPing, outputJSON)
		},
	}

	cmd.Flags().StringVar(&apiToken, "token", "", "API token for the server")
	cmd.Flags().StringVar(&apiURL, "url", "", "Server base URL (default: http://localhost:8080)")
	cmd.Flags().StringVar(&intent, "intent", "", "Default question intent")
	cmd.Flags().BoolVar(&skipPing, "skip-check", false, "Do not contact the server")
	cli.SetFlagEnum(cmd, "intent", intentNames()...)

	return cmd
}

func runInit(apiToken, apiURL, intent string, skipPing, outputJSON bool) error {
	if apiURL == "" {
		apiURL = os.Getenv(envAPIURL)
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	if apiToken == "" {
		apiToken = os.Getenv(envAPIToken)
	}
	if apiToken == "" && !outputJSON {
		fmt.Print("Enter API token (blank for none): ")
		reader := bufio.NewReader(os.Stdin)
		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			return fmt.Errorf("failed to read API token: %w", err)
		}
		apiToken = strings.TrimSpace(input)
	}
	if intent != "" {
		if _, err := domain.ParseIntent(strings.ToLower(intent)); err != nil {
			return err
		}
		intent = strings.ToLower(intent)
	}

	if !skipPing {
		if err := NewAPIClientWithConfig(apiToken, apiURL).Health(); err != nil {
			return fmt.Errorf("server check failed: %w", err)
		}
	}

	config := &GlobalConfig{APIToken: apiToken, APIURL: apiURL, Intent: intent}
	if err := SaveGlobalConfig(config); err != nil {
		return err
	}
	configPath, _ := GetConfigPath()

	if outputJSON {
		return printJSON(map[string]interface{}{
			"success":        true,
			"api_url":        apiURL,
			"default_intent": intent,
			"config":         configPath,
		})
	}
	fmt.Printf("Connected to %s\n", apiURL)
	fmt.Printf("Config saved to %s\n", configPath)
	return nil
}

func intentNames() []string {
	intents := domain.AllIntents()
	names := make([]string, len(intents))
	for i, intent := range intents {
		names[i] = string(intent)
	}
	return names
}

// resolveIntent prefers the flag, then the configured default. An empty
// result lets the server apply its own default.
func resolveIntent(flag string) string {
	if flag != "" {
		return strings.ToLower(flag)
	}
	return DefaultIntent()
}
